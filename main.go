package main

import "github.com/jeremyhahn/home-ca/pkg/cmd"

func main() {
	cmd.Execute()
}
