package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/home-ca/pkg/app"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the software version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Name:\t\t%s\n", app.Name)
		cmd.Printf("Version:\t%s\n", app.Version)
		cmd.Printf("Git Hash:\t%s\n", app.GitHash)
		cmd.Printf("Build Date:\t%s\n", app.BuildDate)
		cmd.Printf("Repository:\t%s\n", app.Repository)
	},
}
