package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/home-ca/pkg/app"
	"github.com/jeremyhahn/home-ca/pkg/config"
)

var (
	App        *app.App
	InitParams *app.AppInitParams
)

var rootCmd = &cobra.Command{
	Use:   app.Name,
	Short: "Certificate Authority for a home network",
	Long: `home-ca generates a self-signed Certificate Authority and a set of
server certificates signed by it for use on a home network, driven by a
YAML configuration file. Keys, certificates and chain bundles are written
as PEM files to the output directory.

Running without a subcommand generates the certificates, the same as the
generate subcommand.`,
	SilenceUsage:     true,
	TraverseChildren: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generate()
	},
}

func init() {

	InitParams = &app.AppInitParams{}

	rootCmd.PersistentFlags().StringVarP(&InitParams.ConfigFile,
		"config-file", "f", config.DEFAULT_CONFIG_FILE,
		"Configuration file")
	rootCmd.PersistentFlags().StringVarP(&InitParams.OutputDirectory,
		"output-directory", "o", "",
		"Output directory for certificates and keys. Overrides the config file")
	rootCmd.PersistentFlags().StringVarP(&InitParams.LogFile,
		"log-file", "l", "",
		"Append structured JSON log records to this file")
	rootCmd.PersistentFlags().BoolVarP(&InitParams.Debug,
		"debug", "d", false,
		"Enable debug mode")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initApp() (*app.App, error) {
	a, err := app.NewApp().Init(InitParams)
	if err != nil {
		return nil, err
	}
	App = a
	return a, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
