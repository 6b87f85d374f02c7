package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/jeremyhahn/home-ca/pkg/config"
)

const configTemplateHeader = `# home-ca configuration
#
# name:             x509 subject attributes for the CA and every server
#                   certificate
# domain:           DNS suffix appended to host names that don't contain
#                   a dot
# output_directory: where keys, certificates and chain bundles are written
# key:              rsa (with size) or ecdsa (P-256)
# hosts:            one entry per server; the first name is the file
#                   prefix and common name
#
`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Writes a sample config.yaml template to the path given by
--config-file. Refuses to overwrite an existing file.`,
	RunE: func(cmd *cobra.Command, args []string) error {

		a, err := initApp()
		if err != nil {
			return err
		}

		exists, err := afero.Exists(a.Fs, a.ConfigFile)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf(
				"config: %s already exists, refusing to overwrite", a.ConfigFile)
		}

		template := config.DefaultConfig()
		template.Name = config.Subject{
			Country:      "US",
			State:        "California",
			Locality:     "San Francisco",
			Organization: "Home Network",
		}
		template.Domain = "home.lan"
		template.Hosts = []config.Host{
			{
				Names:       []string{"nas", "storage"},
				IPAddresses: []string{"192.168.1.10"},
			},
			{
				Names: []string{"router"},
			},
		}

		out, err := yaml.Marshal(template)
		if err != nil {
			return err
		}

		content := append([]byte(configTemplateHeader), out...)
		if err := afero.WriteFile(a.Fs, a.ConfigFile, content, 0644); err != nil {
			return err
		}

		a.Logger.Info("Wrote sample configuration", "file", a.ConfigFile)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
