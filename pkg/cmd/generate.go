package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/home-ca/pkg/ca"
	"github.com/jeremyhahn/home-ca/pkg/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the CA and server certificates",
	Long: `Generates the Certificate Authority key pair and self-signed root
certificate, then a key pair, signed certificate and chain bundle for every
host in the configuration file. All artifacts are generated fresh on each
run; existing files are overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generate()
	},
}

func generate() error {

	a, err := initApp()
	if err != nil {
		return err
	}

	certAuthority, err := ca.New(&ca.Params{
		Config: a.Config,
		Logger: a.Logger,
		Random: a.Random})
	if err != nil {
		a.Logger.Error(err)
		return err
	}

	certStore, err := store.NewCertificateStore(
		a.Logger, a.Fs, a.Config.OutputDirectory)
	if err != nil {
		a.Logger.Error(err)
		return err
	}

	caCert, err := certAuthority.Init()
	if err != nil {
		a.Logger.Error(err)
		return err
	}
	if err := certStore.Save(caCert); err != nil {
		a.Logger.Error(err)
		return err
	}

	for _, host := range a.Config.Hosts {
		serverCert, err := certAuthority.IssueCertificate(host)
		if err != nil {
			a.Logger.Error(err)
			return err
		}
		if err := certStore.Save(serverCert); err != nil {
			a.Logger.Error(err)
			return err
		}
		err = certStore.SaveChain(
			serverCert.Name, serverCert.CertPEM, caCert.CertPEM)
		if err != nil {
			a.Logger.Error(err)
			return err
		}
	}

	a.Logger.Info("Certificate generation complete",
		"directory", a.Config.OutputDirectory,
		"certificates", len(a.Config.Hosts)+1)

	return nil
}
