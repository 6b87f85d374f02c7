package cmd

import (
	"crypto/x509"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/home-ca/pkg/ca"
	"github.com/jeremyhahn/home-ca/pkg/store"
)

var showCmd = &cobra.Command{
	Use:   "show [directory]",
	Short: "Display the generated certificates",
	Long: `Prints every certificate in the output directory, including the CA
certificate, in human readable and PEM form.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		a, err := initApp()
		if err != nil {
			return err
		}

		dir := a.Config.OutputDirectory
		if len(args) > 0 {
			dir = args[0]
		}

		certStore, err := store.NewCertificateStore(a.Logger, a.Fs, dir)
		if err != nil {
			return err
		}

		names, err := certStore.IssuedCertificates()
		if err != nil {
			return err
		}
		names = append([]string{store.CA_NAME}, names...)

		header := color.New(color.Bold)
		for _, name := range names {
			certificate, err := certStore.Certificate(name)
			if err != nil {
				a.Logger.Error(err)
				return err
			}
			cmd.Println(header.Sprintf(
				"==> %s%s", name, store.FSEXT_CERTIFICATE))
			printCertificate(cmd, certificate)

			pem, err := ca.EncodePEM(certificate.Raw)
			if err != nil {
				return err
			}
			cmd.Println(string(pem))
		}
		return nil
	},
}

func printCertificate(cmd *cobra.Command, certificate *x509.Certificate) {
	cmd.Println("X509 Certificate")
	cmd.Printf("  Common Name: %s\n", certificate.Subject.CommonName)
	cmd.Printf("  Serial Number: %s\n", certificate.SerialNumber.String())
	cmd.Printf("  Issuer: %s\n", certificate.Issuer.String())
	cmd.Printf("  Subject: %s\n", certificate.Subject.String())
	cmd.Printf("  Not Before: %s\n", certificate.NotBefore)
	cmd.Printf("  Not After: %s\n", certificate.NotAfter)
	cmd.Printf("  CA: %t\n", certificate.IsCA)
	cmd.Printf("  Key Algorithm: %s\n", certificate.PublicKeyAlgorithm.String())
	cmd.Printf("  Signature Algorithm: %s\n", certificate.SignatureAlgorithm.String())

	for i, dns := range certificate.DNSNames {
		cmd.Printf("  dns.%d: %s\n", i, dns)
	}
	for i, ip := range certificate.IPAddresses {
		cmd.Printf("  ip.%d: %s\n", i, ip)
	}
}
