package cmd

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/home-ca/pkg/ca"
	"github.com/jeremyhahn/home-ca/pkg/store"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [directory]",
	Short: "Verify issued certificates against the CA",
	Long: `Verifies the chain of trust between every issued server certificate
in the output directory and the CA certificate, using the x509 runtime
library rather than shelling out to openssl. The CA's own certificate is
skipped. Exits non-zero if any certificate fails verification.`,
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

		caCert, err := certStore.CACertificate()
		if err != nil {
			a.Logger.Error(err)
			return err
		}

		names, err := certStore.IssuedCertificates()
		if err != nil {
			return err
		}

		pass := color.New(color.FgGreen).Sprint("OK")
		fail := color.New(color.FgRed).Sprint("FAIL")

		failures := 0
		for _, name := range names {
			file := fmt.Sprintf("%s%s", name, store.FSEXT_CERTIFICATE)
			certificate, err := certStore.Certificate(name)
			if err != nil {
				cmd.Printf("%s: %s: %s\n", file, fail, err)
				failures++
				continue
			}
			if err := ca.VerifyChain(caCert, certificate); err != nil {
				cmd.Printf("%s: %s: %s\n", file, fail, err)
				failures++
				continue
			}
			cmd.Printf("%s: %s\n", file, pass)

			if err := verifyChainBundle(
				certStore, name, certificate, caCert); err != nil {
				if errors.Is(err, store.ErrChainNotFound) {
					continue
				}
				chainFile := fmt.Sprintf("%s%s", name, store.FSEXT_CHAIN)
				cmd.Printf("%s: %s: %s\n", chainFile, fail, err)
				failures++
				continue
			}
			cmd.Printf("%s%s: %s\n", name, store.FSEXT_CHAIN, pass)
		}

		if failures > 0 {
			return fmt.Errorf(
				"verify: %d of %d certificates failed verification",
				failures, len(names))
		}
		return nil
	},
}

var errChainMismatch = errors.New(
	"chain bundle does not match the issued and CA certificates")

// Checks that the on-disk chain bundle parses and is exactly the issued
// certificate followed by the CA certificate.
func verifyChainBundle(
	certStore *store.CertificateStore,
	name string,
	certificate, caCert *x509.Certificate) error {

	chain, err := certStore.Chain(name)
	if err != nil {
		return err
	}
	if len(chain) != 2 {
		return errChainMismatch
	}
	if !bytes.Equal(chain[0].Raw, certificate.Raw) {
		return errChainMismatch
	}
	if !bytes.Equal(chain[1].Raw, caCert.Raw) {
		return errChainMismatch
	}
	return nil
}
