package store

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/jeremyhahn/home-ca/pkg/ca"
	"github.com/jeremyhahn/home-ca/pkg/logging"
)

var (
	ErrCertNotFound  = errors.New("certificate-store: certificate not found")
	ErrChainNotFound = errors.New("certificate-store: certificate chain not found")
)

const (
	FSEXT_PRIVATE_KEY = ".key.pem"
	FSEXT_CERTIFICATE = ".cert.pem"
	FSEXT_CHAIN       = ".chain.pem"

	CA_NAME = "ca"

	// Private keys are restricted to the owner; certificates are public
	keyFileMode  os.FileMode = 0600
	certFileMode os.FileMode = 0644
	dirMode      os.FileMode = 0755
)

// File system backed certificate store. Serializes generated keys and
// certificates as PEM files in a flat output directory, overwriting any
// artifacts from a previous run.
type CertificateStore struct {
	logger    *logging.Logger
	fs        afero.Fs
	outputDir string
}

// Creates a new certificate store rooted at the output directory,
// creating the directory if it doesn't exist.
func NewCertificateStore(
	logger *logging.Logger,
	fs afero.Fs,
	outputDir string) (*CertificateStore, error) {

	if err := fs.MkdirAll(outputDir, dirMode); err != nil {
		return nil, err
	}
	return &CertificateStore{
		logger:    logger,
		fs:        fs,
		outputDir: outputDir}, nil
}

// Writes <name>.key.pem and <name>.cert.pem. Existing files are
// overwritten unconditionally.
func (cs *CertificateStore) Save(keyedCert *ca.KeyedCertificate) error {
	keyFile := cs.path(keyedCert.Name, FSEXT_PRIVATE_KEY)
	if err := cs.write(keyFile, keyedCert.KeyPEM, keyFileMode); err != nil {
		return err
	}
	certFile := cs.path(keyedCert.Name, FSEXT_CERTIFICATE)
	if err := cs.write(certFile, keyedCert.CertPEM, certFileMode); err != nil {
		return err
	}
	cs.logger.Debug("Saved key pair",
		"key", keyFile,
		"certificate", certFile)
	return nil
}

// Writes <name>.chain.pem: the server certificate followed by the CA
// certificate, so a single file conveys the full trust path.
func (cs *CertificateStore) SaveChain(name string, leafPEM, caPEM []byte) error {
	chain := make([]byte, 0, len(leafPEM)+len(caPEM))
	chain = append(chain, leafPEM...)
	chain = append(chain, caPEM...)
	chainFile := cs.path(name, FSEXT_CHAIN)
	if err := cs.write(chainFile, chain, certFileMode); err != nil {
		return err
	}
	cs.logger.Debug("Saved certificate chain", "chain", chainFile)
	return nil
}

// Reads and parses a stored certificate by file prefix
func (cs *CertificateStore) Certificate(name string) (*x509.Certificate, error) {
	pemBytes, err := afero.ReadFile(
		cs.fs, cs.path(name, FSEXT_CERTIFICATE))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCertNotFound, name)
		}
		return nil, err
	}
	return ca.DecodePEM(pemBytes)
}

// Reads and parses the CA certificate
func (cs *CertificateStore) CACertificate() (*x509.Certificate, error) {
	return cs.Certificate(CA_NAME)
}

// Reads and parses a stored certificate chain bundle by file prefix
func (cs *CertificateStore) Chain(name string) ([]*x509.Certificate, error) {
	pemBytes, err := afero.ReadFile(cs.fs, cs.path(name, FSEXT_CHAIN))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrChainNotFound, name)
		}
		return nil, err
	}
	return ca.DecodePEMChain(pemBytes)
}

// Returns the sorted file prefixes of every issued server certificate
// in the store, excluding the CA's own certificate.
func (cs *CertificateStore) IssuedCertificates() ([]string, error) {
	infos, err := afero.ReadDir(cs.fs, cs.outputDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if !strings.HasSuffix(info.Name(), FSEXT_CERTIFICATE) {
			continue
		}
		name := strings.TrimSuffix(info.Name(), FSEXT_CERTIFICATE)
		if name == CA_NAME {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (cs *CertificateStore) path(name, extension string) string {
	return filepath.Join(
		cs.outputDir, fmt.Sprintf("%s%s", name, extension))
}

func (cs *CertificateStore) write(
	file string, data []byte, mode os.FileMode) error {

	if err := afero.WriteFile(cs.fs, file, data, mode); err != nil {
		return err
	}
	// WriteFile's mode only applies on create; chmod so keys written
	// over a previous run still end up owner-only
	return cs.fs.Chmod(file, mode)
}
