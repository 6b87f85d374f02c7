package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/jeremyhahn/home-ca/pkg/ca"
	"github.com/jeremyhahn/home-ca/pkg/config"
	"github.com/jeremyhahn/home-ca/pkg/logging"
)

var TEST_OUTPUT_DIR = "certificates"

func testCertificates(t *testing.T) (*ca.KeyedCertificate, *ca.KeyedCertificate) {

	cfg := config.DefaultConfig()
	cfg.Name = config.Subject{
		Country:      "US",
		State:        "California",
		Locality:     "San Francisco",
		Organization: "Home Network",
	}
	cfg.Domain = "home.lan"
	cfg.Key = config.Key{Algorithm: config.KEY_ALGORITHM_ECDSA}
	cfg.Hosts = []config.Host{
		{Names: []string{"nas"}, IPAddresses: []string{"192.168.1.10"}},
	}

	certAuthority, err := ca.New(&ca.Params{
		Config: cfg,
		Logger: logging.DefaultLogger(),
	})
	assert.Nil(t, err)

	caCert, err := certAuthority.Init()
	assert.Nil(t, err)

	serverCert, err := certAuthority.IssueCertificate(cfg.Hosts[0])
	assert.Nil(t, err)

	return caCert, serverCert
}

func testStore(t *testing.T) (*CertificateStore, afero.Fs) {
	fs := afero.NewMemMapFs()
	certStore, err := NewCertificateStore(
		logging.DefaultLogger(), fs, TEST_OUTPUT_DIR)
	assert.Nil(t, err)
	return certStore, fs
}

func TestSave(t *testing.T) {

	caCert, serverCert := testCertificates(t)
	certStore, fs := testStore(t)

	assert.Nil(t, certStore.Save(caCert))
	assert.Nil(t, certStore.Save(serverCert))

	for _, file := range []string{
		"ca.key.pem", "ca.cert.pem", "nas.key.pem", "nas.cert.pem"} {
		exists, err := afero.Exists(fs, filepath.Join(TEST_OUTPUT_DIR, file))
		assert.Nil(t, err)
		assert.True(t, exists, file)
	}

	// Private keys are owner-only, certificates world-readable
	info, err := fs.Stat(filepath.Join(TEST_OUTPUT_DIR, "ca.key.pem"))
	assert.Nil(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	info, err = fs.Stat(filepath.Join(TEST_OUTPUT_DIR, "nas.cert.pem"))
	assert.Nil(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	certificate, err := certStore.Certificate("nas")
	assert.Nil(t, err)
	assert.Equal(t, serverCert.Certificate.Raw, certificate.Raw)

	caCertificate, err := certStore.CACertificate()
	assert.Nil(t, err)
	assert.Equal(t, caCert.Certificate.Raw, caCertificate.Raw)
}

func TestSaveChain(t *testing.T) {

	caCert, serverCert := testCertificates(t)
	certStore, fs := testStore(t)

	assert.Nil(t, certStore.Save(caCert))
	assert.Nil(t, certStore.Save(serverCert))
	assert.Nil(t, certStore.SaveChain("nas", serverCert.CertPEM, caCert.CertPEM))

	// The chain file is the leaf certificate followed by the CA certificate
	leaf, err := afero.ReadFile(fs, filepath.Join(TEST_OUTPUT_DIR, "nas.cert.pem"))
	assert.Nil(t, err)
	root, err := afero.ReadFile(fs, filepath.Join(TEST_OUTPUT_DIR, "ca.cert.pem"))
	assert.Nil(t, err)
	chain, err := afero.ReadFile(fs, filepath.Join(TEST_OUTPUT_DIR, "nas.chain.pem"))
	assert.Nil(t, err)
	assert.Equal(t, append(append([]byte{}, leaf...), root...), chain)

	certs, err := ca.DecodePEMChain(chain)
	assert.Nil(t, err)
	assert.Len(t, certs, 2)
	assert.Equal(t, serverCert.Certificate.Raw, certs[0].Raw)
	assert.Equal(t, caCert.Certificate.Raw, certs[1].Raw)
}

func TestChain(t *testing.T) {

	caCert, serverCert := testCertificates(t)
	certStore, _ := testStore(t)

	assert.Nil(t, certStore.Save(caCert))
	assert.Nil(t, certStore.Save(serverCert))
	assert.Nil(t, certStore.SaveChain("nas", serverCert.CertPEM, caCert.CertPEM))

	chain, err := certStore.Chain("nas")
	assert.Nil(t, err)
	assert.Len(t, chain, 2)
	assert.Equal(t, serverCert.Certificate.Raw, chain[0].Raw)
	assert.Equal(t, caCert.Certificate.Raw, chain[1].Raw)

	_, err = certStore.Chain("missing")
	assert.ErrorIs(t, err, ErrChainNotFound)
}

func TestOverwrite(t *testing.T) {

	caCert, serverCert := testCertificates(t)
	newCACert, newServerCert := testCertificates(t)
	certStore, _ := testStore(t)

	assert.Nil(t, certStore.Save(caCert))
	assert.Nil(t, certStore.Save(serverCert))

	// A second run overwrites prior artifacts without error
	assert.Nil(t, certStore.Save(newCACert))
	assert.Nil(t, certStore.Save(newServerCert))

	certificate, err := certStore.Certificate("nas")
	assert.Nil(t, err)
	assert.Equal(t, newServerCert.Certificate.Raw, certificate.Raw)
	assert.NotEqual(t, serverCert.Certificate.Raw, certificate.Raw)
}

func TestIssuedCertificates(t *testing.T) {

	caCert, serverCert := testCertificates(t)
	certStore, _ := testStore(t)

	assert.Nil(t, certStore.Save(caCert))
	assert.Nil(t, certStore.Save(serverCert))
	assert.Nil(t, certStore.SaveChain("nas", serverCert.CertPEM, caCert.CertPEM))

	// The CA's own certificate and chain files are excluded
	names, err := certStore.IssuedCertificates()
	assert.Nil(t, err)
	assert.Equal(t, []string{"nas"}, names)
}

func TestCertificateNotFound(t *testing.T) {

	certStore, _ := testStore(t)

	_, err := certStore.Certificate("missing")
	assert.ErrorIs(t, err, ErrCertNotFound)
}
