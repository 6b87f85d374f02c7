package ca

import (
	"crypto/x509"
	"errors"
	"io"

	"github.com/jeremyhahn/home-ca/pkg/config"
	"github.com/jeremyhahn/home-ca/pkg/logging"
)

var (
	ErrInvalidConfig      = errors.New("certificate-authority: invalid configuration")
	ErrNotInitialized     = errors.New("certificate-authority: not initialized")
	ErrInvalidIPAddress   = errors.New("certificate-authority: invalid IP address")
	ErrInvalidEncodingPEM = errors.New("certificate-authority: invalid PEM encoding")
	ErrInvalidPrivateKey  = errors.New("certificate-authority: invalid private key")
	ErrMissingCommonName  = errors.New("certificate-authority: host requires a DNS name for the common name")
)

type Params struct {
	Config *config.Config
	Logger *logging.Logger
	Random io.Reader
}

// A generated private key and signed certificate pair, ready to be
// serialized by the certificate store. Name is the file prefix: "ca"
// for the root, the host's first short name for servers.
type KeyedCertificate struct {
	Name        string
	KeyPEM      []byte
	CertPEM     []byte
	Certificate *x509.Certificate
}
