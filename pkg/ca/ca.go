package ca

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	"github.com/jeremyhahn/home-ca/pkg/config"
)

// Certificate Authority for a home network. Generates a self-signed root
// certificate and issues server certificates signed by it. Certificates
// are generated one at a time in a single pass; there is no concurrency
// and any failure aborts the run.
type CA struct {
	params      *Params
	commonName  string
	privateKey  crypto.Signer
	certificate *x509.Certificate
}

// Creates a new Certificate Authority from the platform configuration.
// The configuration must be validated before the CA will instantiate.
func New(params *Params) (*CA, error) {
	if params.Config == nil {
		return nil, ErrInvalidConfig
	}
	if err := params.Config.Validate(); err != nil {
		return nil, err
	}
	if params.Random == nil {
		params.Random = rand.Reader
	}
	return &CA{
		params:     params,
		commonName: fmt.Sprintf("%s CA", params.Config.Name.Organization),
	}, nil
}

// Returns the CA certificate. Init must be called first.
func (ca *CA) Certificate() *x509.Certificate {
	return ca.certificate
}

// Generates the CA key pair and self-signed root certificate. The
// certificate's issuer equals its subject, carries the CA:true basic
// constraint and signs with the configured key algorithm.
func (ca *CA) Init() (*KeyedCertificate, error) {

	ca.params.Logger.Info(
		"Initializing Certificate Authority",
		"cn", ca.commonName)

	privateKey, err := ca.generateKey()
	if err != nil {
		return nil, err
	}

	serialNumber, err := ca.serialNumber()
	if err != nil {
		return nil, err
	}

	subjectKeyID, err := ca.createSubjectKeyIdentifier(privateKey.Public())
	if err != nil {
		return nil, err
	}

	subject := ca.subject(ca.commonName)
	notBefore := time.Now()

	template := &x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               subject,
		SubjectKeyId:          subjectKeyID,
		AuthorityKeyId:        subjectKeyID,
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(0, 0, ca.params.Config.CAValidityDays),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
	}

	derCert, err := x509.CreateCertificate(
		ca.params.Random, template, template, privateKey.Public(), privateKey)
	if err != nil {
		ca.params.Logger.Error(err)
		return nil, err
	}

	certificate, err := x509.ParseCertificate(derCert)
	if err != nil {
		return nil, err
	}

	ca.privateKey = privateKey
	ca.certificate = certificate

	return ca.keyedCertificate("ca", privateKey, certificate)
}

// Issues a server certificate for the provided host descriptor, signed by
// the CA key. The subject common name is the host's first name qualified
// with the configured domain; every name and IP address becomes a subject
// alternative name.
func (ca *CA) IssueCertificate(host config.Host) (*KeyedCertificate, error) {

	if ca.certificate == nil || ca.privateKey == nil {
		return nil, ErrNotInitialized
	}

	dnsNames, ipAddresses, err := ca.parseSANS(host)
	if err != nil {
		return nil, err
	}

	ca.params.Logger.Info(
		"Issuing server certificate",
		"cn", dnsNames[0],
		"dns", strings.Join(dnsNames, ", "),
		"ips", strings.Join(host.IPAddresses, ", "))

	privateKey, err := ca.generateKey()
	if err != nil {
		return nil, err
	}

	serialNumber, err := ca.serialNumber()
	if err != nil {
		return nil, err
	}

	notBefore := time.Now()

	template := &x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               ca.subject(dnsNames[0]),
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(0, 0, ca.params.Config.ServerValidityDays),
		IsCA:                  false,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ipAddresses,
	}

	derCert, err := x509.CreateCertificate(
		ca.params.Random, template, ca.certificate, privateKey.Public(), ca.privateKey)
	if err != nil {
		ca.params.Logger.Error(err)
		return nil, err
	}

	certificate, err := x509.ParseCertificate(derCert)
	if err != nil {
		return nil, err
	}

	return ca.keyedCertificate(host.Names[0], privateKey, certificate)
}

// Verifies the certificate chain between the provided leaf certificate
// and the CA root certificate.
func (ca *CA) Verify(certificate *x509.Certificate) error {
	if ca.certificate == nil {
		return ErrNotInitialized
	}
	return VerifyChain(ca.certificate, certificate)
}

// Verifies a leaf certificate against a root CA certificate using the
// x509 runtime library instead of shelling out to openssl.
func VerifyChain(root, leaf *x509.Certificate) error {
	roots := x509.NewCertPool()
	roots.AddCert(root)
	opts := x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	if _, err := leaf.Verify(opts); err != nil {
		return err
	}
	return nil
}

func (ca *CA) keyedCertificate(
	name string,
	privateKey crypto.Signer,
	certificate *x509.Certificate) (*KeyedCertificate, error) {

	keyPEM, err := EncodePrivKeyPEM(privateKey)
	if err != nil {
		return nil, err
	}
	certPEM, err := EncodePEM(certificate.Raw)
	if err != nil {
		return nil, err
	}
	return &KeyedCertificate{
		Name:        name,
		KeyPEM:      keyPEM,
		CertPEM:     certPEM,
		Certificate: certificate,
	}, nil
}

// Builds the PKIX subject from the configured x509 name attributes
func (ca *CA) subject(cn string) pkix.Name {
	name := ca.params.Config.Name
	return pkix.Name{
		CommonName:   cn,
		Organization: []string{name.Organization},
		Country:      []string{name.Country},
		Province:     []string{name.State},
		Locality:     []string{name.Locality},
	}
}

// Qualifies the host's short names with the configured domain and parses
// its IP addresses. Names that already contain a dot are used verbatim.
func (ca *CA) parseSANS(host config.Host) ([]string, []net.IP, error) {

	if len(host.Names) == 0 || host.Names[0] == "" {
		return nil, nil, ErrMissingCommonName
	}

	dnsNames := make([]string, len(host.Names))
	for i, name := range host.Names {
		if strings.Contains(name, ".") {
			dnsNames[i] = name
		} else {
			dnsNames[i] = fmt.Sprintf("%s.%s", name, ca.params.Config.Domain)
		}
	}

	ipAddresses := make([]net.IP, len(host.IPAddresses))
	for i, addr := range host.IPAddresses {
		ip := net.ParseIP(addr)
		if ip == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrInvalidIPAddress, addr)
		}
		ipAddresses[i] = ip
	}

	return dnsNames, ipAddresses, nil
}

func (ca *CA) generateKey() (crypto.Signer, error) {
	switch strings.ToLower(ca.params.Config.Key.Algorithm) {
	case config.KEY_ALGORITHM_ECDSA:
		return ecdsa.GenerateKey(elliptic.P256(), ca.params.Random)
	default:
		return rsa.GenerateKey(ca.params.Random, ca.params.Config.Key.Size)
	}
}

// Creates a new 128 bit random x509 serial number
func (ca *CA) serialNumber() (*big.Int, error) {
	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	return rand.Int(ca.params.Random, serialNumberLimit)
}

// Creates the Subject Key Identifier from the SHA-1 digest of the
// subject public key bit string, per RFC 5280 section 4.2.1.2.
func (ca *CA) createSubjectKeyIdentifier(pub crypto.PublicKey) ([]byte, error) {
	var spki struct {
		Algorithm        pkix.AlgorithmIdentifier
		SubjectPublicKey asn1.BitString
	}
	spkiASN1, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		ca.params.Logger.Error(err)
		return nil, err
	}
	if _, err := asn1.Unmarshal(spkiASN1, &spki); err != nil {
		ca.params.Logger.Error(err)
		return nil, err
	}
	skid := sha1.Sum(spki.SubjectPublicKey.Bytes)
	return skid[:], nil
}
