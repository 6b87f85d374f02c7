package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

var testYAML = []byte(`
name:
  country: US
  state: California
  locality: San Francisco
  organization: Home Network

domain: home.lan
output_directory: certs

ca_validity_days: 825
server_validity_days: 398

key:
  algorithm: rsa
  size: 2048

hosts:
  - names:
      - nas
      - storage
    ip_addresses:
      - 192.168.1.10
  - names:
      - router
`)

func TestLoad(t *testing.T) {

	fs := afero.NewMemMapFs()
	err := afero.WriteFile(fs, "config.yaml", testYAML, 0644)
	assert.Nil(t, err)

	config, err := Load(fs, "config.yaml")
	assert.Nil(t, err)
	assert.Equal(t, "Home Network", config.Name.Organization)
	assert.Equal(t, "US", config.Name.Country)
	assert.Equal(t, "home.lan", config.Domain)
	assert.Equal(t, "certs", config.OutputDirectory)
	assert.Equal(t, 825, config.CAValidityDays)
	assert.Equal(t, 398, config.ServerValidityDays)
	assert.Equal(t, KEY_ALGORITHM_RSA, config.Key.Algorithm)
	assert.Equal(t, 2048, config.Key.Size)

	assert.Len(t, config.Hosts, 2)
	assert.Equal(t, []string{"nas", "storage"}, config.Hosts[0].Names)
	assert.Equal(t, []string{"192.168.1.10"}, config.Hosts[0].IPAddresses)
	assert.Empty(t, config.Hosts[1].IPAddresses)

	assert.Nil(t, config.Validate())
}

func TestLoadMissingFile(t *testing.T) {

	fs := afero.NewMemMapFs()

	config, err := Load(fs, "missing.yaml")
	assert.Nil(t, err)
	assert.Equal(t, DEFAULT_DOMAIN, config.Domain)
	assert.Equal(t, DEFAULT_OUTPUT_DIRECTORY, config.OutputDirectory)
	assert.Equal(t, DEFAULT_CA_VALIDITY_DAYS, config.CAValidityDays)
	assert.Equal(t, DEFAULT_SERVER_VALIDITY_DAYS, config.ServerValidityDays)

	// Defaults alone don't carry a subject or hosts
	assert.ErrorIs(t, config.Validate(), ErrMissingSubject)
}

func TestLoadMalformedFile(t *testing.T) {

	fs := afero.NewMemMapFs()
	err := afero.WriteFile(fs, "config.yaml", []byte("{{ not yaml"), 0644)
	assert.Nil(t, err)

	_, err = Load(fs, "config.yaml")
	assert.NotNil(t, err)
}

func TestValidate(t *testing.T) {

	valid := func() *Config {
		config := DefaultConfig()
		config.Name = Subject{
			Country:      "US",
			State:        "California",
			Locality:     "San Francisco",
			Organization: "Home Network",
		}
		config.Hosts = []Host{{Names: []string{"nas"}}}
		return config
	}

	assert.Nil(t, valid().Validate())

	config := valid()
	config.Name = Subject{}
	assert.ErrorIs(t, config.Validate(), ErrMissingSubject)

	config = valid()
	config.Name.Organization = ""
	assert.ErrorIs(t, config.Validate(), ErrMissingOrganization)

	config = valid()
	config.Hosts = nil
	assert.ErrorIs(t, config.Validate(), ErrMissingHosts)

	config = valid()
	config.Hosts = []Host{{IPAddresses: []string{"192.168.1.10"}}}
	assert.ErrorIs(t, config.Validate(), ErrMissingHostName)

	config = valid()
	config.Key.Algorithm = "ed25519"
	assert.ErrorIs(t, config.Validate(), ErrInvalidKeyAlgorithm)

	config = valid()
	config.Key.Size = 1024
	assert.ErrorIs(t, config.Validate(), ErrInvalidKeySize)

	config = valid()
	config.Key = Key{Algorithm: KEY_ALGORITHM_ECDSA}
	assert.Nil(t, config.Validate())

	config = valid()
	config.ServerValidityDays = 0
	assert.ErrorIs(t, config.Validate(), ErrInvalidValidity)
}
