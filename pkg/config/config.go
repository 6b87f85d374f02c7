package config

import (
	"errors"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var (
	ErrMissingSubject      = errors.New("config: no x509 name defined in the config file")
	ErrMissingOrganization = errors.New("config: x509 name requires an organization")
	ErrMissingHosts        = errors.New("config: no hosts defined in the config file")
	ErrMissingHostName     = errors.New("config: host requires at least one name")
	ErrInvalidKeyAlgorithm = errors.New("config: invalid key algorithm")
	ErrInvalidKeySize      = errors.New("config: invalid RSA key size")
	ErrInvalidValidity     = errors.New("config: validity days must be greater than zero")
)

const (
	KEY_ALGORITHM_RSA   = "rsa"
	KEY_ALGORITHM_ECDSA = "ecdsa"

	DEFAULT_CONFIG_FILE      = "config.yaml"
	DEFAULT_OUTPUT_DIRECTORY = "certificates"
	DEFAULT_DOMAIN           = "local"

	// Apple limits internal CA validity to 825 days
	DEFAULT_CA_VALIDITY_DAYS = 825

	// Maximum validity for a server certificate is 398 days
	DEFAULT_SERVER_VALIDITY_DAYS = 398

	DEFAULT_KEY_ALGORITHM = KEY_ALGORITHM_RSA
	DEFAULT_RSA_KEY_SIZE  = 2048
)

// The x509 subject attributes shared by the CA and every
// issued server certificate.
type Subject struct {
	Country      string `yaml:"country" json:"country" mapstructure:"country"`
	State        string `yaml:"state" json:"state" mapstructure:"state"`
	Locality     string `yaml:"locality" json:"locality" mapstructure:"locality"`
	Organization string `yaml:"organization" json:"organization" mapstructure:"organization"`
}

type Key struct {
	Algorithm string `yaml:"algorithm" json:"algorithm" mapstructure:"algorithm"`
	Size      int    `yaml:"size" json:"size" mapstructure:"size"`
}

// A single server entry. The first name is used as the certificate
// file prefix and, qualified with the domain, as the common name.
type Host struct {
	Names       []string `yaml:"names" json:"names" mapstructure:"names"`
	IPAddresses []string `yaml:"ip_addresses" json:"ip_addresses" mapstructure:"ip_addresses"`
}

type Config struct {
	Name               Subject `yaml:"name" json:"name" mapstructure:"name"`
	Domain             string  `yaml:"domain" json:"domain" mapstructure:"domain"`
	OutputDirectory    string  `yaml:"output_directory" json:"output_directory" mapstructure:"output_directory"`
	CAValidityDays     int     `yaml:"ca_validity_days" json:"ca_validity_days" mapstructure:"ca_validity_days"`
	ServerValidityDays int     `yaml:"server_validity_days" json:"server_validity_days" mapstructure:"server_validity_days"`
	Key                Key     `yaml:"key" json:"key" mapstructure:"key"`
	Hosts              []Host  `yaml:"hosts" json:"hosts" mapstructure:"hosts"`
}

// Returns a configuration populated with platform defaults and
// no subject or hosts.
func DefaultConfig() *Config {
	return &Config{
		Domain:             DEFAULT_DOMAIN,
		OutputDirectory:    DEFAULT_OUTPUT_DIRECTORY,
		CAValidityDays:     DEFAULT_CA_VALIDITY_DAYS,
		ServerValidityDays: DEFAULT_SERVER_VALIDITY_DAYS,
		Key: Key{
			Algorithm: DEFAULT_KEY_ALGORITHM,
			Size:      DEFAULT_RSA_KEY_SIZE,
		},
	}
}

// Reads and parses the YAML configuration file. A missing file is not an
// error; the returned configuration carries the defaults and fails
// validation later if a subject or hosts are required.
func Load(fs afero.Fs, configFile string) (*Config, error) {

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	v.SetDefault("domain", DEFAULT_DOMAIN)
	v.SetDefault("output_directory", DEFAULT_OUTPUT_DIRECTORY)
	v.SetDefault("ca_validity_days", DEFAULT_CA_VALIDITY_DAYS)
	v.SetDefault("server_validity_days", DEFAULT_SERVER_VALIDITY_DAYS)
	v.SetDefault("key.algorithm", DEFAULT_KEY_ALGORITHM)
	v.SetDefault("key.size", DEFAULT_RSA_KEY_SIZE)

	if err := v.ReadInConfig(); err != nil {
		if exists, _ := afero.Exists(fs, configFile); exists {
			return nil, err
		}
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Ensures the configuration carries everything certificate generation
// needs. Called before generation, not at load time, so commands that
// only read existing certificates work without a config file.
func (config *Config) Validate() error {
	if config.Name == (Subject{}) {
		return ErrMissingSubject
	}
	if config.Name.Organization == "" {
		return ErrMissingOrganization
	}
	if len(config.Hosts) == 0 {
		return ErrMissingHosts
	}
	for _, host := range config.Hosts {
		if len(host.Names) == 0 || host.Names[0] == "" {
			return ErrMissingHostName
		}
	}
	switch strings.ToLower(config.Key.Algorithm) {
	case KEY_ALGORITHM_RSA:
		if config.Key.Size < 2048 {
			return ErrInvalidKeySize
		}
	case KEY_ALGORITHM_ECDSA:
	default:
		return ErrInvalidKeyAlgorithm
	}
	if config.CAValidityDays <= 0 || config.ServerValidityDays <= 0 {
		return ErrInvalidValidity
	}
	return nil
}
