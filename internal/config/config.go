// Package config loads the optional pgrls.yaml project configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig mirrors the connection section of pgrls.yaml.
type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// SeedConfig mirrors the seed section of pgrls.yaml. Zero values mean
// "use the built-in default".
type SeedConfig struct {
	Count       int `yaml:"count"`
	Parallelism int `yaml:"parallelism"`
	BatchSize   int `yaml:"batch_size"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Seed       SeedConfig       `yaml:"seed"`
}

const ConfigFileName = "pgrls.yaml"

// Load reads pgrls.yaml from dir. Returns ErrConfigNotFound when the
// file does not exist, which callers treat as "no project config".
func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
