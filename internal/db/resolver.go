package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/pgrls/internal/config"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// EnvVars holds the PostgreSQL-standard and cloud-auth environment
// variables consulted during connection resolution.
type EnvVars struct {
	Host     string // PGHOST
	Port     string // PGPORT
	User     string // PGUSER
	Password string // PGPASSWORD
	Database string // PGDATABASE
	SSLMode  string // PGSSLMODE

	AWSRegion         string // AWS_REGION
	AzureTenantID     string // AZURE_TENANT_ID
	AzureClientID     string // AZURE_CLIENT_ID
	AzureClientSecret string // AZURE_CLIENT_SECRET
	GoogleInstance    string // GOOGLE_CLOUD_SQL_INSTANCE
}

// LoadFromEnvironment reads the connection-related environment variables.
func LoadFromEnvironment() EnvVars {
	return EnvVars{
		Host:              os.Getenv("PGHOST"),
		Port:              os.Getenv("PGPORT"),
		User:              os.Getenv("PGUSER"),
		Password:          os.Getenv("PGPASSWORD"),
		Database:          os.Getenv("PGDATABASE"),
		SSLMode:           os.Getenv("PGSSLMODE"),
		AWSRegion:         os.Getenv("AWS_REGION"),
		AzureTenantID:     os.Getenv("AZURE_TENANT_ID"),
		AzureClientID:     os.Getenv("AZURE_CLIENT_ID"),
		AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
		GoogleInstance:    os.Getenv("GOOGLE_CLOUD_SQL_INSTANCE"),
	}
}

// ResolveConnection builds a ConnectionConfig with this precedence:
// explicit connection string > PG* environment variables > pgrls.yaml >
// built-in defaults. The password is taken only from the connection
// string or $PGPASSWORD, never from project configuration.
func ResolveConnection(connString string, env EnvVars, project *config.ConnectionConfig) (*pgrls.ConnectionConfig, error) {
	var cfg *pgrls.ConnectionConfig

	if connString != "" {
		parsed, err := ParseConnectionString(connString)
		if err != nil {
			return nil, fmt.Errorf("invalid connection string: %w", err)
		}
		cfg = parsed
	} else {
		cfg = defaultConfig()

		if project != nil {
			applyProject(cfg, project)
		}
		if err := applyEnv(cfg, env); err != nil {
			return nil, err
		}
	}

	if cfg.Password == "" {
		cfg.Password = env.Password
	}

	// Cloud auth parameters layer on top regardless of source.
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = env.AWSRegion
	}
	if cfg.AzureTenantID == "" {
		cfg.AzureTenantID = env.AzureTenantID
	}
	if cfg.AzureClientID == "" {
		cfg.AzureClientID = env.AzureClientID
	}
	if cfg.AzureClientSecret == "" {
		cfg.AzureClientSecret = env.AzureClientSecret
	}
	if cfg.GoogleInstance == "" {
		cfg.GoogleInstance = env.GoogleInstance
	}

	return cfg, nil
}

func applyProject(cfg *pgrls.ConnectionConfig, project *config.ConnectionConfig) {
	if project.Host != "" {
		cfg.Host = project.Host
	}
	if project.Port != 0 {
		cfg.Port = project.Port
	}
	if project.Username != "" {
		cfg.Username = project.Username
	}
	if project.Database != "" {
		cfg.Database = project.Database
	}
	if project.SSLMode != "" {
		cfg.SSLMode = project.SSLMode
	}
	if project.AWSRegion != "" {
		cfg.AWSRegion = project.AWSRegion
	}
	if project.AzureTenantID != "" {
		cfg.AzureTenantID = project.AzureTenantID
	}
	if project.AzureClientID != "" {
		cfg.AzureClientID = project.AzureClientID
	}
	if project.GoogleInstance != "" {
		cfg.GoogleInstance = project.GoogleInstance
	}

	switch project.AuthMethod {
	case "", "standard":
		// leave as-is
	case "aws-iam":
		cfg.AuthMethod = pgrls.AuthMethodAWSIAM
	case "google-iam":
		cfg.AuthMethod = pgrls.AuthMethodGoogleIAM
	case "azure":
		cfg.AuthMethod = pgrls.AuthMethodAzureEntraID
	}
}

func applyEnv(cfg *pgrls.ConnectionConfig, env EnvVars) error {
	if env.Host != "" {
		cfg.Host = env.Host
	}
	if env.Port != "" {
		port, err := strconv.Atoi(env.Port)
		if err != nil {
			return fmt.Errorf("invalid PGPORT %q: %w", env.Port, err)
		}
		cfg.Port = port
	}
	if env.User != "" {
		cfg.Username = env.User
	}
	if env.Database != "" {
		cfg.Database = env.Database
	}
	if env.SSLMode != "" {
		cfg.SSLMode = env.SSLMode
	}
	return nil
}
