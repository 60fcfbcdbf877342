// Package db establishes PostgreSQL connection pools for tenant-scoped
// sessions. Connectors wrap the various authentication methods (standard
// credentials, AWS RDS IAM, Azure Entra ID, Google Cloud SQL IAM) behind
// the pgrls.Connector interface; transient connection failures are
// retried with exponential backoff.
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgrls/internal/retry"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// Connection pool configuration constants.
const (
	// DefaultMaxConns bounds the pool. The ingestion pipeline holds one
	// connection per in-flight tenant worker, so the pool must be at
	// least as large as the parallelism cap.
	DefaultMaxConns = int32(pgrls.DefaultParallelism)

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = int32(1)

	// DefaultMaxConnIdleTime keeps connections alive across seeding
	// waves to avoid reconnection overhead.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
}

func newRetryExecutor() *retry.Executor {
	classifier := retry.NewPostgreSQLErrorClassifier()
	strategy := retry.NewExponentialBackoff(pgrls.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(pgrls.DefaultRetryInitialDelay),
		retry.WithMaxDelay(pgrls.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(classifier, strategy)
}

// StandardConnector implements the Connector interface for standard
// username/password authentication with automatic retry on transient failures.
type StandardConnector struct {
	config        *pgrls.ConnectionConfig
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *pgrls.ConnectionConfig) *StandardConnector {
	return &StandardConnector{
		config:        config,
		retryExecutor: newRetryExecutor(),
	}
}

// Connect establishes a connection pool using standard authentication
// with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		poolConfig, err := pgxpool.ParseConfig(connStr)
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w", err)
		}

		configurePool(poolConfig)

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return pool, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *pgrls.ConnectionConfig) (pgrls.Connector, error) {
	switch config.AuthMethod {
	case pgrls.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case pgrls.AuthMethodAWSIAM:
		provider, err := NewAWSIAMTokenProvider(
			fmt.Sprintf("%s:%d", config.Host, config.Port),
			config.AWSRegion,
			config.Username,
		)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, "AWS IAM"), nil
	case pgrls.AuthMethodAzureEntraID:
		provider, err := newAzureTokenProvider(config)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, "Azure Entra ID"), nil
	case pgrls.AuthMethodGoogleIAM:
		return NewGoogleCloudSQLConnector(config, config.GoogleInstance), nil
	default:
		return nil, fmt.Errorf("auth method %v: %w", config.AuthMethod, pgrls.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused"):
		return fmt.Errorf("cannot reach PostgreSQL at %s (connection refused): %w: %w",
			addr, pgrls.ErrConnectionFailed, err)
	case strings.Contains(errStr, "no such host"):
		return fmt.Errorf("cannot resolve host %q: %w: %w",
			host, pgrls.ErrConnectionFailed, err)
	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf("authentication failed for database %q at %s: %w: %w",
			database, addr, pgrls.ErrConnectionFailed, err)
	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf("database %q does not exist at %s: %w: %w",
			database, addr, pgrls.ErrConnectionFailed, err)
	default:
		return fmt.Errorf("failed to connect to %s/%s: %w: %w",
			addr, database, pgrls.ErrConnectionFailed, err)
	}
}
