package pgrls

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reading is a single sensor measurement owned by exactly one tenant.
//
// TenantID is fixed at construction and never changes afterwards; the
// row-level security policy on the conditions table compares it against
// the session tenant binding, so a Reading is only visible through a
// connection bound to the same tenant.
//
// Temperature and Humidity are nullable. The streaming COPY writer
// requires both to be present (see ErrNullMeasurement); the batched
// insert writer transmits NULLs as-is.
type Reading struct {
	// ID is assigned by the database on insert and is zero until then.
	ID int64

	// TenantID identifies the owning tenant. Immutable after construction.
	TenantID int64

	// Location is a free-text label for where the reading was taken.
	Location string

	Temperature *float64
	Humidity    *float64
}

// Float64 returns a pointer to v. Convenience for building Readings.
func Float64(v float64) *float64 {
	return &v
}

// RunState is the terminal state of a bulk ingestion run.
type RunState int

const (
	// RunCompleted means every planned batch committed.
	RunCompleted RunState = iota
	// RunPartiallyFailed means at least one batch was rolled back.
	// The Summary carries enough detail to retry the shortfall.
	RunPartiallyFailed
)

// String returns a human-readable representation of the RunState.
func (s RunState) String() string {
	switch s {
	case RunCompleted:
		return "Completed"
	case RunPartiallyFailed:
		return "PartiallyFailed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// BatchFailure records one rolled-back batch so the caller can retry
// exactly that tenant's chunk later.
type BatchFailure struct {
	TenantID int64
	// BatchIndex is the zero-based position of the batch within its
	// tenant's partition.
	BatchIndex int
	// Rows is the number of rows the failed batch contained.
	Rows int
	Err  error
}

// Summary is the result of a bulk ingestion run.
//
// Planned - Completed equals the sum of Rows over FailedBatches, so a
// caller can detect partial completion and re-run just the shortfall.
type Summary struct {
	// RunID uniquely identifies this ingestion run in logs.
	RunID uuid.UUID

	State RunState

	// Planned is the total number of rows the run set out to write.
	Planned int
	// Completed is the number of rows in successfully committed batches.
	Completed int

	FailedBatches []BatchFailure

	Elapsed time.Duration
}

// SeedConfig contains all parameters for a bulk seeding run.
type SeedConfig struct {
	// ConnectionString is the PostgreSQL connection string for the
	// target database. Consumed as an opaque string.
	ConnectionString string

	// Count is the number of random readings to generate.
	Count int

	// Parallelism caps the number of concurrently running tenant
	// workers. Zero selects DefaultParallelism.
	Parallelism int

	// BatchSize is the number of rows per transaction. Zero selects
	// the chosen writer strategy's default.
	BatchSize int

	// UseCopy selects the streaming binary COPY strategy instead of
	// the batched parameterized insert.
	UseCopy bool

	// Verbose enables detailed logging.
	Verbose bool
}

// Validate checks if the SeedConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *SeedConfig) Validate() error {
	var errs []error

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.Count <= 0 {
		errs = append(errs, fmt.Errorf("Count must be positive: %w", ErrInvalidConfig))
	}

	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("Parallelism cannot be negative: %w", ErrInvalidConfig))
	}

	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("BatchSize cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID authentication parameters (used when AuthMethod is
	// AuthMethodAzureEntraID). If all three are provided, Service
	// Principal authentication is used; otherwise the
	// DefaultAzureCredential chain (env vars, managed identity, CLI).
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is the region for RDS IAM token signing (AuthMethodAWSIAM).
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name in
	// project:region:instance format (AuthMethodGoogleIAM).
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
