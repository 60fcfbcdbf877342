package pgrls

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Operation completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration or parameters
	ExitConnectionError   = 11 // Failed to connect to database
	ExitBindError         = 12 // Tenant session binding failed or mismatched
	ExitPartialCompletion = 13 // Ingestion finished with rolled-back batches
)

const (
	// DefaultTenantSettingKey is the session variable the row-level
	// security policies compare tenant_id against. It must match the
	// current_setting() call in the deployed policies.
	DefaultTenantSettingKey = "app.current_tenant"

	// DefaultInsertBatchSize is the row count per multi-row INSERT
	// statement. Larger batches risk hitting the statement timeout on
	// the target engine.
	DefaultInsertBatchSize = 1000

	// DefaultCopyBatchSize is the row count per COPY transaction. The
	// binary protocol bypasses per-statement planning, so it tolerates
	// batches roughly an order of magnitude larger than inserts.
	DefaultCopyBatchSize = 10000

	// DefaultParallelism caps concurrent tenant workers during seeding.
	DefaultParallelism = 100

	// DefaultStatementTimeout bounds each batch write.
	DefaultStatementTimeout = 60 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3
)
