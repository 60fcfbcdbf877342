// Package retry provides error classification and retry execution for
// PostgreSQL operations.
//
// The classifier decides whether an error is transient (connection
// establishment worth retrying) or fatal. The executor drives retries
// with exponential backoff and jitter, honoring context cancellation
// between attempts.
//
// The ingestion pipeline uses the classifier the other way around as
// well: a batch failure that indicates a lost connection aborts the
// tenant worker instead of moving on to the next batch.
package retry
