package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes for transient conditions
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	// Class 40 - Transaction Rollback
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"

	// Class 55 - Object Not In Prerequisite State
	pgCodeLockNotAvailable = "55P03"

	// Class 57 - Operator Intervention
	pgCodeQueryCanceled = "57014"
)

// PostgreSQLErrorClassifier implements pgrls.ErrorClassifier for
// PostgreSQL-specific errors.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
//
// Constraint violations (class 23) are deliberately NOT transient: a
// batch that violates a constraint will violate it again, so the
// pipeline rolls it back and moves on rather than retrying.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return c.isTransientPgError(pgErr)
	}

	if c.isNetworkError(err) {
		return true
	}

	return c.isConnectionError(err)
}

// isTransientPgError checks PostgreSQL error codes for transient conditions.
func (c *PostgreSQLErrorClassifier) isTransientPgError(pgErr *pgconn.PgError) bool {
	code := pgErr.Code

	switch {
	case strings.HasPrefix(code, "08"): // Connection Exception
		return true
	case strings.HasPrefix(code, "53"): // Insufficient Resources
		return true
	case strings.HasPrefix(code, "57"): // Operator Intervention (incl. statement timeout)
		return true
	}

	switch code {
	case pgCodeSerializationFailure,
		pgCodeDeadlockDetected,
		pgCodeLockNotAvailable,
		pgCodeQueryCanceled:
		return true
	}

	return false
}

// isNetworkError checks for network-level errors.
func (c *PostgreSQLErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Temporary() || opErr.Timeout() {
			return true
		}
		if opErr.Err != nil {
			for _, errno := range []syscall.Errno{
				syscall.ECONNREFUSED,
				syscall.ECONNRESET,
				syscall.ENETUNREACH,
				syscall.EHOSTUNREACH,
			} {
				if errors.Is(opErr.Err, errno) {
					return true
				}
			}
		}
	}

	return false
}

// isConnectionError checks for connection-related errors from pgconn
// that surface only as message text.
func (c *PostgreSQLErrorClassifier) isConnectionError(err error) bool {
	errMsg := strings.ToLower(err.Error())

	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"connection failure",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"too many connections",
		"server closed the connection",
		"unexpected eof",
		"conn closed",
		"context deadline exceeded", // May be transient if external timeout
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// IsConnectionFatal reports whether an error indicates the physical
// connection is unusable. A tenant worker seeing such an error stops
// picking up further batches; a plain statement failure does not.
func IsConnectionFatal(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 means the connection itself failed.
		return strings.HasPrefix(pgErr.Code, "08")
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"conn closed",
		"server closed the connection",
		"broken pipe",
		"connection reset",
		"unexpected eof",
	} {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
