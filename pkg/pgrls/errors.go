package pgrls

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := runner.Seed(ctx, cfg)
//	if errors.Is(err, pgrls.ErrPartialCompletion) {
//	    // Inspect the summary and retry the shortfall
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrAlreadyBound indicates a tenant binding was attempted on a
	// connection that is still bound to another tenant. Rebinding
	// without clearing first is a protocol violation.
	ErrAlreadyBound = errors.New("connection already bound to a tenant")

	// ErrBindMismatch indicates the session tenant variable read back
	// after binding did not match the intended tenant. The connection
	// must not be used for tenant-scoped statements.
	ErrBindMismatch = errors.New("tenant binding readback mismatch")

	// ErrConnReleased indicates an operation on a tenant connection
	// that was already released.
	ErrConnReleased = errors.New("tenant connection already released")

	// ErrNullMeasurement indicates a NULL temperature or humidity was
	// supplied to the binary COPY writer, which cannot transmit unset
	// scalar values.
	ErrNullMeasurement = errors.New("null measurement not supported by binary copy")

	// ErrPartialCompletion indicates an ingestion run finished with at
	// least one rolled-back batch.
	ErrPartialCompletion = errors.New("ingestion partially failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported auth method")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrAlreadyBound), errors.Is(err, ErrBindMismatch):
		return ExitBindError
	case errors.Is(err, ErrPartialCompletion):
		return ExitPartialCompletion
	}

	// Check for common connection error patterns
	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
