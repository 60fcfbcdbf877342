// Package ingest implements bulk loading of readings into the
// RLS-protected conditions table: two interchangeable write strategies
// (batched parameterized insert and binary COPY) and a concurrent
// per-tenant pipeline that drives them with partial-failure isolation.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgrls/internal/sensor"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// RowWriter persists a single tenant's readings inside a caller-supplied
// transaction. A call either writes every row or fails as a unit.
//
// Preconditions (the writer does not re-validate them):
//   - all rows belong to one tenant
//   - the transaction's connection is already bound to that tenant
type RowWriter interface {
	// WriteRows writes rows inside tx and returns the count written.
	WriteRows(ctx context.Context, tx pgx.Tx, rows []pgrls.Reading) (int64, error)

	// BatchSize returns the strategy's preferred rows per transaction.
	BatchSize() int

	// Name identifies the strategy in logs.
	Name() string
}

// insertColumnList is fixed at startup from the declared column order;
// statements are never derived from row data.
var insertColumnList = strings.Join(sensor.WriteColumns, ", ")

// WriterOption configures a write strategy.
type WriterOption func(*writerConfig)

type writerConfig struct {
	batchSize int
	timeout   time.Duration
}

// WithBatchSize overrides the strategy's default rows-per-transaction.
func WithBatchSize(n int) WriterOption {
	return func(c *writerConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithStatementTimeout overrides the per-batch statement timeout.
func WithStatementTimeout(d time.Duration) WriterOption {
	return func(c *writerConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// applyTimeout installs the per-batch statement timeout. SET LOCAL is
// transaction-scoped, so it dies with the commit or rollback and never
// leaks onto the tenant connection.
func applyTimeout(ctx context.Context, tx pgx.Tx, timeout time.Duration) error {
	_, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", timeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("setting statement timeout: %w", err)
	}
	return nil
}
