package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgrls/internal/sensor"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// InsertWriter writes readings with a multi-row parameterized INSERT.
// Null measurements are carried through as SQL NULL, so it accepts any
// valid reading. This is the default strategy.
type InsertWriter struct {
	batchSize int
	timeout   time.Duration
}

// NewInsertWriter creates the INSERT strategy with the default batch
// size and statement timeout unless overridden.
func NewInsertWriter(opts ...WriterOption) *InsertWriter {
	cfg := writerConfig{
		batchSize: pgrls.DefaultInsertBatchSize,
		timeout:   pgrls.DefaultStatementTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &InsertWriter{batchSize: cfg.batchSize, timeout: cfg.timeout}
}

// BatchSize returns the preferred rows per transaction.
func (w *InsertWriter) BatchSize() int {
	return w.batchSize
}

// Name identifies the strategy in logs.
func (w *InsertWriter) Name() string {
	return "insert"
}

// WriteRows writes all rows in a single multi-row INSERT statement.
func (w *InsertWriter) WriteRows(ctx context.Context, tx pgx.Tx, rows []pgrls.Reading) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	if err := applyTimeout(ctx, tx, w.timeout); err != nil {
		return 0, err
	}

	sql, args := buildInsert(rows)
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting %d rows: %w", len(rows), err)
	}
	return tag.RowsAffected(), nil
}

// buildInsert renders the VALUES placeholder list for len(rows) tuples.
// Only placeholder positions vary with the input; table and column names
// come from the fixed declarations in package sensor.
func buildInsert(rows []pgrls.Reading) (string, []any) {
	cols := len(sensor.WriteColumns)

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sensor.TableName)
	b.WriteString(" (")
	b.WriteString(insertColumnList)
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*cols)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(i*cols + c + 1))
		}
		b.WriteByte(')')
		args = append(args, r.TenantID, r.Location, r.Temperature, r.Humidity)
	}

	return b.String(), args
}
