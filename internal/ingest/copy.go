package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgrls/internal/sensor"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// CopyWriter streams readings with the binary COPY protocol. It refuses
// rows with null measurements up front, before any data hits the wire,
// so a batch never dies halfway through the stream.
type CopyWriter struct {
	batchSize int
	timeout   time.Duration
}

// NewCopyWriter creates the COPY strategy with the default batch size
// and statement timeout unless overridden.
func NewCopyWriter(opts ...WriterOption) *CopyWriter {
	cfg := writerConfig{
		batchSize: pgrls.DefaultCopyBatchSize,
		timeout:   pgrls.DefaultStatementTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &CopyWriter{batchSize: cfg.batchSize, timeout: cfg.timeout}
}

// BatchSize returns the preferred rows per transaction.
func (w *CopyWriter) BatchSize() int {
	return w.batchSize
}

// Name identifies the strategy in logs.
func (w *CopyWriter) Name() string {
	return "copy"
}

// WriteRows streams all rows through one COPY statement.
func (w *CopyWriter) WriteRows(ctx context.Context, tx pgx.Tx, rows []pgrls.Reading) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	for i, r := range rows {
		if r.Temperature == nil || r.Humidity == nil {
			return 0, fmt.Errorf("row %d of %d: %w", i, len(rows), pgrls.ErrNullMeasurement)
		}
	}

	if err := applyTimeout(ctx, tx, w.timeout); err != nil {
		return 0, err
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{sensor.TableName},
		sensor.WriteColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.TenantID, r.Location, *r.Temperature, *r.Humidity}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copying %d rows: %w", len(rows), err)
	}
	return n, nil
}
