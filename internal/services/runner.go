// Package services orchestrates the user-facing workflows: single-row
// demonstration inserts, continuous inserts and bulk seeding runs. It
// owns connecting, tenant session lifecycles and strategy selection;
// the CLI layer only parses flags and prints results.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgrls/internal/ingest"
	"github.com/vvka-141/pgrls/internal/sensor"
	"github.com/vvka-141/pgrls/internal/session"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// readBackLimit caps how many rows the demonstration insert reads back.
const readBackLimit = 10

// Runner executes workflows against one database. It connects lazily
// per workflow and never keeps a pool across calls.
type Runner struct {
	connector pgrls.Connector
	binder    *session.Binder
	logger    pgrls.Logger
}

// NewRunner creates a Runner. All dependencies are required.
func NewRunner(connector pgrls.Connector, binder *session.Binder, logger pgrls.Logger) *Runner {
	if connector == nil {
		panic("connector cannot be nil")
	}
	if binder == nil {
		panic("binder cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Runner{connector: connector, binder: binder, logger: logger}
}

func (r *Runner) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := r.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (r *Runner) opener(pool *pgxpool.Pool) ingest.SessionOpener {
	return func(ctx context.Context, tenantID int64) (ingest.TenantSession, error) {
		return session.Open(ctx, pool, tenantID, r.binder, r.logger)
	}
}

// ReadingSpec overrides fields of the generated demonstration reading.
// Zero values keep the generated ones.
type ReadingSpec struct {
	Location    string
	Temperature *float64
	Humidity    *float64
}

// InsertOne writes one reading for tenantID (random tenant when zero)
// and reads back that tenant's latest readings at the same location,
// proving the session only sees its own rows. The read-back result is
// returned for display.
func (r *Runner) InsertOne(ctx context.Context, tenantID int64, spec ReadingSpec) ([]pgrls.Reading, error) {
	if tenantID == 0 {
		tenantID = sensor.RandomTenant()
	}

	pool, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	tc, err := session.Open(ctx, pool, tenantID, r.binder, r.logger)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows := sensor.OfficeForTenant(tenantID, 1)
	if spec.Location != "" {
		rows[0].Location = spec.Location
	}
	if spec.Temperature != nil {
		rows[0].Temperature = spec.Temperature
	}
	if spec.Humidity != nil {
		rows[0].Humidity = spec.Humidity
	}

	if err := r.writeOnce(ctx, tc, rows); err != nil {
		return nil, err
	}
	r.logger.Info("inserted 1 %s reading for tenant %d", rows[0].Location, tenantID)

	return ingest.ReadingsByLocation(ctx, tc.Conn(), rows[0].Location, readBackLimit)
}

// InsertBatch writes count office and count home readings for tenantID
// (random tenant when zero) in one transaction, so a failure rolls the
// whole batch back. It reads back the tenant's latest office readings
// for display, like InsertOne.
func (r *Runner) InsertBatch(ctx context.Context, tenantID int64, count int) ([]pgrls.Reading, error) {
	if tenantID == 0 {
		tenantID = sensor.RandomTenant()
	}
	if count <= 0 {
		count = 1
	}

	pool, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	tc, err := session.Open(ctx, pool, tenantID, r.binder, r.logger)
	if err != nil {
		return nil, err
	}
	defer tc.Release()

	rows := sensor.OfficeForTenant(tenantID, count)
	rows = append(rows, sensor.HomeForTenant(tenantID, count)...)

	if err := r.writeOnce(ctx, tc, rows); err != nil {
		return nil, err
	}
	r.logger.Info("inserted %d readings for tenant %d", len(rows), tenantID)

	return ingest.ReadingsByLocation(ctx, tc.Conn(), sensor.LocationOffice, readBackLimit)
}

// KeepInserting writes one office and one home reading for tenantID
// (random tenant when zero) every interval until ctx is cancelled.
// Cancellation is the normal way to stop, so it returns nil for context
// errors.
func (r *Runner) KeepInserting(ctx context.Context, tenantID int64, interval time.Duration) error {
	if tenantID == 0 {
		tenantID = sensor.RandomTenant()
	}
	if interval <= 0 {
		interval = time.Second
	}

	pool, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	tc, err := session.Open(ctx, pool, tenantID, r.binder, r.logger)
	if err != nil {
		return err
	}
	defer tc.Release()

	r.logger.Info("inserting readings for tenant %d every %s, interrupt to stop", tenantID, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	written := 0
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopped after %d readings", written)
			return nil
		case <-ticker.C:
		}

		rows := sensor.OfficeForTenant(tenantID, 1)
		rows = append(rows, sensor.HomeForTenant(tenantID, 1)...)
		if err := r.writeOnce(ctx, tc, rows); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("stopped after %d readings", written)
				return nil
			}
			return fmt.Errorf("after %d readings: %w", written, err)
		}
		written += len(rows)
		r.logger.Verbose("tenant %d: %d readings written", tenantID, written)
	}
}

// writeOnce runs one insert batch in its own transaction on an already
// bound connection.
func (r *Runner) writeOnce(ctx context.Context, tc *session.TenantConn, rows []pgrls.Reading) error {
	tx, err := tc.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	writer := ingest.NewInsertWriter()
	if _, err := writer.WriteRows(ctx, tx, rows); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Seed generates cfg.Count synthetic readings, split between the office
// and home shapes, and loads them with the concurrent per-tenant
// pipeline. The summary is always returned; the error wraps
// ErrPartialCompletion when one or more batches failed, and reports
// cancellation when the run was interrupted.
func (r *Runner) Seed(ctx context.Context, cfg pgrls.SeedConfig, onProgress func(ingest.Progress)) (pgrls.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return pgrls.Summary{}, err
	}

	pool, err := r.connect(ctx)
	if err != nil {
		return pgrls.Summary{}, err
	}
	defer pool.Close()

	office := cfg.Count / 2
	rows := sensor.Office(office)
	rows = append(rows, sensor.Home(cfg.Count-office)...)

	var writer ingest.RowWriter
	if cfg.UseCopy {
		writer = ingest.NewCopyWriter(ingest.WithBatchSize(cfg.BatchSize))
	} else {
		writer = ingest.NewInsertWriter(ingest.WithBatchSize(cfg.BatchSize))
	}

	opts := []ingest.PipelineOption{ingest.WithParallelism(cfg.Parallelism)}
	if onProgress != nil {
		opts = append(opts, ingest.WithProgress(onProgress))
	}
	pipeline := ingest.NewPipeline(r.opener(pool), writer, r.logger, opts...)

	summary, err := pipeline.Run(ctx, rows)
	if err != nil {
		return summary, fmt.Errorf("seeding run %s interrupted: %w", summary.RunID, err)
	}
	if summary.State == pgrls.RunPartiallyFailed {
		return summary, fmt.Errorf("run %s: %d of %d rows loaded, %d batches failed: %w",
			summary.RunID, summary.Completed, summary.Planned, len(summary.FailedBatches),
			pgrls.ErrPartialCompletion)
	}
	return summary, nil
}
