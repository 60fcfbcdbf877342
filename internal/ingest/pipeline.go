package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgrls/internal/retry"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// TenantSession is the per-tenant connection a worker drives its
// batches through. *session.TenantConn satisfies it; tests substitute
// mocks.
type TenantSession interface {
	TenantID() int64
	Begin(ctx context.Context) (pgx.Tx, error)
	IsClosed() bool
	Release()
}

// SessionOpener produces a session bound to the given tenant.
type SessionOpener func(ctx context.Context, tenantID int64) (TenantSession, error)

// Progress is delivered to the progress callback after every committed
// batch. Completed and Planned count rows across the whole run.
type Progress struct {
	RunID      uuid.UUID
	TenantID   int64
	BatchIndex int
	BatchRows  int
	Completed  int
	Planned    int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithParallelism bounds the number of concurrently running tenant
// workers.
func WithParallelism(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.parallelism = n
		}
	}
}

// WithPipelineBatchSize overrides the writer's preferred batch size.
func WithPipelineBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithProgress installs a callback invoked after every committed batch.
// The callback runs on worker goroutines and must be cheap.
func WithProgress(fn func(Progress)) PipelineOption {
	return func(p *Pipeline) {
		p.onProgress = fn
	}
}

// Pipeline loads readings concurrently, one worker per tenant, each
// worker writing its batches sequentially over a single bound
// connection. A failed batch is rolled back, recorded and skipped; the
// worker carries on with the next batch unless the connection itself
// died.
type Pipeline struct {
	open   SessionOpener
	writer RowWriter
	logger pgrls.Logger

	parallelism int
	batchSize   int
	onProgress  func(Progress)
}

// NewPipeline creates a pipeline that opens tenant sessions via open and
// writes with writer. All three arguments are required.
func NewPipeline(open SessionOpener, writer RowWriter, logger pgrls.Logger, opts ...PipelineOption) *Pipeline {
	if open == nil {
		panic("session opener cannot be nil")
	}
	if writer == nil {
		panic("writer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	p := &Pipeline{
		open:        open,
		writer:      writer,
		logger:      logger,
		parallelism: pgrls.DefaultParallelism,
		batchSize:   writer.BatchSize(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run loads rows and blocks until every worker finishes. The summary is
// always populated, also on cancellation; the error is non-nil only when
// ctx was cancelled before the run could finish.
//
// Batch failures do not fail the run. They are recorded in the summary
// and the run state becomes RunPartiallyFailed.
func (p *Pipeline) Run(ctx context.Context, rows []pgrls.Reading) (pgrls.Summary, error) {
	runID := uuid.New()
	started := time.Now()

	partitions := Plan(rows, p.batchSize)
	state := &runState{planned: len(rows)}

	p.logger.Info("run %s: %d rows across %d tenants, strategy %s, parallelism %d",
		runID, len(rows), len(partitions), p.writer.Name(), p.parallelism)

	sem := make(chan struct{}, p.parallelism)
	var wg sync.WaitGroup
	for _, part := range partitions {
		wg.Add(1)
		go func(part Partition) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				state.failFrom(part, 0, ctx.Err())
				return
			}
			p.runWorker(ctx, runID, part, state)
		}(part)
	}
	wg.Wait()

	summary := state.summary(runID, time.Since(started))
	p.logger.Info("run %s: %s, planned %d, completed %d, duration %.1fsec",
		runID, summary.State, summary.Planned, summary.Completed, summary.Elapsed.Seconds())

	return summary, ctx.Err()
}

// runWorker drains one tenant's partition over one bound session.
func (p *Pipeline) runWorker(ctx context.Context, runID uuid.UUID, part Partition, state *runState) {
	sess, err := p.open(ctx, part.TenantID)
	if err != nil {
		p.logger.Error("tenant %d: opening session: %v", part.TenantID, err)
		state.failFrom(part, 0, err)
		return
	}
	defer sess.Release()

	for _, batch := range part.Batches {
		if err := ctx.Err(); err != nil {
			state.failFrom(part, batch.Index, err)
			return
		}

		n, err := p.writeBatch(ctx, sess, batch)
		if err != nil {
			p.logger.Error("tenant %d batch %d (%d rows): %v",
				batch.TenantID, batch.Index, len(batch.Rows), err)
			state.fail(batch, err)

			if retry.IsConnectionFatal(err) || sess.IsClosed() {
				p.logger.Error("tenant %d: connection unusable, abandoning %d remaining batches",
					part.TenantID, len(part.Batches)-batch.Index-1)
				state.failFrom(part, batch.Index+1, err)
				return
			}
			continue
		}

		prog := state.complete(runID, batch, int(n))
		p.logger.Verbose("tenant %d batch %d committed, %d/%d rows done",
			batch.TenantID, batch.Index, prog.Completed, prog.Planned)
		if p.onProgress != nil {
			p.onProgress(prog)
		}
	}
}

// writeBatch runs one batch in its own transaction. On any failure the
// transaction is rolled back with a context that survives cancellation,
// so an aborted run still leaves no transaction open.
func (p *Pipeline) writeBatch(ctx context.Context, sess TenantSession, batch Batch) (int64, error) {
	tx, err := sess.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}

	n, err := p.writer.WriteRows(ctx, tx, batch.Rows)
	if err != nil {
		rollback(ctx, tx)
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		rollback(ctx, tx)
		return 0, fmt.Errorf("committing batch: %w", err)
	}
	return n, nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	// ErrTxClosed means the transaction already ended server-side; a
	// dropped connection aborts it without our help. Either way the
	// batch is already recorded as failed.
	_ = tx.Rollback(rbCtx)
}

// releaseTimeout bounds cleanup statements issued after a cancellation.
const releaseTimeout = 5 * time.Second

// runState accumulates per-batch outcomes across workers.
type runState struct {
	planned int

	mu        sync.Mutex
	completed int
	failures  []pgrls.BatchFailure
}

func (s *runState) complete(runID uuid.UUID, batch Batch, rows int) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed += rows
	return Progress{
		RunID:      runID,
		TenantID:   batch.TenantID,
		BatchIndex: batch.Index,
		BatchRows:  rows,
		Completed:  s.completed,
		Planned:    s.planned,
	}
}

func (s *runState) fail(batch Batch, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, pgrls.BatchFailure{
		TenantID:   batch.TenantID,
		BatchIndex: batch.Index,
		Rows:       len(batch.Rows),
		Err:        err,
	})
}

// failFrom records every batch from index on as failed with err.
func (s *runState) failFrom(part Partition, from int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, batch := range part.Batches[from:] {
		s.failures = append(s.failures, pgrls.BatchFailure{
			TenantID:   batch.TenantID,
			BatchIndex: batch.Index,
			Rows:       len(batch.Rows),
			Err:        err,
		})
	}
}

func (s *runState) summary(runID uuid.UUID, elapsed time.Duration) pgrls.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := pgrls.RunCompleted
	if len(s.failures) > 0 {
		state = pgrls.RunPartiallyFailed
	}
	return pgrls.Summary{
		RunID:         runID,
		State:         state,
		Planned:       s.planned,
		Completed:     s.completed,
		FailedBatches: append([]pgrls.BatchFailure(nil), s.failures...),
		Elapsed:       elapsed,
	}
}
