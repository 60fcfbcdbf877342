package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// releaseTimeout bounds the Clear statement issued during release, so a
// wedged server cannot hold up shutdown indefinitely.
const releaseTimeout = 5 * time.Second

// TenantConn owns one physical connection bound to one tenant for the
// connection's entire checkout. The tenant is fixed at Open and the
// connection is never shared across tenants or workers.
//
// Lifecycle:
//  1. Open acquires a pooled connection and binds the tenant context.
//  2. The caller runs transactions via Begin/BeginTx.
//  3. Release clears the tenant context and returns the connection to
//     the pool. Release is idempotent and safe in a defer, so the
//     clear+return happens on every exit path.
//
// Not safe for concurrent use except for Release.
type TenantConn struct {
	tenantID int64
	conn     *pgxpool.Conn
	binder   *Binder
	logger   pgrls.Logger

	mu       sync.Mutex
	released bool
}

// Open acquires a connection from pool and binds it to tenantID.
//
// If binding fails the connection is never handed out: the partial
// binding is cleared best-effort and the connection is released (or
// destroyed when clearing also fails), so no bound connection leaks
// back into the pool.
func Open(ctx context.Context, pool *pgxpool.Pool, tenantID int64, binder *Binder, logger pgrls.Logger) (*TenantConn, error) {
	if pool == nil {
		panic("pool cannot be nil")
	}
	if binder == nil {
		panic("binder cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for tenant %d: %w", tenantID, err)
	}

	if err := binder.Bind(ctx, conn, tenantID); err != nil {
		discard(ctx, conn, binder)
		return nil, err
	}

	logger.Verbose("bound connection to tenant %d", tenantID)

	return &TenantConn{
		tenantID: tenantID,
		conn:     conn,
		binder:   binder,
		logger:   logger,
	}, nil
}

// discard returns a possibly part-bound connection safely: clear the
// binding and release, or destroy the physical connection when the
// clear cannot be confirmed.
func discard(ctx context.Context, conn *pgxpool.Conn, binder *Binder) {
	if conn.Conn().IsClosed() {
		conn.Release()
		return
	}
	if err := binder.Clear(ctx, conn); err != nil {
		_ = conn.Hijack().Close(ctx)
		return
	}
	conn.Release()
}

// TenantID returns the tenant this connection is bound to.
func (tc *TenantConn) TenantID() int64 {
	return tc.tenantID
}

// Conn exposes the underlying pooled connection for queries. The
// returned connection is valid until Release.
func (tc *TenantConn) Conn() *pgxpool.Conn {
	return tc.conn
}

// Begin starts a transaction with the default isolation level
// (read committed). Row-level security policies are evaluated
// per-statement under the session binding, so transaction isolation
// does not substitute for correct binding.
func (tc *TenantConn) Begin(ctx context.Context) (pgx.Tx, error) {
	if tc.isReleased() {
		return nil, pgrls.ErrConnReleased
	}
	return tc.conn.Begin(ctx)
}

// BeginTx starts a transaction with caller-selected options.
func (tc *TenantConn) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	if tc.isReleased() {
		return nil, pgrls.ErrConnReleased
	}
	return tc.conn.BeginTx(ctx, txOptions)
}

// IsClosed reports whether the underlying physical connection is dead.
// A dead connection aborts its tenant worker; there is no rebinding.
func (tc *TenantConn) IsClosed() bool {
	if tc.isReleased() {
		return true
	}
	return tc.conn.Conn().IsClosed()
}

// Release clears the tenant binding and returns the connection to the
// pool. Idempotent; intended for defer so clear+return runs on every
// exit path, including panics in the caller.
//
// If the binding cannot be cleared, the physical connection is
// destroyed instead of being returned: no pooled connection may ever
// carry a previous tenant's context.
func (tc *TenantConn) Release() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.released {
		return
	}
	tc.released = true

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if tc.conn.Conn().IsClosed() {
		tc.conn.Release()
		return
	}

	if err := tc.binder.Clear(ctx, tc.conn); err != nil {
		tc.logger.Error("tenant %d: failed to clear session binding, destroying connection: %v", tc.tenantID, err)
		_ = tc.conn.Hijack().Close(ctx)
		return
	}

	tc.logger.Verbose("released connection for tenant %d", tc.tenantID)
	tc.conn.Release()
}

func (tc *TenantConn) isReleased() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.released
}
