package ingest

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// mockTx implements pgx.Tx. Only the methods the pipeline and writers
// touch are functional; everything else panics to catch drift.
type mockTx struct {
	mu         sync.Mutex
	execSQL    []string
	execArgs   [][]any
	committed  bool
	rolledBack bool

	execErr   error
	commitErr error
	copyErr   error
	copyRows  int64
	copyCalls int
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execSQL = append(m.execSQL, sql)
	m.execArgs = append(m.execArgs, arguments)
	if m.execErr != nil {
		return pgconn.CommandTag{}, m.execErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockTx) Commit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copyCalls++
	if m.copyErr != nil {
		return 0, m.copyErr
	}
	var n int64
	for rowSrc.Next() {
		if _, err := rowSrc.Values(); err != nil {
			return n, err
		}
		n++
	}
	m.copyRows = n
	return n, nil
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockSession implements TenantSession over mockTx transactions.
type mockSession struct {
	tenantID int64

	mu       sync.Mutex
	txs      []*mockTx
	beginErr error
	closed   bool
	released bool

	// nextTx customizes the transaction returned by the next Begin.
	nextTx func() *mockTx
}

func (m *mockSession) TenantID() int64 { return m.tenantID }

func (m *mockSession) Begin(ctx context.Context) (pgx.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	tx := &mockTx{}
	if m.nextTx != nil {
		tx = m.nextTx()
	}
	m.txs = append(m.txs, tx)
	return tx, nil
}

func (m *mockSession) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockSession) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
}

// mockWriter implements RowWriter with scriptable per-call failures.
type mockWriter struct {
	batchSize int

	mu      sync.Mutex
	calls   [][]pgrls.Reading
	failOn  map[int]error // zero-based call index -> error
	written int64
}

func newMockWriter(batchSize int) *mockWriter {
	return &mockWriter{batchSize: batchSize, failOn: map[int]error{}}
}

func (m *mockWriter) WriteRows(ctx context.Context, tx pgx.Tx, rows []pgrls.Reading) (int64, error) {
	m.mu.Lock()
	call := len(m.calls)
	m.calls = append(m.calls, rows)
	err := m.failOn[call]
	m.mu.Unlock()

	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	m.written += int64(len(rows))
	m.mu.Unlock()
	return int64(len(rows)), nil
}

func (m *mockWriter) BatchSize() int { return m.batchSize }
func (m *mockWriter) Name() string   { return "mock" }

// sessionRecorder tracks sessions handed out by a test opener.
type sessionRecorder struct {
	mu       sync.Mutex
	sessions map[int64]*mockSession
	openErr  map[int64]error
}

func newSessionRecorder() *sessionRecorder {
	return &sessionRecorder{
		sessions: map[int64]*mockSession{},
		openErr:  map[int64]error{},
	}
}

func (r *sessionRecorder) opener() SessionOpener {
	return func(ctx context.Context, tenantID int64) (TenantSession, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if err := r.openErr[tenantID]; err != nil {
			return nil, err
		}
		sess := &mockSession{tenantID: tenantID}
		r.sessions[tenantID] = sess
		return sess, nil
	}
}

func (r *sessionRecorder) session(tenantID int64) *mockSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[tenantID]
}
