package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// fakeConn simulates the session variable semantics the binder relies
// on: set_config stores a value, RESET clears it, current_setting reads
// it back.
type fakeConn struct {
	current string

	execSQL []string
	execErr error
	// ignoreSet simulates a server that silently drops the assignment,
	// which the readback verification must catch.
	ignoreSet bool
}

func (f *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	switch {
	case strings.Contains(sql, "set_config"):
		if !f.ignoreSet {
			f.current = args[1].(string)
		}
	case strings.HasPrefix(sql, "RESET "):
		f.current = ""
	}
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (f *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return fakeRow{value: f.current}
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

func TestNewBinderValidatesSettingKey(t *testing.T) {
	for _, key := range []string{"app.current_tenant", "my_app.tenant_id"} {
		b, err := NewBinder(key)
		require.NoError(t, err, key)
		assert.Equal(t, key, b.SettingKey())
	}

	for _, key := range []string{"", "current_tenant", "app.", "app.tenant; DROP TABLE x", "App.Tenant", "a.b.c"} {
		_, err := NewBinder(key)
		require.Error(t, err, key)
		assert.ErrorIs(t, err, pgrls.ErrInvalidConfig, key)
	}
}

func TestBindSetsAndVerifiesTenant(t *testing.T) {
	b, err := NewBinder("app.current_tenant")
	require.NoError(t, err)

	conn := &fakeConn{}
	require.NoError(t, b.Bind(context.Background(), conn, 42))

	assert.Equal(t, "42", conn.current)
	require.Len(t, conn.execSQL, 1)
	assert.Equal(t, "SELECT set_config($1, $2, false)", conn.execSQL[0])
}

func TestBindSameTenantTwiceIsIdempotent(t *testing.T) {
	b, err := NewBinder("app.current_tenant")
	require.NoError(t, err)

	conn := &fakeConn{}
	require.NoError(t, b.Bind(context.Background(), conn, 7))
	require.NoError(t, b.Bind(context.Background(), conn, 7))
	assert.Equal(t, "7", conn.current)
}

func TestBindRejectsRebindingToDifferentTenant(t *testing.T) {
	b, err := NewBinder("app.current_tenant")
	require.NoError(t, err)

	conn := &fakeConn{}
	require.NoError(t, b.Bind(context.Background(), conn, 1))

	err = b.Bind(context.Background(), conn, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, pgrls.ErrAlreadyBound)
	// The stale binding is untouched; the caller decides what to do.
	assert.Equal(t, "1", conn.current)
}

func TestBindDetectsReadbackMismatch(t *testing.T) {
	b, err := NewBinder("app.current_tenant")
	require.NoError(t, err)

	conn := &fakeConn{ignoreSet: true}
	err = b.Bind(context.Background(), conn, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, pgrls.ErrBindMismatch)
}

func TestBindPropagatesExecError(t *testing.T) {
	b, err := NewBinder("app.current_tenant")
	require.NoError(t, err)

	conn := &fakeConn{execErr: errors.New("server exploded")}
	err = b.Bind(context.Background(), conn, 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, pgrls.ErrBindMismatch)
}

func TestClearResetsBinding(t *testing.T) {
	b, err := NewBinder("app.current_tenant")
	require.NoError(t, err)

	conn := &fakeConn{current: "9"}
	require.NoError(t, b.Clear(context.Background(), conn))

	assert.Equal(t, "", conn.current)
	require.Len(t, conn.execSQL, 1)
	assert.Equal(t, "RESET app.current_tenant", conn.execSQL[0])
}

func TestCurrentReturnsEmptyWhenUnbound(t *testing.T) {
	b, err := NewBinder("app.current_tenant")
	require.NoError(t, err)

	got, err := b.Current(context.Background(), &fakeConn{})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
