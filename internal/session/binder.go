// Package session implements the tenant-scoped connection lifecycle:
// binding a physical connection to exactly one tenant's security
// context, and guaranteeing the context is cleared before the
// connection is released.
package session

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// Querier is the subset of connection operations the binder needs.
// *pgxpool.Conn, *pgx.Conn and pgx.Tx all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// settingKeyPattern requires the two-part form custom GUCs must have.
// The key is interpolated into RESET, so it is validated once here and
// never taken from untrusted input.
var settingKeyPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*\.[a-z_][a-z0-9_]*$`)

// Binder installs and removes the session-scoped tenant variable on a
// connection. The assignment is session scope (not transaction scope),
// so it survives across transactions on the same connection but never
// survives the connection itself.
//
// Binder is stateless and safe for concurrent use.
type Binder struct {
	settingKey string
}

// NewBinder creates a Binder for the given session variable key
// (e.g. "app.current_tenant"). The key must match the column comparison
// in the deployed row-level security policies.
func NewBinder(settingKey string) (*Binder, error) {
	if !settingKeyPattern.MatchString(settingKey) {
		return nil, fmt.Errorf("invalid session setting key %q: %w", settingKey, pgrls.ErrInvalidConfig)
	}
	return &Binder{settingKey: settingKey}, nil
}

// SettingKey returns the session variable key this binder manages.
func (b *Binder) SettingKey() string {
	return b.settingKey
}

// Bind installs tenantID as the connection's session tenant context.
//
// Bind must be called before any tenant-scoped statement executes on the
// connection. It fails with ErrAlreadyBound if the connection is still
// bound to a different tenant (rebinding without clearing first is a
// protocol violation), and with ErrBindMismatch if the readback after
// assignment does not return the intended tenant. In either failure
// case the connection must not be used for tenant-scoped statements and
// must still be cleared/closed by the caller.
func (b *Binder) Bind(ctx context.Context, q Querier, tenantID int64) error {
	current, err := b.Current(ctx, q)
	if err != nil {
		return fmt.Errorf("probing tenant binding: %w", err)
	}

	want := strconv.FormatInt(tenantID, 10)
	if current != "" && current != want {
		return fmt.Errorf("cannot bind tenant %d, tenant %s still bound: %w",
			tenantID, current, pgrls.ErrAlreadyBound)
	}

	if _, err := q.Exec(ctx, "SELECT set_config($1, $2, false)", b.settingKey, want); err != nil {
		return fmt.Errorf("setting tenant binding for tenant %d: %w", tenantID, err)
	}

	got, err := b.Current(ctx, q)
	if err != nil {
		return fmt.Errorf("reading back tenant binding: %w", err)
	}
	if got != want {
		return fmt.Errorf("bound %q, read back %q: %w", want, got, pgrls.ErrBindMismatch)
	}

	return nil
}

// Clear resets the session tenant variable to its unset default. It is
// invoked on every release path so a connection never sits idle, or
// returns to a pool, while still bound to a tenant.
func (b *Binder) Clear(ctx context.Context, q Querier) error {
	// RESET takes an identifier, not a parameter; settingKey was
	// validated at construction.
	if _, err := q.Exec(ctx, "RESET "+b.settingKey); err != nil {
		return fmt.Errorf("clearing tenant binding: %w", err)
	}
	return nil
}

// Current returns the tenant currently bound on the connection, or the
// empty string when unbound.
func (b *Binder) Current(ctx context.Context, q Querier) (string, error) {
	var value string
	err := q.QueryRow(ctx, "SELECT COALESCE(current_setting($1, true), '')", b.settingKey).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}
