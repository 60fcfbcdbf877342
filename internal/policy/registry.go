// Package policy holds the static registry of row-level-security
// protected tables. The registry replaces runtime discovery: every
// RLS table is declared here with its tenant column and enforcement
// mode, validated once at startup, and used to emit the policy DDL for
// bootstrap and tests.
package policy

import (
	"fmt"
	"regexp"
)

// TablePolicy declares row-level security for one table.
type TablePolicy struct {
	// Table is the unqualified table name.
	Table string

	// TenantColumn is the column compared against the session tenant
	// binding by the policy predicate.
	TenantColumn string

	// Force applies the policy to the table owner as well. Required
	// when the application role owns the table.
	Force bool
}

// identPattern restricts names to plain lower-case identifiers so the
// emitted DDL never needs quoting.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Registry maps table names to their RLS declarations. Immutable after
// construction; safe for concurrent reads.
type Registry struct {
	settingKey string
	policies   map[string]TablePolicy
}

// NewRegistry validates the declared policies and builds the registry.
// settingKey is the session variable the policies compare against
// (e.g. "app.current_tenant").
func NewRegistry(settingKey string, policies ...TablePolicy) (*Registry, error) {
	if settingKey == "" {
		return nil, fmt.Errorf("setting key cannot be empty")
	}

	byTable := make(map[string]TablePolicy, len(policies))
	for _, p := range policies {
		if !identPattern.MatchString(p.Table) {
			return nil, fmt.Errorf("invalid table name %q", p.Table)
		}
		if !identPattern.MatchString(p.TenantColumn) {
			return nil, fmt.Errorf("invalid tenant column %q for table %q", p.TenantColumn, p.Table)
		}
		if _, exists := byTable[p.Table]; exists {
			return nil, fmt.Errorf("duplicate policy for table %q", p.Table)
		}
		byTable[p.Table] = p
	}

	return &Registry{settingKey: settingKey, policies: byTable}, nil
}

// MustNewRegistry is NewRegistry for statically-known declarations.
// Panics on validation failure (programmer error).
func MustNewRegistry(settingKey string, policies ...TablePolicy) *Registry {
	r, err := NewRegistry(settingKey, policies...)
	if err != nil {
		panic(err)
	}
	return r
}

// SettingKey returns the session variable the policies compare against.
func (r *Registry) SettingKey() string {
	return r.settingKey
}

// Lookup returns the policy declared for table.
func (r *Registry) Lookup(table string) (TablePolicy, bool) {
	p, ok := r.policies[table]
	return p, ok
}

// Tables returns the number of declared policies.
func (r *Registry) Tables() int {
	return len(r.policies)
}

// EnableSQL emits the DDL statements that turn on row-level security
// for table: enable RLS, create the isolation policy, and optionally
// force RLS for the table owner. The statements are intended for
// bootstrap/migration tooling and test fixtures.
func (r *Registry) EnableSQL(table string) ([]string, error) {
	p, ok := r.policies[table]
	if !ok {
		return nil, fmt.Errorf("no policy declared for table %q", table)
	}

	stmts := []string{
		fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY", p.Table),
		fmt.Sprintf(
			"CREATE POLICY %s_isolation_policy ON %s FOR ALL USING (%s = current_setting('%s')::BIGINT)",
			p.Table, p.Table, p.TenantColumn, r.settingKey,
		),
	}
	if p.Force {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s FORCE ROW LEVEL SECURITY", p.Table))
	}
	return stmts, nil
}
