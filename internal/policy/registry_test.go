package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryValidation(t *testing.T) {
	_, err := NewRegistry("")
	assert.Error(t, err)

	_, err = NewRegistry("app.current_tenant", TablePolicy{Table: "Conditions", TenantColumn: "tenant_id"})
	assert.Error(t, err, "upper case table names need quoting and are rejected")

	_, err = NewRegistry("app.current_tenant", TablePolicy{Table: "conditions", TenantColumn: "tenant id"})
	assert.Error(t, err)

	_, err = NewRegistry("app.current_tenant",
		TablePolicy{Table: "conditions", TenantColumn: "tenant_id"},
		TablePolicy{Table: "conditions", TenantColumn: "other"},
	)
	assert.Error(t, err, "duplicate table declarations")
}

func TestRegistryLookup(t *testing.T) {
	r, err := NewRegistry("app.current_tenant",
		TablePolicy{Table: "conditions", TenantColumn: "tenant_id", Force: true})
	require.NoError(t, err)

	assert.Equal(t, "app.current_tenant", r.SettingKey())
	assert.Equal(t, 1, r.Tables())

	p, ok := r.Lookup("conditions")
	require.True(t, ok)
	assert.True(t, p.Force)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestEnableSQLEmitsPolicyDDL(t *testing.T) {
	r, err := NewRegistry("app.current_tenant",
		TablePolicy{Table: "conditions", TenantColumn: "tenant_id", Force: true})
	require.NoError(t, err)

	stmts, err := r.EnableSQL("conditions")
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	assert.Equal(t, "ALTER TABLE conditions ENABLE ROW LEVEL SECURITY", stmts[0])
	assert.Equal(t,
		"CREATE POLICY conditions_isolation_policy ON conditions FOR ALL "+
			"USING (tenant_id = current_setting('app.current_tenant')::BIGINT)",
		stmts[1])
	assert.Equal(t, "ALTER TABLE conditions FORCE ROW LEVEL SECURITY", stmts[2])
}

func TestEnableSQLWithoutForce(t *testing.T) {
	r, err := NewRegistry("app.current_tenant",
		TablePolicy{Table: "conditions", TenantColumn: "tenant_id"})
	require.NoError(t, err)

	stmts, err := r.EnableSQL("conditions")
	require.NoError(t, err)
	assert.Len(t, stmts, 2)
}

func TestEnableSQLUnknownTable(t *testing.T) {
	r := MustNewRegistry("app.current_tenant")
	_, err := r.EnableSQL("conditions")
	assert.Error(t, err)
}

func TestMustNewRegistryPanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		MustNewRegistry("app.current_tenant", TablePolicy{Table: "bad name", TenantColumn: "tenant_id"})
	})
}
