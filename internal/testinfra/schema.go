package testinfra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgrls/internal/db"
	"github.com/vvka-141/pgrls/internal/policy"
	"github.com/vvka-141/pgrls/internal/sensor"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// AppUser is the non-superuser role integration tests connect as.
// Superusers bypass row-level security even with FORCE, so the policies
// are only observable through this role.
const (
	AppUser     = "app_user"
	AppPassword = "app_user"
)

// BootstrapRLS installs the conditions table, its row-level security
// policy and the application role on the database adminConnString points
// at. It is idempotent so shared containers can be bootstrapped once per
// process. Returns the connection string for the application role.
func BootstrapRLS(ctx context.Context, adminConnString string) (string, error) {
	pool, err := pgxpool.New(ctx, adminConnString)
	if err != nil {
		return "", fmt.Errorf("connect for bootstrap: %w", err)
	}
	defer pool.Close()

	registry := policy.MustNewRegistry(pgrls.DefaultTenantSettingKey, policy.TablePolicy{
		Table:        sensor.TableName,
		TenantColumn: sensor.TenantColumn,
		Force:        true,
	})

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			%s BIGINT NOT NULL,
			location TEXT NOT NULL,
			temperature DOUBLE PRECISION,
			humidity DOUBLE PRECISION
		)`, sensor.TableName, sensor.TenantColumn),
	}

	policyStmts, err := registry.EnableSQL(sensor.TableName)
	if err != nil {
		return "", err
	}
	// CREATE POLICY has no IF NOT EXISTS; drop first for idempotency.
	stmts = append(stmts,
		fmt.Sprintf("DROP POLICY IF EXISTS %s_isolation_policy ON %s", sensor.TableName, sensor.TableName))
	stmts = append(stmts, policyStmts...)

	stmts = append(stmts,
		fmt.Sprintf(`DO $$ BEGIN
			CREATE ROLE %s LOGIN PASSWORD '%s';
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`, AppUser, AppPassword),
		fmt.Sprintf("GRANT USAGE ON SCHEMA public TO %s", AppUser),
		fmt.Sprintf("GRANT SELECT, INSERT, UPDATE, DELETE ON %s TO %s", sensor.TableName, AppUser),
	)

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return "", fmt.Errorf("bootstrap statement failed: %w\n%s", err, stmt)
		}
	}

	return AppConnString(adminConnString)
}

// AppConnString rewrites adminConnString to connect as the application
// role instead of the superuser.
func AppConnString(adminConnString string) (string, error) {
	cfg, err := db.ParseConnectionString(adminConnString)
	if err != nil {
		return "", fmt.Errorf("parse admin connection string: %w", err)
	}
	cfg.Username = AppUser
	cfg.Password = AppPassword
	return db.BuildConnectionString(cfg), nil
}
