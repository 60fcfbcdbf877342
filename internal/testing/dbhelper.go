// Package testing provides shared helpers for integration tests that
// need a PostgreSQL database with the row-level-security schema
// installed.
package testing

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgrls/internal/testinfra"
)

var (
	testContainerOnce sync.Once
	adminConn         string
	appConn           string
	testContainerErr  error
)

func getOrStartTestContainer() (admin, app string, err error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()

		if conn := os.Getenv("PGRLS_TEST_CONN"); conn != "" {
			adminConn = conn
		} else {
			container, err := testinfra.StartSimplePostgres(ctx)
			if err != nil {
				testContainerErr = err
				return
			}
			adminConn = container.ConnString
		}

		appConn, testContainerErr = testinfra.BootstrapRLS(ctx, adminConn)
	})
	return adminConn, appConn, testContainerErr
}

// GetTestConnectionString returns a connection string for the
// application role, with the RLS schema bootstrapped. Priority:
// PGRLS_TEST_CONN env var (pointing at a superuser/admin account) >
// auto-started testcontainer > skip test.
//
// The returned string connects as the non-superuser application role;
// row-level security is enforced on it.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	_, app, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("PGRLS_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return app
}

// GetAdminConnectionString returns the superuser connection string for
// the same database. Superusers bypass row-level security, which is
// exactly what cross-tenant assertions need.
func GetAdminConnectionString(t *testing.T) string {
	t.Helper()

	admin, _, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("PGRLS_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return admin
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the application-role connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// TruncateReadings wipes the conditions table between tests using the
// admin connection (the application role only sees its bound tenant).
func TruncateReadings(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, GetAdminConnectionString(t))
	if err != nil {
		t.Fatalf("Failed to connect for truncate: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "TRUNCATE conditions RESTART IDENTITY"); err != nil {
		t.Fatalf("Failed to truncate conditions: %v", err)
	}
}

// GetTestPool creates a connection pool for the application role.
// The pool is automatically closed when the test completes.
func GetTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), RequireDatabase(t))
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
