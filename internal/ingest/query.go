package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgrls/internal/sensor"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// Conn is the query surface the single-row helpers need. *pgxpool.Conn,
// *pgx.Conn and pgx.Tx all satisfy it. The connection must already be
// bound to a tenant; row-level security scopes every statement below.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ReadingsByLocation returns the bound tenant's readings for a location,
// newest first, capped at limit.
func ReadingsByLocation(ctx context.Context, conn Conn, location string, limit int) ([]pgrls.Reading, error) {
	rows, err := conn.Query(ctx,
		"SELECT id, "+insertColumnList+" FROM "+sensor.TableName+
			" WHERE location = $1 ORDER BY id DESC LIMIT $2",
		location, limit)
	if err != nil {
		return nil, fmt.Errorf("querying readings for location %q: %w", location, err)
	}
	defer rows.Close()

	var readings []pgrls.Reading
	for rows.Next() {
		var r pgrls.Reading
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Location, &r.Temperature, &r.Humidity); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading result rows: %w", err)
	}
	return readings, nil
}

// RewriteLocation renames every one of the bound tenant's readings at
// from to the location to, and returns the number of rows updated. The
// explicit tenant filter is redundant under row-level security but keeps
// the statement honest when run against an unprotected table.
func RewriteLocation(ctx context.Context, conn Conn, tenantID int64, from, to string) (int64, error) {
	tag, err := conn.Exec(ctx,
		"UPDATE "+sensor.TableName+" SET location = $1 WHERE location = $2 AND "+
			sensor.TenantColumn+" = $3",
		to, from, tenantID)
	if err != nil {
		return 0, fmt.Errorf("rewriting location %q to %q for tenant %d: %w", from, to, tenantID, err)
	}
	return tag.RowsAffected(), nil
}
