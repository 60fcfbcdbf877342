// Package sensor defines the conditions table layout and generates
// synthetic readings for seeding runs.
package sensor

// TableName is the RLS-protected table all readings land in.
const TableName = "conditions"

// TenantColumn is the column the row-level security policy compares
// against the session tenant binding.
const TenantColumn = "tenant_id"

// WriteColumns is the fixed column order used by both write strategies.
// The id column is server-generated and never written.
var WriteColumns = []string{"tenant_id", "location", "temperature", "humidity"}
