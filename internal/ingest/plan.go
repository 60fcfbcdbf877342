package ingest

import "github.com/vvka-141/pgrls/pkg/pgrls"

// Batch is one transaction's worth of rows for one tenant. Index is the
// batch's position within its tenant's partition, starting at zero.
type Batch struct {
	TenantID int64
	Index    int
	Rows     []pgrls.Reading
}

// Partition holds every batch destined for one tenant. Batches preserve
// the relative order rows arrived in.
type Partition struct {
	TenantID int64
	Batches  []Batch
	Rows     int
}

// Plan groups rows by tenant and chunks each tenant's rows into batches
// of at most batchSize. Partitions appear in first-seen tenant order and
// row order within a tenant is preserved, so repeated runs over the same
// input produce the same plan.
func Plan(rows []pgrls.Reading, batchSize int) []Partition {
	if batchSize <= 0 {
		batchSize = pgrls.DefaultInsertBatchSize
	}

	byTenant := make(map[int64][]pgrls.Reading)
	var order []int64
	for _, r := range rows {
		if _, seen := byTenant[r.TenantID]; !seen {
			order = append(order, r.TenantID)
		}
		byTenant[r.TenantID] = append(byTenant[r.TenantID], r)
	}

	partitions := make([]Partition, 0, len(order))
	for _, tenantID := range order {
		tenantRows := byTenant[tenantID]
		p := Partition{TenantID: tenantID, Rows: len(tenantRows)}
		for start := 0; start < len(tenantRows); start += batchSize {
			end := start + batchSize
			if end > len(tenantRows) {
				end = len(tenantRows)
			}
			p.Batches = append(p.Batches, Batch{
				TenantID: tenantID,
				Index:    len(p.Batches),
				Rows:     tenantRows[start:end],
			})
		}
		partitions = append(partitions, p)
	}
	return partitions
}
