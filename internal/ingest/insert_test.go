package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

func TestInsertWriterDefaults(t *testing.T) {
	w := NewInsertWriter()
	assert.Equal(t, pgrls.DefaultInsertBatchSize, w.BatchSize())
	assert.Equal(t, "insert", w.Name())
}

func TestInsertWriterOptions(t *testing.T) {
	w := NewInsertWriter(WithBatchSize(50))
	assert.Equal(t, 50, w.BatchSize())

	// Non-positive overrides are ignored.
	w = NewInsertWriter(WithBatchSize(0), WithBatchSize(-5))
	assert.Equal(t, pgrls.DefaultInsertBatchSize, w.BatchSize())
}

func TestInsertWriterEmptyBatchIsNoop(t *testing.T) {
	tx := &mockTx{}
	n, err := NewInsertWriter().WriteRows(context.Background(), tx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, tx.execSQL)
}

func TestInsertWriterSetsStatementTimeoutFirst(t *testing.T) {
	tx := &mockTx{}
	rows := testRows(1, 3)

	_, err := NewInsertWriter().WriteRows(context.Background(), tx, rows)
	require.NoError(t, err)

	require.Len(t, tx.execSQL, 2)
	assert.Equal(t, "SET LOCAL statement_timeout = 60000", tx.execSQL[0])
	assert.Contains(t, tx.execSQL[1], "INSERT INTO conditions")
}

func TestBuildInsertPlaceholdersAndArgs(t *testing.T) {
	temp := pgrls.Float64(21.5)
	rows := []pgrls.Reading{
		{TenantID: 4, Location: "office", Temperature: temp, Humidity: pgrls.Float64(33)},
		{TenantID: 4, Location: "office", Temperature: nil, Humidity: nil},
	}

	sql, args := buildInsert(rows)

	assert.Equal(t,
		"INSERT INTO conditions (tenant_id, location, temperature, humidity) "+
			"VALUES ($1, $2, $3, $4), ($5, $6, $7, $8)",
		sql)

	require.Len(t, args, 8)
	assert.Equal(t, int64(4), args[0])
	assert.Equal(t, "office", args[1])
	assert.Equal(t, temp, args[2])
	// Null measurements travel as typed nils, not zeros.
	assert.Nil(t, args[6])
	assert.Nil(t, args[7])
}

func TestInsertWriterPropagatesExecError(t *testing.T) {
	tx := &mockTx{execErr: assert.AnError}
	_, err := NewInsertWriter().WriteRows(context.Background(), tx, testRows(1, 1))
	assert.ErrorIs(t, err, assert.AnError)
}
