package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

func TestCopyWriterDefaults(t *testing.T) {
	w := NewCopyWriter()
	assert.Equal(t, pgrls.DefaultCopyBatchSize, w.BatchSize())
	assert.Equal(t, "copy", w.Name())
}

func TestCopyWriterStreamsAllRows(t *testing.T) {
	tx := &mockTx{}
	rows := testRows(2, 7)

	n, err := NewCopyWriter().WriteRows(context.Background(), tx, rows)

	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, 1, tx.copyCalls)
	assert.Equal(t, int64(7), tx.copyRows)
}

func TestCopyWriterRejectsNullMeasurementBeforeStreaming(t *testing.T) {
	tx := &mockTx{}
	rows := testRows(2, 3)
	rows[1].Humidity = nil

	_, err := NewCopyWriter().WriteRows(context.Background(), tx, rows)

	require.Error(t, err)
	assert.ErrorIs(t, err, pgrls.ErrNullMeasurement)
	// Validation happens up front; nothing was sent to the server.
	assert.Zero(t, tx.copyCalls)
	assert.Empty(t, tx.execSQL)
}

func TestCopyWriterEmptyBatchIsNoop(t *testing.T) {
	tx := &mockTx{}
	n, err := NewCopyWriter().WriteRows(context.Background(), tx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, tx.copyCalls)
}

func TestCopyWriterPropagatesCopyError(t *testing.T) {
	tx := &mockTx{copyErr: assert.AnError}
	_, err := NewCopyWriter().WriteRows(context.Background(), tx, testRows(1, 2))
	assert.ErrorIs(t, err, assert.AnError)
}
