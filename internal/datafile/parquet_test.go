package datafile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/koustreak/IceFlow/internal/columnar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParquet(t *testing.T) {
	schema := &columnar.Schema{Fields: []columnar.Field{
		{Name: "id", Type: columnar.Int64, ID: 1, Nullable: true},
		{Name: "name", Type: columnar.String, ID: 2, Nullable: true},
	}}

	batch, err := schema.BuildRecord([]map[string]any{
		{"id": float64(1), "name": "a"},
		{"id": float64(2), "name": "b"},
	})
	require.NoError(t, err)
	defer batch.Release()

	data, err := EncodeParquet(batch)
	require.NoError(t, err)

	// Parquet files carry the PAR1 magic at both ends.
	require.Greater(t, len(data), 8)
	assert.True(t, bytes.HasPrefix(data, []byte("PAR1")))
	assert.True(t, bytes.HasSuffix(data, []byte("PAR1")))
}

func TestKey(t *testing.T) {
	first := Key("analytics/orders")
	second := Key("analytics/orders")

	assert.True(t, strings.HasPrefix(first, "analytics/orders/data/"))
	assert.True(t, strings.HasSuffix(first, ".parquet"))
	assert.NotEqual(t, first, second, "keys must be unique per file")
}

func TestNewSnapshotID(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Positive(t, NewSnapshotID())
	}
}
