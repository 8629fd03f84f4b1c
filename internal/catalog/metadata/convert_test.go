package metadata

import (
	"encoding/json"
	"testing"

	"github.com/koustreak/IceFlow/internal/columnar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromColumnar_PrimitiveNames(t *testing.T) {
	schema := &columnar.Schema{Fields: []columnar.Field{
		{Name: "a", Type: columnar.Int64, ID: 1, Nullable: true},
		{Name: "b", Type: columnar.Float64, ID: 2, Nullable: true},
		{Name: "c", Type: columnar.Bool, ID: 3, Nullable: true},
		{Name: "d", Type: columnar.String, ID: 4, Nullable: true},
		{Name: "e", Type: columnar.Date, ID: 5, Nullable: true},
		{Name: "f", Type: columnar.Time, ID: 6, Nullable: true},
		{Name: "g", Type: columnar.TimestampUTC, ID: 7, Nullable: true},
	}}

	wire, lastID := FromColumnar(schema)

	require.Len(t, wire.Fields, 7)
	want := []string{"long", "double", "boolean", "string", "date", "time", "timestamptz"}
	for i, f := range wire.Fields {
		assert.Equal(t, want[i], f.Type)
		assert.Equal(t, i+1, f.ID)
		assert.False(t, f.Required, "nullable columns are not required")
	}
	assert.Equal(t, 7, lastID)
}

func TestFromColumnar_ListElementIDsPastNamedFields(t *testing.T) {
	schema := &columnar.Schema{Fields: []columnar.Field{
		{Name: "tags", Type: columnar.ListOf(columnar.String), ID: 1, Nullable: true},
		{Name: "n", Type: columnar.Int64, ID: 2, Nullable: true},
	}}

	wire, lastID := FromColumnar(schema)

	list, ok := wire.Fields[0].Type.(*ListType)
	require.True(t, ok)
	assert.Equal(t, 3, list.ElementID, "element IDs start past the highest named ID")
	assert.Equal(t, "string", list.Element)
	assert.Equal(t, 3, lastID)
}

func TestFromColumnar_NestedStructKeepsAssignedIDs(t *testing.T) {
	schema := &columnar.Schema{Fields: []columnar.Field{
		{Name: "meta", ID: 1, Nullable: true, Type: columnar.StructOf(
			columnar.Field{Name: "tag", Type: columnar.String, ID: 2, Nullable: true},
		)},
	}}

	wire, lastID := FromColumnar(schema)

	st, ok := wire.Fields[0].Type.(*StructType)
	require.True(t, ok)
	require.Len(t, st.Fields, 1)
	assert.Equal(t, 2, st.Fields[0].ID)
	assert.Equal(t, 2, lastID)
}

func TestSchema_WireShape(t *testing.T) {
	schema := &columnar.Schema{Fields: []columnar.Field{
		{Name: "id", Type: columnar.Int64, ID: 1, Nullable: true},
	}}
	wire, _ := FromColumnar(schema)

	out, err := json.Marshal(wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "struct",
		"schema-id": 0,
		"fields": [{"id": 1, "name": "id", "required": false, "type": "long"}]
	}`, string(out))
}
