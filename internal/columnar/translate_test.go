package columnar

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/koustreak/IceFlow/internal/jsonschema"
	"github.com/koustreak/IceFlow/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustProps decodes a JSON object declaration and returns its properties.
func mustProps(t *testing.T, raw string) jsonschema.Properties {
	t.Helper()
	var node jsonschema.Node
	require.NoError(t, json.Unmarshal([]byte(raw), &node))
	return node.Properties
}

// newTestLogger returns a logger writing JSON lines into buf.
func newTestLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(&logger.Config{Level: "debug", Format: "json", Output: buf})
}

func warnCount(buf *bytes.Buffer) int {
	return strings.Count(buf.String(), `"level":"warn"`)
}

func TestTranslate_FlatFieldIDsContiguous(t *testing.T) {
	props := mustProps(t, `{
		"properties": {
			"a": {"type": "integer"},
			"b": {"type": "number"},
			"c": {"type": "boolean"},
			"d": {"type": "string"}
		}
	}`)

	schema := Translate(props, nil)

	require.Len(t, schema.Fields, 4)
	wantNames := []string{"a", "b", "c", "d"}
	wantTypes := []ColumnType{Int64, Float64, Bool, String}
	for i, f := range schema.Fields {
		assert.Equal(t, wantNames[i], f.Name)
		assert.Equal(t, i+1, f.ID, "field IDs must be contiguous 1..N in declaration order")
		assert.Equal(t, wantTypes[i], f.Type)
		assert.True(t, f.Nullable, "every translated field is nullable")
	}
}

func TestTranslate_NestedIDsPreOrder(t *testing.T) {
	// The canonical traversal: a parent struct field's ID is assigned
	// before its children, and the counter never restarts.
	props := mustProps(t, `{
		"properties": {
			"id":   {"type": ["integer"]},
			"name": {"type": ["string", "null"]},
			"meta": {"type": ["object", "null"], "properties": {
				"tag": {"type": ["string", "null"]}
			}}
		}
	}`)

	schema := Translate(props, nil)
	require.Len(t, schema.Fields, 3)

	assert.Equal(t, 1, schema.Field("id").ID)
	assert.Equal(t, Int64, schema.Field("id").Type)
	assert.Equal(t, 2, schema.Field("name").ID)
	assert.Equal(t, String, schema.Field("name").Type)

	meta := schema.Field("meta")
	assert.Equal(t, 3, meta.ID)
	require.Equal(t, KindStruct, meta.Type.Kind)
	require.Len(t, meta.Type.Fields, 1)
	assert.Equal(t, "tag", meta.Type.Fields[0].Name)
	assert.Equal(t, 4, meta.Type.Fields[0].ID)
	assert.Equal(t, String, meta.Type.Fields[0].Type)
}

func TestTranslate_SiblingStructsShareCounter(t *testing.T) {
	props := mustProps(t, `{
		"properties": {
			"first":  {"type": "object", "properties": {"x": {"type": "integer"}, "y": {"type": "integer"}}},
			"second": {"type": "object", "properties": {"z": {"type": "integer"}}}
		}
	}`)

	schema := Translate(props, nil)

	var ids []int
	var walk func(fields []Field)
	walk = func(fields []Field) {
		for _, f := range fields {
			ids = append(ids, f.ID)
			if f.Type.Kind == KindStruct {
				walk(f.Type.Fields)
			}
		}
	}
	walk(schema.Fields)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids,
		"pre-order IDs must be unique and monotonically increasing across sibling structs")
}

func TestTranslate_DepthZeroTemporalFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ColumnType
	}{
		{
			name: "date format at depth 0",
			raw:  `{"properties": {"f": {"type": ["string", "null"], "format": "date"}}}`,
			want: Date,
		},
		{
			name: "time format at depth 0",
			raw:  `{"properties": {"f": {"type": ["string", "null"], "format": "time"}}}`,
			want: Time,
		},
		{
			name: "date-time format at depth 0",
			raw:  `{"properties": {"f": {"type": ["string", "null"], "format": "date-time"}}}`,
			want: TimestampUTC,
		},
		{
			name: "no format stays string",
			raw:  `{"properties": {"f": {"type": ["string", "null"]}}}`,
			want: String,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := Translate(mustProps(t, tt.raw), nil)
			require.Len(t, schema.Fields, 1)
			assert.Equal(t, tt.want, schema.Fields[0].Type)
		})
	}
}

func TestTranslate_NestedFormatLosesTemporalTyping(t *testing.T) {
	// The identical declaration one level down resolves to a plain string.
	props := mustProps(t, `{
		"properties": {
			"outer": {"type": "object", "properties": {
				"f": {"type": ["string", "null"], "format": "date"}
			}}
		}
	}`)

	schema := Translate(props, nil)
	inner := schema.Fields[0].Type.Fields[0]
	assert.Equal(t, String, inner.Type)
}

func TestTranslate_ArrayElementFormatIgnored(t *testing.T) {
	// Arrays do not count as record-level fields: a formatted string
	// element resolves to a plain string even at the root.
	props := mustProps(t, `{
		"properties": {
			"dates": {"type": "array", "items": {"type": "string", "format": "date"}}
		}
	}`)

	schema := Translate(props, nil)
	assert.Equal(t, ListOf(String), schema.Fields[0].Type)
}

func TestTranslate_AnyOfEquivalentToTypeList(t *testing.T) {
	fromAnyOf := Translate(mustProps(t,
		`{"properties": {"f": {"anyOf": [{"type": "string"}, {"type": "null"}]}}}`), nil)
	fromList := Translate(mustProps(t,
		`{"properties": {"f": {"type": ["string", "null"]}}}`), nil)

	assert.Equal(t, fromList.Fields, fromAnyOf.Fields)
}

func TestTranslate_AnyOfKeepsFirstFormat(t *testing.T) {
	props := mustProps(t, `{
		"properties": {
			"f": {"anyOf": [
				{"type": "string", "format": "date-time"},
				{"type": "string", "format": "date"},
				{"type": "null"}
			]}
		}
	}`)

	schema := Translate(props, nil)
	assert.Equal(t, TimestampUTC, schema.Fields[0].Type,
		"the first format in branch order is the representative one")
}

func TestTranslate_AnyOfDropsNonStringBranches(t *testing.T) {
	// Known precision loss: only string/null survive the collapse.
	props := mustProps(t, `{
		"properties": {
			"f": {"anyOf": [{"type": "integer"}, {"type": "string"}, {"type": "null"}]}
		}
	}`)

	schema := Translate(props, nil)
	assert.Equal(t, String, schema.Fields[0].Type)
}

func TestTranslate_AnyOfSkipsLiteralNullBranch(t *testing.T) {
	// A literal null element in the union decodes to a nil node; the
	// collapse ignores it and the typed branches still resolve.
	props := mustProps(t, `{
		"properties": {
			"f": {"anyOf": [{"type": "string"}, null]}
		}
	}`)

	schema := Translate(props, nil)
	assert.Equal(t, String, schema.Fields[0].Type)
}

func TestTranslate_AnyOfWithoutStringOrNull(t *testing.T) {
	// Everything dropped: the reduced set is empty and the field nulls out.
	props := mustProps(t, `{
		"properties": {
			"f": {"anyOf": [{"type": "integer"}, {"type": "number"}]}
		}
	}`)

	schema := Translate(props, nil)
	assert.Equal(t, Null, schema.Fields[0].Type)
}

func TestTranslate_DispatchPriorityStringFirst(t *testing.T) {
	props := mustProps(t, `{
		"properties": {"f": {"type": ["integer", "string"]}}
	}`)

	schema := Translate(props, nil)
	assert.Equal(t, String, schema.Fields[0].Type,
		"string wins over integer regardless of declaration order")
}

func TestTranslate_UntypedDefaultsToString(t *testing.T) {
	buf := &bytes.Buffer{}
	schema := Translate(mustProps(t, `{"properties": {"f": {}}}`), newTestLogger(buf))

	require.Len(t, schema.Fields, 1)
	assert.Equal(t, String, schema.Fields[0].Type)
	assert.True(t, schema.Fields[0].Nullable)
	assert.Equal(t, 1, warnCount(buf))
}

func TestTranslate_NullTypeDefaultsToString(t *testing.T) {
	// "type": null carries no type information and takes the same
	// fallback as a field with no type at all.
	buf := &bytes.Buffer{}
	schema := Translate(mustProps(t, `{"properties": {"f": {"type": null}}}`), newTestLogger(buf))

	require.Len(t, schema.Fields, 1)
	assert.Equal(t, String, schema.Fields[0].Type)
	assert.Equal(t, 1, warnCount(buf))
}

func TestTranslate_UnknownTypeSilentlyNull(t *testing.T) {
	buf := &bytes.Buffer{}
	schema := Translate(mustProps(t, `{"properties": {"f": {"type": "geodata"}}}`), newTestLogger(buf))

	assert.Equal(t, Null, schema.Fields[0].Type)
	assert.Equal(t, 0, warnCount(buf), "unknown type names fall back silently")
}

func TestTranslate_EmptyObjectWarnsOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	schema := Translate(mustProps(t,
		`{"properties": {"f": {"type": "object", "properties": {}}}}`), newTestLogger(buf))

	require.Equal(t, KindStruct, schema.Fields[0].Type.Kind)
	assert.Empty(t, schema.Fields[0].Type.Fields)
	assert.True(t, schema.Fields[0].Type.Degenerate())
	assert.Equal(t, 1, warnCount(buf), "an empty struct emits exactly one warning")
}

func TestTranslate_ArrayWithoutItemsWarns(t *testing.T) {
	buf := &bytes.Buffer{}
	schema := Translate(mustProps(t,
		`{"properties": {"f": {"type": "array"}}}`), newTestLogger(buf))

	assert.Equal(t, ListOf(Null), schema.Fields[0].Type)
	assert.True(t, schema.Fields[0].Type.Degenerate())
	assert.Equal(t, 1, warnCount(buf))
}

func TestTranslate_StructInsideArrayContinuesCounter(t *testing.T) {
	props := mustProps(t, `{
		"properties": {
			"items": {"type": "array", "items": {"type": "object", "properties": {
				"sku":   {"type": "string"},
				"count": {"type": "integer"}
			}}},
			"total": {"type": "number"}
		}
	}`)

	schema := Translate(props, nil)

	itemsField := schema.Field("items")
	require.Equal(t, KindList, itemsField.Type.Kind)
	require.Equal(t, KindStruct, itemsField.Type.Elem.Kind)

	assert.Equal(t, 1, itemsField.ID)
	assert.Equal(t, 2, itemsField.Type.Elem.Fields[0].ID, "sku continues the shared counter")
	assert.Equal(t, 3, itemsField.Type.Elem.Fields[1].ID)
	assert.Equal(t, 4, schema.Field("total").ID)
}

func TestTranslate_CounterScopedToOneCall(t *testing.T) {
	raw := `{"properties": {"a": {"type": "integer"}, "b": {"type": "integer"}}}`

	first := Translate(mustProps(t, raw), nil)
	second := Translate(mustProps(t, raw), nil)

	assert.Equal(t, 1, first.Fields[0].ID)
	assert.Equal(t, 1, second.Fields[0].ID, "each translation starts a fresh counter")
}
