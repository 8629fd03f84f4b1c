package columnar

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
)

// FieldIDKey is the physical-format annotation key carrying a column's
// field ID. The Parquet writer reads this key and stamps the ID into the
// file footer, which is how the table format ties columns back to its
// schema across renames.
const FieldIDKey = "PARQUET:field_id"

// Arrow converts the schema into an Arrow schema. Every field, at every
// nesting level, carries its field ID as metadata under FieldIDKey.
func (s *Schema) Arrow() *arrow.Schema {
	fields := make([]arrow.Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = arrowField(f)
	}
	return arrow.NewSchema(fields, nil)
}

func arrowField(f Field) arrow.Field {
	return arrow.Field{
		Name:     f.Name,
		Type:     arrowType(f.Type),
		Nullable: f.Nullable,
		Metadata: arrow.NewMetadata(
			[]string{FieldIDKey},
			[]string{strconv.Itoa(f.ID)},
		),
	}
}

func arrowType(t ColumnType) arrow.DataType {
	switch t.Kind {
	case KindInt64:
		return arrow.PrimitiveTypes.Int64
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	case KindString:
		return arrow.BinaryTypes.String
	case KindDate:
		return arrow.FixedWidthTypes.Date64
	case KindTime:
		return arrow.FixedWidthTypes.Time64us
	case KindTimestampUTC:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	case KindList:
		return arrow.ListOf(arrowType(*t.Elem))
	case KindStruct:
		fields := make([]arrow.Field, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = arrowField(f)
		}
		return arrow.StructOf(fields...)
	default:
		return arrow.Null
	}
}
