package metadata

import "github.com/koustreak/IceFlow/internal/columnar"

// Primitive type names as the catalog spells them.
const (
	typeLong        = "long"
	typeDouble      = "double"
	typeBoolean     = "boolean"
	typeString      = "string"
	typeDate        = "date"
	typeTime        = "time"
	typeTimestampTZ = "timestamptz" // microsecond precision, UTC
	typeNull        = "null"       // not writable; surfaces degenerate schemas to the catalog
)

// FromColumnar converts a translated columnar schema into its wire form.
// Named fields keep the IDs the translator assigned; list elements, which
// the translator does not identify, are numbered past the highest named
// ID. The second return value is the last column ID handed out.
func FromColumnar(s *columnar.Schema) (Schema, int) {
	c := converter{nextID: maxFieldID(s.Fields) + 1}

	out := Schema{Type: "struct", SchemaID: 0}
	for _, f := range s.Fields {
		out.Fields = append(out.Fields, c.field(f))
	}
	return out, c.nextID - 1
}

type converter struct {
	nextID int
}

func (c *converter) field(f columnar.Field) Field {
	return Field{
		ID:       f.ID,
		Name:     f.Name,
		Required: !f.Nullable,
		Type:     c.typ(f.Type),
	}
}

func (c *converter) typ(t columnar.ColumnType) any {
	switch t.Kind {
	case columnar.KindInt64:
		return typeLong
	case columnar.KindFloat64:
		return typeDouble
	case columnar.KindBool:
		return typeBoolean
	case columnar.KindString:
		return typeString
	case columnar.KindDate:
		return typeDate
	case columnar.KindTime:
		return typeTime
	case columnar.KindTimestampUTC:
		return typeTimestampTZ
	case columnar.KindList:
		id := c.nextID
		c.nextID++
		return &ListType{
			Type:            "list",
			ElementID:       id,
			Element:         c.typ(*t.Elem),
			ElementRequired: false,
		}
	case columnar.KindStruct:
		st := &StructType{Type: "struct"}
		for _, f := range t.Fields {
			st.Fields = append(st.Fields, c.field(f))
		}
		return st
	default:
		return typeNull
	}
}

func maxFieldID(fields []columnar.Field) int {
	max := 0
	for _, f := range fields {
		if f.ID > max {
			max = f.ID
		}
		if m := maxTypeID(f.Type); m > max {
			max = m
		}
	}
	return max
}

func maxTypeID(t columnar.ColumnType) int {
	switch t.Kind {
	case columnar.KindStruct:
		return maxFieldID(t.Fields)
	case columnar.KindList:
		if t.Elem != nil {
			return maxTypeID(*t.Elem)
		}
	}
	return 0
}
