// Package columnar defines the strict, field-identified column type system
// that record-stream schemas are narrowed into, and the translation from a
// loosely-typed jsonschema declaration into it.
//
// The type set is closed: eight primitives plus List and Struct. The target
// table format requires a stable integer field ID per column, so every Field
// carries one; IDs are unique across the whole schema tree, not just among
// siblings.
package columnar

import (
	"fmt"
	"strings"
)

// Kind discriminates the closed set of column types.
type Kind int

const (
	KindNull Kind = iota
	KindInt64
	KindFloat64
	KindBool
	KindString
	KindDate
	KindTime
	KindTimestampUTC // microsecond precision, UTC
	KindList
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindTimestampUTC:
		return "timestamptz_us"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	default:
		return "null"
	}
}

// ColumnType is one column's physical type. Primitive types carry only the
// Kind; KindList sets Elem and KindStruct sets Fields.
type ColumnType struct {
	Kind   Kind
	Elem   *ColumnType // list element type, KindList only
	Fields []Field     // ordered struct fields, KindStruct only
}

// Primitive singletons. These are values, not pointers — comparing with ==
// works for all primitive types.
var (
	Null         = ColumnType{Kind: KindNull}
	Int64        = ColumnType{Kind: KindInt64}
	Float64      = ColumnType{Kind: KindFloat64}
	Bool         = ColumnType{Kind: KindBool}
	String       = ColumnType{Kind: KindString}
	Date         = ColumnType{Kind: KindDate}
	Time         = ColumnType{Kind: KindTime}
	TimestampUTC = ColumnType{Kind: KindTimestampUTC}
)

// ListOf returns a list type wrapping elem.
func ListOf(elem ColumnType) ColumnType {
	return ColumnType{Kind: KindList, Elem: &elem}
}

// StructOf returns a struct type with the given ordered fields.
func StructOf(fields ...Field) ColumnType {
	return ColumnType{Kind: KindStruct, Fields: fields}
}

// IsPrimitive reports whether the type is neither a list nor a struct.
func (t ColumnType) IsPrimitive() bool {
	return t.Kind != KindList && t.Kind != KindStruct
}

// Degenerate reports whether the type is one the table format rejects at
// write time: an empty struct, or a list of nulls. Translation permits them
// (with a warning); the eventual append is where they fail.
func (t ColumnType) Degenerate() bool {
	switch t.Kind {
	case KindStruct:
		return len(t.Fields) == 0
	case KindList:
		return t.Elem != nil && t.Elem.Kind == KindNull
	}
	return false
}

func (t ColumnType) String() string {
	switch t.Kind {
	case KindList:
		return fmt.Sprintf("list<%s>", t.Elem)
	case KindStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
		}
		return fmt.Sprintf("struct<%s>", strings.Join(parts, ", "))
	default:
		return t.Kind.String()
	}
}

// Field is one named, identified column within a schema or struct.
type Field struct {
	Name     string
	Type     ColumnType
	ID       int // positive, unique across the entire schema tree
	Nullable bool
}

// Schema is the ordered root field list of a translated record stream.
type Schema struct {
	Fields []Field
}

// Field returns the root field with the given name, or nil.
func (s *Schema) Field(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

func (s *Schema) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = fmt.Sprintf("%d: %s: %s", f.ID, f.Name, f.Type)
	}
	return fmt.Sprintf("schema<%s>", strings.Join(parts, ", "))
}
