package columnar

import (
	"github.com/koustreak/IceFlow/internal/jsonschema"
	"github.com/koustreak/IceFlow/internal/logger"
)

// Type name dispatch is by presence, in a fixed priority order: the first
// matching name wins even when a declaration lists several. This is what
// makes ambiguous declarations deterministic.
const (
	typeString  = "string"
	typeNull    = "null"
	typeInteger = "integer"
	typeNumber  = "number"
	typeBoolean = "boolean"
	typeArray   = "array"
	typeObject  = "object"
)

// Translate narrows an object declaration's properties into a columnar
// Schema. Output field order is declaration order. Field IDs are assigned
// from a single counter, starting at 1, in one pre-order walk of the whole
// tree — a struct field's ID is assigned before the IDs of its children,
// and nested fields continue the counter rather than restarting.
//
// Translation never fails: every anomaly (missing type, missing items,
// empty properties, unknown type name) degrades to a documented fallback,
// with a warning logged for the ambiguous cases. Every produced field is
// nullable; the input is schema-on-read and proves nothing about presence.
func Translate(props jsonschema.Properties, log *logger.Logger) *Schema {
	if log == nil {
		log = logger.New(nil)
	}
	tr := &translator{log: log, nextID: 1}
	return &Schema{Fields: tr.structFields(props, 0)}
}

// translator carries the shared field-ID counter for one Translate call.
// The counter is never global and never reused across calls.
type translator struct {
	log    *logger.Logger
	nextID int
}

// structFields resolves an ordered property list at the given struct depth.
// This is the only place field IDs are assigned.
func (tr *translator) structFields(props jsonschema.Properties, depth int) []Field {
	fields := make([]Field, 0, len(props))
	for _, prop := range props {
		id := tr.nextID
		tr.nextID++

		fields = append(fields, Field{
			Name:     prop.Name,
			Type:     tr.fieldType(prop.Name, prop.Node, depth),
			ID:       id,
			Nullable: true,
		})
	}
	return fields
}

// fieldType resolves the declaration of one named field. Strings are
// depth-sensitive here: only a field sitting directly on the record
// (depth 0) may have its format select a temporal type. The same
// declaration one level down resolves to a plain string.
func (tr *translator) fieldType(name string, node *jsonschema.Node, depth int) ColumnType {
	types, format := tr.effectiveTypes(name, node)

	switch {
	case contains(types, typeString):
		if depth == 0 && format != "" {
			switch format {
			case "date":
				return Date
			case "time":
				return Time
			default:
				return TimestampUTC
			}
		}
		return String

	case contains(types, typeInteger):
		return Int64

	case contains(types, typeNumber):
		return Float64

	case contains(types, typeBoolean):
		return Bool

	case contains(types, typeArray):
		return tr.listType(name, node, depth)

	case contains(types, typeObject):
		return tr.objectType(name, node, depth)

	default:
		// Unresolvable type name. Deliberately permissive: the field is
		// kept (it still consumed an ID) with a null type.
		return Null
	}
}

// elemType resolves an array element declaration. Elements never receive
// temporal types — format only applies to fields directly on the record —
// and arrays do not increase struct nesting depth.
func (tr *translator) elemType(name string, node *jsonschema.Node, depth int) ColumnType {
	types, _ := tr.effectiveTypes(name, node)

	switch {
	case contains(types, typeString):
		return String
	case contains(types, typeInteger):
		return Int64
	case contains(types, typeNumber):
		return Float64
	case contains(types, typeBoolean):
		return Bool
	case contains(types, typeArray):
		return tr.listType(name, node, depth)
	case contains(types, typeObject):
		return tr.objectType(name, node, depth)
	default:
		return Null
	}
}

func (tr *translator) listType(name string, node *jsonschema.Node, depth int) ColumnType {
	if node.Items == nil {
		tr.log.WarnWith("array declaration has no items, treating elements as null", map[string]interface{}{
			"field": name,
		})
		return ListOf(Null)
	}
	return ListOf(tr.elemType(name, node.Items, depth))
}

func (tr *translator) objectType(name string, node *jsonschema.Node, depth int) ColumnType {
	if len(node.Properties) == 0 {
		tr.log.WarnWith("object declaration has no properties, producing an empty struct", map[string]interface{}{
			"field": name,
		})
		return StructOf()
	}
	return StructOf(tr.structFields(node.Properties, depth+1)...)
}

// effectiveTypes extracts the declared type names and format of a node,
// collapsing anyOf unions when present. An untyped node defaults to a
// nullable string, with a warning.
func (tr *translator) effectiveTypes(name string, node *jsonschema.Node) ([]string, string) {
	switch {
	case len(node.Types) > 0:
		return node.Types, node.Format

	case len(node.AnyOf) > 0:
		return collapseAnyOf(node.AnyOf)

	default:
		tr.log.WarnWith("no type information given, defaulting to nullable string", map[string]interface{}{
			"field": name,
		})
		return []string{typeString, typeNull}, ""
	}
}

// collapseAnyOf reduces a union to the type set the translator understands.
// Only string/null survive the collapse — a union of, say, integer and
// string keeps the string and silently drops the integer. That is a known
// precision loss, acceptable because producers' unions are typed-or-null in
// practice. The representative format is the first one encountered in
// branch order.
func collapseAnyOf(branches []*jsonschema.Node) ([]string, string) {
	var all []string
	format := ""
	for _, branch := range branches {
		if branch == nil {
			// A literal null in the union decodes to a nil node.
			continue
		}
		all = append(all, branch.Types...)
		if format == "" && branch.Format != "" {
			format = branch.Format
		}
	}

	var reduced []string
	if contains(all, typeString) {
		reduced = append(reduced, typeString)
	}
	if contains(all, typeNull) {
		reduced = append(reduced, typeNull)
	}
	return reduced, format
}

func contains(types []string, name string) bool {
	for _, t := range types {
		if t == name {
			return true
		}
	}
	return false
}
