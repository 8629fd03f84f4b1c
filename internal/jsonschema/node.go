// Package jsonschema models the self-describing schema that arrives with a
// record stream: a loosely-typed, JSON-Schema-shaped type declaration.
//
// Only the constructs the translator consumes are modelled (type, format,
// anyOf, properties, items). Everything else in an incoming declaration is
// ignored on decode. Property declaration order is semantically meaningful
// downstream (it fixes column order and field IDs), so Properties is an
// ordered slice, not a map.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Node is a single type declaration. A node is either typed ("type" as a
// string or list of strings), a union ("anyOf"), or untyped (neither —
// legal input, handled by the resolver's fallback).
type Node struct {
	Types      TypeList   `json:"type,omitempty"`
	Format     string     `json:"format,omitempty"`
	AnyOf      []*Node    `json:"anyOf,omitempty"`
	Properties Properties `json:"properties,omitempty"`
	Items      *Node      `json:"items,omitempty"`
}

// HasType reports whether name appears in the node's declared type list.
func (n *Node) HasType(name string) bool {
	for _, t := range n.Types {
		if t == name {
			return true
		}
	}
	return false
}

// Untyped reports whether the node carries no type information at all —
// no "type" and no "anyOf".
func (n *Node) Untyped() bool {
	return len(n.Types) == 0 && len(n.AnyOf) == 0
}

// TypeList is the value of a "type" keyword, which JSON Schema allows to be
// either a single string or a list of strings. It always decodes to a slice.
type TypeList []string

func (t *TypeList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		// A literal null carries no type information; leave the list
		// empty so the node counts as untyped.
		*t = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TypeList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("type must be a string or a list of strings: %w", err)
	}
	*t = TypeList(many)
	return nil
}

func (t TypeList) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

// Property is one named entry of an object's properties.
type Property struct {
	Name string
	Node *Node
}

// Properties is an object's property list in declaration order.
type Properties []Property

// Get returns the node declared under name, or nil if absent.
func (p Properties) Get(name string) *Node {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Node
		}
	}
	return nil
}

// UnmarshalJSON decodes a JSON object while preserving key order, which
// encoding/json's map decoding would destroy.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties must be a JSON object, got %v", tok)
	}

	var props Properties
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in properties", tok)
		}

		node := &Node{}
		if err := dec.Decode(node); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		props = append(props, Property{Name: name, Node: node})
	}

	if _, err := dec.Token(); err != nil { // consume closing '}'
		return err
	}

	*p = props
	return nil
}

// MarshalJSON re-emits the properties as a JSON object in declaration order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(prop.Node)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
