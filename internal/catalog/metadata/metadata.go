// Package metadata holds the JSON wire representation of table metadata
// shared by all catalog backends: the field-identified schema, snapshots,
// and the table metadata envelope.
package metadata

// TableMetadata is the metadata envelope a catalog stores per table.
type TableMetadata struct {
	FormatVersion   int               `json:"format-version"`
	TableUUID       string            `json:"table-uuid"`
	Location        string            `json:"location"`
	LastUpdatedMs   int64             `json:"last-updated-ms"`
	LastColumnID    int               `json:"last-column-id"`
	CurrentSchemaID int               `json:"current-schema-id"`
	Schemas         []Schema          `json:"schemas"`
	Properties      map[string]string `json:"properties,omitempty"`
	Snapshots       []Snapshot        `json:"snapshots,omitempty"`
}

// Schema is one versioned field-identified schema.
type Schema struct {
	Type     string  `json:"type"` // always "struct"
	SchemaID int     `json:"schema-id"`
	Fields   []Field `json:"fields"`
}

// Field is one named column. Type is either a primitive type name
// (e.g. "long", "timestamptz") or a nested *StructType / *ListType.
type Field struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Type     any    `json:"type"`
}

// StructType is a nested struct column type.
type StructType struct {
	Type   string  `json:"type"` // always "struct"
	Fields []Field `json:"fields"`
}

// ListType is a list column type. Elements carry their own ID, assigned
// past the last named-field ID.
type ListType struct {
	Type            string `json:"type"` // always "list"
	ElementID       int    `json:"element-id"`
	Element         any    `json:"element"`
	ElementRequired bool   `json:"element-required"`
}

// Snapshot records one committed append.
type Snapshot struct {
	SnapshotID     int64             `json:"snapshot-id"`
	SequenceNumber int64             `json:"sequence-number"`
	TimestampMs    int64             `json:"timestamp-ms"`
	ManifestList   string            `json:"manifest-list,omitempty"`
	Summary        map[string]string `json:"summary,omitempty"`
}
