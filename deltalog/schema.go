package deltalog

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/nao1215/sqlmagick/domain/model"
)

// Primitive type names used in a Delta schema.
const (
	TypeString    = "string"
	TypeLong      = "long"
	TypeInteger   = "integer"
	TypeShort     = "short"
	TypeByte      = "byte"
	TypeDouble    = "double"
	TypeFloat     = "float"
	TypeBoolean   = "boolean"
	TypeDate      = "date"
	TypeTimestamp = "timestamp"
	TypeBinary    = "binary"
)

// Schema is the struct type stored in MetaData.SchemaString.
type Schema struct {
	Type   string  `json:"type"`
	Fields []Field `json:"fields"`
}

// Field is one column of a Schema. Type is a primitive name or, for
// nested columns, a JSON object.
type Field struct {
	Name     string         `json:"name"`
	Type     any            `json:"type"`
	Nullable bool           `json:"nullable"`
	Metadata map[string]any `json:"metadata"`
}

// NewSchema builds a schema from column information. Datetime columns are
// stored as strings, which is how the database keeps them.
func NewSchema(columns []model.ColumnInfo) Schema {
	fields := make([]Field, 0, len(columns))
	for _, c := range columns {
		fields = append(fields, Field{
			Name:     c.Name,
			Type:     deltaType(c.Type),
			Nullable: true,
			Metadata: map[string]any{},
		})
	}
	return Schema{Type: "struct", Fields: fields}
}

// ParseSchema decodes a schemaString.
func ParseSchema(s string) (Schema, error) {
	var schema Schema
	if err := json.Unmarshal([]byte(s), &schema); err != nil {
		return Schema{}, fmt.Errorf("failed to parse schema: %w", err)
	}
	if schema.Type != "struct" {
		return Schema{}, fmt.Errorf("schema type %q is not a struct", schema.Type)
	}
	return schema, nil
}

// String encodes the schema as a schemaString.
func (s Schema) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b)
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// ColumnTypes maps every field to a ColumnType. Nested types become text.
func (s Schema) ColumnTypes() []model.ColumnType {
	types := make([]model.ColumnType, len(s.Fields))
	for i, f := range s.Fields {
		name, ok := f.Type.(string)
		if !ok {
			types[i] = model.ColumnTypeText
			continue
		}
		types[i] = columnType(name)
	}
	return types
}

func deltaType(ct model.ColumnType) string {
	switch ct {
	case model.ColumnTypeInteger:
		return TypeLong
	case model.ColumnTypeReal:
		return TypeDouble
	default:
		return TypeString
	}
}

func columnType(name string) model.ColumnType {
	switch {
	case name == TypeLong, name == TypeInteger, name == TypeShort, name == TypeByte, name == TypeBoolean:
		return model.ColumnTypeInteger
	case name == TypeDouble, name == TypeFloat, strings.HasPrefix(name, "decimal"):
		return model.ColumnTypeReal
	case name == TypeDate, strings.HasPrefix(name, TypeTimestamp):
		return model.ColumnTypeDatetime
	default:
		return model.ColumnTypeText
	}
}
