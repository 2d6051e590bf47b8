// Package model provides the domain model shared by the ingestion and query
// commands: tables, column types, source classification and ingest outcomes.
package model

import "strings"

// Header is the ordered list of column names of a table.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Record is one row of a table. Every value is kept in its textual form.
// Which values are NULL is tracked by the Table, see Table.IsNull.
type Record []string

// NewRecord create new Record.
func NewRecord(r []string) Record {
	return Record(r)
}

// Equal compare Record.
func (r Record) Equal(r2 Record) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if v != r2[i] {
			return false
		}
	}
	return true
}

// NullMask marks the NULL values of one record. A nil mask has no NULLs.
type NullMask []bool

// ColumnType represents the SQL column type
type ColumnType int

const (
	// ColumnTypeText represents TEXT column type
	ColumnTypeText ColumnType = iota
	// ColumnTypeInteger represents INTEGER column type
	ColumnTypeInteger
	// ColumnTypeReal represents REAL column type
	ColumnTypeReal
	// ColumnTypeDatetime represents datetime stored as TEXT in ISO8601 format
	ColumnTypeDatetime
)

const (
	sqlTypeText    = "TEXT"
	sqlTypeInteger = "INTEGER"
	sqlTypeReal    = "REAL"
)

// String returns the SQL column type string
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeInteger:
		return sqlTypeInteger
	case ColumnTypeReal:
		return sqlTypeReal
	case ColumnTypeText, ColumnTypeDatetime:
		// SQLite keeps datetimes as ISO8601 TEXT
		return sqlTypeText
	default:
		return sqlTypeText
	}
}

// ColumnTypeFromDecl maps a declared SQLite column type to a ColumnType
// using SQLite's type affinity rules. It reports false when decl is empty,
// which is the case for expression columns in a result set.
func ColumnTypeFromDecl(decl string) (ColumnType, bool) {
	decl = strings.ToUpper(strings.TrimSpace(decl))
	switch {
	case decl == "":
		return ColumnTypeText, false
	case strings.Contains(decl, "INT"):
		return ColumnTypeInteger, true
	case strings.Contains(decl, "CHAR"), strings.Contains(decl, "CLOB"), strings.Contains(decl, "TEXT"):
		return ColumnTypeText, true
	case strings.Contains(decl, "REAL"), strings.Contains(decl, "FLOA"), strings.Contains(decl, "DOUB"):
		return ColumnTypeReal, true
	case strings.Contains(decl, "DATE"), strings.Contains(decl, "TIME"):
		return ColumnTypeDatetime, true
	case strings.Contains(decl, "NUM"), strings.Contains(decl, "DEC"):
		return ColumnTypeReal, true
	default:
		return ColumnTypeText, true
	}
}

// ColumnInfo represents column information with name and inferred type
type ColumnInfo struct {
	Name string
	Type ColumnType
}
