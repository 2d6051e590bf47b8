package model

// Table is an in-memory relation: a name, a header, the records and the
// type of every column. It is what parsers produce, what the database
// layer persists and what a read query returns.
//
// Tables read from text (CSV, spreadsheets) have no null masks and treat
// every empty value as NULL. Tables read from typed sources (SQLite,
// Parquet, Delta) carry masks, so an empty string stays an empty string.
type Table struct {
	name       string
	header     Header
	records    []Record
	columnInfo []ColumnInfo
	nulls      []NullMask
}

// NewTable create new Table, inferring column types from the records.
func NewTable(
	name string,
	header Header,
	records []Record,
) *Table {
	return &Table{
		name:       name,
		header:     header,
		records:    records,
		columnInfo: InferColumnsInfo(header, records),
	}
}

// NewTableWithTypes creates a Table whose column types are already known,
// for example from a Parquet schema or a declared SQLite column type.
// types must have one entry per header column.
func NewTableWithTypes(
	name string,
	header Header,
	records []Record,
	types []ColumnType,
) *Table {
	columnInfo := make([]ColumnInfo, len(header))
	for i, col := range header {
		columnInfo[i] = ColumnInfo{Name: col, Type: ColumnTypeText}
		if i < len(types) {
			columnInfo[i].Type = types[i]
		}
	}
	return &Table{
		name:       name,
		header:     header,
		records:    records,
		columnInfo: columnInfo,
	}
}

// Name return table name.
func (t *Table) Name() string {
	return t.name
}

// Header return table header.
func (t *Table) Header() Header {
	return t.header
}

// Records return table records.
func (t *Table) Records() []Record {
	return t.records
}

// ColumnInfo returns column information with inferred types
func (t *Table) ColumnInfo() []ColumnInfo {
	return t.columnInfo
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.header)
}

// NumRows returns the number of records.
func (t *Table) NumRows() int {
	return len(t.records)
}

// WithNulls returns a copy of the table whose NULL values are the ones
// marked in nulls, one mask per record. Records past the end of nulls and
// nil masks have no NULLs.
func (t *Table) WithNulls(nulls []NullMask) *Table {
	c := *t
	if nulls == nil {
		nulls = []NullMask{}
	}
	c.nulls = nulls
	return &c
}

// IsNull reports whether the value at row, col is NULL. Missing trailing
// values of a short record are NULL.
func (t *Table) IsNull(row, col int) bool {
	if col >= len(t.records[row]) {
		return true
	}
	if t.nulls == nil {
		return t.records[row][col] == ""
	}
	if row >= len(t.nulls) || col >= len(t.nulls[row]) {
		return false
	}
	return t.nulls[row][col]
}

// Renamed returns a shallow copy of the table under a new name.
func (t *Table) Renamed(name string) *Table {
	c := *t
	c.name = name
	return &c
}

// WithSanitizedColumns returns a copy of the table whose column names went
// through SanitizeColumn. Blank names are replaced first with
// "Unnamed: <index>". It fails with ErrDuplicateColumnName when two names
// collide after sanitization.
func (t *Table) WithSanitizedColumns() (*Table, error) {
	header, err := SanitizeHeader(t.header)
	if err != nil {
		return nil, err
	}
	columnInfo := make([]ColumnInfo, len(t.columnInfo))
	for i, ci := range t.columnInfo {
		columnInfo[i] = ColumnInfo{Name: header[i], Type: ci.Type}
	}
	return &Table{
		name:       t.name,
		header:     header,
		records:    t.records,
		columnInfo: columnInfo,
		nulls:      t.nulls,
	}, nil
}

// Equal compare Table.
func (t *Table) Equal(t2 *Table) bool {
	if t.Name() != t2.Name() {
		return false
	}
	return t.EqualContent(t2)
}

// EqualContent compares header, records and NULL values, ignoring the
// table name.
func (t *Table) EqualContent(t2 *Table) bool {
	if !t.header.Equal(t2.header) {
		return false
	}
	if len(t.Records()) != len(t2.Records()) {
		return false
	}
	for i, record := range t.Records() {
		if !record.Equal(t2.Records()[i]) {
			return false
		}
		for j := range record {
			if t.IsNull(i, j) != t2.IsNull(i, j) {
				return false
			}
		}
	}
	return true
}
