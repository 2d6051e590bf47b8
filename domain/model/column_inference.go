package model

import (
	"strconv"
	"strings"
	"time"
)

// datetimeLayouts are the layouts a value may have to count as a datetime.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	time.DateOnly,
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
	"2.1.2006 15:04:05",
	"2.1.2006",
	"15:04:05.999999999",
	"3:04:05 PM",
	"15:04",
}

// valueKind is the narrowest column type one value fits.
type valueKind int

const (
	kindEmpty valueKind = iota
	kindInteger
	kindReal
	kindDatetime
	kindText
)

func classify(value string) valueKind {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return kindEmpty
	case isInteger(value):
		return kindInteger
	case isReal(value):
		return kindReal
	case isDatetime(value):
		return kindDatetime
	default:
		return kindText
	}
}

func isInteger(value string) bool {
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

func isReal(value string) bool {
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

// isDatetime reports whether value parses with one of datetimeLayouts.
// Only strings starting with a digit are tried.
func isDatetime(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || value[0] < '0' || value[0] > '9' {
		return false
	}
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// merge widens two kinds. Integers widen to reals; numbers mixed with
// datetimes are text.
func merge(a, b valueKind) valueKind {
	switch {
	case a == kindEmpty:
		return b
	case b == kindEmpty, a == b:
		return a
	case a == kindText || b == kindText:
		return kindText
	case a == kindDatetime || b == kindDatetime:
		return kindText
	default:
		return kindReal
	}
}

// InferColumnType returns the column type all non-empty values fit.
// Blank values are ignored; a column with no values is TEXT.
func InferColumnType(values []string) ColumnType {
	kind := kindEmpty
	for _, v := range values {
		if kind = merge(kind, classify(v)); kind == kindText {
			break
		}
	}

	switch kind {
	case kindInteger:
		return ColumnTypeInteger
	case kindReal:
		return ColumnTypeReal
	case kindDatetime:
		return ColumnTypeDatetime
	default:
		return ColumnTypeText
	}
}

// InferColumnsInfo infers the type of every header column from records.
// Short records count as blank in the missing columns.
func InferColumnsInfo(header Header, records []Record) []ColumnInfo {
	if len(header) == 0 {
		return nil
	}

	columns := make([]ColumnInfo, len(header))
	values := make([]string, len(records))
	for i, name := range header {
		for j, record := range records {
			values[j] = ""
			if i < len(record) {
				values[j] = record[i]
			}
		}
		columns[i] = ColumnInfo{Name: name, Type: InferColumnType(values)}
	}
	return columns
}
