package model

import (
	"fmt"
	"strconv"
	"strings"
)

// unnamedColumnPrefix names blank header cells, the way pandas does.
const unnamedColumnPrefix = "Unnamed: "

var (
	columnReplacer = strings.NewReplacer(" ", "_", "(", "", ")", "")
	tableReplacer  = strings.NewReplacer(" ", "_", "(", "", ")", "", "<", "", ">", "")
)

// SanitizeColumn replaces every space with an underscore and removes
// parentheses. No other character is touched.
func SanitizeColumn(name string) string {
	return columnReplacer.Replace(name)
}

// SanitizeTableName applies SanitizeColumn and additionally removes angle
// brackets.
func SanitizeTableName(name string) string {
	return tableReplacer.Replace(name)
}

// SheetTableName derives the table name of one worksheet of a workbook.
func SheetTableName(stem, sheet string) string {
	return SanitizeTableName(stem) + "_" + SanitizeTableName(sheet)
}

// SanitizeHeader names blank columns "Unnamed: <index>", renames repeated
// names, sanitizes every name and checks that the result has no
// duplicates. Only names that collide after sanitizing, or that differ
// only in case, are an error.
func SanitizeHeader(h Header) (Header, error) {
	named := make([]string, len(h))
	for i, name := range h {
		if strings.TrimSpace(name) == "" {
			name = unnamedColumnPrefix + strconv.Itoa(i)
		}
		named[i] = name
	}

	out := make(Header, len(h))
	for i, name := range dedupeColumns(named) {
		out[i] = SanitizeColumn(name)
	}
	if err := ValidateColumnNames(out); err != nil {
		return nil, err
	}
	return out, nil
}

// dedupeColumns renames repeated names the way pandas does: the second
// "a" becomes "a.1", the third "a.2". Suffixed names that are already
// taken are skipped.
func dedupeColumns(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, name := range names {
		taken[name] = true
	}

	counts := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		k := counts[name]
		if k == 0 {
			counts[name] = 1
			out[i] = name
			continue
		}
		for {
			candidate := name + "." + strconv.Itoa(k)
			if !taken[candidate] {
				taken[candidate] = true
				out[i] = candidate
				break
			}
			k++
		}
		counts[name] = k + 1
	}
	return out
}

// ValidateColumnNames reports ErrDuplicateColumnName when a name appears
// twice. The comparison is case-insensitive because SQLite column names are.
func ValidateColumnNames(columns []string) error {
	seen := make(map[string]string, len(columns))
	for _, col := range columns {
		key := strings.ToLower(col)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q and %q", ErrDuplicateColumnName, prev, col)
		}
		seen[key] = col
	}
	return nil
}
