package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// File extensions
const (
	// ExtXLSX is the Excel workbook extension
	ExtXLSX = ".xlsx"
	// ExtXLS is the legacy Excel workbook extension
	ExtXLS = ".xls"
	// ExtCSV is the CSV file extension
	ExtCSV = ".csv"
	// ExtParquet is the Parquet file extension
	ExtParquet = ".parquet"
	// ExtDelta is the suffix of a Delta table directory
	ExtDelta = ".delta"
	// ExtGZ is the gzip compression extension
	ExtGZ = ".gz"
	// ExtBZ2 is the bzip2 compression extension
	ExtBZ2 = ".bz2"
	// ExtXZ is the xz compression extension
	ExtXZ = ".xz"
	// ExtZSTD is the zstd compression extension
	ExtZSTD = ".zst"
)

// Compression identifies the compression wrapper of a source file.
type Compression int

const (
	// CompressionNone means the file is stored as is
	CompressionNone Compression = iota
	// CompressionGZ represents gzip compression
	CompressionGZ
	// CompressionBZ2 represents bzip2 compression
	CompressionBZ2
	// CompressionXZ represents xz compression
	CompressionXZ
	// CompressionZSTD represents zstd compression
	CompressionZSTD
)

// String returns the name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionGZ:
		return "gz"
	case CompressionBZ2:
		return "bz2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

var compressionExts = []struct {
	ext         string
	compression Compression
}{
	{ExtGZ, CompressionGZ},
	{ExtBZ2, CompressionBZ2},
	{ExtXZ, CompressionXZ},
	{ExtZSTD, CompressionZSTD},
}

// Source is one ingestible item. The set of implementations is closed:
// SpreadsheetFile, DelimitedTextFile, ColumnarFile and ColumnarFolder.
type Source interface {
	// Path returns the file or directory path.
	Path() string
	// Kind returns a short human readable kind.
	Kind() string
	isSource()
}

// SpreadsheetFile is an Excel workbook; each sheet becomes its own table.
type SpreadsheetFile struct {
	path string
	// Legacy is true for .xls (BIFF) workbooks.
	Legacy bool
}

// DelimitedTextFile is a CSV file, possibly compressed.
type DelimitedTextFile struct {
	path        string
	Compression Compression
}

// ColumnarFile is a Parquet file, possibly compressed.
type ColumnarFile struct {
	path        string
	Compression Compression
}

// ColumnarFolder is a Delta table directory.
type ColumnarFolder struct {
	path string
}

// Path returns the workbook path.
func (s SpreadsheetFile) Path() string { return s.path }

// Kind returns "spreadsheet".
func (SpreadsheetFile) Kind() string { return "spreadsheet" }

func (SpreadsheetFile) isSource() {}

// Path returns the CSV path.
func (s DelimitedTextFile) Path() string { return s.path }

// Kind returns "csv".
func (DelimitedTextFile) Kind() string { return "csv" }

func (DelimitedTextFile) isSource() {}

// Path returns the Parquet path.
func (s ColumnarFile) Path() string { return s.path }

// Kind returns "parquet".
func (ColumnarFile) Kind() string { return "parquet" }

func (ColumnarFile) isSource() {}

// Path returns the Delta table directory.
func (s ColumnarFolder) Path() string { return s.path }

// Kind returns "delta".
func (ColumnarFolder) Kind() string { return "delta" }

func (ColumnarFolder) isSource() {}

// NewColumnarFolder returns the Delta table source rooted at dir.
func NewColumnarFolder(dir string) ColumnarFolder {
	return ColumnarFolder{path: dir}
}

// splitCompression strips a trailing compression extension from name.
func splitCompression(name string) (string, Compression) {
	lower := strings.ToLower(name)
	for _, c := range compressionExts {
		if strings.HasSuffix(lower, c.ext) {
			return name[:len(name)-len(c.ext)], c.compression
		}
	}
	return name, CompressionNone
}

// DetectSource classifies a file path by extension. Spreadsheets cannot be
// compressed. It returns ErrUnsupportedSource for anything else.
func DetectSource(path string) (Source, error) {
	base, compression := splitCompression(filepath.Base(path))
	switch strings.ToLower(filepath.Ext(base)) {
	case ExtXLSX:
		if compression == CompressionNone {
			return SpreadsheetFile{path: path}, nil
		}
	case ExtXLS:
		if compression == CompressionNone {
			return SpreadsheetFile{path: path, Legacy: true}, nil
		}
	case ExtCSV:
		return DelimitedTextFile{path: path, Compression: compression}, nil
	case ExtParquet:
		return ColumnarFile{path: path, Compression: compression}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
}

// IsSupportedFile reports whether DetectSource accepts the path.
func IsSupportedFile(path string) bool {
	_, err := DetectSource(path)
	return err == nil
}

// IsColumnarFolderName reports whether a directory name carries the Delta
// table suffix.
func IsColumnarFolderName(name string) bool {
	return strings.HasSuffix(strings.ToLower(filepath.Base(filepath.Clean(name))), ExtDelta)
}

// Stem returns the file name without directory, compression extension and
// type extension: "dir/Sales Report (Q1).csv.gz" gives "Sales Report (Q1)".
func Stem(path string) string {
	base, _ := splitCompression(filepath.Base(filepath.Clean(path)))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TableNameFor derives the table name of a single-table source. Sheets of
// a workbook use SheetTableName instead.
func TableNameFor(src Source) string {
	if f, ok := src.(ColumnarFolder); ok {
		base := filepath.Base(filepath.Clean(f.path))
		if IsColumnarFolderName(base) {
			base = base[:len(base)-len(ExtDelta)]
		}
		return SanitizeTableName(base)
	}
	return SanitizeTableName(Stem(src.Path()))
}
