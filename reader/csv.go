package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/sqlmagick/domain/model"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrRaggedRow is returned when a CSV row has more fields than the header.
var ErrRaggedRow = errors.New("row has more fields than the header")

// csvDelimiter is the delimiter for CSV files
const csvDelimiter = ','

// ReadCSV parses a whole CSV file. The first row is the header; shorter
// rows are padded with empty values. An empty file yields a table without
// columns. Column names are returned as found in the file.
func ReadCSV(src model.DelimitedTextFile) (*model.Table, error) {
	r, closer, err := openDecompressed(src.Path(), src.Compression)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer() }()

	return parseCSV(r, model.TableNameFor(src))
}

func parseCSV(r io.Reader, tableName string) (*model.Table, error) {
	// A leading UTF-8 BOM, as written by spreadsheet programs, must not end
	// up in the first column name.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	csvReader := csv.NewReader(decoded)
	csvReader.Comma = csvDelimiter
	csvReader.FieldsPerRecord = -1

	headerRow, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return model.NewTable(tableName, nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	header := model.NewHeader(headerRow)

	var records []model.Record
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(row) > len(header) {
			line, _ := csvReader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrRaggedRow, line, len(row), len(header))
		}
		records = append(records, padRecord(row, len(header)))
	}

	return model.NewTable(tableName, header, records), nil
}

// padRecord returns row extended with empty values up to width.
func padRecord(row []string, width int) model.Record {
	if len(row) >= width {
		return model.NewRecord(row[:width])
	}
	record := make(model.Record, width)
	copy(record, row)
	return record
}
