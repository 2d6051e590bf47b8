// Package writer exports tables as Parquet files and Delta tables.
package writer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/sqlmagick/domain/model"
)

// WriteParquet writes t to path as a snappy compressed Parquet file,
// replacing any existing file. It returns the number of bytes written.
func WriteParquet(path string, t *model.Table) (int64, error) {
	var buf bytes.Buffer
	if err := EncodeParquet(&buf, t); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return 0, fmt.Errorf("failed to write parquet file: %w", err)
	}
	return int64(buf.Len()), nil
}

// EncodeParquet writes t to w as a snappy compressed Parquet file. Integer
// and real columns are stored as int64 and float64 unless one of their
// values does not parse, in which case the column is stored as string.
// NULL values of t are stored as null.
func EncodeParquet(w io.Writer, t *model.Table) error {
	columns := ParquetColumns(t)

	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for r, row := range t.Records() {
		for i, c := range columns {
			if t.IsNull(r, i) {
				builder.Field(i).AppendNull()
				continue
			}
			appendValue(builder.Field(i), c.Type, row[i])
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fileWriter, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := fileWriter.Write(record); err != nil {
		_ = fileWriter.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	if err := fileWriter.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ParquetColumns returns the columns as they are stored by EncodeParquet.
// Datetime columns and numeric columns holding text become text columns.
func ParquetColumns(t *model.Table) []model.ColumnInfo {
	info := t.ColumnInfo()
	columns := make([]model.ColumnInfo, len(info))
	for i, c := range info {
		columns[i] = model.ColumnInfo{Name: c.Name, Type: model.ColumnTypeText}
		switch c.Type {
		case model.ColumnTypeInteger, model.ColumnTypeReal:
			if columnParses(t, i, c.Type) {
				columns[i].Type = c.Type
			}
		}
	}
	return columns
}

func columnParses(t *model.Table, col int, ct model.ColumnType) bool {
	for r, row := range t.Records() {
		if t.IsNull(r, col) {
			continue
		}
		var err error
		if ct == model.ColumnTypeInteger {
			_, err = strconv.ParseInt(row[col], 10, 64)
		} else {
			_, err = strconv.ParseFloat(row[col], 64)
		}
		if err != nil {
			return false
		}
	}
	return true
}

func arrowType(ct model.ColumnType) arrow.DataType {
	switch ct {
	case model.ColumnTypeInteger:
		return arrow.PrimitiveTypes.Int64
	case model.ColumnTypeReal:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// appendValue appends one non-NULL value. The column type was checked by
// ParquetColumns so parsing cannot fail here.
func appendValue(b array.Builder, ct model.ColumnType, value string) {
	switch ct {
	case model.ColumnTypeInteger:
		n, _ := strconv.ParseInt(value, 10, 64)
		b.(*array.Int64Builder).Append(n)
	case model.ColumnTypeReal:
		f, _ := strconv.ParseFloat(value, 64)
		b.(*array.Float64Builder).Append(f)
	default:
		b.(*array.StringBuilder).Append(value)
	}
}
