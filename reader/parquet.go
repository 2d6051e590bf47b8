package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/sqlmagick/domain/model"
)

// ReadParquet reads a whole Parquet file. Compressed files are inflated in
// memory first since Parquet needs random access.
func ReadParquet(src model.ColumnarFile) (*model.Table, error) {
	name := model.TableNameFor(src)
	if src.Compression == model.CompressionNone {
		return ReadParquetFile(src.Path(), name)
	}

	r, closer, err := openDecompressed(src.Path(), src.Compression)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	return DecodeParquet(bytes.NewReader(data), name)
}

// ReadParquetFile reads the Parquet file at path into a table called name.
func ReadParquetFile(path, name string) (*model.Table, error) {
	pqReader, err := pqfile.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	return fromParquet(pqReader, name)
}

// DecodeParquet reads Parquet data from r into a table called name.
func DecodeParquet(r parquet.ReaderAtSeeker, name string) (*model.Table, error) {
	pqReader, err := pqfile.NewParquetReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	return fromParquet(pqReader, name)
}

func fromParquet(pqReader *pqfile.Reader, name string) (*model.Table, error) {
	defer func() { _ = pqReader.Close() }()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	tbl, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer tbl.Release()

	return arrowTableToModel(tbl, name)
}

// arrowTableToModel converts an Arrow table, keeping the column types the
// schema declares instead of re-inferring them from text.
func arrowTableToModel(tbl arrow.Table, name string) (*model.Table, error) {
	schema := tbl.Schema()
	header := make(model.Header, schema.NumFields())
	types := make([]model.ColumnType, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
		types[i] = columnTypeOf(field.Type)
	}

	tableReader := array.NewTableReader(tbl, 0)
	defer tableReader.Release()

	records := make([]model.Record, 0, tbl.NumRows())
	nulls := make([]model.NullMask, 0, tbl.NumRows())
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := range int(batch.NumRows()) {
			row := make(model.Record, batch.NumCols())
			var mask model.NullMask
			for j, col := range batch.Columns() {
				if col.IsNull(i) {
					if mask == nil {
						mask = make(model.NullMask, batch.NumCols())
					}
					mask[j] = true
				}
				row[j] = arrowValue(col, i)
			}
			records = append(records, row)
			nulls = append(nulls, mask)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("error reading table records: %w", err)
	}

	return model.NewTableWithTypes(name, header, records, types).WithNulls(nulls), nil
}

func columnTypeOf(dt arrow.DataType) model.ColumnType {
	switch dt.ID() {
	case arrow.BOOL,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return model.ColumnTypeInteger
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64, arrow.DECIMAL128, arrow.DECIMAL256:
		return model.ColumnTypeReal
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return model.ColumnTypeDatetime
	default:
		return model.ColumnTypeText
	}
}

// arrowValue renders element i of an Arrow array. Nulls become "".
func arrowValue(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	switch a := col.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return string(a.Value(i))
	case *array.Boolean:
		return model.FormatValue(a.Value(i))
	case *array.Int8:
		return strconv.FormatInt(int64(a.Value(i)), 10)
	case *array.Int16:
		return strconv.FormatInt(int64(a.Value(i)), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(i)), 10)
	case *array.Int64:
		return strconv.FormatInt(a.Value(i), 10)
	case *array.Uint8:
		return strconv.FormatUint(uint64(a.Value(i)), 10)
	case *array.Uint16:
		return strconv.FormatUint(uint64(a.Value(i)), 10)
	case *array.Uint32:
		return strconv.FormatUint(uint64(a.Value(i)), 10)
	case *array.Uint64:
		return strconv.FormatUint(a.Value(i), 10)
	case *array.Float32:
		return model.FormatValue(a.Value(i))
	case *array.Float64:
		return model.FormatValue(a.Value(i))
	case *array.Date32:
		return model.FormatTime(a.Value(i).ToTime())
	case *array.Date64:
		return model.FormatTime(a.Value(i).ToTime())
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return model.FormatTime(a.Value(i).ToTime(unit))
	default:
		return col.ValueStr(i)
	}
}
