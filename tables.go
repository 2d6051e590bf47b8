package sqlmagick

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nao1215/sqlmagick/database"
	"github.com/nao1215/sqlmagick/domain/model"
	"github.com/nao1215/sqlmagick/reader"
)

// PutTable replaces the table name with the content of t.
func PutTable(ctx context.Context, dbPath, name string, t *model.Table, opts ...Option) (int64, error) {
	o := newOptions(opts)

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, NewErrorContext("put table", dbPath).Error(ErrEmptyTableName)
	}

	db, err := database.Open(ctx, dbPath)
	if err != nil {
		return 0, NewErrorContext("put table", dbPath).WithTable(name).Error(err)
	}
	defer db.Close()

	n, err := db.ReplaceTable(ctx, t.Renamed(name))
	if err != nil {
		return 0, NewErrorContext("put table", dbPath).WithTable(name).Error(err)
	}
	o.logger.Info("loaded table into database", slog.String("table", name), slog.Int64("rows", n))
	return n, nil
}

// GetTable reads the whole table name. The returned table carries that name.
func GetTable(ctx context.Context, dbPath, name string, opts ...Option) (*model.Table, error) {
	o := newOptions(opts)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewErrorContext("get table", dbPath).Error(ErrEmptyTableName)
	}

	db, err := database.Open(ctx, dbPath)
	if err != nil {
		return nil, NewErrorContext("get table", dbPath).WithTable(name).Error(err)
	}
	defer db.Close()

	t, err := db.Query(ctx, "SELECT * FROM "+database.QuoteIdentifier(name))
	if err != nil {
		return nil, NewErrorContext("get table", dbPath).WithTable(name).Error(err)
	}
	o.logger.Debug("read table from database", slog.String("table", name), slog.Int("rows", t.NumRows()))
	return t.Renamed(name), nil
}

// TableSchema returns the declared columns of the table name.
func TableSchema(ctx context.Context, dbPath, name string) ([]model.ColumnInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewErrorContext("schema", dbPath).Error(ErrEmptyTableName)
	}

	db, err := database.Open(ctx, dbPath)
	if err != nil {
		return nil, NewErrorContext("schema", dbPath).WithTable(name).Error(err)
	}
	defer db.Close()

	columns, err := db.Columns(ctx, name)
	if err != nil {
		return nil, NewErrorContext("schema", dbPath).WithTable(name).Error(err)
	}
	if len(columns) == 0 {
		return nil, NewErrorContext("schema", dbPath).WithTable(name).Error(ErrNoSuchTable)
	}
	return columns, nil
}

// CreateTempTable runs query and replaces the table name with its result,
// on a single connection.
func CreateTempTable(ctx context.Context, dbPath, name, query string, opts ...Option) (int64, error) {
	o := newOptions(opts)

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, NewErrorContext("create temp table", dbPath).Error(ErrEmptyTableName)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, NewErrorContext("create temp table", dbPath).WithTable(name).Error(ErrEmptyQuery)
	}

	db, err := database.Open(ctx, dbPath)
	if err != nil {
		return 0, NewErrorContext("create temp table", dbPath).WithTable(name).Error(err)
	}
	defer db.Close()

	result, err := db.Query(ctx, query)
	if err != nil {
		return 0, NewErrorContext("create temp table", dbPath).WithTable(name).Error(err)
	}
	n, err := db.ReplaceTable(ctx, result.Renamed(name))
	if err != nil {
		return 0, NewErrorContext("create temp table", dbPath).WithTable(name).Error(err)
	}
	o.logger.Info("temporary table created from query", slog.String("table", name), slog.Int64("rows", n))
	return n, nil
}

// ReadTable reads a single supported file or Delta table directory into
// memory without touching the database. Workbooks yield their first sheet.
// Column names are returned as found in the source.
func ReadTable(path string) (*model.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, NewErrorContext("read", path).Error(err)
	}

	var src model.Source
	if info.IsDir() {
		src = model.NewColumnarFolder(path)
	} else if src, err = model.DetectSource(path); err != nil {
		return nil, NewErrorContext("read", path).Error(err)
	}

	var t *model.Table
	err = protect(func() error {
		var err error
		switch s := src.(type) {
		case model.SpreadsheetFile:
			t, err = readFirstSheet(s)
		case model.DelimitedTextFile:
			t, err = reader.ReadCSV(s)
		case model.ColumnarFile:
			t, err = reader.ReadParquet(s)
		case model.ColumnarFolder:
			t, err = reader.ReadDelta(s)
		default:
			err = model.ErrUnsupportedSource
		}
		return err
	})
	if err != nil {
		return nil, NewErrorContext("read", path).Error(err)
	}
	return t, nil
}

func readFirstSheet(src model.SpreadsheetFile) (*model.Table, error) {
	wb, err := reader.OpenWorkbook(src)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.SheetNames()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", src.Path())
	}
	return wb.ReadSheet(sheets[0])
}
