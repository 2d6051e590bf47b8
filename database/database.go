// Package database is the shared SQLite database file the commands work
// on. Every command opens its own DB and closes it before returning.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/sqlmagick/domain/model"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const driverName = "sqlite"

// ResultTableName is the name of a table returned by Query.
const ResultTableName = "result"

var (
	// ErrEmptyPath is returned when no database path is given.
	ErrEmptyPath = errors.New("database path is empty")
	// ErrEmptyTableName is returned when a table has no name.
	ErrEmptyTableName = errors.New("table name is empty")
	// ErrNoColumns is returned when a table without columns is written.
	ErrNoColumns = errors.New("table has no columns")
)

// DB is an open connection to the shared database file.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens the database file at path, creating it when missing.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// A file database has a single writer. One connection also keeps
	// transactions and plain statements on the same handle.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return &DB{db: db, path: path}, nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Close closes the connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// ReplaceTable drops the table named like t, creates it again from the
// header and column types of t and inserts all records, in one
// transaction. It returns the number of inserted rows.
func (d *DB) ReplaceTable(ctx context.Context, t *model.Table) (n int64, err error) {
	if t.Name() == "" {
		return 0, ErrEmptyTableName
	}
	if t.NumColumns() == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoColumns, t.Name())
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+QuoteIdentifier(t.Name())); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", t.Name(), err)
	}
	if _, err = tx.ExecContext(ctx, buildCreateTableQuery(t)); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", t.Name(), err)
	}
	if n, err = insertRecords(ctx, tx, t); err != nil {
		return 0, fmt.Errorf("failed to insert into table %s: %w", t.Name(), err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit table %s: %w", t.Name(), err)
	}
	return n, nil
}

// Query runs a read query and materializes the result as a table named
// ResultTableName. Column types follow the declared types of the result
// columns; expression columns get their type inferred from the values.
func (d *DB) Query(ctx context.Context, query string) (*model.Table, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read result column types: %w", err)
	}

	var (
		records []model.Record
		nulls   []model.NullMask
	)
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		record := make(model.Record, len(columns))
		var mask model.NullMask
		for i, v := range values {
			if v == nil {
				if mask == nil {
					mask = make(model.NullMask, len(columns))
				}
				mask[i] = true
			}
			record[i] = model.FormatValue(v)
		}
		records = append(records, record)
		nulls = append(nulls, mask)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	header := model.NewHeader(columns)
	inferred := model.InferColumnsInfo(header, records)
	types := make([]model.ColumnType, len(columns))
	for i := range columns {
		types[i] = inferred[i].Type
		if i < len(columnTypes) {
			if ct, ok := model.ColumnTypeFromDecl(columnTypes[i].DatabaseTypeName()); ok {
				types[i] = ct
			}
		}
	}
	return model.NewTableWithTypes(ResultTableName, header, records, types).WithNulls(nulls), nil
}

// Exec runs a statement that returns no rows in its own transaction and
// commits it. It returns the number of affected rows.
func (d *DB) Exec(ctx context.Context, statement string) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	result, err := tx.ExecContext(ctx, statement)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, nil //nolint:nilerr // DDL statements have no affected row count
	}
	return n, nil
}

// TableNames lists the user tables in name order.
func (d *DB) TableNames(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Columns returns the columns of a table in declaration order.
func (d *DB) Columns(ctx context.Context, table string) ([]model.ColumnInfo, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []model.ColumnInfo
	for rows.Next() {
		var (
			cid       int
			name      string
			decl      string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &decl, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		ct, _ := model.ColumnTypeFromDecl(decl)
		columns = append(columns, model.ColumnInfo{Name: name, Type: ct})
	}
	return columns, rows.Err()
}

// QuoteIdentifier quotes a table or column name for use in SQL.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// buildCreateTableQuery constructs a CREATE TABLE query for the given table
func buildCreateTableQuery(t *model.Table) string {
	columns := make([]string, 0, t.NumColumns())
	for _, c := range t.ColumnInfo() {
		columns = append(columns, fmt.Sprintf("%s %s", QuoteIdentifier(c.Name), c.Type.String()))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdentifier(t.Name()), strings.Join(columns, ", "))
}

// buildInsertQuery constructs an INSERT query for the given table
func buildInsertQuery(t *model.Table) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", t.NumColumns()), ", ")
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", QuoteIdentifier(t.Name()), placeholders)
}

func insertRecords(ctx context.Context, tx *sql.Tx, t *model.Table) (int64, error) {
	if t.NumRows() == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, buildInsertQuery(t))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	info := t.ColumnInfo()
	args := make([]any, len(info))
	var n int64
	for r, record := range t.Records() {
		for i, c := range info {
			if t.IsNull(r, i) {
				args[i] = nil
				continue
			}
			args[i] = model.SQLValue(record[i], c.Type)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
