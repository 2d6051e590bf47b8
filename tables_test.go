package sqlmagick

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/sqlmagick/domain/model"
)

func TestTablesKeepEmptyStringsApartFromNULL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
	for _, q := range []string{
		"CREATE TABLE notes (id INTEGER, note TEXT)",
		"INSERT INTO notes VALUES (1, ''), (2, NULL), (3, 'x')",
	} {
		_, err := Run(ctx, dbPath, q, "", discardLogger())
		require.NoError(t, err, q)
	}

	nullAndEmpty := func(t *testing.T, table string) []model.Record {
		t.Helper()
		got, err := Run(ctx, dbPath,
			`SELECT id FROM "`+table+`" WHERE note IS NULL UNION ALL SELECT id FROM "`+table+`" WHERE note = ''`,
			"", discardLogger())
		require.NoError(t, err)
		return got.Records()
	}

	t.Run("create-temp-table", func(t *testing.T) {
		_, err := CreateTempTable(ctx, dbPath, "notes_copy", "SELECT * FROM notes", discardLogger())
		require.NoError(t, err)
		assert.Equal(t, []model.Record{{"2"}, {"1"}}, nullAndEmpty(t, "notes_copy"))
	})

	t.Run("get-table then put-table", func(t *testing.T) {
		got, err := GetTable(ctx, dbPath, "notes", discardLogger())
		require.NoError(t, err)
		assert.False(t, got.IsNull(0, 1))
		assert.True(t, got.IsNull(1, 1))

		_, err = PutTable(ctx, dbPath, "notes_back", got, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, []model.Record{{"2"}, {"1"}}, nullAndEmpty(t, "notes_back"))
	})
}

func TestTableSchema(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
	_, err := Run(ctx, dbPath, "CREATE TABLE t (id INTEGER, price REAL, name TEXT)", "", discardLogger())
	require.NoError(t, err)

	columns, err := TableSchema(ctx, dbPath, "t")
	require.NoError(t, err)
	assert.Equal(t, []model.ColumnInfo{
		{Name: "id", Type: model.ColumnTypeInteger},
		{Name: "price", Type: model.ColumnTypeReal},
		{Name: "name", Type: model.ColumnTypeText},
	}, columns)

	_, err = TableSchema(ctx, dbPath, "missing")
	assert.ErrorIs(t, err, ErrNoSuchTable)
	_, err = TableSchema(ctx, dbPath, " ")
	assert.ErrorIs(t, err, ErrEmptyTableName)
}
