package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/sqlmagick/deltalog"
	"github.com/nao1215/sqlmagick/domain/model"
	"github.com/nao1215/sqlmagick/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *model.Table {
	return model.NewTableWithTypes(
		"result",
		model.Header{"id", "region", "amount", "mixed", "sold_at"},
		[]model.Record{
			{"1", "East", "10.5", "7", "2024-01-02"},
			{"2", "", "", "n/a", "2024-01-03 10:00:00"},
		},
		[]model.ColumnType{
			model.ColumnTypeInteger,
			model.ColumnTypeText,
			model.ColumnTypeReal,
			model.ColumnTypeInteger,
			model.ColumnTypeDatetime,
		},
	)
}

func TestParquetColumns(t *testing.T) {
	t.Parallel()

	got := ParquetColumns(sampleTable())
	assert.Equal(t, []model.ColumnInfo{
		{Name: "id", Type: model.ColumnTypeInteger},
		{Name: "region", Type: model.ColumnTypeText},
		{Name: "amount", Type: model.ColumnTypeReal},
		{Name: "mixed", Type: model.ColumnTypeText},
		{Name: "sold_at", Type: model.ColumnTypeText},
	}, got)
}

func TestWriteParquet(t *testing.T) {
	t.Parallel()

	t.Run("round trip keeps content and numeric types", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out.parquet")
		size, err := WriteParquet(path, sampleTable())
		require.NoError(t, err)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, info.Size(), size)

		got, err := reader.ReadParquetFile(path, "out")
		require.NoError(t, err)
		assert.True(t, sampleTable().EqualContent(got))
		assert.Equal(t, model.ColumnTypeInteger, got.ColumnInfo()[0].Type)
		assert.Equal(t, model.ColumnTypeReal, got.ColumnInfo()[2].Type)
		assert.Equal(t, model.ColumnTypeText, got.ColumnInfo()[3].Type)
	})

	t.Run("empty strings stay apart from NULL", func(t *testing.T) {
		t.Parallel()
		table := model.NewTableWithTypes("result", model.Header{"note", "n"},
			[]model.Record{{"", ""}, {"", "3"}, {"x", "4"}},
			[]model.ColumnType{model.ColumnTypeText, model.ColumnTypeInteger},
		).WithNulls([]model.NullMask{{false, true}, {true, false}})

		var buf bytes.Buffer
		require.NoError(t, EncodeParquet(&buf, table))
		assert.Equal(t, model.ColumnTypeInteger, ParquetColumns(table)[1].Type)

		got, err := reader.DecodeParquet(bytes.NewReader(buf.Bytes()), "out")
		require.NoError(t, err)
		assert.True(t, table.EqualContent(got))
		assert.False(t, got.IsNull(0, 0))
		assert.True(t, got.IsNull(0, 1))
		assert.True(t, got.IsNull(1, 0))
	})

	t.Run("table without rows", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		empty := model.NewTable("empty", model.Header{"a", "b"}, nil)
		require.NoError(t, EncodeParquet(&buf, empty))

		got, err := reader.DecodeParquet(bytes.NewReader(buf.Bytes()), "empty")
		require.NoError(t, err)
		assert.Equal(t, model.Header{"a", "b"}, got.Header())
		assert.Equal(t, 0, got.NumRows())
	})
}

func TestWriteDelta(t *testing.T) {
	t.Parallel()

	t.Run("new table reads back", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "sales.delta")
		require.NoError(t, WriteDelta(dir, sampleTable()))

		snapshot, err := deltalog.Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "sales", snapshot.MetaData.Name)
		require.Len(t, snapshot.Files, 1)

		got, err := reader.ReadDelta(model.NewColumnarFolder(dir))
		require.NoError(t, err)
		assert.Equal(t, "sales", got.Name())
		assert.True(t, sampleTable().EqualContent(got))
	})

	t.Run("empty strings stay apart from NULL", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "notes.delta")
		table := model.NewTable("result", model.Header{"note"}, []model.Record{{""}, {""}}).
			WithNulls([]model.NullMask{nil, {true}})
		require.NoError(t, WriteDelta(dir, table))

		got, err := reader.ReadDelta(model.NewColumnarFolder(dir))
		require.NoError(t, err)
		assert.False(t, got.IsNull(0, 0))
		assert.True(t, got.IsNull(1, 0))
	})

	t.Run("existing table is an error", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "sales.delta")
		require.NoError(t, WriteDelta(dir, sampleTable()))

		err := WriteDelta(dir, sampleTable())
		assert.ErrorIs(t, err, ErrTableExists)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, "only the first part file and the log directory")
	})
}
