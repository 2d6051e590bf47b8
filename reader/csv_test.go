package reader

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/nao1215/sqlmagick/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		wantHeader model.Header
		wantRows   []model.Record
		wantErr    error
	}{
		{
			name:       "header and rows",
			input:      "Region,Total ($)\nEast,10\nWest,20\n",
			wantHeader: model.Header{"Region", "Total ($)"},
			wantRows:   []model.Record{{"East", "10"}, {"West", "20"}},
		},
		{
			name:       "leading byte order mark",
			input:      "\ufeffid,name\n1,a\n",
			wantHeader: model.Header{"id", "name"},
			wantRows:   []model.Record{{"1", "a"}},
		},
		{
			name:       "short rows are padded",
			input:      "a,b,c\n1\n2,3\n",
			wantHeader: model.Header{"a", "b", "c"},
			wantRows:   []model.Record{{"1", "", ""}, {"2", "3", ""}},
		},
		{
			name:       "quoted field spanning lines",
			input:      "id,note\n1,\"two\nlines\"\n",
			wantHeader: model.Header{"id", "note"},
			wantRows:   []model.Record{{"1", "two\nlines"}},
		},
		{
			name:       "header only",
			input:      "id,name\n",
			wantHeader: model.Header{"id", "name"},
		},
		{
			name:  "empty input",
			input: "",
		},
		{
			name:    "row wider than header",
			input:   "a,b\n1,2,3\n",
			wantErr: ErrRaggedRow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table, err := parseCSV(strings.NewReader(tt.input), "t")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "t", table.Name())
			assert.Equal(t, tt.wantHeader, table.Header())
			assert.Equal(t, tt.wantRows, table.Records())
		})
	}
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	content := "id,price\n1,9.5\n2,3\n"

	t.Run("plain file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "Sales Report (Q1).csv")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		src, err := model.DetectSource(path)
		require.NoError(t, err)
		table, err := ReadCSV(src.(model.DelimitedTextFile))
		require.NoError(t, err)

		assert.Equal(t, "Sales_Report_Q1", table.Name())
		assert.Equal(t, 2, table.NumRows())
		assert.Equal(t, model.ColumnTypeInteger, table.ColumnInfo()[0].Type)
		assert.Equal(t, model.ColumnTypeReal, table.ColumnInfo()[1].Type)
	})

	t.Run("gzip file loads like plain file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "sales.csv.gz")
		f, err := os.Create(path)
		require.NoError(t, err)
		gz := gzip.NewWriter(f)
		_, err = gz.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		require.NoError(t, f.Close())

		src, err := model.DetectSource(path)
		require.NoError(t, err)
		table, err := ReadCSV(src.(model.DelimitedTextFile))
		require.NoError(t, err)
		assert.Equal(t, "sales", table.Name())
		assert.Equal(t, []model.Record{{"1", "9.5"}, {"2", "3"}}, table.Records())
	})

	t.Run("zstd file loads like plain file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "sales.csv.zst")
		encoder, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, encoder.EncodeAll([]byte(content), nil), 0o600))
		require.NoError(t, encoder.Close())

		src, err := model.DetectSource(path)
		require.NoError(t, err)
		table, err := ReadCSV(src.(model.DelimitedTextFile))
		require.NoError(t, err)
		assert.Equal(t, []model.Record{{"1", "9.5"}, {"2", "3"}}, table.Records())
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		src, err := model.DetectSource(filepath.Join(t.TempDir(), "missing.csv"))
		require.NoError(t, err)
		_, err = ReadCSV(src.(model.DelimitedTextFile))
		assert.Error(t, err)
	})
}
