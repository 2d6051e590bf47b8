package sqlmagick

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		script  string
		want    []Cell
		wantErr bool
	}{
		{
			name:   "command line and body",
			script: "%%sql out.parquet\nSELECT *\nFROM t\n",
			want:   []Cell{{Name: "sql", Line: "out.parquet", Body: "SELECT *\nFROM t"}},
		},
		{
			name:   "several cells with comments before the first",
			script: "# setup\n\n%%dump_files\ndata/**\n\n%%createtemp big\nSELECT 1\n",
			want: []Cell{
				{Name: "dump_files", Body: "data/**"},
				{Name: "createtemp", Line: "big", Body: "SELECT 1"},
			},
		},
		{
			name:   "windows line endings",
			script: "%%load_df sales\r\n",
			want:   []Cell{{Name: "load_df", Line: "sales"}},
		},
		{
			name:   "empty script",
			script: "",
		},
		{
			name:    "text outside a cell",
			script:  "SELECT 1\n%%sql\n",
			wantErr: true,
		},
		{
			name:    "missing command name",
			script:  "%% \nSELECT 1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseScript(tt.script)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCell)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCell(t *testing.T) {
	t.Parallel()

	c, err := ParseCell("%%sql\nSELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", c.Input())
	assert.Equal(t, "%%sql\nSELECT 1\n", c.String())

	c, err = ParseCell("%%load_df sales")
	require.NoError(t, err)
	assert.Equal(t, "sales", c.Input())

	_, err = ParseCell("%%sql\n%%sql\n")
	assert.ErrorIs(t, err, ErrInvalidCell)
}
