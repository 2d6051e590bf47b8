package sqlmagick

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nao1215/sqlmagick/database"
	"github.com/nao1215/sqlmagick/domain/model"
	"github.com/nao1215/sqlmagick/writer"
)

func discardLogger() Option {
	return WithLogger(slog.New(slog.DiscardHandler))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// createWorkbook writes an .xlsx file; sheets are created in the order of
// names and a sheet without rows stays empty.
func createWorkbook(t *testing.T, path string, names []string, sheets map[string][][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, name := range names {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, f.SaveAs(path))
}

func queryAll(t *testing.T, dbPath, table string) *model.Table {
	t.Helper()
	got, err := GetTable(context.Background(), dbPath, table, discardLogger())
	require.NoError(t, err)
	return got
}

func tableNames(t *testing.T, dbPath string) []string {
	t.Helper()
	db, err := database.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()
	names, err := db.TableNames(context.Background())
	require.NoError(t, err)
	return names
}

func TestIngest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("csv name and header are sanitized", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
		writeFile(t, filepath.Join(dir, "Sales Report (Q1).csv"), "Region,Total ($)\nEast,10\nWest,20\n")

		report, err := Ingest(ctx, dbPath, dir, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, []string{"Sales_Report_Q1"}, report.Tables())

		got := queryAll(t, dbPath, "Sales_Report_Q1")
		assert.Equal(t, model.Header{"Region", "Total_$"}, got.Header())
		assert.Equal(t, []model.Record{{"East", "10"}, {"West", "20"}}, got.Records())
	})

	t.Run("workbook sheets become tables and empty sheets are skipped", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
		createWorkbook(t, filepath.Join(dir, "Budget.xlsx"), []string{"Plan A", "Empty", "<Summary>"},
			map[string][][]any{
				"Plan A":    {{"Item", "Cost (EUR)"}, {"Rent", 1000}},
				"<Summary>": {{"Total"}, {1000}},
			})

		var logs bytes.Buffer
		report, err := Ingest(ctx, dbPath, filepath.Join(dir, "*.xlsx"),
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
		require.NoError(t, err)

		assert.Equal(t, 2, report.Count(model.StatusLoaded))
		assert.Equal(t, 1, report.Count(model.StatusSkipped))
		assert.Equal(t, []string{"Budget_Plan_A", "Budget_Summary"}, report.Tables())
		assert.Equal(t, []string{"Budget_Plan_A", "Budget_Summary"}, tableNames(t, dbPath))
		assert.Contains(t, logs.String(), "no columns")

		got := queryAll(t, dbPath, "Budget_Plan_A")
		assert.Equal(t, model.Header{"Item", "Cost_EUR"}, got.Header())
	})

	t.Run("repeated csv headers get numbered", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
		writeFile(t, filepath.Join(dir, "pairs.csv"), "a,a,b\n1,2,3\n")

		report, err := Ingest(ctx, dbPath, dir, discardLogger())
		require.NoError(t, err)
		assert.Empty(t, report.Failed())

		got := queryAll(t, dbPath, "pairs")
		assert.Equal(t, model.Header{"a", "a.1", "b"}, got.Header())
		assert.Equal(t, []model.Record{{"1", "2", "3"}}, got.Records())
	})

	t.Run("a failing sheet does not stop the next sheet", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
		createWorkbook(t, filepath.Join(dir, "wb.xlsx"), []string{"Bad", "Good"},
			map[string][][]any{
				"Bad":  {{"x y", "x_y"}, {1, 2}},
				"Good": {{"id"}, {7}},
			})

		report, err := Ingest(ctx, dbPath, dir, discardLogger())
		require.NoError(t, err)

		require.Len(t, report.Outcomes, 2)
		assert.Equal(t, "Bad", report.Outcomes[0].Sheet)
		assert.Equal(t, model.StatusFailed, report.Outcomes[0].Status)
		assert.ErrorIs(t, report.Outcomes[0].Err, model.ErrDuplicateColumnName)
		require.Len(t, report.Failed(), 1)
		assert.Equal(t, "Good", report.Outcomes[1].Sheet)
		assert.Equal(t, model.StatusLoaded, report.Outcomes[1].Status)
		assert.Equal(t, []string{"wb_Good"}, tableNames(t, dbPath))
		assert.Equal(t, []model.Record{{"7"}}, queryAll(t, dbPath, "wb_Good").Records())
	})

	t.Run("a failing file does not stop the others", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
		writeFile(t, filepath.Join(dir, "a_broken.csv"), "a,b\n1,2,3\n")
		writeFile(t, filepath.Join(dir, "b_duplicate.csv"), "x y,x_y\n1,2\n")
		writeFile(t, filepath.Join(dir, "c_good.csv"), "id\n1\n")
		writeFile(t, filepath.Join(dir, "d_empty.csv"), "")
		writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

		var logs bytes.Buffer
		report, err := Ingest(ctx, dbPath, filepath.Join(dir, "*"),
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
		require.NoError(t, err)

		require.Len(t, report.Outcomes, 4)
		assert.Equal(t, model.StatusFailed, report.Outcomes[0].Status)
		assert.Equal(t, model.StatusFailed, report.Outcomes[1].Status)
		assert.ErrorIs(t, report.Outcomes[1].Err, model.ErrDuplicateColumnName)
		assert.Equal(t, model.StatusLoaded, report.Outcomes[2].Status)
		assert.Equal(t, model.StatusSkipped, report.Outcomes[3].Status)
		assert.Equal(t, []string{"c_good"}, tableNames(t, dbPath))
		assert.Contains(t, logs.String(), "trace=")
		assert.Contains(t, logs.String(), "ingest finished with failures")
		assert.Contains(t, logs.String(), "a_broken.csv")
	})

	t.Run("re-ingesting replaces instead of appending", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
		writeFile(t, filepath.Join(dir, "items.csv"), "id,name\n1,a\n2,b\n")

		_, err := Ingest(ctx, dbPath, dir, discardLogger())
		require.NoError(t, err)
		first := queryAll(t, dbPath, "items")

		_, err = Ingest(ctx, dbPath, dir, discardLogger())
		require.NoError(t, err)
		second := queryAll(t, dbPath, "items")

		assert.True(t, first.Equal(second))
		assert.Equal(t, 2, second.NumRows())
	})

	t.Run("recursive pattern with parquet and delta tables", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")

		data := model.NewTable("x", model.Header{"id", "city name"}, []model.Record{{"1", "Oslo"}, {"2", "Rome"}})
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "deep"), 0o750))
		_, err := writer.WriteParquet(filepath.Join(dir, "nested", "deep", "cities.parquet"), data)
		require.NoError(t, err)
		require.NoError(t, writer.WriteDelta(filepath.Join(dir, "nested", "Visits (raw).delta"), data))

		report, err := Ingest(ctx, dbPath, filepath.Join(dir, "**"), discardLogger())
		require.NoError(t, err)
		assert.Empty(t, report.Failed())
		assert.ElementsMatch(t, []string{"cities", "Visits_raw"}, report.Tables())

		cities := queryAll(t, dbPath, "cities")
		assert.Equal(t, model.Header{"id", "city_name"}, cities.Header())
		assert.Equal(t, data.Records(), cities.Records())

		visits := queryAll(t, dbPath, "Visits_raw")
		assert.Equal(t, data.Records(), visits.Records())
	})

	t.Run("delta folder as the pattern", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
		data := model.NewTable("x", model.Header{"n"}, []model.Record{{"1"}})
		folder := filepath.Join(dir, "events.delta")
		require.NoError(t, writer.WriteDelta(folder, data))
		writeFile(t, filepath.Join(dir, "other.csv"), "n\n2\n")

		report, err := Ingest(ctx, dbPath, folder, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, []string{"events"}, report.Tables())
	})

	t.Run("delta folders next to a file pattern", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
		require.NoError(t, writer.WriteDelta(filepath.Join(dir, "events.delta"),
			model.NewTable("x", model.Header{"n"}, []model.Record{{"1"}})))
		writeFile(t, filepath.Join(dir, "other.csv"), "n\n2\n")

		report, err := Ingest(ctx, dbPath, dir, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, []string{"other", "events"}, report.Tables())
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")

		_, err := Ingest(ctx, dbPath, "  ", discardLogger())
		assert.ErrorIs(t, err, ErrEmptyPattern)

		_, err = Ingest(ctx, dbPath, "[", discardLogger())
		assert.Error(t, err)

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.csv"), "n\n1\n")
		_, err = Ingest(ctx, filepath.Join(dir, "missing", "sqlmagick.db"), dir, discardLogger())
		assert.Error(t, err)
	})

	t.Run("no match is an empty report", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
		report, err := Ingest(ctx, dbPath, filepath.Join(t.TempDir(), "*.csv"), discardLogger())
		require.NoError(t, err)
		assert.Empty(t, report.Outcomes)
	})
}

func TestResolvePattern(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), "n\n1\n")
	writeFile(t, filepath.Join(dir, "sub", "b.parquet.gz"), "")
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "")
	writeFile(t, filepath.Join(dir, "t.delta", "part-0.parquet"), "")
	writeFile(t, filepath.Join(dir, "t.delta", "_delta_log", "00000000000000000000.json"), "")

	files, folders, err := resolvePattern(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "sub", "b.parquet.gz"),
	}, files)
	assert.Equal(t, []string{filepath.Join(dir, "t.delta")}, folders)

	files, folders, err = resolvePattern(filepath.Join(dir, "*.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.csv")}, files)
	assert.Empty(t, folders)
}

func TestResolvePattern_DeltaNamedParent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "lake.delta")
	writeFile(t, filepath.Join(dir, "raw", "a.csv"), "n\n1\n")
	writeFile(t, filepath.Join(dir, "raw", "inner.delta", "part-0.parquet"), "")

	files, folders, err := resolvePattern(filepath.Join(dir, "raw", "*.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "raw", "a.csv")}, files)
	assert.Empty(t, folders)

	files, _, err = resolvePattern(filepath.Join(dir, "raw", "**"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "raw", "a.csv")}, files)

	dbPath := filepath.Join(t.TempDir(), "sqlmagick.db")
	report, err := Ingest(context.Background(), dbPath, filepath.Join(dir, "raw", "*.csv"), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, report.Tables())
}
