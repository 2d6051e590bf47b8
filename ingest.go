package sqlmagick

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nao1215/sqlmagick/database"
	"github.com/nao1215/sqlmagick/domain/model"
	"github.com/nao1215/sqlmagick/reader"
)

// Ingest loads every supported file and Delta table matched by pattern into
// the database at dbPath, replacing tables of the same derived name.
//
// pattern is a glob that may use "**". A directory loads everything below
// it, and a directory ending in ".delta" loads that Delta table only.
// Delta tables are also picked up from pattern/*.delta.
//
// Items fail independently: a broken file, sheet or Delta table becomes a
// failed outcome in the report and the remaining items are still loaded.
// Only an invalid pattern or a database that cannot be opened is returned
// as an error.
func Ingest(ctx context.Context, dbPath, pattern string, opts ...Option) (*model.Report, error) {
	o := newOptions(opts)

	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, NewErrorContext("ingest", "").Error(ErrEmptyPattern)
	}

	files, folders, err := resolvePattern(pattern)
	if err != nil {
		return nil, NewErrorContext("ingest", pattern).WithDetails("resolve pattern").Error(err)
	}

	db, err := database.Open(ctx, dbPath)
	if err != nil {
		return nil, NewErrorContext("ingest", dbPath).WithDetails("open database").Error(err)
	}
	defer db.Close()

	ing := &ingestor{db: db, logger: o.logger, report: &model.Report{}}
	if len(files) == 0 && len(folders) == 0 {
		o.logger.Warn("no supported files matched", "pattern", pattern)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return ing.report, err
		}
		src, err := model.DetectSource(path)
		if err != nil {
			ing.fail(model.Outcome{Source: path}, err)
			continue
		}
		ing.ingestSource(ctx, src)
	}
	for _, dir := range folders {
		if err := ctx.Err(); err != nil {
			return ing.report, err
		}
		ing.ingestSource(ctx, model.NewColumnarFolder(dir))
	}

	attrs := []any{
		slog.String("pattern", pattern),
		slog.Int("loaded", ing.report.Count(model.StatusLoaded)),
		slog.Int("skipped", ing.report.Count(model.StatusSkipped)),
	}
	failed := ing.report.Failed()
	if len(failed) == 0 {
		o.logger.Info("ingest finished", attrs...)
		return ing.report, nil
	}
	sources := make([]string, len(failed))
	for i, f := range failed {
		sources[i] = f.Source
		if f.Sheet != "" {
			sources[i] += " [" + f.Sheet + "]"
		}
	}
	attrs = append(attrs, slog.Int("failed", len(failed)), slog.Any("failed_sources", sources))
	o.logger.Warn("ingest finished with failures", attrs...)
	return ing.report, nil
}

type ingestor struct {
	db     *database.DB
	logger *slog.Logger
	report *model.Report
}

// ingestSource dispatches one source to the handler of its kind.
func (ing *ingestor) ingestSource(ctx context.Context, src model.Source) {
	outcome := model.Outcome{Source: src.Path(), Kind: src.Kind()}

	switch s := src.(type) {
	case model.SpreadsheetFile:
		ing.ingestWorkbook(ctx, s)
	case model.DelimitedTextFile:
		outcome.Table = model.TableNameFor(s)
		ing.load(ctx, outcome, func() (*model.Table, error) { return reader.ReadCSV(s) })
	case model.ColumnarFile:
		outcome.Table = model.TableNameFor(s)
		ing.load(ctx, outcome, func() (*model.Table, error) { return reader.ReadParquet(s) })
	case model.ColumnarFolder:
		outcome.Table = model.TableNameFor(s)
		ing.load(ctx, outcome, func() (*model.Table, error) { return reader.ReadDelta(s) })
	default:
		ing.fail(outcome, model.ErrUnsupportedSource)
	}
}

func (ing *ingestor) ingestWorkbook(ctx context.Context, src model.SpreadsheetFile) {
	base := model.Outcome{Source: src.Path(), Kind: src.Kind()}
	file := filepath.Base(src.Path())

	var wb reader.Workbook
	err := protect(func() error {
		var err error
		wb, err = reader.OpenWorkbook(src)
		return err
	})
	if err != nil {
		ing.fail(base, err)
		return
	}
	defer wb.Close()

	stem := model.Stem(src.Path())
	for _, sheet := range wb.SheetNames() {
		ing.logger.Info("reading sheet", slog.String("sheet", sheet), slog.String("file", file))
		outcome := base
		outcome.Sheet = sheet
		outcome.Table = model.SheetTableName(stem, sheet)
		ing.load(ctx, outcome, func() (*model.Table, error) { return wb.ReadSheet(sheet) })
	}
}

// load reads one table, sanitizes its columns and replaces it in the
// database, recording the outcome. A panic while reading is recorded as a
// failure.
func (ing *ingestor) load(ctx context.Context, outcome model.Outcome, read func() (*model.Table, error)) {
	var table *model.Table
	if err := protect(func() error {
		var err error
		table, err = read()
		return err
	}); err != nil {
		ing.fail(outcome, err)
		return
	}

	if table.NumColumns() == 0 {
		outcome.Status = model.StatusSkipped
		outcome.Message = "no columns"
		ing.report.Add(outcome)
		ing.logger.Warn("source has no columns, skipping",
			slog.String("source", outcome.Source),
			slog.String("sheet", outcome.Sheet))
		return
	}

	table, err := table.WithSanitizedColumns()
	if err != nil {
		ing.fail(outcome, err)
		return
	}
	table = table.Renamed(outcome.Table)

	n, err := ing.db.ReplaceTable(ctx, table)
	if err != nil {
		ing.fail(outcome, err)
		return
	}

	outcome.Status = model.StatusLoaded
	outcome.Rows = int(n)
	ing.report.Add(outcome)
	ing.logger.Info("loaded table",
		slog.String("source", outcome.Source),
		slog.String("sheet", outcome.Sheet),
		slog.String("table", outcome.Table),
		slog.Int64("rows", n))
}

func (ing *ingestor) fail(outcome model.Outcome, err error) {
	err = NewErrorContext("load", outcome.Source).WithTable(outcome.Table).Error(err)
	outcome.Status = model.StatusFailed
	outcome.Err = err
	outcome.Message = err.Error()
	ing.report.Add(outcome)
	ing.logger.Error("failed to load source",
		slog.String("source", outcome.Source),
		slog.String("sheet", outcome.Sheet),
		slog.String("error", err.Error()),
		TraceAttr(err))
}

// resolvePattern expands pattern into supported files and Delta table
// directories. Files inside a Delta table are part of that table and are
// never returned on their own.
func resolvePattern(pattern string) (files, folders []string, err error) {
	globPattern := pattern
	if info, statErr := os.Stat(pattern); statErr == nil && info.IsDir() {
		if model.IsColumnarFolderName(pattern) {
			return nil, []string{filepath.Clean(pattern)}, nil
		}
		globPattern = filepath.Join(pattern, "**")
	}

	matches, err := doublestar.FilepathGlob(globPattern)
	if err != nil {
		return nil, nil, err
	}
	base := patternBase(globPattern)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.IsDir() {
			if model.IsColumnarFolderName(m) && !insideColumnarFolder(base, m) {
				folders = appendUnique(folders, m)
			}
			continue
		}
		if insideColumnarFolder(base, m) || !model.IsSupportedFile(m) {
			continue
		}
		files = append(files, m)
	}

	folderPattern := filepath.Join(pattern, "*"+model.ExtDelta)
	folderMatches, err := doublestar.FilepathGlob(folderPattern)
	if err != nil {
		return nil, nil, err
	}
	base = patternBase(folderPattern)
	for _, m := range folderMatches {
		if info, err := os.Stat(m); err == nil && info.IsDir() && !insideColumnarFolder(base, m) {
			folders = appendUnique(folders, m)
		}
	}
	return files, folders, nil
}

// patternBase returns the directory part of pattern that holds no glob
// meta characters.
func patternBase(pattern string) string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return filepath.FromSlash(base)
}

// insideColumnarFolder reports whether a directory between base and path
// is a Delta table. Directories in base itself were named by the caller
// and do not count.
func insideColumnarFolder(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = path
	}
	parts := strings.Split(filepath.ToSlash(filepath.Clean(rel)), "/")
	for _, p := range parts[:len(parts)-1] {
		if model.IsColumnarFolderName(p) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	s = filepath.Clean(s)
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}
