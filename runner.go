package sqlmagick

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/sqlmagick/database"
	"github.com/nao1215/sqlmagick/domain/model"
	"github.com/nao1215/sqlmagick/writer"
)

// statementKeywords are leading keywords of statements that are executed
// and committed instead of being read as a result table.
var statementKeywords = map[string]bool{
	"INSERT":  true,
	"UPDATE":  true,
	"DELETE":  true,
	"REPLACE": true,
	"CREATE":  true,
	"DROP":    true,
	"ALTER":   true,
}

// Run executes query against the database at dbPath.
//
// Mutating statements are executed, committed and return a nil table.
// Anything else is read into a table named "result". Without a target
// the table is returned. With a target ending in ".parquet" or ".delta"
// the result is exported there and nil is returned; any other target
// fails with ErrUnsupportedFormat and nothing is written.
func Run(ctx context.Context, dbPath, query, target string, opts ...Option) (*model.Table, error) {
	o := newOptions(opts)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewErrorContext("query", dbPath).Error(ErrEmptyQuery)
	}
	target = strings.TrimSpace(target)

	db, err := database.Open(ctx, dbPath)
	if err != nil {
		return nil, NewErrorContext("query", dbPath).WithDetails("open database").Error(err)
	}
	defer db.Close()

	if keyword := LeadingKeyword(query); IsStatement(keyword) {
		n, err := db.Exec(ctx, query)
		if err != nil {
			return nil, NewErrorContext("query", dbPath).WithDetails(keyword).Error(err)
		}
		o.logger.Info(keyword+" executed successfully", slog.Int64("rows_affected", n))
		return nil, nil
	}

	result, err := db.Query(ctx, query)
	if err != nil {
		return nil, NewErrorContext("query", dbPath).Error(err)
	}
	if target == "" {
		return result, nil
	}

	if err := Export(result, target, WithLogger(o.logger)); err != nil {
		return nil, err
	}
	return nil, nil
}

// Export writes t to target, choosing the format by the target suffix.
func Export(t *model.Table, target string, opts ...Option) error {
	o := newOptions(opts)

	switch strings.ToLower(filepath.Ext(filepath.Clean(target))) {
	case model.ExtParquet:
		size, err := writer.WriteParquet(target, t)
		if err != nil {
			return NewErrorContext("export", target).Error(err)
		}
		o.logger.Info("query result saved",
			slog.String("target", target),
			slog.String("rows", humanize.Comma(int64(t.NumRows()))),
			slog.String("size", humanize.Bytes(uint64(size))))
	case model.ExtDelta:
		if err := writer.WriteDelta(target, t); err != nil {
			return NewErrorContext("export", target).Error(err)
		}
		o.logger.Info("query result saved to delta table",
			slog.String("target", target),
			slog.String("rows", humanize.Comma(int64(t.NumRows()))))
	default:
		return NewErrorContext("export", target).Error(fmt.Errorf("%w: %s", ErrUnsupportedFormat, target))
	}
	return nil
}

// LeadingKeyword returns the first word of query in upper case, skipping
// leading SQL comments.
func LeadingKeyword(query string) string {
	query = skipComments(query)
	end := strings.IndexFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end < 0 {
		end = len(query)
	}
	return strings.ToUpper(query[:end])
}

// IsStatement reports whether keyword starts a statement that produces
// no rows.
func IsStatement(keyword string) bool {
	return statementKeywords[keyword]
}

func skipComments(query string) string {
	for {
		query = strings.TrimSpace(query)
		switch {
		case strings.HasPrefix(query, "--"):
			i := strings.IndexByte(query, '\n')
			if i < 0 {
				return ""
			}
			query = query[i+1:]
		case strings.HasPrefix(query, "/*"):
			i := strings.Index(query, "*/")
			if i < 0 {
				return ""
			}
			query = query[i+2:]
		default:
			return query
		}
	}
}
