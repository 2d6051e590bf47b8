package sqlmagick

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/nao1215/sqlmagick/writer"
)

// Standard error messages and error creation functions for consistency
var (
	// ErrEmptyPattern indicates that ingest was called without a pattern
	ErrEmptyPattern = errors.New("sqlmagick: empty pattern")

	// ErrEmptyQuery indicates that a query text is blank
	ErrEmptyQuery = errors.New("sqlmagick: empty query")

	// ErrUnsupportedFormat indicates an export target with an unknown suffix
	ErrUnsupportedFormat = errors.New("sqlmagick: unsupported file format")

	// ErrTableExists indicates that a Delta export target already holds a table
	ErrTableExists = writer.ErrTableExists

	// ErrEmptyTableName indicates a missing table name
	ErrEmptyTableName = errors.New("sqlmagick: empty table name")

	// ErrUnknownCommand indicates a cell naming no registered command
	ErrUnknownCommand = errors.New("sqlmagick: unknown command")

	// ErrNoSuchTable indicates a table missing from the database
	ErrNoSuchTable = errors.New("sqlmagick: no such table")

	// ErrUnknownVariable indicates a session variable that does not exist
	ErrUnknownVariable = errors.New("sqlmagick: no such variable")

	// ErrInvalidCell indicates a cell that does not start with a command line
	ErrInvalidCell = errors.New("sqlmagick: invalid cell")

	// ErrPanic indicates that reading a source panicked
	ErrPanic = errors.New("sqlmagick: panic")
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context. The result carries the
// stack trace of the caller, printed by the %+v verb.
func (ec *ErrorContext) Error(baseErr error) error {
	parts := []string{fmt.Sprintf("sqlmagick: %s failed", ec.Operation)}
	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}
	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}
	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return pkgerrors.WithStack(fmt.Errorf("%s: %w", context, baseErr))
	}
	return pkgerrors.New(context)
}

// TraceAttr returns err with its stack trace as a log attribute. Errors
// without a recorded stack get the stack of the caller.
func TraceAttr(err error) slog.Attr {
	var tracer interface{ StackTrace() pkgerrors.StackTrace }
	if !errors.As(err, &tracer) {
		err = pkgerrors.WithStack(err)
	}
	return slog.String("trace", fmt.Sprintf("%+v", err))
}

// protect runs fn and turns a panic into an ErrPanic error with a stack.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = pkgerrors.WithStack(fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()
	if err := fn(); err != nil {
		return pkgerrors.WithStack(err)
	}
	return nil
}
