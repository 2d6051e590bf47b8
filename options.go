package sqlmagick

import (
	"io"
	"log/slog"
	"os"
)

// Option configures Ingest, Run, the table commands and Session.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	out      io.Writer
	registry *Registry
	maxRows  int
}

// defaultMaxRows is how many rows a Session prints of a result.
const defaultMaxRows = 20

func newOptions(opts []Option) options {
	o := options{
		logger:  slog.Default(),
		out:     os.Stdout,
		maxRows: defaultMaxRows,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOutput sets where a Session prints results. The default is stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithRegistry sets the commands a Session dispatches to. The default is
// DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithMaxRows sets how many rows a Session prints of a result. Zero or
// less prints all rows.
func WithMaxRows(n int) Option {
	return func(o *options) {
		o.maxRows = n
	}
}
