package sqlmagick

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/nao1215/sqlmagick/domain/model"
)

// Session is the namespace of an interactive notebook: named in-memory
// tables plus the database file the commands work on. A Session is not
// safe for concurrent use.
type Session struct {
	dbPath   string
	registry *Registry
	vars     map[string]*model.Table
	out      io.Writer
	logger   *slog.Logger
	maxRows  int
}

// NewSession creates a session on the database file at dbPath.
func NewSession(dbPath string, opts ...Option) *Session {
	o := newOptions(opts)
	registry := o.registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Session{
		dbPath:   dbPath,
		registry: registry,
		vars:     map[string]*model.Table{},
		out:      o.out,
		logger:   o.logger,
		maxRows:  o.maxRows,
	}
}

// DBPath returns the database file path.
func (s *Session) DBPath() string {
	return s.dbPath
}

// Registry returns the commands of the session.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Set stores t under name.
func (s *Session) Set(name string, t *model.Table) {
	s.vars[name] = t
}

// Get returns the table stored under name.
func (s *Session) Get(name string) (*model.Table, bool) {
	t, ok := s.vars[name]
	return t, ok
}

// Names returns the variable names, sorted.
func (s *Session) Names() []string {
	return slices.Sorted(maps.Keys(s.vars))
}

// Load reads a file or Delta table into the variable name.
func (s *Session) Load(name, path string) error {
	t, err := ReadTable(path)
	if err != nil {
		return err
	}
	s.Set(name, t)
	return nil
}

// Execute runs one cell. A failing command is logged with its trace and
// does not end the session; the error is returned for callers that keep
// their own record.
func (s *Session) Execute(ctx context.Context, c Cell) error {
	handler, err := s.registry.Lookup(c.Name)
	if err == nil {
		err = handler(ctx, s, c)
	}
	if err != nil {
		s.logger.Error("command failed",
			slog.String("command", c.Name),
			slog.String("error", err.Error()),
			TraceAttr(err))
	}
	return err
}

// ExecuteScript parses script and runs its cells in order. Failing cells
// are logged and the following cells still run. Only a script that
// cannot be parsed is returned as an error.
func (s *Session) ExecuteScript(ctx context.Context, script string) error {
	cells, err := ParseScript(script)
	if err != nil {
		return err
	}
	for _, c := range cells {
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = s.Execute(ctx, c)
	}
	return nil
}
