package sqlmagick

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Command names.
const (
	CommandQueryRun        = "query-run"
	CommandIngest          = "ingest"
	CommandPutTable        = "put-table"
	CommandGetTable        = "get-table"
	CommandCreateTempTable = "create-temp-table"
)

// ResultVariable is the session variable holding the last read result.
const ResultVariable = "_"

// Handler runs one cell in a session.
type Handler func(ctx context.Context, s *Session, c Cell) error

// Registry maps command names and their aliases to handlers.
type Registry struct {
	handlers map[string]Handler
	aliases  map[string]string
	names    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: map[string]Handler{},
		aliases:  map[string]string{},
	}
}

// DefaultRegistry returns a registry with the built-in commands and the
// aliases they had as notebook magics.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CommandQueryRun, queryRunHandler, "sql")
	r.Register(CommandIngest, ingestHandler, "dump_files", "dump_xls")
	r.Register(CommandPutTable, putTableHandler, "dump_df")
	r.Register(CommandGetTable, getTableHandler, "load_df")
	r.Register(CommandCreateTempTable, createTempTableHandler, "createtemp")
	return r
}

// Register adds a command. Registering a name again replaces its handler.
func (r *Registry) Register(name string, h Handler, aliases ...string) {
	if _, ok := r.handlers[name]; !ok {
		r.names = append(r.names, name)
	}
	r.handlers[name] = h
	for _, a := range aliases {
		r.aliases[a] = name
	}
}

// Resolve returns the command name for a name or alias.
func (r *Registry) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if _, ok := r.handlers[name]; ok {
		return name, true
	}
	canonical, ok := r.aliases[name]
	return canonical, ok
}

// Lookup returns the handler for a name or alias.
func (r *Registry) Lookup(name string) (Handler, error) {
	canonical, ok := r.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return r.handlers[canonical], nil
}

// Names returns the command names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Aliases returns the aliases of a command, sorted.
func (r *Registry) Aliases(name string) []string {
	var aliases []string
	for a, n := range r.aliases {
		if n == name {
			aliases = append(aliases, a)
		}
	}
	slices.Sort(aliases)
	return aliases
}

func queryRunHandler(ctx context.Context, s *Session, c Cell) error {
	var target string
	if fields := strings.Fields(c.Line); len(fields) > 0 {
		target = fields[0]
	}
	result, err := Run(ctx, s.dbPath, c.Body, target, WithLogger(s.logger))
	if err != nil {
		return err
	}
	if result == nil {
		if target != "" {
			fmt.Fprintf(s.out, "Query result saved to %s\n", target)
		} else {
			fmt.Fprintf(s.out, "%s executed successfully.\n", LeadingKeyword(c.Body))
		}
		return nil
	}
	s.Set(ResultVariable, result)
	return RenderTable(s.out, result, s.maxRows)
}

func ingestHandler(ctx context.Context, s *Session, c Cell) error {
	report, err := Ingest(ctx, s.dbPath, c.Input(), WithLogger(s.logger))
	if err != nil {
		return err
	}
	return RenderReport(s.out, report)
}

func putTableHandler(ctx context.Context, s *Session, c Cell) error {
	name := c.Input()
	t, ok := s.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	if _, err := PutTable(ctx, s.dbPath, name, t, WithLogger(s.logger)); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Loaded table into %s\n", name)
	return nil
}

func getTableHandler(ctx context.Context, s *Session, c Cell) error {
	name := c.Input()
	t, err := GetTable(ctx, s.dbPath, name, WithLogger(s.logger))
	if err != nil {
		return err
	}
	s.Set(name, t)
	s.Set(ResultVariable, t)
	return RenderTable(s.out, t, s.maxRows)
}

func createTempTableHandler(ctx context.Context, s *Session, c Cell) error {
	name := strings.TrimSpace(c.Line)
	if _, err := CreateTempTable(ctx, s.dbPath, name, c.Body, WithLogger(s.logger)); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Temporary table %s created successfully with data from query\n", name)
	return nil
}
