package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/nao1215/sqlmagick"
)

const (
	promptMain     = "sqlmagick> "
	promptContinue = "       ...> "
	historyFile    = ".sqlmagick_history"
)

const replHelp = `Cells:
  %%name [args]    start a cell; body lines follow, a blank line runs it
  SQL text         runs as a query-run cell, ending at a blank line
Commands:
  .help            show this help
  .commands        list cell commands and their aliases
  .tables          list the tables in the database
  .schema TABLE    list the columns of a table
  .vars            list session variables
  .show NAME       print a session variable
  .load NAME FILE  read a file or Delta table into variable NAME
  .exit            leave the session
Ctrl-C discards the cell being typed, Ctrl-D leaves.
`

// prompter reads input lines. *liner.State satisfies it.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type repl struct {
	session *sqlmagick.Session
	out     io.Writer
	logger  *slog.Logger
	maxRows int
}

func newSessionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := &repl{
				session: a.session(),
				out:     cmd.OutOrStdout(),
				logger:  a.logger,
				maxRows: a.cfg.MaxRows,
			}

			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)
			line.SetCompleter(r.complete)

			history := historyPath()
			if f, err := os.Open(history); err == nil { //nolint:gosec // fixed file in the home directory
				_, _ = line.ReadHistory(f)
				_ = f.Close()
			}

			fmt.Fprintf(r.out, "sqlmagick session on %s. Type .help for help.\n", r.session.DBPath())
			err := r.run(cmd.Context(), line)

			if history != "" {
				if f, ferr := os.Create(history); ferr == nil { //nolint:gosec // fixed file in the home directory
					_, _ = line.WriteHistory(f)
					_ = f.Close()
				}
			}
			return err
		},
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}

// run reads lines until .exit, end of input or cancellation.
func (r *repl) run(ctx context.Context, p prompter) error {
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			r.runCell(ctx, strings.Join(pending, "\n"))
			pending = nil
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		prompt := promptMain
		if len(pending) > 0 {
			prompt = promptContinue
		}

		line, err := p.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				pending = nil
				continue
			case errors.Is(err, io.EOF):
				flush()
				fmt.Fprintln(r.out)
				return nil
			default:
				return err
			}
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case len(pending) == 0 && strings.HasPrefix(trimmed, "."):
			p.AppendHistory(trimmed)
			if exit := r.dot(ctx, trimmed); exit {
				return nil
			}
		default:
			p.AppendHistory(line)
			if strings.HasPrefix(trimmed, "%%") {
				flush()
			}
			pending = append(pending, line)
		}
	}
}

// runCell executes the typed text. Text without a command line runs as SQL.
func (r *repl) runCell(ctx context.Context, text string) {
	if !strings.HasPrefix(strings.TrimSpace(text), "%%") {
		text = "%%" + sqlmagick.CommandQueryRun + "\n" + text
	}
	c, err := sqlmagick.ParseCell(text)
	if err != nil {
		r.logger.Error("invalid cell", slog.String("error", err.Error()))
		return
	}
	_ = r.session.Execute(ctx, c)
}

// dot runs a dot command and reports whether the session should end.
func (r *repl) dot(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".exit", ".quit":
		return true
	case ".help":
		fmt.Fprint(r.out, replHelp)
	case ".commands":
		reg := r.session.Registry()
		for _, name := range reg.Names() {
			if aliases := reg.Aliases(name); len(aliases) > 0 {
				fmt.Fprintf(r.out, "%%%%%s (%s)\n", name, strings.Join(aliases, ", "))
			} else {
				fmt.Fprintf(r.out, "%%%%%s\n", name)
			}
		}
	case ".tables":
		t, err := sqlmagick.Run(ctx, r.session.DBPath(),
			"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name", "",
			sqlmagick.WithLogger(r.logger))
		if err != nil {
			r.report(".tables", err)
			return false
		}
		for _, rec := range t.Records() {
			fmt.Fprintln(r.out, rec[0])
		}
	case ".schema":
		if len(fields) != 2 {
			fmt.Fprintln(r.out, "usage: .schema TABLE")
			return false
		}
		columns, err := sqlmagick.TableSchema(ctx, r.session.DBPath(), fields[1])
		if err != nil {
			r.report(".schema", err)
			return false
		}
		for _, c := range columns {
			fmt.Fprintf(r.out, "%s\t%s\n", c.Name, c.Type)
		}
	case ".vars":
		for _, name := range r.session.Names() {
			t, _ := r.session.Get(name)
			fmt.Fprintf(r.out, "%s (%d rows)\n", name, t.NumRows())
		}
	case ".show":
		if len(fields) != 2 {
			fmt.Fprintln(r.out, "usage: .show NAME")
			return false
		}
		t, ok := r.session.Get(fields[1])
		if !ok {
			r.report(".show", fmt.Errorf("%w: %s", sqlmagick.ErrUnknownVariable, fields[1]))
			return false
		}
		if err := sqlmagick.RenderTable(r.out, t, r.maxRows); err != nil {
			r.report(".show", err)
		}
	case ".load":
		if len(fields) != 3 {
			fmt.Fprintln(r.out, "usage: .load NAME FILE")
			return false
		}
		if err := r.session.Load(fields[1], fields[2]); err != nil {
			r.report(".load", err)
			return false
		}
		t, _ := r.session.Get(fields[1])
		fmt.Fprintf(r.out, "Loaded %s into %s (%d rows)\n", fields[2], fields[1], t.NumRows())
	default:
		fmt.Fprintf(r.out, "unknown command %s, type .help\n", fields[0])
	}
	return false
}

func (r *repl) report(command string, err error) {
	r.logger.Error("command failed",
		slog.String("command", command),
		slog.String("error", err.Error()),
		sqlmagick.TraceAttr(err))
}

var dotCommands = []string{".commands", ".exit", ".help", ".load", ".quit", ".schema", ".show", ".tables", ".vars"}

// complete suggests dot commands and cell command names.
func (r *repl) complete(line string) []string {
	var candidates []string
	switch {
	case strings.HasPrefix(line, "%%"):
		reg := r.session.Registry()
		for _, name := range reg.Names() {
			candidates = append(candidates, "%%"+name)
			for _, alias := range reg.Aliases(name) {
				candidates = append(candidates, "%%"+alias)
			}
		}
	case strings.HasPrefix(line, "."):
		candidates = dotCommands
	}

	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}
