package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sqlmagick"
)

// readInput joins args into one string, or reads the command input when
// args are empty or a single "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(b), nil
}

func newQueryCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:     "query [SQL]",
		Aliases: []string{"sql"},
		Short:   "Run SQL against the database, optionally exporting the result",
		Long: `Run SQL against the database.

Statements such as INSERT, UPDATE or CREATE are executed and committed.
Other queries print their result, or export it with --out to a path
ending in .parquet or .delta. Without SQL arguments the query is read
from standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return a.execute(cmd.Context(), a.session(), sqlmagick.Cell{
				Name: sqlmagick.CommandQueryRun,
				Line: out,
				Body: query,
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "export the result to a .parquet file or .delta directory")
	return cmd
}

func newIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ingest PATTERN",
		Aliases: []string{"dump-files"},
		Short:   "Load every file matching a glob pattern into its own table",
		Long: `Load every supported file matching PATTERN into the database.

PATTERN is a glob where "**" matches any number of directories. A
directory loads everything below it. Workbooks load one table per sheet.
A failing file or sheet is logged and the others still load.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd.Context(), a.session(), sqlmagick.Cell{
				Name: sqlmagick.CommandIngest,
				Line: args[0],
			})
		},
	}
}

func newPutTableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put-table NAME FILE",
		Short: "Store a file as table NAME, replacing it if present",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.session()
			if err := s.Load(args[0], args[1]); err != nil {
				return a.fail("failed to read table", err)
			}
			return a.execute(cmd.Context(), s, sqlmagick.Cell{
				Name: sqlmagick.CommandPutTable,
				Line: args[0],
			})
		},
	}
}

func newGetTableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get-table NAME",
		Short: "Print the contents of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd.Context(), a.session(), sqlmagick.Cell{
				Name: sqlmagick.CommandGetTable,
				Line: args[0],
			})
		},
	}
}

func newCreateTempTableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-temp-table NAME [SQL]",
		Short: "Store the result of a query as table NAME",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readInput(cmd, args[1:])
			if err != nil {
				return err
			}
			return a.execute(cmd.Context(), a.session(), sqlmagick.Cell{
				Name: sqlmagick.CommandCreateTempTable,
				Line: args[0],
				Body: query,
			})
		},
	}
}

func newExecCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exec FILE",
		Short: "Run the cells of a script in order",
		Long: `Run a cell script. Each cell starts with a "%%command" line followed by
its body, for example:

  %%ingest
  data/**/*.csv

  %%sql out/summary.parquet
  SELECT region, SUM(total) FROM sales GROUP BY region

A failing cell is logged and the following cells still run. Use "-" to
read the script from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if args[0] == "-" {
				b, err = io.ReadAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}
			if err := a.session().ExecuteScript(cmd.Context(), string(b)); err != nil {
				return a.fail("failed to run script", err)
			}
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
