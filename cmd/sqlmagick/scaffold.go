package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sqlmagick"
	"github.com/nao1215/sqlmagick/database"
	"github.com/nao1215/sqlmagick/domain/model"
)

// scriptExt is the extension of generated cell scripts.
const scriptExt = ".sqlm"

var errScriptExists = errors.New("script already exists")

func newScaffoldCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "scaffold PATH",
		Short: "Write a starter cell script next to a data file",
		Long: `Write a cell script that ingests PATH and previews its table. The
script is written next to PATH with the extension .sqlm and can be run
with "sqlmagick exec".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := scaffold(args[0], force)
			if err != nil {
				return a.fail("failed to write script", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", script)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing script")
	return cmd
}

// scaffold writes the starter script for dataPath and returns its path.
func scaffold(dataPath string, force bool) (string, error) {
	abs, err := filepath.Abs(dataPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}

	var src model.Source
	switch {
	case info.IsDir() && model.IsColumnarFolderName(abs):
		src = model.NewColumnarFolder(abs)
	case info.IsDir():
		return "", fmt.Errorf("%w: %s is a directory", model.ErrUnsupportedSource, dataPath)
	default:
		if src, err = model.DetectSource(abs); err != nil {
			return "", err
		}
	}

	script := filepath.Join(filepath.Dir(abs), model.TableNameFor(src)+scriptExt)
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(script, flags, 0o600) //nolint:gosec // path derived from the data file
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", errScriptExists, script)
		}
		return "", err
	}
	if _, err := f.WriteString(scaffoldScript(abs, filepath.Base(script), src)); err != nil {
		_ = f.Close()
		return "", err
	}
	return script, f.Close()
}

func scaffoldScript(path, script string, src model.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Cell script for %s\n", filepath.Base(path))
	fmt.Fprintf(&b, "# Run with: sqlmagick exec %s\n\n", script)

	b.WriteString(sqlmagick.Cell{Name: sqlmagick.CommandIngest, Body: path}.String())
	b.WriteString("\n")

	var query string
	if _, ok := src.(model.SpreadsheetFile); ok {
		query = "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"
	} else {
		query = "SELECT * FROM " + database.QuoteIdentifier(model.TableNameFor(src)) + " LIMIT 10"
	}
	b.WriteString(sqlmagick.Cell{Name: sqlmagick.CommandQueryRun, Body: query}.String())
	return b.String()
}
