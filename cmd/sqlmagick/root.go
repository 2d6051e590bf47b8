package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nao1215/sqlmagick"
	"github.com/nao1215/sqlmagick/config"
	"github.com/nao1215/sqlmagick/logger"
)

// errCommandFailed marks a failure that has already been logged.
var errCommandFailed = errors.New("command failed")

// app carries what the commands share: configuration, logger and streams.
type app struct {
	v          *viper.Viper
	cfg        *config.Config
	logger     *slog.Logger
	configFile string

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{
		v:      config.New(),
		in:     in,
		out:    out,
		errOut: errOut,
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errCommandFailed) {
			fmt.Fprintln(errOut, "Error:", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sqlmagick",
		Short:         "Query spreadsheets, CSV, Parquet and Delta tables with SQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("db", config.DefaultDatabase, "path of the shared SQLite database file")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	flags.Int("max-rows", 20, "rows printed of a result table, 0 prints all")
	flags.StringVar(&a.configFile, "config", "", "config file (default .sqlmagick.yaml in the working or home directory)")

	_ = a.v.BindPFlag(config.KeyDatabase, flags.Lookup("db"))
	_ = a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = a.v.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))
	_ = a.v.BindPFlag(config.KeyMaxRows, flags.Lookup("max-rows"))

	cmd.AddCommand(
		newQueryCmd(a),
		newIngestCmd(a),
		newPutTableCmd(a),
		newGetTableCmd(a),
		newCreateTempTableCmd(a),
		newExecCmd(a),
		newSessionCmd(a),
		newScaffoldCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

// init loads the configuration and builds the logger.
func (a *app) init() error {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	cfg, err := config.Load(a.v, a.configFile, dirs...)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, a.errOut)
	return nil
}

func (a *app) session() *sqlmagick.Session {
	return sqlmagick.NewSession(a.cfg.Database,
		sqlmagick.WithLogger(a.logger),
		sqlmagick.WithOutput(a.out),
		sqlmagick.WithMaxRows(a.cfg.MaxRows))
}

// execute runs one cell. The session logs failures with their trace.
func (a *app) execute(ctx context.Context, s *sqlmagick.Session, c sqlmagick.Cell) error {
	if err := s.Execute(ctx, c); err != nil {
		return errCommandFailed
	}
	return nil
}

// fail logs err with its trace and marks the command as failed.
func (a *app) fail(msg string, err error) error {
	a.logger.Error(msg, slog.String("error", err.Error()), sqlmagick.TraceAttr(err))
	return errCommandFailed
}
