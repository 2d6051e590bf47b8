// Command sqlmagick loads spreadsheets, CSV, Parquet and Delta tables into
// a shared SQLite file and runs SQL over them, either one command at a
// time, from a cell script or in an interactive session.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
