// Package sqlmagick loads spreadsheets, CSV files, Parquet files and Delta
// tables into a shared SQLite database file and runs SQL against it, the
// way notebook cell commands do.
//
// Every operation takes the database path explicitly, opens its own
// connection and closes it before returning. The file is created on first
// use and is never deleted.
//
// # Ingesting files
//
// Ingest resolves a glob pattern, which may use "**", and replaces one
// table per file, per workbook sheet and per Delta table:
//
//	report, err := sqlmagick.Ingest(ctx, "sqlmagick.db", "data/**")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, o := range report.Failed() {
//	    log.Println(o.Source, o.Err)
//	}
//
// A failing file or sheet does not stop the others; each item gets an
// outcome in the returned report.
//
// # Table Naming
//
// Names are derived from file names. Spaces become underscores and
// parentheses are removed; table names also lose "<" and ">":
//   - "Sales Report (Q1).csv" becomes table "Sales_Report_Q1"
//   - "data.csv.gz" becomes table "data"
//   - "Budget.xlsx" with sheet "Plan A" becomes table "Budget_Plan_A"
//   - "events.delta/" becomes table "events"
//
// Column names go through the same rule, so "Total ($)" becomes "Total_$".
//
// # Running queries
//
// Run executes INSERT, UPDATE, DELETE and DDL statements and commits them.
// Other queries are read into a table, or exported when a target is given:
//
//	result, err := sqlmagick.Run(ctx, "sqlmagick.db", "SELECT * FROM Sales_Report_Q1", "")
//	_, err = sqlmagick.Run(ctx, "sqlmagick.db", "SELECT * FROM Sales_Report_Q1", "out.parquet")
//	_, err = sqlmagick.Run(ctx, "sqlmagick.db", "SELECT * FROM Sales_Report_Q1", "out.delta")
//
// # Cells and sessions
//
// A Session keeps named in-memory tables and dispatches cells such as
//
//	%%query-run out.parquet
//	SELECT Region, SUM(Total_$) FROM Sales_Report_Q1 GROUP BY Region
//
// through a Registry of commands. Failing cells are logged with their stack
// trace and the session carries on.
package sqlmagick
