package sqlmagick_test

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/sqlmagick"
)

// ExampleIngest loads a CSV file whose name and header need sanitizing and
// queries the resulting table.
func ExampleIngest() {
	tmpDir, err := os.MkdirTemp("", "sqlmagick_example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	content := "Region,Total ($)\nEast,10\nWest,20\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "Sales Report (Q1).csv"), []byte(content), 0o600); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	dbPath := filepath.Join(tmpDir, "sqlmagick.db")
	quiet := sqlmagick.WithLogger(slog.New(slog.DiscardHandler))

	report, err := sqlmagick.Ingest(ctx, dbPath, tmpDir, quiet)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(report.Tables())

	result, err := sqlmagick.Run(ctx, dbPath, `SELECT Region, "Total_$" FROM Sales_Report_Q1 ORDER BY Region`, "", quiet)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(result.Header())
	for _, r := range result.Records() {
		fmt.Println(r)
	}

	// Output:
	// [Sales_Report_Q1]
	// [Region Total_$]
	// [East 10]
	// [West 20]
}

// ExampleSession_ExecuteScript runs a cell script against a session.
func ExampleSession_ExecuteScript() {
	tmpDir, err := os.MkdirTemp("", "sqlmagick_example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	session := sqlmagick.NewSession(
		filepath.Join(tmpDir, "sqlmagick.db"),
		sqlmagick.WithLogger(slog.New(slog.DiscardHandler)),
	)

	script := `%%sql
CREATE TABLE fruits (name TEXT, qty INTEGER)

%%sql
INSERT INTO fruits VALUES ('apple', 3), ('pear', 5)

%%createtemp plenty
SELECT name FROM fruits WHERE qty > 4

%%load_df
plenty
`
	if err := session.ExecuteScript(context.Background(), script); err != nil {
		log.Fatal(err)
	}

	// Output:
	// CREATE executed successfully.
	// INSERT executed successfully.
	// Temporary table plenty created successfully with data from query
	// name
	// ----
	// pear
	// (1 rows)
}
