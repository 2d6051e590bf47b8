package sqlmagick

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/sqlmagick/domain/model"
)

const nullDisplay = "NULL"

// RenderTable prints t as aligned columns followed by the row count. At
// most maxRows rows are printed when maxRows is positive.
func RenderTable(w io.Writer, t *model.Table, maxRows int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if t.NumColumns() > 0 {
		fmt.Fprintln(tw, strings.Join(t.Header(), "\t"))
		rules := make([]string, t.NumColumns())
		for i, h := range t.Header() {
			rules[i] = strings.Repeat("-", max(len(h), 3))
		}
		fmt.Fprintln(tw, strings.Join(rules, "\t"))
	}

	records := t.Records()
	if maxRows > 0 && len(records) > maxRows {
		records = records[:maxRows]
	}
	for row, r := range records {
		cells := make([]string, len(r))
		for i, v := range r {
			cells[i] = displayValue(v, t.IsNull(row, i))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	rows := humanize.Comma(int64(t.NumRows()))
	if len(records) < t.NumRows() {
		_, err := fmt.Fprintf(w, "(%s rows, %d shown)\n", rows, len(records))
		return err
	}
	_, err := fmt.Fprintf(w, "(%s rows)\n", rows)
	return err
}

// RenderReport prints one line per ingested item and a summary line.
func RenderReport(w io.Writer, r *model.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, o := range r.Outcomes {
		source := o.Source
		if o.Sheet != "" {
			source += " [" + o.Sheet + "]"
		}
		detail := o.Message
		if o.Status == model.StatusLoaded {
			detail = humanize.Comma(int64(o.Rows)) + " rows"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Status, source, o.Table, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s loaded, %s skipped, %s failed\n",
		humanize.Comma(int64(r.Count(model.StatusLoaded))),
		humanize.Comma(int64(r.Count(model.StatusSkipped))),
		humanize.Comma(int64(r.Count(model.StatusFailed))))
	return err
}

func displayValue(v string, null bool) string {
	if null {
		return nullDisplay
	}
	return strings.NewReplacer("\t", " ", "\n", " ").Replace(v)
}
