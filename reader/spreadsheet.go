package reader

import (
	"fmt"

	"github.com/extrame/xls"
	"github.com/nao1215/sqlmagick/domain/model"
	"github.com/xuri/excelize/v2"
)

// xlsCharset is the charset passed to the legacy workbook reader.
const xlsCharset = "utf-8"

// Workbook gives sheet-by-sheet access to a spreadsheet so that a failing
// sheet does not prevent the others from being read.
type Workbook interface {
	// SheetNames returns the sheet names in workbook order.
	SheetNames() []string
	// ReadSheet parses one sheet. The table is named after the workbook
	// stem and the sheet, see model.SheetTableName.
	ReadSheet(name string) (*model.Table, error)
	// Close releases the workbook.
	Close() error
}

// OpenWorkbook opens an .xlsx workbook with excelize or an .xls workbook
// with the legacy BIFF reader.
func OpenWorkbook(src model.SpreadsheetFile) (Workbook, error) {
	stem := model.Stem(src.Path())
	if src.Legacy {
		wb, err := xls.Open(src.Path(), xlsCharset)
		if err != nil {
			return nil, fmt.Errorf("failed to open xls workbook: %w", err)
		}
		return &xlsWorkbook{wb: wb, stem: stem}, nil
	}

	f, err := excelize.OpenFile(src.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx workbook: %w", err)
	}
	return &xlsxWorkbook{file: f, stem: stem}, nil
}

type xlsxWorkbook struct {
	file *excelize.File
	stem string
}

func (w *xlsxWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

func (w *xlsxWorkbook) ReadSheet(name string) (*model.Table, error) {
	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	header, records := rowsToTable(rows)
	return model.NewTable(model.SheetTableName(w.stem, name), header, records), nil
}

func (w *xlsxWorkbook) Close() error {
	return w.file.Close()
}

type xlsWorkbook struct {
	wb   *xls.WorkBook
	stem string
}

func (w *xlsWorkbook) SheetNames() []string {
	names := make([]string, 0, w.wb.NumSheets())
	for i := range w.wb.NumSheets() {
		if sheet := w.wb.GetSheet(i); sheet != nil {
			names = append(names, sheet.Name)
		}
	}
	return names
}

func (w *xlsWorkbook) ReadSheet(name string) (*model.Table, error) {
	for i := range w.wb.NumSheets() {
		sheet := w.wb.GetSheet(i)
		if sheet == nil || sheet.Name != name {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, trimTrailingEmpty(cells))
		}
		header, records := rowsToTable(rows)
		return model.NewTable(model.SheetTableName(w.stem, name), header, records), nil
	}
	return nil, fmt.Errorf("sheet %s not found", name)
}

// Close is a no-op; the legacy reader keeps no open handle.
func (w *xlsWorkbook) Close() error {
	return nil
}

// rowsToTable turns sheet rows into a header and padded records. Leading
// empty rows are skipped and the first remaining row is the header. Rows
// wider than the header extend it with blank names, which are later named
// "Unnamed: <index>". Trailing empty rows are dropped. A sheet without
// any cell yields no columns.
func rowsToTable(rows [][]string) (model.Header, []model.Record) {
	start := 0
	for start < len(rows) && isEmptyRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, nil
	}
	end := len(rows)
	for end > start+1 && isEmptyRow(rows[end-1]) {
		end--
	}
	rows = rows[:end]

	width := len(rows[start])
	for _, row := range rows[start+1:] {
		width = max(width, len(row))
	}

	header := make(model.Header, width)
	copy(header, rows[start])

	records := make([]model.Record, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		records = append(records, padRecord(row, width))
	}
	return header, records
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}
