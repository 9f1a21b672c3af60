package xlsx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Workbook is a read-only view of an Excel workbook addressed by 1-based
// sheet, column and row numbers. Rows are loaded per sheet on first access.
type Workbook struct {
	file   *excelize.File
	sheets []string
	rows   map[int][][]string
}

// Open reads an xlsx/xlsm/xltx document from memory
func Open(content []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("workbook has no sheets")
	}

	return &Workbook{
		file:   f,
		sheets: sheets,
		rows:   make(map[int][][]string),
	}, nil
}

// SheetCount returns the number of worksheets
func (w *Workbook) SheetCount() int {
	return len(w.sheets)
}

// SheetTitle returns the title of the given sheet
func (w *Workbook) SheetTitle(sheet int) string {
	if sheet < 1 || sheet > len(w.sheets) {
		return ""
	}
	return w.sheets[sheet-1]
}

// HighestRow returns the last row of the sheet holding data
func (w *Workbook) HighestRow(sheet int) int {
	return len(w.sheetRows(sheet))
}

// Cell returns the formatted value at (col, row)
func (w *Workbook) Cell(sheet, col, row int) string {
	rows := w.sheetRows(sheet)
	if row < 1 || row > len(rows) {
		return ""
	}
	cells := rows[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}

// Close releases the underlying file
func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) sheetRows(sheet int) [][]string {
	if rows, ok := w.rows[sheet]; ok {
		return rows
	}
	name := w.SheetTitle(sheet)
	if name == "" {
		return nil
	}

	rows, err := w.file.GetRows(name)
	if err != nil {
		log.Warn().Err(err).Str("sheet", name).Msg("Failed to read worksheet")
		rows = nil
	}
	for len(rows) > 0 && isEmptyRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	w.rows[sheet] = rows
	return rows
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
