package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/importusers/import-service/internal/parsers/charset"
)

// Workbook exposes a delimited text file as a workbook with a single sheet.
// Sheet, column and row numbers are 1-based.
type Workbook struct {
	title string
	rows  [][]string
}

// Open decodes and reads delimited content into a single-sheet workbook
func Open(content []byte, filename string, opts Options) (*Workbook, error) {
	decoded, err := charset.Decode(content, charset.Encoding(opts.Encoding))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	delim := opts.Delimiter
	if delim == "" {
		delim = DetectDelimiter(decoded)
	}

	r := stdcsv.NewReader(strings.NewReader(decoded))
	r.Comma = delim.Rune()
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		rows = append(rows, record)
	}

	title := opts.SheetTitle
	if title == "" {
		base := filepath.Base(filename)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return &Workbook{title: title, rows: trimTrailingEmpty(rows)}, nil
}

// SheetCount always reports one sheet
func (w *Workbook) SheetCount() int { return 1 }

// SheetTitle returns the sheet title
func (w *Workbook) SheetTitle(sheet int) string {
	if sheet != 1 {
		return ""
	}
	return w.title
}

// HighestRow returns the last row holding any non-blank cell
func (w *Workbook) HighestRow(sheet int) int {
	if sheet != 1 {
		return 0
	}
	return len(w.rows)
}

// Cell returns the value at (col, row), or "" outside the data
func (w *Workbook) Cell(sheet, col, row int) string {
	if sheet != 1 || row < 1 || row > len(w.rows) {
		return ""
	}
	record := w.rows[row-1]
	if col < 1 || col > len(record) {
		return ""
	}
	return record[col-1]
}

// Close is a no-op
func (w *Workbook) Close() error { return nil }

func trimTrailingEmpty(rows [][]string) [][]string {
	for len(rows) > 0 && isEmptyRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
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
