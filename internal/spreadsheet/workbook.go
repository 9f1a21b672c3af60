// Package spreadsheet abstracts the data file an import reads from.
package spreadsheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/importusers/import-service/internal/parsers/csv"
	"github.com/importusers/import-service/internal/parsers/xlsx"
)

// Workbook is the read-only view of a data file used by the importer.
// Sheets, columns and rows are all numbered from 1.
type Workbook interface {
	SheetCount() int
	SheetTitle(sheet int) string
	// HighestRow returns the last populated row of the sheet, 0 when empty
	HighestRow(sheet int) int
	Cell(sheet, col, row int) string
	Close() error
}

// FileType represents supported data file types
type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeCSV  FileType = "csv"
)

// DetectFileType maps a file name to its reader
func DetectFileType(filename string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FileTypeXLSX, nil
	case ".csv", ".txt", ".tsv":
		return FileTypeCSV, nil
	default:
		return "", fmt.Errorf("unsupported data file type: %q", filepath.Ext(filename))
	}
}

// OpenFile reads a data file from disk
func OpenFile(path string) (Workbook, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	return OpenBytes(filepath.Base(path), content)
}

// OpenBytes opens in-memory content, choosing the reader from filename
func OpenBytes(filename string, content []byte) (Workbook, error) {
	fileType, err := DetectFileType(filename)
	if err != nil {
		return nil, err
	}

	if fileType == FileTypeXLSX {
		wb, err := xlsx.Open(content)
		if err != nil {
			return nil, err
		}
		return wb, nil
	}

	wb, err := csv.Open(content, filename, csv.Options{})
	if err != nil {
		return nil, err
	}
	return wb, nil
}

// TotalRows sums the highest populated row of every sheet
func TotalRows(wb Workbook) int {
	total := 0
	for s := 1; s <= wb.SheetCount(); s++ {
		total += wb.HighestRow(s)
	}
	return total
}
