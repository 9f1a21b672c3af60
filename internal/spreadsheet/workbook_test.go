package spreadsheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name    string
		want    FileType
		wantErr bool
	}{
		{"users.xlsx", FileTypeXLSX, false},
		{"USERS.XLSM", FileTypeXLSX, false},
		{"users.csv", FileTypeCSV, false},
		{"users.tsv", FileTypeCSV, false},
		{"users.ods", "", true},
		{"users", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFileType(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenFileDispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "staff.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\nc,d\n"), 0644))

	wb, err := OpenFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "staff", wb.SheetTitle(1))
	assert.Equal(t, "d", wb.Cell(1, 2, 2))
	require.NoError(t, wb.Close())

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "hello"))
	xlsxPath := filepath.Join(dir, "staff.xlsx")
	require.NoError(t, f.SaveAs(xlsxPath))
	require.NoError(t, f.Close())

	wb, err = OpenFile(xlsxPath)
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", wb.SheetTitle(1))
	assert.Equal(t, "hello", wb.Cell(1, 1, 1))
	require.NoError(t, wb.Close())

	_, err = OpenFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestMemoryWorkbook(t *testing.T) {
	wb := NewMemory(
		Sheet{Title: "One", Rows: [][]string{{"a", "b"}, {"c"}}},
		Sheet{Title: "Two"},
	)

	assert.Equal(t, 2, wb.SheetCount())
	assert.Equal(t, "Two", wb.SheetTitle(2))
	assert.Equal(t, "", wb.SheetTitle(0))
	assert.Equal(t, 2, wb.HighestRow(1))
	assert.Equal(t, 0, wb.HighestRow(2))
	assert.Equal(t, "b", wb.Cell(1, 2, 1))
	assert.Equal(t, "", wb.Cell(1, 2, 2))
	assert.Equal(t, "", wb.Cell(3, 1, 1))
	assert.Equal(t, 2, TotalRows(wb))
}
