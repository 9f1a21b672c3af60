package xlsx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Cohort A"))
	require.NoError(t, f.SetSheetRow("Cohort A", "A1", &[]any{"Cohort A"}))
	require.NoError(t, f.SetSheetRow("Cohort A", "A2", &[]any{"alice", "Alice", "A."}))
	require.NoError(t, f.SetSheetRow("Cohort A", "A4", &[]any{"bob", "Bob", "B."}))

	_, err := f.NewSheet("Cohort B")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Cohort B", "B3", 42))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestOpenWorkbook(t *testing.T) {
	wb, err := Open(buildWorkbook(t))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, 2, wb.SheetCount())
	assert.Equal(t, "Cohort A", wb.SheetTitle(1))
	assert.Equal(t, "Cohort B", wb.SheetTitle(2))
	assert.Equal(t, "", wb.SheetTitle(3))

	assert.Equal(t, 4, wb.HighestRow(1))
	assert.Equal(t, 3, wb.HighestRow(2))
	assert.Equal(t, 0, wb.HighestRow(7))

	assert.Equal(t, "Cohort A", wb.Cell(1, 1, 1))
	assert.Equal(t, "Alice", wb.Cell(1, 2, 2))
	assert.Equal(t, "", wb.Cell(1, 1, 3), "gap row reads as blank")
	assert.Equal(t, "B.", wb.Cell(1, 3, 4))
	assert.Equal(t, "42", wb.Cell(2, 2, 3))
	assert.Equal(t, "", wb.Cell(2, 9, 3))
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open([]byte("not a zip archive"))
	assert.Error(t, err)
}
