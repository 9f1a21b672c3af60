package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/importusers/import-service/internal/format"
	"github.com/importusers/import-service/internal/spreadsheet"
)

func intPtr(n int) *int { return &n }

func threeSheets() *spreadsheet.Memory {
	return spreadsheet.NewMemory(
		spreadsheet.Sheet{Title: "one", Rows: [][]string{{"a"}, {"b"}}},
		spreadsheet.Sheet{Title: "two", Rows: [][]string{{"a"}, {"b"}, {"c"}, {"d"}}},
		spreadsheet.Sheet{Title: "three"},
	)
}

func TestResolveSheetRange(t *testing.T) {
	wb := threeSheets()

	tests := []struct {
		name     string
		spec     format.SheetSpec
		min, max int
	}{
		{"unranged", format.SheetSpec{}, 1, 3},
		{"start only", format.SheetSpec{Start: intPtr(2)}, 2, 3},
		{"end only", format.SheetSpec{End: intPtr(2)}, 1, 2},
		{"both", format.SheetSpec{Start: intPtr(3), End: intPtr(3)}, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := ResolveSheetRange(wb, tt.spec)
			assert.Equal(t, tt.min, min)
			assert.Equal(t, tt.max, max)
		})
	}
}

func TestResolveRowRange(t *testing.T) {
	wb := threeSheets()

	min, max := ResolveRowRange(wb, 2, format.RowSpec{})
	assert.Equal(t, 1, min)
	assert.Equal(t, 4, max)

	min, max = ResolveRowRange(wb, 2, format.RowSpec{Start: intPtr(2), End: intPtr(3)})
	assert.Equal(t, 2, min)
	assert.Equal(t, 3, max)

	_, max = ResolveRowRange(wb, 3, format.RowSpec{})
	assert.Equal(t, 0, max, "empty sheet has no rows")
}

func TestResolveCellRange(t *testing.T) {
	tests := []struct {
		name  string
		cells map[format.Kind][]string
		max   int
		typ   RowType
	}{
		{"data", map[format.Kind][]string{format.KindData: {"a", "b", "c"}}, 3, RowTypeData},
		{"meta", map[format.Kind][]string{format.KindMeta: {"A", "B"}}, 2, RowTypeMeta},
		// SUSPECT: meta wins over data when both are declared. Kept for
		// compatibility with existing descriptors even though it looks accidental.
		{"both (suspect: meta wins)", map[format.Kind][]string{format.KindMeta: {"A"}, format.KindData: {"a", "b"}}, 1, RowTypeMeta},
		{"none", map[format.Kind][]string{}, 0, RowTypeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max, typ := ResolveCellRange(format.RowSpec{Cells: tt.cells})
			assert.Equal(t, 1, min)
			assert.Equal(t, tt.max, max)
			assert.Equal(t, tt.typ, typ)
		})
	}
	assert.Equal(t, "meta", RowTypeMeta.String())
}
