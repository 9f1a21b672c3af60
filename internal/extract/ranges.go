// Package extract walks a workbook as directed by a format descriptor and
// produces one templated record per data row.
package extract

import (
	"github.com/importusers/import-service/internal/format"
	"github.com/importusers/import-service/internal/spreadsheet"
)

// RowType classifies a row spec by the kind of cells it names
type RowType int

const (
	RowTypeNone RowType = iota
	RowTypeMeta
	RowTypeData
)

func (t RowType) String() string {
	switch t {
	case RowTypeMeta:
		return "meta"
	case RowTypeData:
		return "data"
	default:
		return "none"
	}
}

// ResolveSheetRange returns the inclusive 1-based sheet bounds of spec.
// Missing bounds default to the first and last sheet of wb.
func ResolveSheetRange(wb spreadsheet.Workbook, spec format.SheetSpec) (int, int) {
	return bound(spec.Start, 1), bound(spec.End, wb.SheetCount())
}

// ResolveRowRange returns the inclusive 1-based row bounds of spec on sheet.
// Missing bounds default to row 1 and the highest populated row.
func ResolveRowRange(wb spreadsheet.Workbook, sheet int, spec format.RowSpec) (int, int) {
	return bound(spec.Start, 1), bound(spec.End, wb.HighestRow(sheet))
}

// ResolveCellRange returns the column bounds and type of a row spec. A spec
// that names both meta and data cells is treated as meta only.
func ResolveCellRange(spec format.RowSpec) (int, int, RowType) {
	if names, ok := spec.Cells[format.KindMeta]; ok {
		return 1, len(names), RowTypeMeta
	}
	if names, ok := spec.Cells[format.KindData]; ok {
		return 1, len(names), RowTypeData
	}
	return 1, 0, RowTypeNone
}

func bound(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
