package extract

import (
	"github.com/importusers/import-service/internal/format"
	"github.com/importusers/import-service/internal/spreadsheet"
)

// GridRow is one raw row of a preview
type GridRow struct {
	Sheet int      `json:"sheet"`
	Row   int      `json:"row"`
	Cells []string `json:"cells"`
}

// Grid is the untemplated view of the data rows of a workbook
type Grid struct {
	Head []string  `json:"head,omitempty"`
	Rows []GridRow `json:"rows"`
}

// Preview reads raw cells of the data row specs of every data sheet. A row
// spec naming meta cells supplies the header; the last one read wins. At most
// limit data rows are returned when limit is positive.
func Preview(wb spreadsheet.Workbook, model *format.Model, limit int) *Grid {
	grid := &Grid{}
	for _, sheetSpec := range model.DataSheets() {
		smin, smax := ResolveSheetRange(wb, sheetSpec)
		for s := smin; s <= smax; s++ {
			for _, rowSpec := range sheetSpec.Rows[format.KindData] {
				cmin, cmax, rowType := ResolveCellRange(rowSpec)
				if rowType == RowTypeNone {
					continue
				}
				rmin, rmax := ResolveRowRange(wb, s, rowSpec)
				for r := rmin; r <= rmax; r++ {
					cells := make([]string, 0, cmax-cmin+1)
					for c := cmin; c <= cmax; c++ {
						cells = append(cells, wb.Cell(s, c, r))
					}
					if rowType == RowTypeMeta {
						grid.Head = cells
						continue
					}
					grid.Rows = append(grid.Rows, GridRow{Sheet: s, Row: r, Cells: cells})
					if limit > 0 && len(grid.Rows) >= limit {
						return grid
					}
				}
			}
		}
	}
	return grid
}
