package extract

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"strings"

	"github.com/rs/zerolog"

	"github.com/importusers/import-service/internal/format"
	"github.com/importusers/import-service/internal/spreadsheet"
	"github.com/importusers/import-service/internal/template"
	"github.com/importusers/import-service/internal/types"
)

// SheetNameVar is the sheet-scope variable holding the worksheet title
const SheetNameVar = "sheet_name"

// Options tunes an Extractor
type Options struct {
	// PreviewLimit stops the sequence after this many records when positive
	PreviewLimit int
	// IncludeUnresolved yields records whose username evaluated empty instead
	// of dropping them, so that a caller can report them.
	IncludeUnresolved bool
}

// Extractor turns workbook rows into records
type Extractor struct {
	wb     spreadsheet.Workbook
	model  *format.Model
	engine *template.Engine
	opts   Options
	logger *zerolog.Logger
}

// New creates an Extractor. A nil logger discards output.
func New(wb spreadsheet.Workbook, model *format.Model, engine *template.Engine, opts Options, logger *zerolog.Logger) *Extractor {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Extractor{wb: wb, model: model, engine: engine, opts: opts, logger: logger}
}

// Records yields one record per non-blank data row, in sheet then row order.
// The sequence reads the workbook as it goes and can be consumed once.
// The only error it yields is ctx.Err().
func (x *Extractor) Records(ctx context.Context) iter.Seq2[*types.Record, error] {
	return func(yield func(*types.Record, error) bool) {
		templates := x.model.Templates()
		count := 0

		for _, sheetSpec := range x.model.DataSheets() {
			smin, smax := ResolveSheetRange(x.wb, sheetSpec)
			for s := smin; s <= smax; s++ {
				sheetVars := x.sheetVars(s, sheetSpec)

				for _, rowSpec := range sheetSpec.Rows[format.KindData] {
					_, _, rowType := ResolveCellRange(rowSpec)
					if rowType != RowTypeData {
						continue
					}
					rmin, rmax := ResolveRowRange(x.wb, s, rowSpec)
					for r := rmin; r <= rmax; r++ {
						if err := ctx.Err(); err != nil {
							yield(nil, err)
							return
						}

						rowVars, blank := x.rowVars(s, r, rowSpec.Cells[format.KindData])
						if blank {
							x.logger.Debug().Int("sheet", s).Int("row", r).Msg("Skipping blank row")
							continue
						}

						vars := make(map[string]string, len(x.model.Params)+len(sheetVars)+len(rowVars))
						maps.Copy(vars, x.model.Params)
						maps.Copy(vars, sheetVars)
						maps.Copy(vars, rowVars)

						record := x.evaluate(s, r, templates, vars)
						if record.Username() == "" && !x.opts.IncludeUnresolved {
							x.logger.Debug().Int("sheet", s).Int("row", r).Msg("Skipping row without username")
							continue
						}

						if !yield(record, nil) {
							return
						}
						count++
						if x.opts.PreviewLimit > 0 && count >= x.opts.PreviewLimit {
							return
						}
					}
				}
			}
		}
	}
}

// sheetVars collects the variables named by the meta rows of one sheet.
// Later rows overwrite earlier values of the same name.
func (x *Extractor) sheetVars(sheet int, spec format.SheetSpec) map[string]string {
	vars := map[string]string{SheetNameVar: x.wb.SheetTitle(sheet)}
	for _, rowSpec := range spec.Rows[format.KindMeta] {
		if _, _, rowType := ResolveCellRange(rowSpec); rowType != RowTypeData {
			continue
		}
		rmin, rmax := ResolveRowRange(x.wb, sheet, rowSpec)
		for r := rmin; r <= rmax; r++ {
			for i, name := range rowSpec.Cells[format.KindData] {
				if name == "" {
					continue
				}
				vars[name] = x.wb.Cell(sheet, i+1, r)
			}
		}
	}
	return vars
}

// rowVars reads the named cells of one row and reports whether all were empty
func (x *Extractor) rowVars(sheet, row int, names []string) (map[string]string, bool) {
	vars := make(map[string]string, len(names))
	blank := true
	for i, name := range names {
		if name == "" {
			continue
		}
		value := x.wb.Cell(sheet, i+1, row)
		if strings.TrimSpace(value) != "" {
			blank = false
		}
		vars[name] = value
	}
	return vars, blank
}

func (x *Extractor) evaluate(sheet, row int, templates []format.Template, vars map[string]string) *types.Record {
	record := types.NewRecord(sheet, x.wb.SheetTitle(sheet), row)
	scope := x.engine.NewScope(vars)
	for _, tpl := range templates {
		value, diags := scope.EvaluateWithDiagnostics(tpl.Value)
		for _, d := range diags {
			x.logger.Warn().
				Int("sheet", sheet).
				Int("row", row).
				Str("field", tpl.Name).
				Str("function", d.Func).
				Msg(d.Reason)
			record.Diagnostics = append(record.Diagnostics, fmt.Sprintf("%s: %s", tpl.Name, d.Error()))
		}
		record.Set(tpl.Name, value)
	}
	return record
}
