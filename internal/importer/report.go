package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/importusers/import-service/internal/extract"
	"github.com/importusers/import-service/internal/format"
	"github.com/importusers/import-service/internal/reconcile"
	"github.com/importusers/import-service/internal/types"
)

// StatusColumn is the report column holding reconciliation outcomes
const StatusColumn = "status"

// Row is one record of a review or import report
type Row struct {
	Sheet  string            `json:"sheet"`
	Row    int               `json:"row"`
	Record *types.Record     `json:"record"`
	Status string            `json:"status,omitempty"`
	Events []reconcile.Event `json:"events,omitempty"`
}

// Summary counts row outcomes of an import
type Summary struct {
	Rows    int `json:"rows"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (s *Summary) add(res *reconcile.Result) {
	s.Rows++
	switch {
	case res.Failed():
		s.Failed++
	case res.Created:
		s.Created++
	case res.User != nil:
		s.Updated++
	default:
		s.Skipped++
	}
}

// ResourceRef names a login details resource written by a run
type ResourceRef struct {
	Course  string `json:"course"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Created bool   `json:"created"`
}

// Report is the result of one run
type Report struct {
	RunID     string        `json:"runId"`
	Mode      Mode          `json:"mode"`
	File      string        `json:"file"`
	Caption   string        `json:"caption"`
	Columns   []string      `json:"columns,omitempty"`
	Rows      []Row         `json:"rows,omitempty"`
	Grid      *extract.Grid `json:"grid,omitempty"`
	Resources []ResourceRef `json:"resources,omitempty"`
	Summary   *Summary      `json:"summary,omitempty"`
}

// Caption summarizes the sheet and row counts of a data file
func Caption(name string, sheets, rows int) string {
	return fmt.Sprintf("File %q has %d sheets and contains %d rows of data", name, sheets, rows)
}

// Headings returns the display headings of Columns
func (r *Report) Headings() []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = format.Heading(c)
	}
	return out
}

// WriteTable renders the report as aligned plain-text columns
func (r *Report) WriteTable(w io.Writer) error {
	if _, err := fmt.Fprintln(w, r.Caption); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if r.Mode == ModePreview {
		if r.Grid == nil {
			return tw.Flush()
		}
		if len(r.Grid.Head) > 0 {
			writeLine(tw, append([]string{"row"}, r.Grid.Head...))
		}
		for _, row := range r.Grid.Rows {
			writeLine(tw, append([]string{strconv.Itoa(row.Row)}, row.Cells...))
		}
		return tw.Flush()
	}

	head := append([]string{"row"}, r.Headings()...)
	if r.Mode == ModeImport {
		head = append(head, StatusColumn)
	}
	writeLine(tw, head)
	for _, row := range r.Rows {
		cells := []string{strconv.Itoa(row.Row)}
		for _, c := range r.Columns {
			cells = append(cells, row.Record.Get(c))
		}
		if r.Mode == ModeImport {
			cells = append(cells, strings.ReplaceAll(row.Status, "\n", "; "))
		}
		writeLine(tw, cells)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Summary != nil {
		_, err := fmt.Fprintf(w, "%d rows: %d created, %d updated, %d skipped, %d failed\n",
			r.Summary.Rows, r.Summary.Created, r.Summary.Updated, r.Summary.Skipped, r.Summary.Failed)
		return err
	}
	return nil
}

func writeLine(w io.Writer, cells []string) {
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}
