package extract

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/importusers/import-service/internal/format"
	"github.com/importusers/import-service/internal/spreadsheet"
	"github.com/importusers/import-service/internal/template"
	"github.com/importusers/import-service/internal/types"
)

const cohortFormat = `<importusersfile type="users" school="North">
  <sheets type="data">
    <sheet>
      <rows type="meta">
        <row start="1" end="1"><cells type="data"><cell>sheet_label</cell></cells></row>
      </rows>
      <rows type="data">
        <row start="2">
          <cells type="data"><cell><item>username</item><item>firstname</item><item>lastname</item></cell></cells>
        </row>
      </rows>
    </sheet>
  </sheets>
  <fields table="user">
    <field><name>username</name><value>username</value></field>
    <field><name>firstname</name><value>firstname</value></field>
    <field><name>lastname</name><value>lastname</value></field>
    <field><name>description</name><value>{sheet_label} / school / {sheet_name}</value></field>
  </fields>
</importusersfile>`

func parseModel(t *testing.T, doc string) *format.Model {
	t.Helper()
	m, err := format.Parse([]byte(doc))
	require.NoError(t, err)
	return m
}

func newEngine() *template.Engine {
	return template.New(template.WithRand(rand.New(rand.NewPCG(7, 7))))
}

func collect(t *testing.T, x *Extractor) []*types.Record {
	t.Helper()
	var out []*types.Record
	for rec, err := range x.Records(context.Background()) {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestRecordsMetaRowAndBlankRow(t *testing.T) {
	wb := spreadsheet.NewMemory(spreadsheet.Sheet{
		Title: "Cohort",
		Rows: [][]string{
			{"Cohort A"},
			{"alice", "Alice", "A."},
			{"", "", ""},
		},
	})

	records := collect(t, New(wb, parseModel(t, cohortFormat), newEngine(), Options{}, nil))
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "alice", rec.Username())
	assert.Equal(t, "Alice", rec.Get("firstname"))
	assert.Equal(t, "A.", rec.Get("lastname"))
	assert.Equal(t, "Cohort A / North / Cohort", rec.Get("description"))
	assert.Equal(t, 1, rec.SheetIndex)
	assert.Equal(t, "Cohort", rec.SheetName)
	assert.Equal(t, 2, rec.Row)
	assert.Equal(t, []string{"username", "password", "email", "firstname", "lastname", "description"}, rec.Names())
}

func TestRecordsWalkSheetsInOrderWithSheetScope(t *testing.T) {
	wb := spreadsheet.NewMemory(
		spreadsheet.Sheet{Title: "A", Rows: [][]string{{"Group A"}, {"a1", "", ""}, {"a2", "", ""}}},
		spreadsheet.Sheet{Title: "B", Rows: [][]string{{"Group B"}, {"b1", "", ""}}},
	)

	records := collect(t, New(wb, parseModel(t, cohortFormat), newEngine(), Options{}, nil))
	require.Len(t, records, 3)

	var got []string
	for _, r := range records {
		got = append(got, r.Username()+"@"+r.Get("description"))
	}
	assert.Equal(t, []string{
		"a1@Group A / North / A",
		"a2@Group A / North / A",
		"b1@Group B / North / B",
	}, got)
}

func TestRecordsRowVarsOverrideSheetAndParams(t *testing.T) {
	doc := `<importusersfile school="Param">
  <sheets type="data"><sheet>
    <rows type="meta"><row start="1" end="1"><cells type="data"><cell><item>school</item></cell></cells></row></rows>
    <rows type="data"><row start="2"><cells type="data"><cell><item>username</item><item>school</item></cell></cells></row></rows>
  </sheet></sheets>
  <fields table="user">
    <field><name>username</name><value>username</value></field>
    <field><name>institution</name><value>school</value></field>
  </fields>
</importusersfile>`
	wb := spreadsheet.NewMemory(spreadsheet.Sheet{Title: "S", Rows: [][]string{
		{"Sheet"},
		{"u1", "Row"},
		{"u2", ""},
	}})

	records := collect(t, New(wb, parseModel(t, doc), newEngine(), Options{}, nil))
	require.Len(t, records, 2)
	assert.Equal(t, "Row", records[0].Get("institution"))
	// an empty cell still overrides the sheet value
	assert.Equal(t, "", records[1].Get("institution"))
}

func TestRecordsUnresolvedUsername(t *testing.T) {
	doc := `<importusersfile>
  <sheets type="data"><sheet>
    <rows type="data"><row><cells type="data"><cell><item>login</item><item>firstname</item></cell></cells></row></rows>
  </sheet></sheets>
  <fields table="user"><field><name>username</name><value>LOWERCASE(login)</value></field></fields>
</importusersfile>`
	wb := spreadsheet.NewMemory(spreadsheet.Sheet{Title: "S", Rows: [][]string{
		{"BOB", "Bob"},
		{"", "Nameless"},
		{"CAROL", "Carol"},
	}})
	model := parseModel(t, doc)

	records := collect(t, New(wb, model, newEngine(), Options{}, nil))
	require.Len(t, records, 2)
	assert.Equal(t, "bob", records[0].Username())
	assert.Equal(t, "carol", records[1].Username())

	records = collect(t, New(wb, model, newEngine(), Options{IncludeUnresolved: true}, nil))
	require.Len(t, records, 3)
	assert.Equal(t, "", records[1].Username())
	assert.Equal(t, 2, records[1].Row)
}

func TestRecordsPreviewLimit(t *testing.T) {
	rows := [][]string{{"Label"}}
	for _, u := range []string{"u1", "u2", "u3", "u4"} {
		rows = append(rows, []string{u, "", ""})
	}
	wb := spreadsheet.NewMemory(
		spreadsheet.Sheet{Title: "One", Rows: rows},
		spreadsheet.Sheet{Title: "Two", Rows: rows},
	)

	records := collect(t, New(wb, parseModel(t, cohortFormat), newEngine(), Options{PreviewLimit: 3}, nil))
	require.Len(t, records, 3)
	assert.Equal(t, "u3", records[2].Username())

	records = collect(t, New(wb, parseModel(t, cohortFormat), newEngine(), Options{PreviewLimit: 6}, nil))
	require.Len(t, records, 6)
	assert.Equal(t, "Two", records[5].SheetName)
}

func TestRecordsMalformedTemplateDoesNotStopExtraction(t *testing.T) {
	doc := `<importusersfile>
  <sheets type="data"><sheet>
    <rows type="data"><row><cells type="data"><cell>username</cell></cells></row></rows>
  </sheet></sheets>
  <fields table="user">
    <field><name>username</name><value>username</value></field>
    <field><name>password</name><value>RANDOM(</value></field>
  </fields>
</importusersfile>`
	wb := spreadsheet.NewMemory(spreadsheet.Sheet{Title: "S", Rows: [][]string{{"a"}, {"b"}}})

	records := collect(t, New(wb, parseModel(t, doc), newEngine(), Options{}, nil))
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, `[RANDOM error: missing ")"]`, r.Get("password"))
		require.Len(t, r.Diagnostics, 1)
		assert.Contains(t, r.Diagnostics[0], "password")
	}
}

func TestRecordsCourseAndGroupFields(t *testing.T) {
	doc := `<importusersfile>
  <sheets type="data"><sheet>
    <rows type="data"><row><cells type="data"><cell><item>username</item><item>class</item></cell></cells></row></rows>
  </sheet></sheets>
  <fields table="user"><field><name>username</name><value>username</value></field></fields>
  <fields table="course"><field><name>shortname</name><value>UPPERCASE(class)</value></field></fields>
  <fields table="groups"><field><name>name</name><value>Group {class}</value></field></fields>
</importusersfile>`
	wb := spreadsheet.NewMemory(spreadsheet.Sheet{Title: "S", Rows: [][]string{{"amy", "7b"}}})

	records := collect(t, New(wb, parseModel(t, doc), newEngine(), Options{}, nil))
	require.Len(t, records, 1)
	assert.Equal(t, "7B", records[0].Get("course1_shortname"))
	assert.Equal(t, "Group 7b", records[0].Get("groups1_name"))
}

func TestRecordsStopsOnCancelledContext(t *testing.T) {
	wb := spreadsheet.NewMemory(spreadsheet.Sheet{Title: "S", Rows: [][]string{{"L"}, {"a", "", ""}}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for _, err := range New(wb, parseModel(t, cohortFormat), newEngine(), Options{}, nil).Records(ctx) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestPreview(t *testing.T) {
	doc := `<importusersfile>
  <sheets type="data"><sheet>
    <rows type="data">
      <row start="1" end="1"><cells type="meta"><cell><item>User</item><item>First</item></cell></cells></row>
      <row start="2"><cells type="data"><cell><item>username</item><item>firstname</item></cell></cells></row>
    </rows>
  </sheet></sheets>
  <fields table="user"><field><name>username</name><value>username</value></field></fields>
</importusersfile>`
	wb := spreadsheet.NewMemory(spreadsheet.Sheet{Title: "S", Rows: [][]string{
		{"Login", "Given name"},
		{"amy", "Amy"},
		{"ben", "Ben"},
		{"cat", "Cat"},
	}})

	grid := Preview(wb, parseModel(t, doc), 2)
	assert.Equal(t, []string{"Login", "Given name"}, grid.Head)
	require.Len(t, grid.Rows, 2)
	assert.Equal(t, GridRow{Sheet: 1, Row: 2, Cells: []string{"amy", "Amy"}}, grid.Rows[0])
	assert.Equal(t, 3, grid.Rows[1].Row)
}
