// Package format parses the XML format descriptor that tells the importer
// where records live in a workbook and how to turn cells into field values.
//
// A minimal descriptor:
//
//	<importusersfile type="users" school="North">
//	  <sheets type="data">
//	    <sheet>
//	      <rows type="meta"><row start="1" end="1">
//	        <cells type="data"><cell>sheet_label</cell></cells>
//	      </row></rows>
//	      <rows type="data"><row start="2">
//	        <cells type="data"><cell><item>username</item><item>firstname</item></cell></cells>
//	      </row></rows>
//	    </sheet>
//	  </sheets>
//	  <fields table="user">
//	    <field><name>username</name><value>LOWERCASE(username)</value></field>
//	  </fields>
//	</importusersfile>
package format

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/importusers/import-service/internal/parsers/charset"
)

// RootElement is the name of the document element
const RootElement = "importusersfile"

type xmlDocument struct {
	XMLName  xml.Name
	Attrs    []xml.Attr  `xml:",any,attr"`
	Sheets   []xmlSheets `xml:"sheets"`
	Fields   []xmlFields `xml:"fields"`
	Settings *xmlAny     `xml:"settings"`
}

type xmlSheets struct {
	Type  string     `xml:"type,attr"`
	Sheet []xmlSheet `xml:"sheet"`
}

type xmlSheet struct {
	Start string    `xml:"start,attr"`
	End   string    `xml:"end,attr"`
	Rows  []xmlRows `xml:"rows"`
}

type xmlRows struct {
	Type string   `xml:"type,attr"`
	Row  []xmlRow `xml:"row"`
}

type xmlRow struct {
	Start string     `xml:"start,attr"`
	End   string     `xml:"end,attr"`
	Cells []xmlCells `xml:"cells"`
}

type xmlCells struct {
	Type string    `xml:"type,attr"`
	Cell []xmlCell `xml:"cell"`
}

// xmlCell holds either a single name as text or several names as children
type xmlCell struct {
	Text     string    `xml:",chardata"`
	Children []xmlText `xml:",any"`
}

type xmlFields struct {
	Table string     `xml:"table,attr"`
	Field []xmlField `xml:"field"`
}

type xmlField struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

type xmlAny struct {
	Children []xmlText `xml:",any"`
}

type xmlText struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

// Option adjusts a parsed Model
type Option func(*Model)

// WithPasswordAction finalizes the password template, see Model.ApplyPasswordAction
func WithPasswordAction(action PasswordAction, text string) Option {
	return func(m *Model) {
		m.ApplyPasswordAction(action, text)
	}
}

// Parse decodes a format descriptor
func Parse(data []byte, opts ...Option) (*Model, error) {
	data = charset.StripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	var doc xmlDocument
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReader
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}

	if doc.XMLName.Local != RootElement {
		return nil, &MissingSectionError{Name: RootElement}
	}
	if len(doc.Sheets) == 0 {
		return nil, &MissingSectionError{Name: "sheets"}
	}
	if len(doc.Fields) == 0 {
		return nil, &MissingSectionError{Name: "fields"}
	}

	m := &Model{
		Params:   make(map[string]string),
		Settings: make(map[string]string),
		Sheets:   make(map[Kind][]SheetSpec),
		Fields:   make(map[EntityKind]*FieldSet),
	}

	for _, attr := range doc.Attrs {
		if attr.Name.Local == "type" {
			m.Type = attr.Value
			continue
		}
		m.Params[attr.Name.Local] = attr.Value
	}

	if doc.Settings != nil {
		for _, s := range doc.Settings.Children {
			m.Settings[strings.ToLower(s.XMLName.Local)] = strings.TrimSpace(s.Text)
		}
	}

	for _, group := range doc.Sheets {
		kind := Kind(strings.TrimSpace(group.Type))
		for _, s := range group.Sheet {
			m.Sheets[kind] = append(m.Sheets[kind], parseSheet(s))
		}
	}
	if len(m.Sheets[KindData]) == 0 {
		return nil, &MissingSectionError{Name: `sheets type="data"`}
	}

	parseFields(m, doc.Fields)

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func parseSheet(s xmlSheet) SheetSpec {
	spec := SheetSpec{
		Start: parseBound(s.Start),
		End:   parseBound(s.End),
		Rows:  make(map[Kind][]RowSpec),
	}
	for _, group := range s.Rows {
		kind := Kind(strings.TrimSpace(group.Type))
		for _, r := range group.Row {
			spec.Rows[kind] = append(spec.Rows[kind], parseRow(r))
		}
	}
	return spec
}

func parseRow(r xmlRow) RowSpec {
	spec := RowSpec{
		Start: parseBound(r.Start),
		End:   parseBound(r.End),
		Cells: make(map[Kind][]string),
	}
	for _, group := range r.Cells {
		kind := Kind(strings.TrimSpace(group.Type))
		names := spec.Cells[kind]
		for _, c := range group.Cell {
			if len(c.Children) == 0 {
				names = append(names, strings.TrimSpace(c.Text))
				continue
			}
			for _, child := range c.Children {
				names = append(names, strings.TrimSpace(child.Text))
			}
		}
		spec.Cells[kind] = names
	}
	return spec
}

// parseFields numbers course and groups field groups in document order and
// prefixes their keys; user fields are never prefixed.
func parseFields(m *Model, groups []xmlFields) {
	user := NewFieldSet()
	for _, name := range MandatoryUserFields {
		user.Set(name, "")
	}
	m.Fields[EntityUser] = user

	counts := make(map[EntityKind]int)
	for _, group := range groups {
		table := EntityKind(strings.TrimSpace(group.Table))

		prefix := ""
		if table == EntityCourse || table == EntityGroups {
			counts[table]++
			prefix = fmt.Sprintf("%s%d_", table, counts[table])
		}

		fs, ok := m.Fields[table]
		if !ok {
			fs = NewFieldSet()
			m.Fields[table] = fs
		}
		for _, f := range group.Field {
			name := strings.TrimSpace(f.Name)
			if name == "" {
				continue
			}
			fs.Set(prefix+name, strings.TrimSpace(f.Value))
		}
	}
}

// parseBound accepts numeric strings only; anything else means "use default"
func parseBound(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}
