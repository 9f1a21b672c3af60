package format

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// Kind tags sheets, rows and cells as header/label (meta) or record (data)
type Kind string

const (
	KindMeta Kind = "meta"
	KindData Kind = "data"
)

// EntityKind names the target table of a field group
type EntityKind string

const (
	EntityUser   EntityKind = "user"
	EntityCourse EntityKind = "course"
	EntityGroups EntityKind = "groups"
)

// evaluationOrder is the order in which field groups are templated per row
var evaluationOrder = []EntityKind{EntityUser, EntityCourse, EntityGroups}

// MandatoryUserFields always exist in the user field set
var MandatoryUserFields = []string{"username", "password", "email", "firstname", "lastname"}

// DefaultPassword is used when a password action leaves the template blank
const DefaultPassword = "abc123"

// Model is the parsed format descriptor. It is read-only once Parse returns,
// apart from ApplyPasswordAction which callers run once before extraction.
type Model struct {
	Type     string                   `json:"type"`
	Params   map[string]string        `json:"params"`
	Settings map[string]string        `json:"settings"`
	Sheets   map[Kind][]SheetSpec     `json:"sheets"`
	Fields   map[EntityKind]*FieldSet `json:"fields"`
}

// SheetSpec selects a range of worksheets. Nil bounds mean the first or last sheet.
type SheetSpec struct {
	Start *int               `json:"start,omitempty"`
	End   *int               `json:"end,omitempty"`
	Rows  map[Kind][]RowSpec `json:"rows"`
}

// RowSpec selects a range of rows and names their columns. Nil bounds mean
// row 1 or the highest populated row.
type RowSpec struct {
	Start *int              `json:"start,omitempty"`
	End   *int              `json:"end,omitempty"`
	Cells map[Kind][]string `json:"cells"`
}

// Template is one (entity, field, template) triple
type Template struct {
	Entity EntityKind `json:"entity"`
	Name   string     `json:"name"`
	Value  string     `json:"value"`
}

// DataSheets returns the data-kind sheet specs in declaration order
func (m *Model) DataSheets() []SheetSpec {
	return m.Sheets[KindData]
}

// Templates returns the user, course and groups field templates in
// evaluation order.
func (m *Model) Templates() []Template {
	var out []Template
	for _, kind := range evaluationOrder {
		fs := m.Fields[kind]
		if fs == nil {
			continue
		}
		for _, name := range fs.Names() {
			value, _ := fs.Get(name)
			out = append(out, Template{Entity: kind, Name: name, Value: value})
		}
	}
	return out
}

// PasswordAction selects how the user password template is finalized
type PasswordAction string

const (
	PasswordUnset     PasswordAction = ""
	PasswordCreateNew PasswordAction = "createnew"
	PasswordFileField PasswordAction = "filefield"
	PasswordFormField PasswordAction = "formfield"
)

// ApplyPasswordAction rewrites the user password template. text is only
// used by PasswordFormField.
func (m *Model) ApplyPasswordAction(action PasswordAction, text string) {
	user := m.userFields()
	switch action {
	case PasswordCreateNew:
		user.Set("password", "RANDOM()")
	case PasswordFileField:
		if v, _ := user.Get("password"); v == "" {
			user.Set("password", DefaultPassword)
		}
	case PasswordFormField:
		if text == "" {
			text = DefaultPassword
		}
		user.Set("password", text)
	}
}

func (m *Model) userFields() *FieldSet {
	fs, ok := m.Fields[EntityUser]
	if !ok {
		fs = NewFieldSet()
		m.Fields[EntityUser] = fs
	}
	return fs
}

var prefixPattern = regexp.MustCompile(`^(course|groups)\d+_`)

// Heading strips the positional courseN_/groupsN_ prefix from a field name
func Heading(name string) string {
	return prefixPattern.ReplaceAllString(name, "")
}

// FieldSet is an insertion-ordered map of field name to template
type FieldSet struct {
	names  []string
	values map[string]string
}

// NewFieldSet creates an empty FieldSet
func NewFieldSet() *FieldSet {
	return &FieldSet{values: make(map[string]string)}
}

// Set adds or replaces a field, keeping its first position
func (f *FieldSet) Set(name, value string) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
}

// Get returns the template of a field
func (f *FieldSet) Get(name string) (string, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Names returns the field names in insertion order
func (f *FieldSet) Names() []string {
	return append([]string(nil), f.names...)
}

// Len returns the number of fields
func (f *FieldSet) Len() int {
	return len(f.names)
}

// MarshalJSON writes the fields as a JSON object in insertion order
func (f *FieldSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range f.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
