package types

import (
	"bytes"
	"encoding/json"
)

// Record is one spreadsheet row after its field templates have been evaluated
type Record struct {
	SheetIndex int    `json:"sheetIndex"`
	SheetName  string `json:"sheetName"`
	Row        int    `json:"row"`
	// Diagnostics holds malformed template calls found while evaluating fields
	Diagnostics []string `json:"diagnostics,omitempty"`

	names  []string
	values map[string]string
}

// NewRecord creates an empty record for the given origin
func NewRecord(sheetIndex int, sheetName string, row int) *Record {
	return &Record{
		SheetIndex: sheetIndex,
		SheetName:  sheetName,
		Row:        row,
		values:     make(map[string]string),
	}
}

// Set adds or replaces a field, keeping its first position
func (r *Record) Set(name, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = value
}

// Get returns the value of a field, or "" when absent
func (r *Record) Get(name string) string {
	return r.values[name]
}

// Lookup returns the value of a field and whether it is present
func (r *Record) Lookup(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Names returns the field names in insertion order
func (r *Record) Names() []string {
	return append([]string(nil), r.names...)
}

// Username is the evaluated username field
func (r *Record) Username() string {
	return r.values["username"]
}

// Fields returns a copy of the field values
func (r *Record) Fields() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the origin and the fields, the latter in insertion order
func (r *Record) MarshalJSON() ([]byte, error) {
	var fields bytes.Buffer
	fields.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			fields.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, err
		}
		fields.Write(k)
		fields.WriteByte(':')
		fields.Write(v)
	}
	fields.WriteByte('}')

	type origin struct {
		SheetIndex  int             `json:"sheetIndex"`
		SheetName   string          `json:"sheetName"`
		Row         int             `json:"row"`
		Fields      json.RawMessage `json:"fields"`
		Diagnostics []string        `json:"diagnostics,omitempty"`
	}
	return json.Marshal(origin{
		SheetIndex:  r.SheetIndex,
		SheetName:   r.SheetName,
		Row:         r.Row,
		Fields:      fields.Bytes(),
		Diagnostics: r.Diagnostics,
	})
}
