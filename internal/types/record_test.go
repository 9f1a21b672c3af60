package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeepsInsertionOrder(t *testing.T) {
	r := NewRecord(1, "Sheet1", 4)
	r.Set("username", "alice")
	r.Set("email", "a@example.com")
	r.Set("course1_shortname", "C1")
	r.Set("username", "bob")

	assert.Equal(t, []string{"username", "email", "course1_shortname"}, r.Names())
	assert.Equal(t, "bob", r.Username())
	assert.Equal(t, "", r.Get("missing"))

	_, ok := r.Lookup("missing")
	assert.False(t, ok)
}

func TestRecordJSON(t *testing.T) {
	r := NewRecord(2, "Cohort", 7)
	r.Set("b", "2")
	r.Set("a", "1")

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sheetIndex":2,"sheetName":"Cohort","row":7,"fields":{"b":"2","a":"1"}}`, string(data))
	assert.Contains(t, string(data), `"fields":{"b":"2","a":"1"}`)
}

func TestRecordFieldsIsACopy(t *testing.T) {
	r := NewRecord(1, "S", 1)
	r.Set("x", "1")
	f := r.Fields()
	f["x"] = "2"
	assert.Equal(t, "1", r.Get("x"))
}
