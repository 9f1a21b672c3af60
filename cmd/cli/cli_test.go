package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/importusers/import-service/internal/format"
)

const sampleFormat = `<importusersfile type="users" school="North">
  <settings><uploadaction>addupdate</uploadaction></settings>
  <sheets type="data">
    <sheet>
      <rows type="meta">
        <row start="1" end="1">
          <cells type="meta"><cell><item>Username</item></cell></cells>
        </row>
      </rows>
      <rows type="data">
        <row start="2">
          <cells type="data"><cell><item>username</item></cell></cells>
        </row>
      </rows>
    </sheet>
  </sheets>
  <fields table="user">
    <field><name>username</name><value>username</value></field>
  </fields>
</importusersfile>`

func TestFlagOverrides(t *testing.T) {
	cmd := &cobra.Command{}
	for _, o := range optionFlags {
		cmd.Flags().String(o.flag, "", o.usage)
	}
	require.NoError(t, cmd.Flags().Parse([]string{"--upload-action", "addupdate", "--lang", "de", "--description", ""}))

	assert.Equal(t, map[string]string{
		"upload_action":    "addupdate",
		"language":         "de",
		"description_text": "",
	}, flagOverrides(cmd))
}

func TestWriteFormatSummary(t *testing.T) {
	model, err := format.Parse([]byte(sampleFormat))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeFormatSummary(&buf, model))
	out := buf.String()

	assert.Contains(t, out, "Type:")
	assert.Contains(t, out, "Param school:")
	assert.Contains(t, out, "Setting uploadaction:")
	assert.Contains(t, out, "meta rows 1-1, meta cells:")
	assert.Contains(t, out, "data rows 2-last, data cells:")
	assert.NotContains(t, out, "data rows 1-1")
	assert.Contains(t, out, "ENTITY")
}

func TestBounds(t *testing.T) {
	two := 2
	assert.Equal(t, "first-last", bounds(nil, nil))
	assert.Equal(t, "2-last", bounds(&two, nil))
	assert.Equal(t, "first-2", bounds(nil, &two))
}
