package template

import (
	"strings"

	"golang.org/x/text/width"
)

// Punctuation whose conventional Japanese form is not the plain fullwidth
// code point that width.Widen would produce.
var (
	toFullwidthPunct = strings.NewReplacer(
		`"`, "”",
		`'`, "’",
		`\`, "￥",
		`~`, "〜",
		"`", "‘",
	)
	toHalfwidthPunct = strings.NewReplacer(
		"”", `"`,
		"’", `'`,
		"￥", `\`,
		"〜", `~`,
		"‘", "`",
	)
)

// fullwidth converts ASCII and halfwidth kana to their fullwidth forms
func fullwidth(_ *Engine, args []string) string {
	return width.Widen.String(toFullwidthPunct.Replace(first(args)))
}

// halfwidth converts fullwidth ASCII and kana to their halfwidth forms
func halfwidth(_ *Engine, args []string) string {
	return width.Narrow.String(toHalfwidthPunct.Replace(first(args)))
}
