package csv

// CsvDelimiter represents supported CSV delimiters
type CsvDelimiter string

const (
	DelimiterComma     CsvDelimiter = ","
	DelimiterSemicolon CsvDelimiter = ";"
	DelimiterTab       CsvDelimiter = "\t"
)

// Rune returns the delimiter as the rune expected by encoding/csv
func (d CsvDelimiter) Rune() rune {
	if d == "" {
		return ','
	}
	return []rune(string(d))[0]
}

// Options controls how a delimited text file is read as a workbook
type Options struct {
	// Delimiter is detected from the content when empty
	Delimiter CsvDelimiter `json:"delimiter,omitempty"`
	// Encoding is detected from the content when empty
	Encoding string `json:"encoding,omitempty"`
	// SheetTitle names the single sheet; defaults to the file name
	SheetTitle string `json:"sheetTitle,omitempty"`
}
