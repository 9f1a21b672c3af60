package charset

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding label
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingUTF16LE     Encoding = "utf-16le"
	EncodingUTF16BE     Encoding = "utf-16be"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingShiftJIS    Encoding = "shift_jis"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectEncoding detects the encoding of a byte buffer. A byte order mark
// wins; otherwise valid UTF-8 is taken as UTF-8 and anything else is
// assumed to be Windows-1252, the usual export encoding of spreadsheet tools.
func DetectEncoding(data []byte) Encoding {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingUTF8
	case bytes.HasPrefix(data, bomUTF16LE):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		return EncodingUTF16BE
	case utf8.Valid(data):
		return EncodingUTF8
	default:
		return EncodingWindows1252
	}
}

// StripBOM removes a leading UTF-8 byte order mark
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, bomUTF8)
}

// Decode converts a byte buffer from the specified encoding to a UTF-8 string.
// An empty encoding means detect.
func Decode(data []byte, enc Encoding) (string, error) {
	if enc == "" {
		enc = DetectEncoding(data)
	}
	if enc == EncodingUTF8 {
		if utf8.Valid(data) {
			return string(StripBOM(data)), nil
		}
		// not really UTF-8, fall back to the legacy default
		enc = EncodingWindows1252
	}

	e, err := lookup(enc)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(e.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return string(out), nil
}

// ToUTF8Reader wraps a reader with a decoder to convert to UTF-8
func ToUTF8Reader(r io.Reader, enc Encoding) (io.Reader, error) {
	if enc == "" || enc == EncodingUTF8 {
		return r, nil
	}
	e, err := lookup(enc)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, e.NewDecoder()), nil
}

// NewReader has the signature expected by encoding/xml Decoder.CharsetReader
// and accepts any WHATWG encoding label.
func NewReader(label string, input io.Reader) (io.Reader, error) {
	return ToUTF8Reader(input, Encoding(strings.ToLower(strings.TrimSpace(label))))
}

func lookup(enc Encoding) (encoding.Encoding, error) {
	switch enc {
	case EncodingWindows1250:
		return charmap.Windows1250, nil
	case EncodingWindows1252:
		return charmap.Windows1252, nil
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	}
	e, err := htmlindex.Get(string(enc))
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
	}
	return e, nil
}
