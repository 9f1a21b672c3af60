package charset

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Encoding
	}{
		{"utf8 bom", []byte("\xEF\xBB\xBFabc"), EncodingUTF8},
		{"utf16 le bom", []byte{0xFF, 0xFE, 'a', 0}, EncodingUTF16LE},
		{"utf16 be bom", []byte{0xFE, 0xFF, 0, 'a'}, EncodingUTF16BE},
		{"plain ascii", []byte("username,password"), EncodingUTF8},
		{"utf8 kana", []byte("やまだ"), EncodingUTF8},
		{"latin1 bytes", []byte{'J', 'o', 's', 0xE9}, EncodingWindows1252},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEncoding(tt.data))
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("strips utf8 bom", func(t *testing.T) {
		got, err := Decode([]byte("\xEF\xBB\xBFalice"), "")
		require.NoError(t, err)
		assert.Equal(t, "alice", got)
	})

	t.Run("windows-1252", func(t *testing.T) {
		got, err := Decode([]byte{'J', 'o', 's', 0xE9}, "")
		require.NoError(t, err)
		assert.Equal(t, "José", got)
	})

	t.Run("windows-1250 caron", func(t *testing.T) {
		got, err := Decode([]byte{0x8A, 'i', 'b', 'e', 'n', 'i', 'k'}, EncodingWindows1250)
		require.NoError(t, err)
		assert.Equal(t, "Šibenik", got)
	})

	t.Run("unknown label", func(t *testing.T) {
		_, err := Decode([]byte{0x80}, Encoding("x-nonsense"))
		assert.Error(t, err)
	})
}

func TestNewReaderForXMLLabels(t *testing.T) {
	r, err := NewReader("ISO-8859-1", strings.NewReader("caf\xe9"))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "café", string(out))

	r, err = NewReader("UTF-8", strings.NewReader("plain"))
	require.NoError(t, err)
	out, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
}
