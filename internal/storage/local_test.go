package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUploadKey(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"plain", "students.xlsx", "uploads/run1/data/students.xlsx"},
		{"nested path", "a/b/students.xlsx", "uploads/run1/data/students.xlsx"},
		{"traversal", "../../etc/passwd", "uploads/run1/data/passwd"},
		{"empty", "", "uploads/run1/data/data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildUploadKey("run1", KindData, tt.filename))
		})
	}
}

func TestStageAndPurge(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	dataKey, err := Stage(ctx, s, "run1", KindData, "students.csv", []byte("username\nalice\n"))
	require.NoError(t, err)
	formatKey, err := Stage(ctx, s, "run1", KindFormat, "format.xml", []byte("<importusersfile/>"))
	require.NoError(t, err)
	_, err = Stage(ctx, s, "run2", KindData, "other.csv", []byte("x"))
	require.NoError(t, err)

	content, err := s.Get(ctx, dataKey)
	require.NoError(t, err)
	assert.Equal(t, "username\nalice\n", string(content))

	info, err := s.GetInfo(ctx, dataKey)
	require.NoError(t, err)
	require.NotNil(t, info.Metadata)
	assert.Equal(t, "students.csv", info.Metadata.OriginalName)
	assert.Equal(t, "run1", info.Metadata.RunID)
	assert.Equal(t, ComputeChecksum(content), info.Checksum)

	keys, err := s.List(ctx, "uploads/run1/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{dataKey, formatKey}, keys)

	require.NoError(t, Purge(ctx, s, "run1"))

	_, err = s.Get(ctx, dataKey)
	assert.ErrorIs(t, err, ErrNotFound)
	exists, err := s.Exists(ctx, BuildUploadKey("run2", KindData, "other.csv"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New("s3", t.TempDir())
	assert.Error(t, err)

	s, err := New("local", t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestLoadVerifiesChecksum(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key, err := Stage(ctx, s, "run1", KindData, "students.csv", []byte("username\nalice\n"))
	require.NoError(t, err)

	content, meta, err := Load(ctx, s, key)
	require.NoError(t, err)
	assert.Equal(t, "username\nalice\n", string(content))
	assert.Equal(t, ComputeChecksum(content), meta.Checksum)
	assert.Equal(t, "students.csv", meta.OriginalName)

	require.NoError(t, s.Put(ctx, key, []byte("username\nmallory\n"), meta))
	_, _, err = Load(ctx, s, key)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	require.NoError(t, s.Put(ctx, "plain/file.txt", []byte("x"), nil))
	content, meta, err = Load(ctx, s, "plain/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(content))
	assert.Empty(t, meta.Checksum)

	_, _, err = Load(ctx, s, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeysStayBelowBasePath(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "../../escape.txt", []byte("x"), nil))
	exists, err := s.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	keys, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"escape.txt"}, keys)
}
