package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(fastParams)

	encoded, err := h.Hash("abc123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := Verify(encoded, "abc123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(encoded, "abc124")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher(fastParams)
	a, err := h.Hash("secret")
	require.NoError(t, err)
	b, err := h.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashRejectsBlank(t *testing.T) {
	_, err := NewHasher(fastParams).Hash("   ")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestNewHasherDefaults(t *testing.T) {
	assert.Equal(t, DefaultParams, NewHasher(Params{}).params)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"too few parts", "$argon2id$v=19$abc"},
		{"wrong algorithm", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=16$m=1,t=1,p=1$c2FsdA$aGFzaA"},
		{"bad params", "$argon2id$v=19$m=1,t=1$c2FsdA$aGFzaA"},
		{"bad memory", "$argon2id$v=19$x=1,t=1,p=1$c2FsdA$aGFzaA"},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!$aGFzaA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Verify(tt.encoded, "x")
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}
