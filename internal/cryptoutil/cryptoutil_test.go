package cryptoutil

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestAESGCM_SealOpen(t *testing.T) {
	s, err := NewAESGCM(testKey())
	require.NoError(t, err)

	sealed, err := s.Seal([]byte(`{"token":"abc"}`), "campus-auth:session")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(sealed), "v1:"))
	assert.NotContains(t, string(sealed), "abc")

	opened, err := s.Open(sealed, "campus-auth:session")
	require.NoError(t, err)
	assert.Equal(t, `{"token":"abc"}`, string(opened))

	again, err := s.Seal([]byte(`{"token":"abc"}`), "campus-auth:session")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonces must differ between seals")
}

func TestAESGCM_ContextBinding(t *testing.T) {
	s, err := NewAESGCM(testKey())
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("value"), "key-a")
	require.NoError(t, err)

	_, err = s.Open(sealed, "key-b")
	require.Error(t, err)
}

func TestAESGCM_OpensNoopValues(t *testing.T) {
	s, err := NewAESGCM(testKey())
	require.NoError(t, err)

	legacy, err := Noop{}.Seal([]byte("legacy"), "")
	require.NoError(t, err)

	opened, err := s.Open(legacy, "anything")
	require.NoError(t, err)
	assert.Equal(t, "legacy", string(opened))
}

func TestAESGCM_InvalidInput(t *testing.T) {
	_, err := NewAESGCM([]byte("short"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be 32 bytes")

	s, err := NewAESGCM(testKey())
	require.NoError(t, err)

	_, err = s.Open([]byte(`{"plain":"json"}`), "")
	require.ErrorIs(t, err, ErrUnsealed)

	_, err = s.Open([]byte("v1:!!!invalid!!!"), "")
	require.Error(t, err)

	_, err = s.Open([]byte("v1:"+base64.StdEncoding.EncodeToString([]byte("x"))), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestKeyFromPassphrase(t *testing.T) {
	raw := testKey()
	key, err := KeyFromPassphrase(hex.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, key)

	hashed, err := KeyFromPassphrase("correct horse battery staple")
	require.NoError(t, err)
	assert.Len(t, hashed, 32)

	_, err = KeyFromPassphrase("   ")
	require.Error(t, err)
}

func TestNoop_RejectsUnmarkedValues(t *testing.T) {
	_, err := Noop{}.Open([]byte("plain"), "")
	require.ErrorIs(t, err, ErrUnsealed)
}
