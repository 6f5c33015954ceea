package hasher

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usersoap/usersvc/config"
)

func newTestHasher() *Hasher {
	return New(config.HasherConfig{Iterations: 1000, KeyLength: 64, SaltLength: 16})
}

func TestDerive_Deterministic(t *testing.T) {
	h := newTestHasher()
	salt := []byte("0123456789abcdef")

	first := h.Derive("p@ss", salt)
	second := h.Derive("p@ss", salt)

	assert.Equal(t, first, second)
	assert.Len(t, first, 128)
}

func TestDerive_DifferentPasswords(t *testing.T) {
	h := newTestHasher()
	salt := []byte("0123456789abcdef")

	assert.NotEqual(t, h.Derive("p@ss", salt), h.Derive("p@ss2", salt))
}

// Published PBKDF2-HMAC-SHA256 vector: P="password", S="salt", c=1, dkLen=32.
func TestDerive_KnownVector(t *testing.T) {
	h := New(config.HasherConfig{Iterations: 1, KeyLength: 32, SaltLength: 16})

	got := h.Derive("password", []byte("salt"))

	assert.Equal(t, "120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b", got)
}

func TestHash_UsesPerRecordSalt(t *testing.T) {
	h := newTestHasher()

	a, err := h.Hash("p@ss")
	require.NoError(t, err)
	b, err := h.Hash("p@ss")
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Hash, b.Hash)

	salt, err := hex.DecodeString(a.Salt)
	require.NoError(t, err)
	assert.Len(t, salt, 16)
	assert.Equal(t, a.Hash, h.Derive("p@ss", salt))
}

func TestHash_EmptyPassword(t *testing.T) {
	_, err := newTestHasher().Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerify(t *testing.T) {
	h := newTestHasher()
	digest, err := h.Hash("p@ss")
	require.NoError(t, err)

	assert.True(t, h.Verify("p@ss", digest))
	assert.False(t, h.Verify("wrong", digest))
	assert.False(t, h.Verify("p@ss", Digest{Hash: digest.Hash, Salt: "zz"}))
}
