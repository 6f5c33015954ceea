// Package hasher derives storable password digests with PBKDF2-HMAC-SHA256.
package hasher

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/usersoap/usersvc/config"
	"golang.org/x/crypto/pbkdf2"
)

var ErrEmptyPassword = errors.New("password is empty")

// Digest is a derived key together with the salt it was derived with.
// Both values are hex-encoded.
type Digest struct {
	Hash string
	Salt string
}

// Hasher derives password digests using a fixed iteration count and key length.
type Hasher struct {
	iterations int
	keyLength  int
	saltLength int
}

func New(cfg config.HasherConfig) *Hasher {
	return &Hasher{
		iterations: cfg.Iterations,
		keyLength:  cfg.KeyLength,
		saltLength: cfg.SaltLength,
	}
}

// Hash derives a digest for password using a freshly generated random salt.
func (h *Hasher) Hash(password string) (Digest, error) {
	if password == "" {
		return Digest{}, ErrEmptyPassword
	}

	salt := make([]byte, h.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return Digest{}, fmt.Errorf("generate salt: %w", err)
	}

	return Digest{
		Hash: h.Derive(password, salt),
		Salt: hex.EncodeToString(salt),
	}, nil
}

// Derive returns the hex digest of password under salt. It is deterministic.
func (h *Hasher) Derive(password string, salt []byte) string {
	key := pbkdf2.Key([]byte(password), salt, h.iterations, h.keyLength, sha256.New)
	return hex.EncodeToString(key)
}

// Verify reports whether password matches digest.
func (h *Hasher) Verify(password string, digest Digest) bool {
	salt, err := hex.DecodeString(digest.Salt)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(digest.Hash)
	if err != nil {
		return false
	}
	actual := pbkdf2.Key([]byte(password), salt, h.iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(expected, actual) == 1
}
