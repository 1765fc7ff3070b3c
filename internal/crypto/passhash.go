// Package crypto hashes admin passwords with Argon2id.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32

	// SaltLen is the per-admin salt size in bytes.
	SaltLen = 16
)

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword derives the stored hash for password under salt.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// NewPasswordHash generates a fresh salt and returns hash and salt.
func NewPasswordHash(password string) (hash, salt []byte, err error) {
	salt, err = RandBytes(SaltLen)
	if err != nil {
		return nil, nil, err
	}
	return HashPassword(password, salt), salt, nil
}

// VerifyPassword compares in constant time.
func VerifyPassword(password string, salt, expected []byte) bool {
	return subtle.ConstantTimeCompare(HashPassword(password, salt), expected) == 1
}
