// Package ids generates opaque identifiers for stored records.
package ids

import (
	"github.com/gofrs/uuid/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	shortSize    = 16
)

// NewUUID returns a random UUIDv4 string, used for accounts.
func NewUUID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// NewShort returns a 16-char alphanumeric nanoid, used for orders and media.
func NewShort() string {
	return gonanoid.MustGenerate(alphanumeric, shortSize)
}
