// Package limiter throttles admin login attempts per (username, client) pair.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether a login may be attempted and, if not, how long to wait.
	Allow(ctx context.Context, username string, client []byte) (bool, time.Duration, error)
	// Success clears the failure history.
	Success(ctx context.Context, username string, client []byte) error
	// Failure records a failed attempt and reports whether it triggered a lockout.
	Failure(ctx context.Context, username string, client []byte) (bool, time.Duration, error)
}

// Policy configures lockouts: MaxFails failures inside Window block for BlockFor.
type Policy struct {
	Window   time.Duration
	MaxFails int
	BlockFor time.Duration
}

// DefaultPolicy is five failures in 15 minutes, blocked for 15 minutes.
var DefaultPolicy = Policy{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}

// HashClient returns a stable digest of a client address so raw IPs are never stored.
func HashClient(addr string) []byte {
	h := sha256.Sum256([]byte(addr))
	return h[:]
}
