// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/service/client layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a natural key conflict (e.g., phone or username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrExpired indicates an expired session or access token.
	ErrExpired = errors.New("expired")

	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates a transient remote failure (502/503, network, timeout).
	ErrUnavailable = errors.New("server unavailable")

	// ErrServerUnreachable is the terminal failure after retries are exhausted.
	ErrServerUnreachable = errors.New("could not reach server")
)
