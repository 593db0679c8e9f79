// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested user or row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates optimistic concurrency failure (row version moved).
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnauthorized indicates a privileged credential mismatch.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates a temporary lockout after repeated failed attempts.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., credential taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidRequest indicates missing or malformed required fields.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrStorageUnavailable indicates the store could not be reached or rejected the operation.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
