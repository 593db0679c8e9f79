// Package limiter throttles repeated failed attempts at the admin credential.
package limiter

import (
	"context"
	"time"
)

// Limiter tracks failed privileged attempts per client and places temporary lockouts.
type Limiter interface {
	// Allow reports whether an attempt is currently allowed and optional retry-after.
	Allow(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a correct credential.
	Success(ctx context.Context, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
}
