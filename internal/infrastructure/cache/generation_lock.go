// Package cache provides distributed and in-process locking for settlement
// generation.
package cache

import (
	"context"
	"time"
)

// GenerationLock serializes settlement generation per (driver, vehicle,
// period) key. Acquire returns false when another generation run holds the
// key; the caller must not proceed.
type GenerationLock interface {
	// Acquire attempts to take the lock for key with a TTL safety net.
	// Returns true if the lock was taken.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the lock for key. Releasing an unheld key is a no-op.
	Release(ctx context.Context, key string) error
}
