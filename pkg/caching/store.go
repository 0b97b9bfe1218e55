package caching

import (
	"context"
	"time"
)

// Store is the external key-value capability behind the Manager.
// Absent and expired keys are indistinguishable: Get reports found=false.
// A ttl <= 0 means the entry does not expire.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX writes only if key is absent or expired, atomically. It reports
	// whether the write happened.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
