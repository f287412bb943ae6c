package cache

import (
	"context"
	"time"
)

// Cache is a small string cache in front of the entitlement read path.
// Implementations must treat a missing key as ("", nil), not an error, so
// callers can fall through to the store without classifying failures.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
