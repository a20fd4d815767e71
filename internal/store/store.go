// Package store is the key/value and list contract the conversation layer
// consumes. Redis provides it in production; Memory backs tests and local runs.
package store

import (
	"context"
	"time"
)

// Store is the capability set this module needs from the backing store.
// Misses are values, never errors: Get reports ok=false, ListRange reports an
// empty slice. Delete issues all keys in one round trip.
type Store interface {
	Get(ctx context.Context, key string) (val string, ok bool, err error)
	Set(ctx context.Context, key, val string) error

	// Expire arms (or re-arms) the key's TTL. ExpireNX arms it only when the
	// key has no expiry yet; both are no-ops on missing keys.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	ExpireNX(ctx context.Context, key string, ttl time.Duration) error

	// ListPush appends to the tail, preserving argument order.
	ListPush(ctx context.Context, key string, vals ...string) error
	// ListRange uses Redis index semantics: inclusive bounds, negative
	// indexes count from the tail (-1 is the last element), out-of-range
	// bounds are clamped.
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	Delete(ctx context.Context, keys ...string) error
}
