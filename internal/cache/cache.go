// Package cache provides an optional TTL-bounded response cache keyed by the
// request's input signature, deduplicating repeated generations for an
// identical check-in within one session window.
package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Defaults for the response cache.
const (
	// DefaultSize is the maximum number of cached responses per endpoint.
	DefaultSize = 512
	// DefaultTTL bounds how long a cached response may be replayed.
	DefaultTTL = 30 * time.Minute
)

// Cache is a typed LRU with per-entry expiry.
type Cache[V any] struct {
	lru *expirable.LRU[string, V]
}

// New creates a cache with the given size and TTL; non-positive values fall
// back to the defaults.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	return c.lru.Get(key)
}

// Set stores the value under key.
func (c *Cache[V]) Set(key string, value V) {
	if c == nil {
		return
	}
	c.lru.Add(key, value)
}

// Key builds a cache key from an endpoint name and the normalized input
// parts of the request.
func Key(endpoint string, parts ...string) string {
	return endpoint + "\x1f" + strings.Join(parts, "\x1f")
}
