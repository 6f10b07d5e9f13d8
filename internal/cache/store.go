// Package cache stores serialized predictions and market snapshots with a TTL.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCorruptEntry is returned when a stored value cannot be decoded.
var ErrCorruptEntry = errors.New("cache: corrupt entry")

// Store is a byte-oriented key/value store with per-key expiry.
type Store interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Name() string
}

// Stats tracks lookup counts for one cache.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
