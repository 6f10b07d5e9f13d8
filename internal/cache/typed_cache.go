package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/coinlens-go/internal/metrics"
)

// jsonCache layers JSON encoding, stats and metrics over a Store.
type jsonCache[T any] struct {
	name    string
	store   Store
	ttl     time.Duration
	logger  *logrus.Entry
	metrics *metrics.Recorder

	mu    sync.Mutex
	stats Stats
}

func newJSONCache[T any](name string, store Store, ttl time.Duration, logger *logrus.Logger, rec *metrics.Recorder) *jsonCache[T] {
	if logger == nil {
		logger = logrus.New()
	}
	return &jsonCache[T]{
		name:    name,
		store:   store,
		ttl:     ttl,
		logger:  logger.WithFields(logrus.Fields{"component": "cache", "cache": name}),
		metrics: rec,
	}
}

func (c *jsonCache[T]) get(ctx context.Context, key string) (*T, bool, error) {
	if c.store == nil {
		c.record(metrics.CacheMiss)
		return nil, false, nil
	}
	data, ok, err := c.store.GetBytes(ctx, key)
	if err != nil {
		c.record(metrics.CacheError)
		return nil, false, err
	}
	if !ok {
		c.record(metrics.CacheMiss)
		return nil, false, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.record(metrics.CacheError)
		c.logger.WithError(err).WithField("key", key).Warn("Dropping undecodable cache entry")
		_ = c.store.Delete(ctx, key)
		return nil, false, fmt.Errorf("%s %s: %w", c.name, key, ErrCorruptEntry)
	}
	c.record(metrics.CacheHit)
	return &v, true, nil
}

func (c *jsonCache[T]) put(ctx context.Context, key string, v *T) error {
	if c.store == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s entry: %w", c.name, err)
	}
	if err := c.store.SetBytes(ctx, key, data, c.ttl); err != nil {
		c.metrics.RecordCacheWrite(c.name, metrics.OutcomeFailure)
		return err
	}
	c.metrics.RecordCacheWrite(c.name, metrics.OutcomeSuccess)

	c.mu.Lock()
	c.stats.Sets++
	c.mu.Unlock()
	return nil
}

func (c *jsonCache[T]) record(result string) {
	c.metrics.RecordCacheLookup(c.name, result)
	c.mu.Lock()
	defer c.mu.Unlock()
	switch result {
	case metrics.CacheHit:
		c.stats.Hits++
	case metrics.CacheMiss:
		c.stats.Misses++
	default:
		c.stats.Errors++
	}
}

// Stats returns a snapshot of lookup counters.
func (c *jsonCache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
