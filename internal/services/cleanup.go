package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StaleDeleter removes persisted predictions older than maxAge.
type StaleDeleter interface {
	DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// ExpiringStore drops expired in-memory entries.
type ExpiringStore interface {
	Cleanup() int
}

// CleanupConfig defines cleanup configuration
type CleanupConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// CleanupStats reports what one cleanup pass removed.
type CleanupStats struct {
	StalePredictions int64 `json:"stale_predictions"`
	ExpiredEntries   int   `json:"expired_entries"`
}

// CleanupService periodically prunes stale cache rows and expired memory entries.
// Either target may be nil.
type CleanupService struct {
	repository StaleDeleter
	memory     ExpiringStore
	config     CleanupConfig
	logger     *logrus.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(repository StaleDeleter, memory ExpiringStore, cfg CleanupConfig, logger *logrus.Logger) *CleanupService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 2 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CleanupService{repository: repository, memory: memory, config: cfg, logger: logger}
}

// Start runs an initial pass and then one pass per interval until Stop or ctx is done.
func (c *CleanupService) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	if c.repository == nil && c.memory == nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	c.logger.WithFields(logrus.Fields{
		"interval":  c.config.Interval.String(),
		"retention": c.config.Retention.String(),
	}).Info("Starting cleanup service")

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.config.Interval)
		defer ticker.Stop()

		c.runLogged(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.runLogged(ctx)
			}
		}
	}()
}

// Stop stops the cleanup loop and waits for it to exit.
func (c *CleanupService) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	c.logger.Info("Stopping cleanup service")
	cancel()
	<-done
}

// RunCleanup performs a manual cleanup operation
func (c *CleanupService) RunCleanup(ctx context.Context) (CleanupStats, error) {
	var stats CleanupStats
	if c.memory != nil {
		stats.ExpiredEntries = c.memory.Cleanup()
	}
	if c.repository != nil {
		deleted, err := c.repository.DeleteStale(ctx, c.config.Retention)
		if err != nil {
			return stats, fmt.Errorf("failed to cleanup stale predictions: %w", err)
		}
		stats.StalePredictions = deleted
	}
	return stats, nil
}

func (c *CleanupService) runLogged(ctx context.Context) {
	stats, err := c.RunCleanup(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.WithError(err).Warn("Cleanup failed")
		}
		return
	}
	if stats.StalePredictions > 0 || stats.ExpiredEntries > 0 {
		c.logger.WithFields(logrus.Fields{
			"stale_predictions": stats.StalePredictions,
			"expired_entries":   stats.ExpiredEntries,
		}).Info("Cleaned up cached data")
	}
}
