package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/coinlens-go/internal/metrics"
	"github.com/irfndi/coinlens-go/internal/models"
)

const predictionKeyPrefix = "prediction:"

// PredictionStore is the read-through contract the prediction service relies on.
type PredictionStore interface {
	Get(ctx context.Context, coinID string) (*models.PredictionResult, bool, error)
	Put(ctx context.Context, coinID string, p *models.PredictionResult) error
}

// PredictionCache keeps one entry per coin on a Store. Last write wins.
type PredictionCache struct {
	*jsonCache[models.CachedPrediction]
	now func() time.Time
}

// NewPredictionCache wraps store. A nil store behaves as an always-miss cache.
func NewPredictionCache(store Store, ttl time.Duration, logger *logrus.Logger, rec *metrics.Recorder) *PredictionCache {
	return &PredictionCache{
		jsonCache: newJSONCache[models.CachedPrediction]("prediction", store, ttl, logger, rec),
		now:       time.Now,
	}
}

// Get returns the cached prediction when it is still inside the TTL window.
func (c *PredictionCache) Get(ctx context.Context, coinID string) (*models.PredictionResult, bool, error) {
	entry, ok, err := c.get(ctx, predictionKeyPrefix+coinID)
	if err != nil || !ok {
		return nil, false, err
	}
	if !entry.IsFresh(c.now(), c.ttl) {
		return nil, false, nil
	}
	result := entry.PredictionResult
	return &result, true, nil
}

// Put stores p stamped with the current time.
func (c *PredictionCache) Put(ctx context.Context, coinID string, p *models.PredictionResult) error {
	if p == nil {
		return nil
	}
	entry := models.CachedPrediction{PredictionResult: *p, UpdatedAt: c.now().UTC()}
	return c.put(ctx, predictionKeyPrefix+coinID, &entry)
}

// NoopPredictionStore never hits and discards writes.
type NoopPredictionStore struct{}

func (NoopPredictionStore) Get(context.Context, string) (*models.PredictionResult, bool, error) {
	return nil, false, nil
}

func (NoopPredictionStore) Put(context.Context, string, *models.PredictionResult) error {
	return nil
}
