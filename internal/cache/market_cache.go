package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/coinlens-go/internal/metrics"
	"github.com/irfndi/coinlens-go/internal/models"
)

const marketKeyPrefix = "market:"

// MarketCache holds raw market snapshots so repeated requests skip the upstream call.
type MarketCache struct {
	*jsonCache[models.MarketData]
}

func NewMarketCache(store Store, ttl time.Duration, logger *logrus.Logger, rec *metrics.Recorder) *MarketCache {
	return &MarketCache{jsonCache: newJSONCache[models.MarketData]("market", store, ttl, logger, rec)}
}

func (c *MarketCache) Get(ctx context.Context, coinID string) (*models.MarketData, bool, error) {
	return c.get(ctx, marketKeyPrefix+coinID)
}

func (c *MarketCache) Put(ctx context.Context, coinID string, m *models.MarketData) error {
	if m == nil {
		return nil
	}
	return c.put(ctx, marketKeyPrefix+coinID, m)
}
