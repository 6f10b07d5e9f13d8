package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/coinlens-go/internal/cache"
	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/models"
)

// Provider names used for breakers, spans and metrics.
const (
	ProviderCoinGecko   = "coingecko"
	ProviderFearGreed   = "alternative_me"
	ProviderMacro       = "fred"
	ProviderDerivatives = "binance_futures"
	ProviderKlines      = "binance_klines"
	ProviderDefiLlama   = "defillama"
)

type MarketDataProvider interface {
	GetMarketData(ctx context.Context, coinID string) (*models.MarketData, error)
}

type SentimentProvider interface {
	GetSentiment(ctx context.Context) (models.SentimentData, error)
}

type MacroProvider interface {
	GetMacroData(ctx context.Context) (models.MacroData, error)
}

type DerivativesProvider interface {
	GetDerivatives(ctx context.Context) (models.DerivativesData, error)
}

type OnChainProvider interface {
	GetOnChainData(ctx context.Context, coinID string) (*models.OnChainData, error)
}

// Upstreams groups the provider clients. Any field may be nil, which behaves
// like a disabled provider.
type Upstreams struct {
	Market      MarketDataProvider
	Sentiment   SentimentProvider
	Macro       MacroProvider
	Derivatives DerivativesProvider
	OnChain     OnChainProvider
	Klines      KlineProvider
	Chart       MarketChartProvider
}

// DataSources fetches every scoring input through the provider guard and
// substitutes the documented default whenever a non-market source fails.
type DataSources struct {
	upstreams  Upstreams
	flags      config.FeatureFlags
	providers  config.ProvidersConfig
	guard      *ProviderGuard
	marketData *cache.MarketCache
	tasks      *BackgroundTasks
	logger     *logrus.Logger
}

type DataSourcesConfig struct {
	Providers   config.ProvidersConfig
	Flags       config.FeatureFlags
	MarketCache *cache.MarketCache
	Tasks       *BackgroundTasks
}

func NewDataSources(upstreams Upstreams, cfg DataSourcesConfig, guard *ProviderGuard, logger *logrus.Logger) *DataSources {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if guard == nil {
		guard = NewProviderGuard(nil, nil, logger)
	}
	return &DataSources{
		upstreams:  upstreams,
		flags:      cfg.Flags,
		providers:  cfg.Providers,
		guard:      guard,
		marketData: cfg.MarketCache,
		tasks:      cfg.Tasks,
		logger:     logger,
	}
}

// Flags returns the feature flags the sources were built with.
func (d *DataSources) Flags() config.FeatureFlags {
	return d.flags
}

// Market returns the market snapshot, served from the market cache when possible.
// Any failure is reported as ErrMarketDataUnavailable.
func (d *DataSources) Market(ctx context.Context, coinID string) (*models.MarketData, error) {
	if !d.flags.MarketData || d.upstreams.Market == nil {
		d.guard.Disabled(ProviderCoinGecko)
		return nil, fmt.Errorf("%s: %w", ProviderCoinGecko, ErrMarketDataUnavailable)
	}

	if d.marketData != nil {
		if cached, ok, err := d.marketData.Get(ctx, coinID); err == nil && ok {
			return cached, nil
		} else if err != nil {
			d.logger.WithError(err).WithField("coin", coinID).Warn("Market cache lookup failed")
		}
	}

	market, err := guardedFetch(ctx, d.guard, ProviderCoinGecko, d.providers.CoinGecko.Timeout,
		func(ctx context.Context) (*models.MarketData, error) {
			return d.upstreams.Market.GetMarketData(ctx, coinID)
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarketDataUnavailable, err)
	}

	if d.marketData != nil && d.tasks != nil {
		snapshot := *market
		d.tasks.Go(ctx, "market_cache_write", func(ctx context.Context) error {
			return d.marketData.Put(ctx, coinID, &snapshot)
		})
	}
	return market, nil
}

// Sentiment returns the Fear & Greed reading or the neutral default.
func (d *DataSources) Sentiment(ctx context.Context) models.SentimentData {
	if !d.flags.Sentiment || d.upstreams.Sentiment == nil {
		d.guard.Disabled(ProviderFearGreed)
		return models.DefaultSentiment()
	}
	data, err := guardedFetch(ctx, d.guard, ProviderFearGreed, d.providers.FearGreed.Timeout, d.upstreams.Sentiment.GetSentiment)
	if err != nil {
		return models.DefaultSentiment()
	}
	return data
}

// Macro returns the macro snapshot or the documented defaults.
func (d *DataSources) Macro(ctx context.Context) models.MacroData {
	if !d.flags.Macro || d.upstreams.Macro == nil {
		d.guard.Disabled(ProviderMacro)
		return models.DefaultMacro()
	}
	data, err := guardedFetch(ctx, d.guard, ProviderMacro, d.providers.Macro.Timeout, d.upstreams.Macro.GetMacroData)
	if err != nil {
		return models.DefaultMacro()
	}
	return data
}

// Derivatives returns the derivatives summary or nil when it is unavailable.
func (d *DataSources) Derivatives(ctx context.Context) *models.DerivativesData {
	if !d.flags.Derivatives || d.upstreams.Derivatives == nil {
		d.guard.Disabled(ProviderDerivatives)
		return nil
	}
	data, err := guardedFetch(ctx, d.guard, ProviderDerivatives, d.providers.Derivatives.Timeout, d.upstreams.Derivatives.GetDerivatives)
	if err != nil {
		return nil
	}
	return &data
}

// OnChain returns chain-level DeFi data for the coin's native chain.
func (d *DataSources) OnChain(ctx context.Context, coinID string) (*models.OnChainData, error) {
	if !d.flags.OnChain || d.upstreams.OnChain == nil {
		d.guard.Disabled(ProviderDefiLlama)
		return nil, errProviderDisabled
	}
	return guardedFetch(ctx, d.guard, ProviderDefiLlama, d.providers.DefiLlama.Timeout,
		func(ctx context.Context) (*models.OnChainData, error) {
			return d.upstreams.OnChain.GetOnChainData(ctx, coinID)
		})
}

var errProviderDisabled = errors.New("provider disabled")
