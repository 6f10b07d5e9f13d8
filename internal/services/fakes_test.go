package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"

	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/metrics"
	"github.com/irfndi/coinlens-go/internal/models"
)

var errProviderDown = errors.New("provider down")

type mockMarket struct {
	mock.Mock
}

func (m *mockMarket) GetMarketData(ctx context.Context, coinID string) (*models.MarketData, error) {
	args := m.Called(ctx, coinID)
	data, _ := args.Get(0).(*models.MarketData)
	return data, args.Error(1)
}

type fakeSentiment struct {
	data models.SentimentData
	err  error
}

func (f fakeSentiment) GetSentiment(context.Context) (models.SentimentData, error) {
	return f.data, f.err
}

type fakeMacro struct {
	data models.MacroData
	err  error
}

func (f fakeMacro) GetMacroData(context.Context) (models.MacroData, error) {
	return f.data, f.err
}

type fakeDerivatives struct {
	data models.DerivativesData
	err  error
}

func (f fakeDerivatives) GetDerivatives(context.Context) (models.DerivativesData, error) {
	return f.data, f.err
}

type fakeOnChain struct {
	data *models.OnChainData
	err  error
}

func (f fakeOnChain) GetOnChainData(context.Context, string) (*models.OnChainData, error) {
	return f.data, f.err
}

type fakeKlines struct {
	candles  []models.Candle
	err      error
	symbol   string
	interval string
	limit    int
	calls    atomic.Int32
}

func (f *fakeKlines) GetKlines(_ context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	f.calls.Add(1)
	f.symbol, f.interval, f.limit = symbol, interval, limit
	return f.candles, f.err
}

type fakeChart struct {
	prices  []models.SeriesPoint
	volumes []models.SeriesPoint
	err     error
	days    int
}

func (f *fakeChart) GetMarketChart(_ context.Context, _ string, days int) ([]models.SeriesPoint, []models.SeriesPoint, error) {
	f.days = days
	return f.prices, f.volumes, f.err
}

func allFlags() config.FeatureFlags {
	return config.FeatureFlags{MarketData: true, Sentiment: true, Macro: true, Derivatives: true, Klines: true, OnChain: true}
}

func testProviders() config.ProvidersConfig {
	p := config.ProviderConfig{Enabled: true, Timeout: time.Second}
	return config.ProvidersConfig{
		CoinGecko:   p,
		FearGreed:   p,
		Macro:       config.MacroConfig{ProviderConfig: p},
		Derivatives: p,
		Klines:      p,
		DefiLlama:   config.DefiLlamaConfig{ProviderConfig: p},
	}
}

func testRecorder() (*metrics.Recorder, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return metrics.NewWithRegistry(reg, reg), reg
}

func testGuard(rec *metrics.Recorder) *ProviderGuard {
	logger := quietLogger()
	breakers := NewCircuitBreakerManager(CircuitBreakerConfig{FailureThreshold: 2, Timeout: time.Minute}, logger)
	return NewProviderGuard(breakers, rec, logger)
}

func newTestSources(up Upstreams, flags config.FeatureFlags) *DataSources {
	return NewDataSources(up, DataSourcesConfig{Providers: testProviders(), Flags: flags}, testGuard(nil), quietLogger())
}

func bitcoinMarket() *models.MarketData {
	return &models.MarketData{
		CoinID:         "bitcoin",
		Symbol:         "btc",
		Name:           "Bitcoin",
		Price:          65000,
		PriceChange24h: 4,
		PriceChange7d:  9,
		PriceChange30d: 15,
		Volume24h:      3e10,
		MarketCap:      1.2e12,
		High24h:        66000,
		Low24h:         62000,
	}
}

func hourlySeries(n int, start float64) ([]models.SeriesPoint, []models.SeriesPoint) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]models.SeriesPoint, n)
	volumes := make([]models.SeriesPoint, n)
	for i := range prices {
		ts := t0.Add(time.Duration(i) * time.Hour)
		prices[i] = models.SeriesPoint{Timestamp: ts, Value: start + float64(i)}
		volumes[i] = models.SeriesPoint{Timestamp: ts, Value: 10}
	}
	return prices, volumes
}
