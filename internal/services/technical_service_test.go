package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/models"
	"github.com/irfndi/coinlens-go/internal/utils"
)

func newTestTechnical(up Upstreams, flags config.FeatureFlags, cfg config.TechnicalConfig) *TechnicalService {
	svc := NewTechnicalService(newTestSources(up, flags), cfg, quietLogger())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestTechnicalService_AnalyzeFromKlines(t *testing.T) {
	klines := &fakeKlines{candles: risingCandles(60)}
	svc := newTestTechnical(Upstreams{Klines: klines}, allFlags(), config.TechnicalConfig{})

	analysis, err := svc.Analyze(context.Background(), "bitcoin", "")
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", klines.symbol)
	assert.Equal(t, "1d", klines.interval)
	assert.Equal(t, defaultCandleLimit, klines.limit)

	assert.Equal(t, SourceBinance, analysis.Meta.Source)
	assert.Equal(t, models.Timeframe1d, analysis.Meta.Timeframe)
	assert.Equal(t, 60, analysis.Meta.Candles)
	assert.Equal(t, "bitcoin", analysis.Meta.Coin)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), analysis.Meta.GeneratedAt)

	require.Len(t, analysis.Indicators, 10)
	for _, ind := range analysis.Indicators {
		assert.NotEmpty(t, ind.Name)
		assert.NotEmpty(t, ind.Description, ind.Name)
	}
	s := analysis.Summary
	assert.Equal(t, len(analysis.Indicators), s.Bullish+s.Bearish+s.Neutral)
	assert.GreaterOrEqual(t, s.Score, 0)
	assert.LessOrEqual(t, s.Score, 100)
	assert.NotEmpty(t, s.Text)

	m := analysis.Metrics
	assert.Equal(t, 159.0, m.CurrentPrice)
	assert.Equal(t, 159.5, m.High)
	assert.Equal(t, 98.5, m.Low)
	assert.Equal(t, 1000.0, m.AverageVolume)
	assert.Equal(t, 59.0, m.PriceChange)
	assert.Greater(t, m.ATR, 0.0)
	assert.Greater(t, m.Volatility, 0.0)
}

func TestTechnicalService_FallsBackToMarketChart(t *testing.T) {
	prices, volumes := hourlySeries(48, 100)
	chart := &fakeChart{prices: prices, volumes: volumes}
	klines := &fakeKlines{err: errProviderDown}
	svc := newTestTechnical(Upstreams{Klines: klines, Chart: chart}, allFlags(), config.TechnicalConfig{CandleLimit: 24})

	analysis, err := svc.Analyze(context.Background(), "bitcoin", "1h")
	require.NoError(t, err)
	assert.Equal(t, SourceCoinGecko, analysis.Meta.Source)
	assert.Equal(t, 24, analysis.Meta.Candles)
	assert.Equal(t, 1, chart.days)
	assert.Equal(t, 147.0, analysis.Metrics.CurrentPrice)
	assert.Equal(t, int32(1), klines.calls.Load())
}

func TestTechnicalService_UnknownBinanceSymbolUsesChart(t *testing.T) {
	prices, volumes := hourlySeries(30, 1)
	chart := &fakeChart{prices: prices, volumes: volumes}
	klines := &fakeKlines{}
	svc := newTestTechnical(Upstreams{Klines: klines, Chart: chart}, allFlags(), config.TechnicalConfig{})

	analysis, err := svc.Analyze(context.Background(), "some-obscure-coin", "1h")
	require.NoError(t, err)
	assert.Equal(t, SourceCoinGecko, analysis.Meta.Source)
	assert.Zero(t, klines.calls.Load())
}

func TestTechnicalService_InvalidTimeframe(t *testing.T) {
	svc := newTestTechnical(Upstreams{}, allFlags(), config.TechnicalConfig{})

	_, err := svc.Analyze(context.Background(), "bitcoin", "15m")
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err))
}

func TestTechnicalService_NoCandleSource(t *testing.T) {
	tests := []struct {
		name  string
		up    Upstreams
		flags config.FeatureFlags
	}{
		{name: "all disabled", up: Upstreams{Klines: &fakeKlines{}, Chart: &fakeChart{}}, flags: noFlags()},
		{name: "all failing", up: Upstreams{Klines: &fakeKlines{err: errProviderDown}, Chart: &fakeChart{err: errProviderDown}}, flags: allFlags()},
		{name: "too few candles", up: Upstreams{Klines: &fakeKlines{candles: risingCandles(1)}}, flags: allFlags()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestTechnical(tt.up, tt.flags, config.TechnicalConfig{})
			_, err := svc.Analyze(context.Background(), "bitcoin", "1d")
			assert.ErrorIs(t, err, ErrNoCandleSource)
		})
	}
}

func TestTechnicalService_SupplementalSource(t *testing.T) {
	onChain := &models.OnChainData{Chain: "Ethereum", CapitalFlow: models.FlowOutflow}
	svc := newTestTechnical(Upstreams{
		Klines:  &fakeKlines{candles: risingCandles(30)},
		OnChain: fakeOnChain{data: onChain},
	}, allFlags(), config.TechnicalConfig{DefaultTimeframe: "bogus"})

	var source SupplementalSource = svc
	candles, err := source.FetchCandles(context.Background(), "ethereum")
	require.NoError(t, err)
	assert.Len(t, candles, 30)

	got, err := source.FetchOnChain(context.Background(), "ethereum")
	require.NoError(t, err)
	assert.Equal(t, onChain, got)
}

func TestChartDays(t *testing.T) {
	assert.Equal(t, 250, chartDays(models.Timeframe1d, 250))
	assert.Equal(t, maxChartDays, chartDays(models.Timeframe1w, 250))
	assert.Equal(t, 1, chartDays(models.Timeframe1h, 10))
	assert.Equal(t, 42, chartDays(models.Timeframe4h, 250))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.2345))
	assert.Equal(t, -0.5, round2(-0.499))
	assert.Zero(t, round2(0))
}
