package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/models"
)

func defaultPredictionConfig() config.PredictionConfig {
	return config.PredictionConfig{
		Weights:          config.WeightsConfig{Technical: 35, Sentiment: 15, OnChain: 30, Macro: 20},
		BullishThreshold: 60,
		BearishThreshold: 40,
		MaxReasons:       6,
		CacheTTL:         2 * time.Minute,
		MaxBatchSize:     10,
		BatchConcurrency: 4,
	}
}

func neutralMacro() models.MacroData {
	return models.MacroData{FedFundsRate: 4, Treasury10Y: 4, VIX: 20, DXY: 102, RiskEnvironment: models.RiskNeutral}
}

func risingCandles(n int) []models.Candle {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price - 1,
			High:      price + 0.5,
			Low:       price - 1.5,
			Close:     price,
			Volume:    1000,
		}
	}
	return candles
}

type fakeSupplemental struct {
	candles      []models.Candle
	onChain      *models.OnChainData
	err          error
	candleCalls  int
	onChainCalls int
}

func (f *fakeSupplemental) FetchCandles(ctx context.Context, coinID string) ([]models.Candle, error) {
	f.candleCalls++
	return f.candles, f.err
}

func (f *fakeSupplemental) FetchOnChain(ctx context.Context, coinID string) (*models.OnChainData, error) {
	f.onChainCalls++
	return f.onChain, f.err
}

func TestPredictionEngine_QuickBullish(t *testing.T) {
	engine := NewPredictionEngine(defaultPredictionConfig(), nil)

	result := engine.GenerateQuickPrediction(PredictionInput{
		CoinID:    "bitcoin",
		CoinName:  "Bitcoin",
		Market:    models.MarketData{PriceChange24h: 5, PriceChange7d: 10, PriceChange30d: 10, Volume24h: 30, MarketCap: 100},
		Sentiment: models.SentimentData{FearGreedIndex: 80, FearGreedLabel: "Extreme Greed"},
		Macro:     models.MacroData{FedFundsRate: 2.5, Treasury10Y: 3, VIX: 12, DXY: 98, RiskEnvironment: models.RiskOn},
	})

	assert.Equal(t, "bitcoin", result.CoinID)
	assert.Equal(t, "Bitcoin", result.CoinName)
	assert.Equal(t, 75, result.TechnicalScore)
	assert.Equal(t, 80, result.SentimentScore)
	assert.Equal(t, 60, result.OnChainScore)
	assert.Equal(t, 95, result.MacroScore)
	assert.Equal(t, 75, result.OverallScore)
	assert.Equal(t, models.Bullish, result.Prediction)
	assert.Equal(t, 65, result.Confidence)
	assert.Equal(t, models.RiskMedium, result.RiskLevel)
	assert.Nil(t, result.Derivatives)

	assert.Equal(t, []string{
		"Extreme greed in the market (Fear & Greed 80)",
		"Price up 5.0% over 24h",
		"Price up 10.0% over 7d",
		"Heavy trading activity (30% turnover) backs the rally",
		"Low market volatility (VIX 12.0) supports risk assets",
		"Weak US dollar (DXY 98.0) favors crypto",
	}, result.Reasons)
}

func TestPredictionEngine_QuickBearish(t *testing.T) {
	engine := NewPredictionEngine(defaultPredictionConfig(), nil)

	result := engine.GenerateQuickPrediction(PredictionInput{
		CoinID:    "ethereum",
		Market:    models.MarketData{PriceChange24h: -10, PriceChange7d: -10, PriceChange30d: -20},
		Sentiment: models.SentimentData{FearGreedIndex: 20},
		Macro:     models.MacroData{FedFundsRate: 5.5, Treasury10Y: 5, VIX: 35, DXY: 108, RiskEnvironment: models.RiskOff},
	})

	assert.Equal(t, 10, result.TechnicalScore)
	assert.Equal(t, 50, result.OnChainScore)
	assert.Equal(t, 0, result.MacroScore)
	assert.Equal(t, 22, result.OverallScore) // 21.5 rounds half away from zero
	assert.Equal(t, models.Bearish, result.Prediction)
	assert.Equal(t, 62, result.Confidence)
	assert.Equal(t, models.RiskHigh, result.RiskLevel)
	assert.Equal(t, "Ethereum", result.CoinName)
	assert.LessOrEqual(t, len(result.Reasons), 6)
}

func TestPredictionEngine_NeutralFallbackReason(t *testing.T) {
	engine := NewPredictionEngine(defaultPredictionConfig(), nil)

	result := engine.GenerateQuickPrediction(PredictionInput{
		CoinID:    "dogecoin",
		Market:    models.MarketData{Name: "Dogecoin"},
		Sentiment: models.DefaultSentiment(),
		Macro:     neutralMacro(),
	})

	assert.Equal(t, 50, result.OverallScore)
	assert.Equal(t, models.Neutral, result.Prediction)
	assert.Equal(t, 30, result.Confidence)
	assert.Equal(t, models.RiskMedium, result.RiskLevel)
	assert.Equal(t, "Dogecoin", result.CoinName)
	assert.Equal(t, []string{"No strong signals detected; outlook is neutral at an overall score of 50"}, result.Reasons)
}

func TestPredictionEngine_Deterministic(t *testing.T) {
	engine := NewPredictionEngine(defaultPredictionConfig(), nil)
	derivatives := models.DerivativesData{BTCFundingRate: 0.02, FundingHeatLevel: models.HeatHighLong}
	in := PredictionInput{
		CoinID:      "solana",
		Market:      models.MarketData{PriceChange24h: 2, PriceChange7d: -3, Volume24h: 10, MarketCap: 50},
		Sentiment:   models.SentimentData{FearGreedIndex: 55},
		Macro:       models.DefaultMacro(),
		Derivatives: &derivatives,
		Candles:     risingCandles(120),
	}

	first := engine.Score(in, false)
	second := engine.Score(in, false)
	assert.Equal(t, first, second)
	require.NotNil(t, first.Derivatives)
	assert.Equal(t, models.HeatHighLong, first.Derivatives.FundingHeatLevel)
}

func TestPredictionEngine_ScoresStayInBounds(t *testing.T) {
	engine := NewPredictionEngine(defaultPredictionConfig(), nil)
	changes := []float64{-80, -12, -3, 0, 4, 9, 16, 60}
	fearGreed := []int{0, 10, 25, 50, 75, 90, 100}
	macros := []models.MacroData{
		models.DefaultMacro(),
		neutralMacro(),
		{FedFundsRate: 1, Treasury10Y: 2, VIX: 10, DXY: 95, RiskEnvironment: models.RiskOn},
		{FedFundsRate: 7, Treasury10Y: 6, VIX: 45, DXY: 112, RiskEnvironment: models.RiskOff},
	}

	for _, change := range changes {
		for _, fg := range fearGreed {
			for _, macro := range macros {
				result := engine.GenerateQuickPrediction(PredictionInput{
					CoinID:    "bitcoin",
					Market:    models.MarketData{PriceChange24h: change, PriceChange7d: change, PriceChange30d: change, Volume24h: 50, MarketCap: 100},
					Sentiment: models.SentimentData{FearGreedIndex: fg},
					Macro:     macro,
				})
				for _, score := range []int{result.TechnicalScore, result.SentimentScore, result.OnChainScore, result.MacroScore, result.OverallScore, result.Confidence} {
					assert.GreaterOrEqual(t, score, 0)
					assert.LessOrEqual(t, score, 100)
				}
				assert.NotEmpty(t, result.Reasons)
				assert.LessOrEqual(t, len(result.Reasons), 6)
			}
		}
	}
}

func TestPredictionEngine_FullModeUsesSupplementalData(t *testing.T) {
	source := &fakeSupplemental{
		candles: risingCandles(250),
		onChain: &models.OnChainData{Chain: "Ethereum", TVLChange7d: 5, CapitalFlow: models.FlowInflow},
	}
	engine := NewPredictionEngine(defaultPredictionConfig(), source)

	result := engine.GenerateCoinPrediction(context.Background(), PredictionInput{
		CoinID:    "ethereum",
		Market:    models.MarketData{},
		Sentiment: models.DefaultSentiment(),
		Macro:     neutralMacro(),
	})

	assert.Equal(t, 1, source.candleCalls)
	assert.Equal(t, 1, source.onChainCalls)
	assert.Equal(t, 70, result.OnChainScore)
	assert.Less(t, result.TechnicalScore, 50) // an extended uptrend reads as overbought
}

func TestPredictionEngine_FullModeSkipsProvidedInputs(t *testing.T) {
	source := &fakeSupplemental{}
	engine := NewPredictionEngine(defaultPredictionConfig(), source)

	engine.GenerateCoinPrediction(context.Background(), PredictionInput{
		CoinID:  "ethereum",
		Candles: risingCandles(30),
		OnChain: &models.OnChainData{},
		Macro:   neutralMacro(),
	})

	assert.Equal(t, 0, source.candleCalls)
	assert.Equal(t, 0, source.onChainCalls)
}

func TestPredictionEngine_FullModeDegradesOnFetchErrors(t *testing.T) {
	source := &fakeSupplemental{err: errors.New("upstream down")}
	engine := NewPredictionEngine(defaultPredictionConfig(), source)

	in := PredictionInput{
		CoinID:    "cardano",
		Market:    models.MarketData{PriceChange24h: 2},
		Sentiment: models.DefaultSentiment(),
		Macro:     neutralMacro(),
	}
	full := engine.GenerateCoinPrediction(context.Background(), in)
	quick := engine.GenerateQuickPrediction(in)

	assert.Equal(t, quick, full)
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		name       string
		change     float64
		fearGreed  int
		confidence int
		want       models.RiskLevel
	}{
		{"calm and confident", 1, 50, 80, models.RiskLow},
		{"modest move", -3, 50, 80, models.RiskMedium},
		{"middling confidence", 0, 50, 45, models.RiskMedium},
		{"large move", 8, 50, 80, models.RiskHigh},
		{"weak confidence", 0, 50, 20, models.RiskHigh},
		{"crash", -15, 50, 90, models.RiskExtreme},
		{"panic", 0, 10, 90, models.RiskExtreme},
		{"euphoria", 0, 90, 90, models.RiskExtreme},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, riskLevel(tt.change, tt.fearGreed, tt.confidence))
		})
	}
}

func TestPredictionEngine_CustomThresholds(t *testing.T) {
	cfg := defaultPredictionConfig()
	cfg.BullishThreshold = 52
	cfg.BearishThreshold = 48
	cfg.MaxReasons = 2
	engine := NewPredictionEngine(cfg, nil)

	result := engine.GenerateQuickPrediction(PredictionInput{
		CoinID:    "bitcoin",
		Market:    models.MarketData{PriceChange24h: 4, PriceChange7d: 1, PriceChange30d: 2},
		Sentiment: models.SentimentData{FearGreedIndex: 60},
		Macro:     neutralMacro(),
	})

	assert.Equal(t, models.Bullish, result.Prediction)
	assert.Len(t, result.Reasons, 2)
}

func TestPredictionEngine_QuickBitcoinScenario(t *testing.T) {
	engine := NewPredictionEngine(defaultPredictionConfig(), nil)
	derivatives := models.DefaultDerivatives()

	result := engine.GenerateQuickPrediction(PredictionInput{
		CoinID:      "bitcoin",
		Market:      models.MarketData{Price: 97000, PriceChange24h: 2.1},
		Sentiment:   models.SentimentData{FearGreedIndex: 65, FearGreedLabel: "Greed"},
		Macro:       models.DefaultMacro(),
		Derivatives: &derivatives,
	})

	// technical 50+2*2.1, macro 50-5 for fed funds at 5.25
	assert.Equal(t, 54, result.TechnicalScore)
	assert.Equal(t, 65, result.SentimentScore)
	assert.Equal(t, 50, result.OnChainScore)
	assert.Equal(t, 45, result.MacroScore)
	assert.Equal(t, 53, result.OverallScore)
	assert.Equal(t, models.Neutral, result.Prediction)
	assert.Equal(t, 27, result.Confidence)
	assert.Equal(t, models.RiskHigh, result.RiskLevel)
	assert.NotEmpty(t, result.Reasons)
	require.NotNil(t, result.Derivatives)
	assert.Equal(t, models.HeatNeutral, result.Derivatives.FundingHeatLevel)
}
