package models

import "time"

// SignalState is the normalized reading of a single indicator.
type SignalState string

const (
	StateBullish SignalState = "bullish"
	StateBearish SignalState = "bearish"
	StateNeutral SignalState = "neutral"
)

// Timeframe selects candle granularity for technical analysis.
type Timeframe string

const (
	Timeframe1h Timeframe = "1h"
	Timeframe4h Timeframe = "4h"
	Timeframe1d Timeframe = "1d"
	Timeframe1w Timeframe = "1w"
)

// ParseTimeframe validates a timeframe string.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch Timeframe(s) {
	case Timeframe1h, Timeframe4h, Timeframe1d, Timeframe1w:
		return Timeframe(s), true
	}
	return "", false
}

// Duration returns the candle width.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case Timeframe4h:
		return 4 * time.Hour
	case Timeframe1d:
		return 24 * time.Hour
	case Timeframe1w:
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}

// TechnicalIndicator is a single indicator reading exposed over the API.
type TechnicalIndicator struct {
	Name        string      `json:"name"`
	Value       float64     `json:"value"`
	Signal      SignalState `json:"signal"`
	Description string      `json:"description"`
}

// TechnicalSummary aggregates the indicator readings.
type TechnicalSummary struct {
	Signal  SignalState `json:"signal"`
	Score   int         `json:"score"`
	Bullish int         `json:"bullish"`
	Bearish int         `json:"bearish"`
	Neutral int         `json:"neutral"`
	Text    string      `json:"text"`
}

// TechnicalMetrics carries supporting market statistics for the candle window.
type TechnicalMetrics struct {
	CurrentPrice  float64 `json:"currentPrice"`
	PriceChange   float64 `json:"priceChange"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	AverageVolume float64 `json:"averageVolume"`
	Volatility    float64 `json:"volatility"`
	ATR           float64 `json:"atr"`
	OBV           float64 `json:"obv"`
}

// TechnicalMeta describes where the analysis came from.
type TechnicalMeta struct {
	Coin        string    `json:"coin"`
	Timeframe   Timeframe `json:"timeframe"`
	Candles     int       `json:"candles"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// TechnicalAnalysis is the payload of the technical endpoint.
type TechnicalAnalysis struct {
	Indicators []TechnicalIndicator `json:"indicators"`
	Summary    TechnicalSummary     `json:"summary"`
	Metrics    TechnicalMetrics     `json:"metrics"`
	Meta       TechnicalMeta        `json:"meta"`
}
