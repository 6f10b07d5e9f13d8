package models

import "time"

// Direction is the categorical call of a prediction.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Neutral Direction = "NEUTRAL"
)

// RiskLevel is the coarse risk bucket attached to a prediction.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// DerivativesSummary is surfaced next to a prediction for context only.
type DerivativesSummary struct {
	BTCFundingRate   float64          `json:"btcFundingRate"`
	ETHFundingRate   float64          `json:"ethFundingRate"`
	BTCOpenInterest  float64          `json:"btcOpenInterest"`
	ETHOpenInterest  float64          `json:"ethOpenInterest"`
	Liquidations24h  float64          `json:"liquidations24h"`
	FundingHeatLevel FundingHeatLevel `json:"fundingHeatLevel"`
}

// PredictionResult is the output of the scoring engine.
type PredictionResult struct {
	CoinID         string              `json:"coinId"`
	CoinName       string              `json:"coinName"`
	Prediction     Direction           `json:"prediction"`
	Confidence     int                 `json:"confidence"`
	RiskLevel      RiskLevel           `json:"riskLevel"`
	Reasons        []string            `json:"reasons"`
	TechnicalScore int                 `json:"technicalScore"`
	SentimentScore int                 `json:"sentimentScore"`
	OnChainScore   int                 `json:"onChainScore"`
	MacroScore     int                 `json:"macroScore"`
	OverallScore   int                 `json:"overallScore"`
	Derivatives    *DerivativesSummary `json:"derivatives,omitempty"`
}

// CachedPrediction is the persisted projection of a prediction.
type CachedPrediction struct {
	PredictionResult
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFresh reports whether the entry is still inside its TTL window at now.
func (c *CachedPrediction) IsFresh(now time.Time, ttl time.Duration) bool {
	if c == nil {
		return false
	}
	return now.Sub(c.UpdatedAt) < ttl
}

// CoinRef identifies a coin in a batch request. Name is optional.
type CoinRef struct {
	ID   string `json:"id" binding:"required,coinid"`
	Name string `json:"name"`
}

// BatchPrediction is one slot of a batch response. Failed coins carry Error
// and no Data.
type BatchPrediction struct {
	CoinID  string            `json:"coinId"`
	Success bool              `json:"success"`
	Data    *PredictionResult `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
}
