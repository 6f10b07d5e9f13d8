package models

// MarketData is a point-in-time market snapshot for a single coin.
// Numeric fields are zero when the upstream payload omits them.
type MarketData struct {
	CoinID         string  `json:"coin_id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	PriceChange24h float64 `json:"price_change_24h"`
	PriceChange7d  float64 `json:"price_change_7d"`
	PriceChange30d float64 `json:"price_change_30d"`
	Volume24h      float64 `json:"volume_24h"`
	MarketCap      float64 `json:"market_cap"`
	High24h        float64 `json:"high_24h"`
	Low24h         float64 `json:"low_24h"`
}

// Turnover returns the 24h volume to market cap ratio, or 0 when market cap is unknown.
func (m *MarketData) Turnover() float64 {
	if m == nil || m.MarketCap <= 0 {
		return 0
	}
	return m.Volume24h / m.MarketCap
}

// SentimentData carries the Fear & Greed reading.
type SentimentData struct {
	FearGreedIndex int    `json:"fear_greed_index"`
	FearGreedLabel string `json:"fear_greed_label"`
}

// DefaultSentiment is the neutral value used when the sentiment provider is unavailable.
func DefaultSentiment() SentimentData {
	return SentimentData{FearGreedIndex: 50, FearGreedLabel: "Neutral"}
}

// RiskEnvironment classifies the macro regime.
type RiskEnvironment string

const (
	RiskOn      RiskEnvironment = "risk_on"
	RiskOff     RiskEnvironment = "risk_off"
	RiskNeutral RiskEnvironment = "neutral"
)

// Fallback macro values representing a typical regime.
const (
	DefaultFedFundsRate = 5.25
	DefaultTreasury10Y  = 4.5
	DefaultVIX          = 20.0
	DefaultDXY          = 104.0
)

// MacroData holds the macro indicators used by the macro sub-score.
type MacroData struct {
	FedFundsRate    float64         `json:"fed_funds_rate"`
	Treasury10Y     float64         `json:"treasury_10y"`
	VIX             float64         `json:"vix"`
	DXY             float64         `json:"dxy"`
	RiskEnvironment RiskEnvironment `json:"risk_environment"`
}

// DefaultMacro returns the degrade-gracefully macro snapshot.
func DefaultMacro() MacroData {
	m := MacroData{
		FedFundsRate: DefaultFedFundsRate,
		Treasury10Y:  DefaultTreasury10Y,
		VIX:          DefaultVIX,
		DXY:          DefaultDXY,
	}
	m.RiskEnvironment = ClassifyRiskEnvironment(m.VIX, m.DXY)
	return m
}

// ClassifyRiskEnvironment derives the regime from VIX and DXY.
func ClassifyRiskEnvironment(vix, dxy float64) RiskEnvironment {
	switch {
	case vix > 25 || dxy > 106:
		return RiskOff
	case vix < 18 && dxy < 103:
		return RiskOn
	default:
		return RiskNeutral
	}
}

// CapitalFlow is the direction of capital on-chain.
type CapitalFlow string

const (
	FlowInflow  CapitalFlow = "inflow"
	FlowOutflow CapitalFlow = "outflow"
	FlowNeutral CapitalFlow = "neutral"
)

// OnChainData summarizes chain-level DeFi activity for a coin's native chain.
type OnChainData struct {
	Chain              string      `json:"chain"`
	TVL                float64     `json:"tvl"`
	TVLChange1d        float64     `json:"tvl_change_1d"`
	TVLChange7d        float64     `json:"tvl_change_7d"`
	CapitalFlow        CapitalFlow `json:"capital_flow"`
	StablecoinChange7d float64     `json:"stablecoin_change_7d"`
}
