package signals

import (
	"fmt"

	"github.com/irfndi/coinlens-go/internal/models"
)

// Sentiment extremes.
const (
	ExtremeFear  = 25
	ExtremeGreed = 75
)

// AssessSentiment uses the Fear & Greed index directly as the sub-score.
func AssessSentiment(s models.SentimentData) Assessment {
	fg := s.FearGreedIndex
	if fg < 0 {
		fg = 0
	}
	if fg > 100 {
		fg = 100
	}

	b := &builder{category: CategorySentiment}
	points := float64(fg - NeutralScore)
	switch {
	case fg <= ExtremeFear:
		b.add("fear_greed", points, fmt.Sprintf("Extreme fear in the market (Fear & Greed %d)", fg))
	case fg >= ExtremeGreed:
		b.add("fear_greed", points, fmt.Sprintf("Extreme greed in the market (Fear & Greed %d)", fg))
	default:
		label := s.FearGreedLabel
		if label == "" {
			label = "Neutral"
		}
		b.add("fear_greed", points, fmt.Sprintf("Fear & Greed index at %d (%s)", fg, label))
	}
	return b.assessment(NeutralScore)
}

// Quick on-chain heuristic threshold for 24h volume / market cap.
const highTurnover = 0.15

// AssessOnChain scores chain-level DeFi activity. A nil input is neutral.
func AssessOnChain(d *models.OnChainData) Assessment {
	if d == nil {
		return Neutral()
	}

	b := &builder{category: CategoryOnChain}
	if d.TVLChange7d != 0 {
		verb := "up"
		if d.TVLChange7d < 0 {
			verb = "down"
		}
		b.add("tvl_7d", clampRange(d.TVLChange7d*2, -20, 20), fmt.Sprintf("DeFi TVL %s %.1f%% over 7 days", verb, abs(d.TVLChange7d)))
	}

	switch d.CapitalFlow {
	case models.FlowInflow:
		b.add("capital_flow", 10, "Capital is flowing into the network")
	case models.FlowOutflow:
		b.add("capital_flow", -10, "Capital is flowing out of the network")
	}

	if d.StablecoinChange7d != 0 {
		verb := "grew"
		if d.StablecoinChange7d < 0 {
			verb = "shrank"
		}
		b.add("stablecoins_7d", clampRange(d.StablecoinChange7d*2, -10, 10), fmt.Sprintf("Stablecoin supply %s %.1f%% this week", verb, abs(d.StablecoinChange7d)))
	}
	return b.assessment(NeutralScore)
}

// AssessOnChainFromMarket is the quick-mode estimate based on market turnover.
func AssessOnChainFromMarket(m models.MarketData) Assessment {
	b := &builder{category: CategoryOnChain}
	turnover := m.Turnover()
	if turnover >= highTurnover && m.PriceChange24h != 0 {
		points := 10.0
		reason := fmt.Sprintf("Heavy trading activity (%.0f%% turnover) backs the rally", turnover*100)
		if m.PriceChange24h < 0 {
			points = -10
			reason = fmt.Sprintf("Heavy trading activity (%.0f%% turnover) backs the sell-off", turnover*100)
		}
		b.add("turnover", points, reason)
	}
	return b.assessment(NeutralScore)
}

// AssessMacro scores the macro regime.
func AssessMacro(m models.MacroData) Assessment {
	b := &builder{category: CategoryMacro}

	switch {
	case m.VIX < 15:
		b.add("vix", 10, fmt.Sprintf("Low market volatility (VIX %.1f) supports risk assets", m.VIX))
	case m.VIX > 30:
		b.add("vix", -20, fmt.Sprintf("Very high market volatility (VIX %.1f)", m.VIX))
	case m.VIX > 25:
		b.add("vix", -15, fmt.Sprintf("Elevated market volatility (VIX %.1f)", m.VIX))
	}

	switch {
	case m.DXY < 100:
		b.add("dxy", 10, fmt.Sprintf("Weak US dollar (DXY %.1f) favors crypto", m.DXY))
	case m.DXY > 105:
		b.add("dxy", -10, fmt.Sprintf("Strong US dollar (DXY %.1f) weighs on crypto", m.DXY))
	}

	switch {
	case m.FedFundsRate <= 3:
		b.add("fed_funds", 10, fmt.Sprintf("Low interest rates (%.2f%%) support risk assets", m.FedFundsRate))
	case m.FedFundsRate >= 5:
		b.add("fed_funds", -5, fmt.Sprintf("High interest rates (%.2f%%) weigh on risk assets", m.FedFundsRate))
	}

	switch {
	case m.Treasury10Y < 3.5:
		b.add("treasury_10y", 5, fmt.Sprintf("Low 10Y treasury yield (%.2f%%)", m.Treasury10Y))
	case m.Treasury10Y > 4.5:
		b.add("treasury_10y", -5, fmt.Sprintf("High 10Y treasury yield (%.2f%%)", m.Treasury10Y))
	}

	switch m.RiskEnvironment {
	case models.RiskOn:
		b.add("risk_environment", 10, "Macro environment is risk-on")
	case models.RiskOff:
		b.add("risk_environment", -10, "Macro environment is risk-off")
	}

	return b.assessment(NeutralScore)
}

// SummarizeDerivatives builds the informational derivatives block.
func SummarizeDerivatives(d models.DerivativesData) *models.DerivativesSummary {
	heat := d.FundingHeatLevel
	if heat == "" {
		heat = models.HeatNeutral
	}
	return &models.DerivativesSummary{
		BTCFundingRate:   d.BTCFundingRate,
		ETHFundingRate:   d.ETHFundingRate,
		BTCOpenInterest:  d.BTCOpenInterest,
		ETHOpenInterest:  d.ETHOpenInterest,
		Liquidations24h:  d.Liquidations24h,
		FundingHeatLevel: heat,
	}
}
