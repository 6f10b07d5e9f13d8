package models

// FundingSentiment is the 5-level scale reported by the derivatives source.
type FundingSentiment string

const (
	FundingExtremeLong  FundingSentiment = "extreme_long"
	FundingBullish      FundingSentiment = "bullish"
	FundingNeutral      FundingSentiment = "neutral"
	FundingBearish      FundingSentiment = "bearish"
	FundingExtremeShort FundingSentiment = "extreme_short"
)

// FundingHeatLevel is the dashboard-facing funding scale.
type FundingHeatLevel string

const (
	HeatExtremeLong  FundingHeatLevel = "extreme_long"
	HeatHighLong     FundingHeatLevel = "high_long"
	HeatNeutral      FundingHeatLevel = "neutral"
	HeatHighShort    FundingHeatLevel = "high_short"
	HeatExtremeShort FundingHeatLevel = "extreme_short"
)

var fundingHeatTable = map[FundingSentiment]FundingHeatLevel{
	FundingExtremeLong:  HeatExtremeLong,
	FundingBullish:      HeatHighLong,
	FundingNeutral:      HeatNeutral,
	FundingBearish:      HeatHighShort,
	FundingExtremeShort: HeatExtremeShort,
}

// RemapFundingHeat translates the upstream scale to the heat scale.
// Unknown values map to neutral.
func RemapFundingHeat(s FundingSentiment) FundingHeatLevel {
	if level, ok := fundingHeatTable[s]; ok {
		return level
	}
	return HeatNeutral
}

// ClassifyFunding buckets a funding rate expressed in percent (0.01 == 0.01%).
func ClassifyFunding(ratePct float64) FundingSentiment {
	switch {
	case ratePct > 0.1:
		return FundingExtremeLong
	case ratePct > 0.03:
		return FundingBullish
	case ratePct < -0.1:
		return FundingExtremeShort
	case ratePct < -0.03:
		return FundingBearish
	default:
		return FundingNeutral
	}
}

// DerivativesData is informational only and never enters the weighted score.
type DerivativesData struct {
	BTCOpenInterest  float64          `json:"btc_open_interest"`
	ETHOpenInterest  float64          `json:"eth_open_interest"`
	BTCFundingRate   float64          `json:"btc_funding_rate"`
	ETHFundingRate   float64          `json:"eth_funding_rate"`
	Liquidations24h  float64          `json:"liquidations_24h"`
	FundingHeatLevel FundingHeatLevel `json:"funding_heat_level"`
}

// DefaultDerivatives is used when the derivatives provider fails.
func DefaultDerivatives() DerivativesData {
	return DerivativesData{FundingHeatLevel: HeatNeutral}
}
