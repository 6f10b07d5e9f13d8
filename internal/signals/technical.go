package signals

import (
	"fmt"
	"strings"

	"github.com/irfndi/coinlens-go/internal/indicators"
	"github.com/irfndi/coinlens-go/internal/models"
)

// Indicator thresholds.
const (
	RSIOverbought      = 70.0
	RSIOversold        = 30.0
	StochOverbought    = 80.0
	StochOversold      = 20.0
	CCIOverbought      = 100.0
	CCIOversold        = -100.0
	WilliamsOverbought = -20.0
	WilliamsOversold   = -80.0
	ADXTrending        = 25.0
	adxAmplifier       = 1.2
)

// Points awarded per technical signal.
const (
	rsiPoints       = 15.0
	macdPoints      = 10.0
	smaPoints       = 5.0
	bollingerPoints = 5.0
	stochPoints     = 5.0
	cciPoints       = 5.0
	williamsPoints  = 5.0
)

// RSIState: above 70 is overbought (bearish), below 30 oversold (bullish).
func RSIState(rsi float64) models.SignalState {
	switch {
	case rsi > RSIOverbought:
		return models.StateBearish
	case rsi < RSIOversold:
		return models.StateBullish
	}
	return models.StateNeutral
}

// PriceVsMAState compares price to a moving average.
func PriceVsMAState(price, ma float64) models.SignalState {
	switch {
	case price > ma:
		return models.StateBullish
	case price < ma:
		return models.StateBearish
	}
	return models.StateNeutral
}

// MACDState follows the sign of the histogram.
func MACDState(histogram float64) models.SignalState {
	switch {
	case histogram > 0:
		return models.StateBullish
	case histogram < 0:
		return models.StateBearish
	}
	return models.StateNeutral
}

// BollingerState reads the band position: any lower position is bullish, any upper position bearish.
func BollingerState(position string) models.SignalState {
	switch {
	case strings.Contains(position, "Lower"):
		return models.StateBullish
	case strings.Contains(position, "Upper"):
		return models.StateBearish
	}
	return models.StateNeutral
}

// StochRSIState: above 80 overbought, below 20 oversold.
func StochRSIState(v float64) models.SignalState {
	switch {
	case v > StochOverbought:
		return models.StateBearish
	case v < StochOversold:
		return models.StateBullish
	}
	return models.StateNeutral
}

// CCIState: beyond +100 overbought, beyond -100 oversold.
func CCIState(v float64) models.SignalState {
	switch {
	case v > CCIOverbought:
		return models.StateBearish
	case v < CCIOversold:
		return models.StateBullish
	}
	return models.StateNeutral
}

// WilliamsRState: above -20 overbought, below -80 oversold.
func WilliamsRState(v float64) models.SignalState {
	switch {
	case v > WilliamsOverbought:
		return models.StateBearish
	case v < WilliamsOversold:
		return models.StateBullish
	}
	return models.StateNeutral
}

func pointsFor(state models.SignalState, weight float64) float64 {
	switch state {
	case models.StateBullish:
		return weight
	case models.StateBearish:
		return -weight
	}
	return 0
}

// AssessTechnical scores a full indicator snapshot.
func AssessTechnical(s indicators.Snapshot) Assessment {
	b := &builder{category: CategoryTechnical}

	switch RSIState(s.RSI) {
	case models.StateBullish:
		b.add("RSI", rsiPoints, fmt.Sprintf("RSI indicates oversold conditions (%.1f)", s.RSI))
	case models.StateBearish:
		b.add("RSI", -rsiPoints, fmt.Sprintf("RSI indicates overbought conditions (%.1f)", s.RSI))
	}

	switch MACDState(s.MACD.Histogram) {
	case models.StateBullish:
		b.add("MACD", macdPoints, "MACD histogram is positive, momentum is building")
	case models.StateBearish:
		b.add("MACD", -macdPoints, "MACD histogram is negative, momentum is fading")
	}

	for _, ma := range []struct {
		name  string
		value float64
	}{{"SMA20", s.SMA20}, {"SMA50", s.SMA50}, {"SMA200", s.SMA200}} {
		state := PriceVsMAState(s.Price, ma.value)
		if state == models.StateNeutral {
			continue
		}
		side := "above"
		if state == models.StateBearish {
			side = "below"
		}
		b.add(ma.name, pointsFor(state, smaPoints), fmt.Sprintf("Price is %s the %s", side, ma.name))
	}

	switch BollingerState(s.Bollinger.Position) {
	case models.StateBullish:
		b.add("Bollinger", bollingerPoints, "Price is near the lower Bollinger Band")
	case models.StateBearish:
		b.add("Bollinger", -bollingerPoints, "Price is near the upper Bollinger Band")
	}

	switch StochRSIState(s.StochRSI) {
	case models.StateBullish:
		b.add("StochRSI", stochPoints, "Stochastic RSI is oversold")
	case models.StateBearish:
		b.add("StochRSI", -stochPoints, "Stochastic RSI is overbought")
	}

	switch CCIState(s.CCI) {
	case models.StateBullish:
		b.add("CCI", cciPoints, fmt.Sprintf("CCI signals oversold conditions (%.0f)", s.CCI))
	case models.StateBearish:
		b.add("CCI", -cciPoints, fmt.Sprintf("CCI signals overbought conditions (%.0f)", s.CCI))
	}

	switch WilliamsRState(s.WilliamsR) {
	case models.StateBullish:
		b.add("WilliamsR", williamsPoints, "Williams %R signals oversold conditions")
	case models.StateBearish:
		b.add("WilliamsR", -williamsPoints, "Williams %R signals overbought conditions")
	}

	if s.ADX.ADX > ADXTrending {
		b.total *= adxAmplifier
		b.info("ADX", 1, fmt.Sprintf("ADX %.1f confirms a strong trend", s.ADX.ADX))
	}

	return b.assessment(NeutralScore)
}

// AssessTechnicalFromMarket estimates the technical score from price changes alone.
func AssessTechnicalFromMarket(m models.MarketData) Assessment {
	b := &builder{category: CategoryTechnical}
	for _, w := range []struct {
		label  string
		change float64
		factor float64
	}{
		{"24h", m.PriceChange24h, 2},
		{"7d", m.PriceChange7d, 1},
		{"30d", m.PriceChange30d, 0.5},
	} {
		if w.change == 0 {
			continue
		}
		verb := "up"
		if w.change < 0 {
			verb = "down"
		}
		b.add("change_"+w.label, w.change*w.factor, fmt.Sprintf("Price %s %.1f%% over %s", verb, abs(w.change), w.label))
	}
	return b.assessment(NeutralScore)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
