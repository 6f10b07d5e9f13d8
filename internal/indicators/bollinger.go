package indicators

import "math"

// Band positions, ordered from top to bottom.
const (
	PositionAboveUpper = "Above Upper"
	PositionUpperHalf  = "Upper Half"
	PositionMiddle     = "Middle"
	PositionLowerHalf  = "Lower Half"
	PositionBelowLower = "Below Lower"
)

// BollingerResult is the current band reading.
type BollingerResult struct {
	Upper    float64 `json:"upper"`
	Middle   float64 `json:"middle"`
	Lower    float64 `json:"lower"`
	StdDev   float64 `json:"std_dev"`
	Position string  `json:"position"`
}

// Bollinger computes mean +/- 2 standard deviations over the trailing window
// and classifies the last price into one of five positions.
func Bollinger(prices []float64, period int) BollingerResult {
	price := last(prices)
	if period <= 0 || len(prices) < period {
		return BollingerResult{Upper: price, Middle: price, Lower: price, Position: PositionMiddle}
	}

	window := prices[len(prices)-period:]
	m := mean(window)
	variance := 0.0
	for _, p := range window {
		d := p - m
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))

	return BollingerResult{
		Upper:    m + 2*sd,
		Middle:   m,
		Lower:    m - 2*sd,
		StdDev:   sd,
		Position: bandPosition(price, m, sd),
	}
}

func bandPosition(price, m, sd float64) string {
	switch {
	case price > m+2*sd:
		return PositionAboveUpper
	case price > m+sd:
		return PositionUpperHalf
	case price < m-2*sd:
		return PositionBelowLower
	case price < m-sd:
		return PositionLowerHalf
	default:
		return PositionMiddle
	}
}
