package indicators

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// MACDResult is the current MACD reading.
type MACDResult struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MACDLine returns EMA(12) - EMA(26) at every index where the slow EMA exists.
// Each point equals the MACD recomputed on the price prefix ending at that index.
func MACDLine(prices []float64) []float64 {
	slow := EMASeries(prices, macdSlow)
	if len(slow) == 0 {
		return nil
	}
	fast := EMASeries(prices, macdFast)
	offset := macdSlow - macdFast

	line := make([]float64, len(slow))
	for i := range slow {
		line[i] = fast[i+offset] - slow[i]
	}
	return line
}

// MACD computes the 12/26/9 MACD.
func MACD(prices []float64) MACDResult {
	line := MACDLine(prices)
	if len(line) == 0 {
		m := EMA(prices, macdFast) - EMA(prices, macdSlow)
		return MACDResult{MACD: m, Signal: m}
	}

	m := line[len(line)-1]
	signal := EMA(line, macdSignal)
	return MACDResult{MACD: m, Signal: signal, Histogram: m - signal}
}
