// Package indicators computes current-value technical indicator readings.
//
// Every function is total: when there is not enough history it returns a
// neutral sentinel instead of an error, so callers can always score.
package indicators

func last(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	return prices[len(prices)-1]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SMA returns the arithmetic mean of the last period values.
// With fewer than period values it returns the last price.
func SMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return last(prices)
	}
	return mean(prices[len(prices)-period:])
}

// EMASeries returns the EMA value at every index from period-1 onward.
// The series is seeded with the SMA of the first period values.
func EMASeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(prices)-period+1)
	ema := mean(prices[:period])
	out = append(out, ema)
	for _, price := range prices[period:] {
		ema = price*k + ema*(1-k)
		out = append(out, ema)
	}
	return out
}

// EMA returns the current exponential moving average.
// With fewer than period values it returns the last price.
func EMA(prices []float64, period int) float64 {
	series := EMASeries(prices, period)
	if len(series) == 0 {
		return last(prices)
	}
	return series[len(series)-1]
}
