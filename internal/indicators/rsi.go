package indicators

// RSISeries returns Wilder-smoothed RSI values, one per index from period onward.
func RSISeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}

	var sumGain, sumLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			sumGain += change
		} else {
			sumLoss -= change
		}
	}
	avgGain := sumGain / float64(period)
	avgLoss := sumLoss / float64(period)

	out := make([]float64, 0, len(prices)-period)
	out = append(out, rsiFrom(avgGain, avgLoss))

	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out = append(out, rsiFrom(avgGain, avgLoss))
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// RSI returns the current relative strength index.
// It is 50 with fewer than period+1 prices and 100 when no loss occurred.
func RSI(prices []float64, period int) float64 {
	series := RSISeries(prices, period)
	if len(series) == 0 {
		return 50
	}
	return series[len(series)-1]
}

// StochRSI min-max normalizes the trailing period RSI values into [0,100].
// It is 50 when the window is short or flat.
func StochRSI(prices []float64, period int) float64 {
	series := RSISeries(prices, period)
	if period <= 0 || len(series) < period {
		return 50
	}

	window := series[len(series)-period:]
	lo, hi := window[0], window[0]
	for _, v := range window[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return 50
	}
	return (window[len(window)-1] - lo) / (hi - lo) * 100
}
