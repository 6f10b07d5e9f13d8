package indicators

import (
	"math"

	"github.com/irfndi/coinlens-go/internal/models"
)

// ADXResult carries trend strength and the directional indicators.
type ADXResult struct {
	ADX     float64 `json:"adx"`
	PlusDI  float64 `json:"plus_di"`
	MinusDI float64 `json:"minus_di"`
}

// ADX computes Wilder's average directional index.
// With fewer than 2*period candles it returns the neutral baseline of 25.
func ADX(candles []models.Candle, period int) ADXResult {
	n := len(candles)
	if period <= 0 || n < 2*period {
		return ADXResult{ADX: 25, PlusDI: 50, MinusDI: 50}
	}

	tr := make([]float64, n-1)
	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	for i := 1; i < n; i++ {
		cur, prev := candles[i], candles[i-1]
		up := cur.High - prev.High
		down := prev.Low - cur.Low
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
		tr[i-1] = math.Max(cur.High-cur.Low, math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))
	}

	var smTR, smPlus, smMinus float64
	for i := 0; i < period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	p := float64(period)
	var plusDI, minusDI float64
	directional := func() float64 {
		plusDI, minusDI = 0, 0
		if smTR > 0 {
			plusDI = 100 * smPlus / smTR
			minusDI = 100 * smMinus / smTR
		}
		if plusDI+minusDI == 0 {
			return 0
		}
		return 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
	}

	dx := []float64{directional()}
	for i := period; i < n-1; i++ {
		smTR = smTR - smTR/p + tr[i]
		smPlus = smPlus - smPlus/p + plusDM[i]
		smMinus = smMinus - smMinus/p + minusDM[i]
		dx = append(dx, directional())
	}

	adx := mean(dx[:period])
	for _, v := range dx[period:] {
		adx = (adx*(p-1) + v) / p
	}
	return ADXResult{ADX: adx, PlusDI: plusDI, MinusDI: minusDI}
}

// CCI computes the commodity channel index over the trailing period.
// It is 0 when the history is short or the mean deviation is 0.
func CCI(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}

	window := candles[len(candles)-period:]
	tps := make([]float64, period)
	for i, c := range window {
		tps[i] = (c.High + c.Low + c.Close) / 3
	}
	sma := mean(tps)

	dev := 0.0
	for _, tp := range tps {
		dev += math.Abs(tp - sma)
	}
	dev /= float64(period)
	if dev == 0 {
		return 0
	}
	return (tps[period-1] - sma) / (0.015 * dev)
}

// WilliamsR computes Williams %R in [-100, 0].
// It is -50 when the history is short or the range is flat.
func WilliamsR(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return -50
	}

	window := candles[len(candles)-period:]
	hh, ll := window[0].High, window[0].Low
	for _, c := range window[1:] {
		hh = math.Max(hh, c.High)
		ll = math.Min(ll, c.Low)
	}
	if hh == ll {
		return -50
	}
	return (hh - window[period-1].Close) / (hh - ll) * -100
}
