package indicators

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/volatility"

	"github.com/irfndi/coinlens-go/internal/models"
)

// ATR returns the latest 14-period average true range, or 0 if it cannot be computed.
func ATR(candles []models.Candle) float64 {
	if len(candles) < 15 {
		return 0
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i], lows[i], closes[i] = c.High, c.Low, c.Close
	}

	atr := volatility.NewAtr[float64]()
	result := helper.ChanToSlice(atr.Compute(
		helper.SliceToChan(highs),
		helper.SliceToChan(lows),
		helper.SliceToChan(closes),
	))
	if len(result) == 0 {
		return 0
	}
	return result[len(result)-1]
}

// OBV returns the latest on-balance volume: volume is added on an up close,
// subtracted on a down close and ignored when the close is unchanged.
// cinar's Obv compares each close with the running total, not the previous
// close, so it is not used here.
func OBV(candles []models.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}

	obv := 0.0
	for i := 1; i < len(candles); i++ {
		switch prev, cur := candles[i-1].Close, candles[i].Close; {
		case cur > prev:
			obv += candles[i].Volume
		case cur < prev:
			obv -= candles[i].Volume
		}
	}
	return obv
}
