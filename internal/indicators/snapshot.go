package indicators

import "github.com/irfndi/coinlens-go/internal/models"

// Default lookback periods.
const (
	RSIPeriod       = 14
	StochRSIPeriod  = 14
	BollingerPeriod = 20
	ADXPeriod       = 14
	CCIPeriod       = 20
	WilliamsPeriod  = 14
)

// Snapshot holds every indicator reading for the latest candle.
type Snapshot struct {
	Price     float64         `json:"price"`
	Candles   int             `json:"candles"`
	RSI       float64         `json:"rsi"`
	StochRSI  float64         `json:"stoch_rsi"`
	SMA20     float64         `json:"sma_20"`
	SMA50     float64         `json:"sma_50"`
	SMA200    float64         `json:"sma_200"`
	EMA12     float64         `json:"ema_12"`
	EMA26     float64         `json:"ema_26"`
	MACD      MACDResult      `json:"macd"`
	Bollinger BollingerResult `json:"bollinger"`
	ADX       ADXResult       `json:"adx"`
	CCI       float64         `json:"cci"`
	WilliamsR float64         `json:"williams_r"`
}

// Compute evaluates all indicators over an ascending candle sequence.
func Compute(candles []models.Candle) Snapshot {
	closes := models.Closes(candles)
	return Snapshot{
		Price:     last(closes),
		Candles:   len(candles),
		RSI:       RSI(closes, RSIPeriod),
		StochRSI:  StochRSI(closes, StochRSIPeriod),
		SMA20:     SMA(closes, 20),
		SMA50:     SMA(closes, 50),
		SMA200:    SMA(closes, 200),
		EMA12:     EMA(closes, 12),
		EMA26:     EMA(closes, 26),
		MACD:      MACD(closes),
		Bollinger: Bollinger(closes, BollingerPeriod),
		ADX:       ADX(candles, ADXPeriod),
		CCI:       CCI(candles, CCIPeriod),
		WilliamsR: WilliamsR(candles, WilliamsPeriod),
	}
}
