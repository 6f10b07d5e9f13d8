package models

import (
	"math"
	"sort"
	"time"
)

// Candle is a single OHLCV bar. Sequences are ordered by ascending timestamp.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// SeriesPoint is a timestamped value from a price or volume time series.
type SeriesPoint struct {
	Timestamp time.Time
	Value     float64
}

// Closes extracts closing prices.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// BucketCandles groups a price series (with optional matching volume series) into
// fixed-width candles. Volumes are matched to the bucket of their timestamp and summed.
func BucketCandles(prices, volumes []SeriesPoint, bucket time.Duration) []Candle {
	if len(prices) == 0 || bucket <= 0 {
		return nil
	}

	sorted := make([]SeriesPoint, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var candles []Candle
	index := make(map[int64]int)
	for _, p := range sorted {
		start := p.Timestamp.Truncate(bucket)
		key := start.UnixNano()
		i, ok := index[key]
		if !ok {
			candles = append(candles, Candle{
				Timestamp: start,
				Open:      p.Value,
				High:      p.Value,
				Low:       p.Value,
				Close:     p.Value,
			})
			index[key] = len(candles) - 1
			continue
		}
		c := &candles[i]
		c.High = math.Max(c.High, p.Value)
		c.Low = math.Min(c.Low, p.Value)
		c.Close = p.Value
	}

	for _, v := range volumes {
		if i, ok := index[v.Timestamp.Truncate(bucket).UnixNano()]; ok {
			candles[i].Volume += v.Value
		}
	}

	return candles
}
