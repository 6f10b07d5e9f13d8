package services

import "errors"

var (
	// ErrMarketDataUnavailable means the market data provider failed; predictions cannot be scored without it.
	ErrMarketDataUnavailable = errors.New("market data unavailable")
	// ErrNoCandleSource means every candle source was disabled or failed.
	ErrNoCandleSource = errors.New("no candle source available")
	// ErrCircuitOpen is returned without calling upstream while a breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)
