package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/indicators"
	"github.com/irfndi/coinlens-go/internal/models"
	"github.com/irfndi/coinlens-go/internal/providers"
	"github.com/irfndi/coinlens-go/internal/signals"
	"github.com/irfndi/coinlens-go/internal/telemetry"
	"github.com/irfndi/coinlens-go/internal/utils"
)

// Candle sources reported in the analysis meta.
const (
	SourceBinance   = "binance"
	SourceCoinGecko = "coingecko"
)

const (
	defaultCandleLimit = 250
	maxChartDays       = 365
	minCandles         = 2
)

type KlineProvider interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

type MarketChartProvider interface {
	GetMarketChart(ctx context.Context, coinID string, days int) ([]models.SeriesPoint, []models.SeriesPoint, error)
}

// TechnicalService builds indicator readings for one coin and timeframe.
type TechnicalService struct {
	sources *DataSources
	config  config.TechnicalConfig
	logger  *logrus.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewTechnicalService(sources *DataSources, cfg config.TechnicalConfig, logger *logrus.Logger) *TechnicalService {
	if cfg.CandleLimit <= 0 {
		cfg.CandleLimit = defaultCandleLimit
	}
	if _, ok := models.ParseTimeframe(cfg.DefaultTimeframe); !ok {
		cfg.DefaultTimeframe = string(models.Timeframe1d)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TechnicalService{
		sources: sources,
		config:  cfg,
		logger:  logger,
		tracer:  telemetry.GetBusinessTracer(),
		now:     time.Now,
	}
}

// Analyze computes the indicator set for coinID. An empty timeframe uses the default.
func (s *TechnicalService) Analyze(ctx context.Context, coinID, timeframe string) (*models.TechnicalAnalysis, error) {
	if timeframe == "" {
		timeframe = s.config.DefaultTimeframe
	}
	tf, ok := models.ParseTimeframe(timeframe)
	if !ok {
		return nil, utils.NewFieldError("timeframe", fmt.Sprintf("must be one of 1h, 4h, 1d, 1w (got %q)", timeframe))
	}

	ctx, span := telemetry.StartSpan(ctx, s.tracer, "technical.analyze",
		attribute.String("coin", coinID),
		attribute.String("timeframe", string(tf)),
	)
	defer span.End()

	candles, source, err := s.Candles(ctx, coinID, tf)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("source", source), attribute.Int("candles", len(candles)))

	snap := indicators.Compute(candles)
	readings := indicatorReadings(snap)
	assessment := signals.AssessTechnical(snap)

	return &models.TechnicalAnalysis{
		Indicators: readings,
		Summary:    summarize(readings, assessment.Score),
		Metrics:    candleMetrics(candles),
		Meta: models.TechnicalMeta{
			Coin:        coinID,
			Timeframe:   tf,
			Candles:     len(candles),
			Source:      source,
			GeneratedAt: s.now().UTC(),
		},
	}, nil
}

// FetchCandles returns candles at the default timeframe for full predictions.
func (s *TechnicalService) FetchCandles(ctx context.Context, coinID string) ([]models.Candle, error) {
	tf, _ := models.ParseTimeframe(s.config.DefaultTimeframe)
	candles, _, err := s.Candles(ctx, coinID, tf)
	return candles, err
}

// FetchOnChain forwards to the on-chain source so the service can act as the
// engine's supplemental input.
func (s *TechnicalService) FetchOnChain(ctx context.Context, coinID string) (*models.OnChainData, error) {
	return s.sources.OnChain(ctx, coinID)
}

// Candles tries Binance klines, then the CoinGecko chart bucketed into candles.
func (s *TechnicalService) Candles(ctx context.Context, coinID string, tf models.Timeframe) ([]models.Candle, string, error) {
	var lastErr error
	up := s.sources.upstreams
	flags := s.sources.flags

	if flags.Klines && up.Klines != nil {
		candles, err := s.klines(ctx, coinID, tf)
		if err == nil {
			return candles, SourceBinance, nil
		}
		lastErr = err
		s.logger.WithFields(logrus.Fields{"coin": coinID, "timeframe": tf}).WithError(err).Debug("Klines unavailable, trying market chart")
	} else {
		s.sources.guard.Disabled(ProviderKlines)
	}

	if flags.MarketData && up.Chart != nil {
		candles, err := s.chartCandles(ctx, coinID, tf)
		if err == nil {
			return candles, SourceCoinGecko, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrNoCandleSource, lastErr)
	}
	return nil, "", ErrNoCandleSource
}

func (s *TechnicalService) klines(ctx context.Context, coinID string, tf models.Timeframe) ([]models.Candle, error) {
	symbol, err := providers.BinanceSymbol(coinID, "")
	if err != nil {
		return nil, err
	}
	candles, err := guardedFetch(ctx, s.sources.guard, ProviderKlines, s.sources.providers.Klines.Timeout,
		func(ctx context.Context) ([]models.Candle, error) {
			return s.sources.upstreams.Klines.GetKlines(ctx, symbol, string(tf), s.config.CandleLimit)
		})
	if err != nil {
		return nil, err
	}
	if len(candles) < minCandles {
		return nil, fmt.Errorf("klines for %s returned %d candles", symbol, len(candles))
	}
	return candles, nil
}

func (s *TechnicalService) chartCandles(ctx context.Context, coinID string, tf models.Timeframe) ([]models.Candle, error) {
	days := chartDays(tf, s.config.CandleLimit)
	type series struct{ prices, volumes []models.SeriesPoint }
	chart, err := guardedFetch(ctx, s.sources.guard, ProviderCoinGecko, s.sources.providers.CoinGecko.Timeout,
		func(ctx context.Context) (series, error) {
			prices, volumes, err := s.sources.upstreams.Chart.GetMarketChart(ctx, coinID, days)
			return series{prices, volumes}, err
		})
	if err != nil {
		return nil, err
	}

	candles := models.BucketCandles(chart.prices, chart.volumes, tf.Duration())
	if len(candles) < minCandles {
		return nil, fmt.Errorf("market chart for %s produced %d candles", coinID, len(candles))
	}
	if len(candles) > s.config.CandleLimit {
		candles = candles[len(candles)-s.config.CandleLimit:]
	}
	return candles, nil
}

// chartDays is the history window that yields about limit candles of width tf.
func chartDays(tf models.Timeframe, limit int) int {
	days := int(math.Ceil(float64(limit) * tf.Duration().Hours() / 24))
	switch {
	case days < 1:
		return 1
	case days > maxChartDays:
		return maxChartDays
	}
	return days
}

func indicatorReadings(s indicators.Snapshot) []models.TechnicalIndicator {
	rsi := signals.RSIState(s.RSI)
	macd := signals.MACDState(s.MACD.Histogram)
	bb := signals.BollingerState(s.Bollinger.Position)
	stoch := signals.StochRSIState(s.StochRSI)
	cci := signals.CCIState(s.CCI)
	williams := signals.WilliamsRState(s.WilliamsR)

	adxSignal := models.StateNeutral
	if s.ADX.ADX > signals.ADXTrending {
		adxSignal = models.StateBullish
		if s.ADX.MinusDI > s.ADX.PlusDI {
			adxSignal = models.StateBearish
		}
	}

	return []models.TechnicalIndicator{
		{Name: "RSI", Value: round2(s.RSI), Signal: rsi, Description: rsiDescription(s.RSI, rsi)},
		{Name: "MACD", Value: round2(s.MACD.Histogram), Signal: macd, Description: macdDescription(macd)},
		maReading("SMA20", s.Price, s.SMA20),
		maReading("SMA50", s.Price, s.SMA50),
		maReading("SMA200", s.Price, s.SMA200),
		{Name: "Bollinger Bands", Value: round2(s.Bollinger.Middle), Signal: bb, Description: bollingerDescription(s.Bollinger.Position)},
		{Name: "Stochastic RSI", Value: round2(s.StochRSI), Signal: stoch, Description: oscillatorDescription("Stochastic RSI", stoch)},
		{Name: "CCI", Value: round2(s.CCI), Signal: cci, Description: oscillatorDescription("CCI", cci)},
		{Name: "Williams %R", Value: round2(s.WilliamsR), Signal: williams, Description: oscillatorDescription("Williams %R", williams)},
		{Name: "ADX", Value: round2(s.ADX.ADX), Signal: adxSignal, Description: adxDescription(s.ADX.ADX)},
	}
}

func maReading(name string, price, ma float64) models.TechnicalIndicator {
	state := signals.PriceVsMAState(price, ma)
	desc := fmt.Sprintf("Price is trading near its %s average.", name)
	switch state {
	case models.StateBullish:
		desc = fmt.Sprintf("Price is above the %s, which usually means buyers are in control over that period.", name)
	case models.StateBearish:
		desc = fmt.Sprintf("Price is below the %s, which usually means sellers are in control over that period.", name)
	}
	return models.TechnicalIndicator{Name: name, Value: round2(ma), Signal: state, Description: desc}
}

func rsiDescription(v float64, state models.SignalState) string {
	switch state {
	case models.StateBullish:
		return fmt.Sprintf("RSI at %.0f is below 30: the coin looks oversold and could bounce.", v)
	case models.StateBearish:
		return fmt.Sprintf("RSI at %.0f is above 70: the coin looks overbought and could pull back.", v)
	}
	return fmt.Sprintf("RSI at %.0f is in the normal 30-70 range.", v)
}

func macdDescription(state models.SignalState) string {
	switch state {
	case models.StateBullish:
		return "MACD is above its signal line, so upward momentum is building."
	case models.StateBearish:
		return "MACD is below its signal line, so downward momentum is building."
	}
	return "MACD is flat against its signal line, so momentum is balanced."
}

func bollingerDescription(position string) string {
	switch position {
	case indicators.PositionBelowLower:
		return "Price broke below the lower band, an unusually low level that often reverts."
	case indicators.PositionLowerHalf:
		return "Price sits in the lower part of its recent range."
	case indicators.PositionAboveUpper:
		return "Price broke above the upper band, an unusually high level that often reverts."
	case indicators.PositionUpperHalf:
		return "Price sits in the upper part of its recent range."
	}
	return "Price is near the middle of its recent range."
}

func oscillatorDescription(name string, state models.SignalState) string {
	switch state {
	case models.StateBullish:
		return name + " is in oversold territory, where rebounds are common."
	case models.StateBearish:
		return name + " is in overbought territory, where pullbacks are common."
	}
	return name + " is in neutral territory."
}

func adxDescription(v float64) string {
	if v > signals.ADXTrending {
		return fmt.Sprintf("ADX at %.0f shows a strong trend; the signal follows the dominant direction.", v)
	}
	return fmt.Sprintf("ADX at %.0f shows a weak or sideways trend.", v)
}

func summarize(readings []models.TechnicalIndicator, score int) models.TechnicalSummary {
	summary := models.TechnicalSummary{Score: score, Signal: models.StateNeutral}
	for _, r := range readings {
		switch r.Signal {
		case models.StateBullish:
			summary.Bullish++
		case models.StateBearish:
			summary.Bearish++
		default:
			summary.Neutral++
		}
	}
	switch {
	case score >= 60:
		summary.Signal = models.StateBullish
	case score <= 40:
		summary.Signal = models.StateBearish
	}
	summary.Text = fmt.Sprintf("%d bullish, %d bearish and %d neutral of %d indicators; technical score %d.",
		summary.Bullish, summary.Bearish, summary.Neutral, len(readings), score)
	return summary
}

func candleMetrics(candles []models.Candle) models.TechnicalMetrics {
	if len(candles) == 0 {
		return models.TechnicalMetrics{}
	}
	first, last := candles[0], candles[len(candles)-1]
	high, low := first.High, first.Low
	var volume float64
	returns := make([]float64, 0, len(candles)-1)
	for i, c := range candles {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
		volume += c.Volume
		if i > 0 && candles[i-1].Close > 0 {
			returns = append(returns, (c.Close-candles[i-1].Close)/candles[i-1].Close*100)
		}
	}

	var change float64
	if first.Close > 0 {
		change = (last.Close - first.Close) / first.Close * 100
	}
	return models.TechnicalMetrics{
		CurrentPrice:  round2(last.Close),
		PriceChange:   round2(change),
		High:          round2(high),
		Low:           round2(low),
		AverageVolume: round2(volume / float64(len(candles))),
		Volatility:    round2(stdDev(returns)),
		ATR:           round2(indicators.ATR(candles)),
		OBV:           round2(indicators.OBV(candles)),
	}
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
