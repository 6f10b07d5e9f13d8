package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/indicators"
	"github.com/irfndi/coinlens-go/internal/models"
	"github.com/irfndi/coinlens-go/internal/signals"
	"github.com/irfndi/coinlens-go/internal/utils"
)

// Risk level cutoffs on the absolute 24h price change, in percent.
const (
	extremeMoveThreshold = 15.0
	highMoveThreshold    = 8.0
	mediumMoveThreshold  = 3.0
	extremeFearIndex     = 10
	extremeGreedIndex    = 90
	lowConfidence        = 30
	moderateConfidence   = 60
)

// PredictionInput is everything the engine scores for one coin.
// Nil optional fields fall back to neutral values.
type PredictionInput struct {
	CoinID      string
	CoinName    string
	Market      models.MarketData
	Sentiment   models.SentimentData
	Macro       models.MacroData
	Derivatives *models.DerivativesData
	OnChain     *models.OnChainData
	Candles     []models.Candle
}

// SupplementalSource provides the extra inputs used by full predictions.
type SupplementalSource interface {
	FetchCandles(ctx context.Context, coinID string) ([]models.Candle, error)
	FetchOnChain(ctx context.Context, coinID string) (*models.OnChainData, error)
}

// PredictionEngine combines sub-scores into a PredictionResult. Scoring is pure.
type PredictionEngine struct {
	config       config.PredictionConfig
	supplemental SupplementalSource
}

// NewPredictionEngine creates an engine. supplemental may be nil, in which case
// full predictions score with market-derived estimates only.
func NewPredictionEngine(cfg config.PredictionConfig, supplemental SupplementalSource) *PredictionEngine {
	if cfg.MaxReasons <= 0 {
		cfg.MaxReasons = 6
	}
	if cfg.BullishThreshold == 0 && cfg.BearishThreshold == 0 {
		cfg.BullishThreshold, cfg.BearishThreshold = 60, 40
	}
	if cfg.Weights.Sum() == 0 {
		cfg.Weights = config.WeightsConfig{Technical: 35, Sentiment: 15, OnChain: 30, Macro: 20}
	}
	return &PredictionEngine{config: cfg, supplemental: supplemental}
}

// GenerateQuickPrediction scores using market-derived technical and on-chain estimates.
func (e *PredictionEngine) GenerateQuickPrediction(in PredictionInput) *models.PredictionResult {
	return e.Score(in, true)
}

// GenerateCoinPrediction fetches candles and on-chain data when missing, then scores
// with the full indicator set. Fetch failures degrade to the quick estimates.
func (e *PredictionEngine) GenerateCoinPrediction(ctx context.Context, in PredictionInput) *models.PredictionResult {
	if e.supplemental != nil {
		var (
			candles []models.Candle
			onChain *models.OnChainData
		)
		g, gctx := errgroup.WithContext(ctx)
		if len(in.Candles) == 0 {
			g.Go(func() error {
				if data, err := e.supplemental.FetchCandles(gctx, in.CoinID); err == nil {
					candles = data
				}
				return nil
			})
		}
		if in.OnChain == nil {
			g.Go(func() error {
				if data, err := e.supplemental.FetchOnChain(gctx, in.CoinID); err == nil {
					onChain = data
				}
				return nil
			})
		}
		_ = g.Wait()
		if len(in.Candles) == 0 {
			in.Candles = candles
		}
		if in.OnChain == nil {
			in.OnChain = onChain
		}
	}
	return e.Score(in, false)
}

// Score computes the prediction. Identical inputs always produce identical results.
func (e *PredictionEngine) Score(in PredictionInput, quick bool) *models.PredictionResult {
	var technical, onChain signals.Assessment
	if quick || len(in.Candles) == 0 {
		technical = signals.AssessTechnicalFromMarket(in.Market)
	} else {
		technical = signals.AssessTechnical(indicators.Compute(in.Candles))
	}
	if quick || in.OnChain == nil {
		onChain = signals.AssessOnChainFromMarket(in.Market)
	} else {
		onChain = signals.AssessOnChain(in.OnChain)
	}
	sentiment := signals.AssessSentiment(in.Sentiment)
	macro := signals.AssessMacro(in.Macro)

	overall := e.overallScore(technical.Score, sentiment.Score, onChain.Score, macro.Score)
	direction := e.direction(overall)
	confidence := confidenceScore(overall, direction, technical.Score, sentiment.Score, onChain.Score, macro.Score)

	result := &models.PredictionResult{
		CoinID:         in.CoinID,
		CoinName:       coinName(in),
		Prediction:     direction,
		Confidence:     confidence,
		RiskLevel:      riskLevel(in.Market.PriceChange24h, in.Sentiment.FearGreedIndex, confidence),
		TechnicalScore: technical.Score,
		SentimentScore: sentiment.Score,
		OnChainScore:   onChain.Score,
		MacroScore:     macro.Score,
		OverallScore:   overall,
	}
	result.Reasons = e.reasons(overall, direction, technical, sentiment, onChain, macro)
	if in.Derivatives != nil {
		result.Derivatives = signals.SummarizeDerivatives(*in.Derivatives)
	}
	return result
}

func (e *PredictionEngine) overallScore(technical, sentiment, onChain, macro int) int {
	w := e.config.Weights
	weighted := decimal.NewFromInt(int64(technical * w.Technical)).
		Add(decimal.NewFromInt(int64(sentiment * w.Sentiment))).
		Add(decimal.NewFromInt(int64(onChain * w.OnChain))).
		Add(decimal.NewFromInt(int64(macro * w.Macro)))
	score := weighted.Div(decimal.NewFromInt(int64(w.Sum()))).Round(0).IntPart()
	return clampScore(int(score))
}

func (e *PredictionEngine) direction(overall int) models.Direction {
	switch {
	case overall >= e.config.BullishThreshold:
		return models.Bullish
	case overall <= e.config.BearishThreshold:
		return models.Bearish
	default:
		return models.Neutral
	}
}

// confidenceScore blends distance from neutral with how many sub-scores agree.
func confidenceScore(overall int, direction models.Direction, subs ...int) int {
	agreeing := 0
	for _, s := range subs {
		switch direction {
		case models.Bullish:
			if s > signals.NeutralScore {
				agreeing++
			}
		case models.Bearish:
			if s < signals.NeutralScore {
				agreeing++
			}
		default:
			if s >= 40 && s <= 60 {
				agreeing++
			}
		}
	}

	distance := overall - signals.NeutralScore
	if distance < 0 {
		distance = -distance
	}
	agreement := decimal.NewFromInt(int64(agreeing)).Div(decimal.NewFromInt(int64(len(subs))))
	value := decimal.NewFromFloat(0.7).Mul(decimal.NewFromInt(int64(distance * 2))).
		Add(decimal.NewFromInt(30).Mul(agreement)).
		Round(0).IntPart()
	return clampScore(int(value))
}

func riskLevel(change24h float64, fearGreed, confidence int) models.RiskLevel {
	move := change24h
	if move < 0 {
		move = -move
	}
	switch {
	case move >= extremeMoveThreshold || fearGreed <= extremeFearIndex || fearGreed >= extremeGreedIndex:
		return models.RiskExtreme
	case move >= highMoveThreshold || confidence < lowConfidence:
		return models.RiskHigh
	case move >= mediumMoveThreshold || confidence < moderateConfidence:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func (e *PredictionEngine) reasons(overall int, direction models.Direction, assessments ...signals.Assessment) []string {
	var all []signals.Signal
	for _, a := range assessments {
		for _, s := range a.Signals {
			if s.Magnitude > 0 && s.Reason != "" {
				all = append(all, s)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Magnitude != all[j].Magnitude {
			return all[i].Magnitude > all[j].Magnitude
		}
		return all[i].Category < all[j].Category
	})

	reasons := make([]string, 0, e.config.MaxReasons)
	seen := make(map[string]bool, len(all))
	for _, s := range all {
		if len(reasons) == e.config.MaxReasons {
			break
		}
		if seen[s.Reason] {
			continue
		}
		seen[s.Reason] = true
		reasons = append(reasons, s.Reason)
	}
	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("No strong signals detected; outlook is %s at an overall score of %d",
			directionWord(direction), overall))
	}
	return reasons
}

func directionWord(d models.Direction) string {
	switch d {
	case models.Bullish:
		return "bullish"
	case models.Bearish:
		return "bearish"
	}
	return "neutral"
}

func coinName(in PredictionInput) string {
	switch {
	case in.CoinName != "":
		return in.CoinName
	case in.Market.Name != "":
		return in.Market.Name
	default:
		return utils.DisplayName(in.CoinID)
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
