package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/coinlens-go/internal/cache"
	"github.com/irfndi/coinlens-go/internal/config"
	"github.com/irfndi/coinlens-go/internal/metrics"
	"github.com/irfndi/coinlens-go/internal/models"
	"github.com/irfndi/coinlens-go/internal/telemetry"
	"github.com/irfndi/coinlens-go/internal/utils"
)

// Where a prediction was served from.
const (
	SourceCache = "cache"
	SourceFresh = "fresh"
)

// Prediction modes used in metrics and spans.
const (
	ModeQuick = "quick"
	ModeFull  = "full"
)

const (
	defaultMaxBatchSize     = 10
	defaultBatchConcurrency = 4
)

// PredictOptions tunes a single prediction request.
type PredictOptions struct {
	CoinName  string
	Quick     bool
	SkipCache bool
}

// Prediction is a scored result plus where it came from.
type Prediction struct {
	Result *models.PredictionResult
	Source string
}

// PredictionService coordinates fetching, scoring and caching of predictions.
type PredictionService struct {
	config    config.PredictionConfig
	sources *DataSources
	engine  *PredictionEngine
	store   cache.PredictionStore
	tasks   *BackgroundTasks
	metrics *metrics.Recorder
	logger  *logrus.Logger
	tracer  trace.Tracer
}

type PredictionServiceDeps struct {
	Sources *DataSources
	// Technical supplies candles and on-chain data to full predictions when
	// Engine is nil.
	Technical *TechnicalService
	Engine    *PredictionEngine
	Store     cache.PredictionStore
	Tasks     *BackgroundTasks
	Metrics   *metrics.Recorder
	Logger    *logrus.Logger
}

func NewPredictionService(cfg config.PredictionConfig, deps PredictionServiceDeps) *PredictionService {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = defaultBatchConcurrency
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	engine := deps.Engine
	if engine == nil {
		var supplemental SupplementalSource
		if deps.Technical != nil {
			supplemental = deps.Technical
		}
		engine = NewPredictionEngine(cfg, supplemental)
	}
	store := deps.Store
	if store == nil {
		store = cache.NoopPredictionStore{}
	}
	tasks := deps.Tasks
	if tasks == nil {
		tasks = NewBackgroundTasks(0, logger)
	}
	return &PredictionService{
		config:  cfg,
		sources: deps.Sources,
		engine:  engine,
		store:   store,
		tasks:   tasks,
		metrics: deps.Metrics,
		logger:  logger,
		tracer:  telemetry.GetBusinessTracer(),
	}
}

// CacheTTL is the prediction freshness window, used for Cache-Control.
func (s *PredictionService) CacheTTL() time.Duration {
	return s.config.CacheTTL
}

// MaxBatchSize is the largest accepted batch.
func (s *PredictionService) MaxBatchSize() int {
	return s.config.MaxBatchSize
}

// Predict returns a prediction for coinID, from cache unless opts.SkipCache is set.
// Only a market data failure is returned as an error.
func (s *PredictionService) Predict(ctx context.Context, coinID string, opts PredictOptions) (*Prediction, error) {
	mode := ModeFull
	if opts.Quick {
		mode = ModeQuick
	}
	ctx, span := telemetry.StartSpan(ctx, s.tracer, "prediction.predict",
		attribute.String("coin", coinID),
		attribute.String("mode", mode),
		attribute.Bool("skip_cache", opts.SkipCache),
	)
	defer span.End()

	if !opts.SkipCache {
		cached, ok, err := s.store.Get(ctx, coinID)
		if err != nil {
			s.logger.WithField("coin", coinID).WithError(err).Warn("Prediction cache lookup failed")
		}
		if ok {
			span.SetAttributes(attribute.String("source", SourceCache))
			s.metrics.RecordPrediction(mode, SourceCache, string(cached.Prediction))
			return &Prediction{Result: cached, Source: SourceCache}, nil
		}
	}

	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	in, err := s.gather(ctx, coinID, opts)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Candles and on-chain data are fetched by the engine, once per request.
	var result *models.PredictionResult
	if opts.Quick {
		result = s.engine.GenerateQuickPrediction(in)
	} else {
		result = s.engine.GenerateCoinPrediction(ctx, in)
	}

	snapshot := *result
	s.tasks.Go(ctx, "prediction_cache_write", func(ctx context.Context) error {
		return s.store.Put(ctx, coinID, &snapshot)
	})

	span.SetAttributes(
		attribute.String("source", SourceFresh),
		attribute.String("direction", string(result.Prediction)),
		attribute.Int("overall_score", result.OverallScore),
	)
	s.metrics.RecordPrediction(mode, SourceFresh, string(result.Prediction))
	s.logger.WithFields(logrus.Fields{
		"coin":       coinID,
		"mode":       mode,
		"prediction": result.Prediction,
		"overall":    result.OverallScore,
		"confidence": result.Confidence,
	}).Debug("Prediction generated")

	return &Prediction{Result: result, Source: SourceFresh}, nil
}

// gather fetches the market, sentiment, macro and derivatives inputs concurrently.
// Non-market inputs degrade to defaults.
func (s *PredictionService) gather(ctx context.Context, coinID string, opts PredictOptions) (PredictionInput, error) {
	in := PredictionInput{CoinID: coinID, CoinName: opts.CoinName}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		market, err := s.sources.Market(gctx, coinID)
		if err != nil {
			return err
		}
		in.Market = *market
		return nil
	})
	g.Go(func() error {
		in.Sentiment = s.sources.Sentiment(gctx)
		return nil
	})
	g.Go(func() error {
		in.Macro = s.sources.Macro(gctx)
		return nil
	})
	g.Go(func() error {
		in.Derivatives = s.sources.Derivatives(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return PredictionInput{}, err
	}
	return in, nil
}

// PredictBatch scores each coin independently with quick predictions. The
// returned count is the number of successful slots.
func (s *PredictionService) PredictBatch(ctx context.Context, coins []models.CoinRef) ([]models.BatchPrediction, int, error) {
	if len(coins) == 0 {
		return nil, 0, utils.NewFieldError("coins", "at least one coin is required")
	}
	if len(coins) > s.config.MaxBatchSize {
		return nil, 0, utils.NewFieldError("coins", fmt.Sprintf("at most %d coins per request", s.config.MaxBatchSize))
	}

	ctx, span := telemetry.StartSpan(ctx, s.tracer, "prediction.batch", attribute.Int("coins", len(coins)))
	defer span.End()

	results := make([]models.BatchPrediction, len(coins))
	var g errgroup.Group
	g.SetLimit(s.config.BatchConcurrency)
	for i, coin := range coins {
		g.Go(func() error {
			p, err := s.Predict(ctx, coin.ID, PredictOptions{CoinName: coin.Name, Quick: true})
			if err != nil {
				results[i] = models.BatchPrediction{CoinID: coin.ID, Error: batchErrorMessage(err)}
				return nil
			}
			results[i] = models.BatchPrediction{CoinID: coin.ID, Success: true, Data: p.Result}
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, r := range results {
		if r.Success {
			count++
		}
	}
	span.SetAttributes(attribute.Int("succeeded", count))
	return results, count, nil
}

func batchErrorMessage(err error) string {
	if errors.Is(err, ErrMarketDataUnavailable) {
		return "Market data unavailable"
	}
	return "Prediction failed"
}
