package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/coinlens-go/internal/metrics"
	"github.com/irfndi/coinlens-go/internal/telemetry"
)

// ProviderGuard bounds every upstream call with a timeout and a per-provider
// circuit breaker, and records a span and metrics for it.
type ProviderGuard struct {
	breakers *CircuitBreakerManager
	metrics  *metrics.Recorder
	logger   *logrus.Logger
	tracer   trace.Tracer
}

func NewProviderGuard(breakers *CircuitBreakerManager, rec *metrics.Recorder, logger *logrus.Logger) *ProviderGuard {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if breakers == nil {
		breakers = NewCircuitBreakerManager(CircuitBreakerConfig{}, logger)
	}
	return &ProviderGuard{
		breakers: breakers,
		metrics:  rec,
		logger:   logger,
		tracer:   telemetry.GetExternalTracer(),
	}
}

// Breakers exposes the breaker registry for health reporting.
func (g *ProviderGuard) Breakers() *CircuitBreakerManager {
	return g.breakers
}

// Call runs fn under provider's breaker with the given timeout. A zero timeout
// leaves the caller's deadline in place.
func (g *ProviderGuard) Call(ctx context.Context, provider string, timeout time.Duration, fn func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, g.tracer, "provider."+provider,
		attribute.String("provider", provider),
		attribute.String("timeout", timeout.String()),
	)
	defer span.End()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := g.breakers.Get(provider).Execute(ctx, fn)
	duration := time.Since(start)

	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrCircuitOpen):
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeFailure
	}
	g.metrics.RecordUpstream(provider, outcome, duration)
	span.SetAttributes(attribute.String("outcome", outcome))

	if err != nil {
		telemetry.RecordError(span, err)
		g.logger.WithFields(logrus.Fields{
			"provider":    provider,
			"outcome":     outcome,
			"duration_ms": duration.Milliseconds(),
		}).WithError(err).Warn("Upstream call failed")
	}
	return err
}

// Disabled records that a provider was skipped by its feature flag.
func (g *ProviderGuard) Disabled(provider string) {
	g.metrics.RecordUpstream(provider, metrics.OutcomeDisabled, 0)
}

// guardedFetch is Call for functions that return a value.
func guardedFetch[T any](ctx context.Context, g *ProviderGuard, provider string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := g.Call(ctx, provider, timeout, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
