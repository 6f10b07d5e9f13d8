package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/irfndi/coinlens-go/internal/models"
	"github.com/irfndi/coinlens-go/internal/services"
)

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, coinID string, opts services.PredictOptions) (*services.Prediction, error) {
	args := m.Called(ctx, coinID, opts)
	p, _ := args.Get(0).(*services.Prediction)
	return p, args.Error(1)
}

func (m *MockPredictor) PredictBatch(ctx context.Context, coins []models.CoinRef) ([]models.BatchPrediction, int, error) {
	args := m.Called(ctx, coins)
	results, _ := args.Get(0).([]models.BatchPrediction)
	return results, args.Int(1), args.Error(2)
}

func (m *MockPredictor) CacheTTL() time.Duration {
	return 2 * time.Minute
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, coinID, timeframe string) (*models.TechnicalAnalysis, error) {
	args := m.Called(ctx, coinID, timeframe)
	a, _ := args.Get(0).(*models.TechnicalAnalysis)
	return a, args.Error(1)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type staticBreakers map[string]services.CircuitBreakerStats

func (s staticBreakers) GetAllStats() map[string]services.CircuitBreakerStats { return s }
