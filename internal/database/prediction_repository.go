package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/irfndi/coinlens-go/internal/models"
)

const (
	createPredictionsTable = `CREATE TABLE IF NOT EXISTS predictions (
	coin_id    TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`
	createPredictionsIndex = `CREATE INDEX IF NOT EXISTS idx_predictions_updated_at ON predictions (updated_at)`

	selectPrediction = `SELECT payload, updated_at FROM predictions WHERE coin_id = $1`
	upsertPrediction = `INSERT INTO predictions (coin_id, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (coin_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	deleteStalePredictions = `DELETE FROM predictions WHERE updated_at < $1`
)

// Migrate creates the predictions table if it does not exist.
func Migrate(ctx context.Context, pool DatabasePool) error {
	for _, stmt := range []string{createPredictionsTable, createPredictionsIndex} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// PredictionRepository persists one prediction row per coin.
type PredictionRepository struct {
	pool DatabasePool
	ttl  time.Duration
	now  func() time.Time
}

func NewPredictionRepository(pool DatabasePool, ttl time.Duration) *PredictionRepository {
	return &PredictionRepository{pool: pool, ttl: ttl, now: time.Now}
}

// Get returns the stored prediction when its updated_at is inside the TTL window.
func (r *PredictionRepository) Get(ctx context.Context, coinID string) (*models.PredictionResult, bool, error) {
	var (
		payload   []byte
		updatedAt time.Time
	)
	err := r.pool.QueryRow(ctx, selectPrediction, coinID).Scan(&payload, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read prediction %s: %w", coinID, err)
	}

	entry := models.CachedPrediction{UpdatedAt: updatedAt}
	if err := json.Unmarshal(payload, &entry.PredictionResult); err != nil {
		return nil, false, fmt.Errorf("failed to decode prediction %s: %w", coinID, err)
	}
	if !entry.IsFresh(r.now(), r.ttl) {
		return nil, false, nil
	}
	return &entry.PredictionResult, true, nil
}

// Put upserts the prediction row. Concurrent writers race and the last one wins.
func (r *PredictionRepository) Put(ctx context.Context, coinID string, p *models.PredictionResult) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode prediction %s: %w", coinID, err)
	}
	if _, err := r.pool.Exec(ctx, upsertPrediction, coinID, payload, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to store prediction %s: %w", coinID, err)
	}
	return nil
}

// DeleteStale removes rows older than maxAge and returns how many were deleted.
func (r *PredictionRepository) DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteStalePredictions, r.now().Add(-maxAge).UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale predictions: %w", err)
	}
	return tag.RowsAffected(), nil
}
