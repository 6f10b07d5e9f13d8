package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/irfndi/coinlens-go/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "db", Port: 5433, User: "coin", Password: "secret", DBName: "coinlens", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5433 user=coin password=secret dbname=coinlens sslmode=disable", DSN(cfg))

	cfg.DatabaseURL = "postgres://u:p@localhost:5432/coinlens"
	assert.Equal(t, cfg.DatabaseURL, DSN(cfg))
}

func TestPoolConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		DatabaseURL:     "postgres://u:p@localhost:5432/coinlens",
		MaxOpenConns:    20,
		MaxIdleConns:    2,
		ConnMaxLifetime: "30m",
		ConnMaxIdleTime: "5m",
	}
	poolCfg, err := PoolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(20), poolCfg.MaxConns)
	assert.Equal(t, int32(2), poolCfg.MinConns)
	assert.Equal(t, 30*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, 5*time.Minute, poolCfg.MaxConnIdleTime)

	cfg.ConnMaxLifetime = "forever"
	_, err = PoolConfig(cfg)
	assert.ErrorContains(t, err, "conn_max_lifetime")
}

func TestRedisOptions(t *testing.T) {
	opts := RedisOptions(config.RedisConfig{Host: "cache", Port: 6380, Password: "pw", DB: 2})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestHealthCheck_Nil(t *testing.T) {
	ctx := context.Background()

	var db *PostgresDB
	assert.ErrorIs(t, db.HealthCheck(ctx), errNilPool)
	assert.NotPanics(t, db.Close)

	var rc *RedisClient
	assert.ErrorIs(t, rc.HealthCheck(ctx), errNilRedis)
	assert.NotPanics(t, rc.Close)
}

func newTracedPool(t *testing.T, pool DatabasePool) (*TracedPool, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	traced := NewTracedPool(pool)
	traced.tracer = tp.Tracer("test")
	return traced, recorder
}

func TestTracedPool_Exec(t *testing.T) {
	mock := newMockPool(t)
	traced, recorder := newTracedPool(t, mock)

	mock.ExpectExec("DELETE FROM predictions").WillReturnResult(pgxmock.NewResult("DELETE", 4))
	tag, err := traced.Exec(context.Background(), "DELETE FROM predictions")
	require.NoError(t, err)
	assert.Equal(t, int64(4), tag.RowsAffected())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.exec", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestTracedPool_QueryError(t *testing.T) {
	mock := newMockPool(t)
	traced, recorder := newTracedPool(t, mock)

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("boom"))
	_, err := traced.Query(context.Background(), "SELECT 1")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.query", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTracedPool_RepositoryUsesSpans(t *testing.T) {
	mock := newMockPool(t)
	traced, recorder := newTracedPool(t, mock)

	mock.ExpectExec(deleteStalePredictions).WithArgs(pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	_, err := NewPredictionRepository(traced, time.Minute).DeleteStale(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Len(t, recorder.Ended(), 1)
}
