package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/coinlens-go/internal/telemetry"
)

// DatabasePool is the subset of pgxpool.Pool the repositories use. pgxmock pools satisfy it.
type DatabasePool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// TracedPool wraps a pool with one client span per statement.
type TracedPool struct {
	pool   DatabasePool
	tracer trace.Tracer
}

func NewTracedPool(pool DatabasePool) *TracedPool {
	return &TracedPool{pool: pool, tracer: telemetry.GetTracer(telemetry.ServiceName + "/database")}
}

func (p *TracedPool) start(ctx context.Context, op, sql string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			attribute.String("db.query.text", sql),
			attribute.String("db.operation", op),
		),
	)
}

func (p *TracedPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := p.start(ctx, "query", sql)
	defer span.End()
	rows, err := p.pool.Query(ctx, sql, args...)
	telemetry.RecordError(span, err)
	return rows, err
}

// QueryRow ends its span when the row is returned; scan errors are not recorded.
func (p *TracedPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := p.start(ctx, "query_row", sql)
	defer span.End()
	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *TracedPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := p.start(ctx, "exec", sql)
	defer span.End()
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		telemetry.RecordError(span, err)
		return tag, err
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	return tag, nil
}
