// Package database is the PostgreSQL layer: the city catalog, search history and
// the embedded schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// QueryObserver receives the duration and outcome of every query.
type QueryObserver func(ctx context.Context, operation string, duration time.Duration, err error)

type PostgresDB struct {
	db      *sql.DB
	logger  *zap.Logger
	tracer  trace.Tracer
	observe QueryObserver
}

type Config struct {
	DSN                   string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration

	// ConnectTimeout bounds the retries of the initial ping.
	ConnectTimeout time.Duration
}

// NewPostgresDB opens the pool and pings it with exponential backoff until
// ConnectTimeout elapses, so the service survives starting before the database.
func NewPostgresDB(ctx context.Context, cfg Config, logger *zap.Logger) (*PostgresDB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.ConnectTimeout

	ping := func() error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("database not ready, retrying", zap.Error(err))
			return err
		}

		return nil
	}

	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an existing pool.
func NewWithDB(db *sql.DB, logger *zap.Logger) *PostgresDB {
	return &PostgresDB{
		db:     db,
		logger: logger,
		tracer: otel.Tracer("database"),
	}
}

// SetQueryObserver installs o; nil disables observation.
func (p *PostgresDB) SetQueryObserver(o QueryObserver) {
	p.observe = o
}

// DB exposes the pool for migrations.
func (p *PostgresDB) DB() *sql.DB {
	return p.db
}

func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// instrument starts a span for operation and returns a func that ends it and
// reports the outcome.
func (p *PostgresDB) instrument(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := p.tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		duration := time.Since(start)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.logger.Error("database query failed",
				zap.String("operation", operation),
				zap.Duration("duration", duration),
				zap.Error(err))
		}

		if p.observe != nil {
			p.observe(ctx, operation, duration, err)
		}

		span.End()
	}
}
