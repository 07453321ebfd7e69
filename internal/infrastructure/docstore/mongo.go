// Package docstore reads and writes the clothing reference data kept in MongoDB:
// clothing documents keyed by temperature range and the condition code to
// precipitation mapping.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

type Config struct {
	URI                     string
	Database                string
	ClothingCollection      string
	PrecipitationCollection string
	ConnectTimeout          time.Duration
}

// Store owns the client. It implements ports.ClothingRepository and
// ports.PrecipitationRepository.
type Store struct {
	client        *mongo.Client
	clothing      *mongo.Collection
	precipitation *mongo.Collection
	tracer        trace.Tracer
	logger        *zap.Logger
}

// Connect dials MongoDB and pings the primary with exponential backoff until
// ConnectTimeout elapses.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.ConnectTimeout

	ping := func() error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			logger.Warn("mongo not ready, retrying", zap.Error(err))
			return err
		}

		return nil
	}

	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)

	return &Store{
		client:        client,
		clothing:      db.Collection(cfg.ClothingCollection),
		precipitation: db.Collection(cfg.PrecipitationCollection),
		tracer:        otel.Tracer("docstore"),
		logger:        logger,
	}, nil
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes makes condition codes and temperature ranges unique.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.precipitation.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("precipitation index: %w", err)
	}

	_, err = s.clothing.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "temperatureRange.min", Value: 1}, {Key: "temperatureRange.max", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("clothing index: %w", err)
	}

	return nil
}

func (s *Store) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}
}

// FindByRange returns the clothing document whose range equals r exactly.
func (s *Store) FindByRange(ctx context.Context, r domain.TemperatureRange) (doc *domain.ClothingDocument, err error) {
	ctx, end := s.span(ctx, "docstore.FindByRange", attribute.String("temperature.range", r.String()))
	defer func() { end(err) }()

	var stored ClothingDocument

	err = s.clothing.FindOne(ctx, bson.M{
		"temperatureRange.min": r.Min,
		"temperatureRange.max": r.Max,
	}).Decode(&stored)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("clothing for %s: %w", r, ports.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("find clothing for %s: %w", r, err)
	}

	return stored.ToDomain(), nil
}

// FindByCode returns the category for a provider condition code.
func (s *Store) FindByCode(ctx context.Context, code int) (p domain.Precipitation, err error) {
	ctx, end := s.span(ctx, "docstore.FindByCode", attribute.Int("condition.code", code))
	defer func() { end(err) }()

	var stored PrecipitationDocument

	err = s.precipitation.FindOne(ctx, bson.M{"code": code}).Decode(&stored)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.PrecipitationUnclassified, fmt.Errorf("condition code %d: %w", code, ports.ErrNotFound)
	}

	if err != nil {
		return domain.PrecipitationUnclassified, fmt.Errorf("find condition code %d: %w", code, err)
	}

	return stored.Category()
}

// UpsertClothing replaces the document for doc's range, inserting it when absent.
func (s *Store) UpsertClothing(ctx context.Context, doc domain.ClothingDocument) (err error) {
	ctx, end := s.span(ctx, "docstore.UpsertClothing", attribute.String("temperature.range", doc.Range.String()))
	defer func() { end(err) }()

	filter := bson.M{
		"temperatureRange.min": doc.Range.Min,
		"temperatureRange.max": doc.Range.Max,
	}

	_, err = s.clothing.ReplaceOne(ctx, filter, ClothingFromDomain(doc), options.Replace().SetUpsert(true))

	return err
}

// UpsertPrecipitation replaces the mapping for d.Code, inserting it when absent.
func (s *Store) UpsertPrecipitation(ctx context.Context, d PrecipitationDocument) (err error) {
	ctx, end := s.span(ctx, "docstore.UpsertPrecipitation", attribute.Int("condition.code", d.Code))
	defer func() { end(err) }()

	if _, err := d.Category(); err != nil {
		return err
	}

	d.ID = primitive.NilObjectID
	_, err = s.precipitation.ReplaceOne(ctx, bson.M{"code": d.Code}, d, options.Replace().SetUpsert(true))

	return err
}
