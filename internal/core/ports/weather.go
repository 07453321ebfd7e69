// Package ports declares the interfaces between the weather outfit core and its adapters.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
)

// ErrNotFound is returned (wrapped) by repositories when a lookup has no row or document.
var ErrNotFound = errors.New("not found")

// ErrCacheMiss is returned (wrapped) by CacheService.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// WeatherRequest carries the optional parts of a weather lookup.
type WeatherRequest struct {
	// UserID is the authenticated user, nil for anonymous requests.
	UserID *int64

	// Days is the forecast depth; zero selects the configured default.
	Days int
}

// WeatherService is the pipeline exposed to the presentation layer.
type WeatherService interface {
	SearchCities(ctx context.Context, query string) ([]domain.City, error)
	GetWeatherByCity(ctx context.Context, cityID int64, req WeatherRequest) (*domain.Result, error)
	GetWeatherByCoordinates(ctx context.Context, coords domain.Coordinates, req WeatherRequest) (*domain.Result, error)
}

// WeatherClient fetches one provider payload. query is either "{lat},{lon}" or a free-text place.
// Provider-reported failures are returned as domain.ProviderError.
type WeatherClient interface {
	Fetch(ctx context.Context, query string, days int) (*domain.WeatherSnapshot, error)
}

// CityRepository reads the relational city catalog.
type CityRepository interface {
	// FindByName returns candidates whose name or an alternate name equals name ignoring case.
	FindByName(ctx context.Context, name string) ([]domain.City, error)

	// FindByID returns ErrNotFound when no city has the id.
	FindByID(ctx context.Context, id int64) (*domain.City, error)
}

// PrecipitationRepository reads the condition code mapping table of the document store.
type PrecipitationRepository interface {
	FindByCode(ctx context.Context, code int) (domain.Precipitation, error)
}

// ClothingRepository reads clothing documents keyed by temperature range.
type ClothingRepository interface {
	FindByRange(ctx context.Context, r domain.TemperatureRange) (*domain.ClothingDocument, error)
}

// SearchHistoryRepository persists search history. Latest* report false when no entry exists.
type SearchHistoryRepository interface {
	LatestCitySearch(ctx context.Context, userID, cityID int64) (time.Time, bool, error)
	InsertCitySearch(ctx context.Context, entry domain.CitySearch) error
	LatestCoordinatesSearch(ctx context.Context, userID int64, coords domain.Coordinates) (time.Time, bool, error)
	InsertCoordinatesSearch(ctx context.Context, entry domain.CoordinatesSearch) error
}

// CacheService is a byte-valued key store with per-entry TTL.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// RateLimitService decides whether an identifier may make another request.
type RateLimitService interface {
	Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, identifier string) error
}

// MetricsRecorder receives pipeline-level measurements.
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, kind string)
	RecordCacheMiss(ctx context.Context, kind string)
	RecordProviderCall(ctx context.Context, outcome string, duration time.Duration)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordCacheHit(context.Context, string) {}

func (NopMetrics) RecordCacheMiss(context.Context, string) {}

func (NopMetrics) RecordProviderCall(context.Context, string, time.Duration) {}
