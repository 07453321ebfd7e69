package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

// Settings tunes the pipeline. Zero TTLs disable caching for that payload kind.
type Settings struct {
	DefaultForecastDays int
	MaxForecastDays     int
	CityCacheTTL        time.Duration
	CoordinatesCacheTTL time.Duration
	CityWeatherCacheTTL time.Duration
	HistoryWindow       time.Duration
}

// DefaultSettings mirrors the defaults of the config package.
func DefaultSettings() Settings {
	return Settings{
		DefaultForecastDays: 3,
		MaxForecastDays:     14,
		CityCacheTTL:        3600 * time.Second,
		CoordinatesCacheTTL: 60 * time.Second,
		CityWeatherCacheTTL: 60 * time.Second,
		HistoryWindow:       domain.HistoryWindow,
	}
}

// Dependencies are the adapters the pipeline runs against. Cache, History and Metrics are optional.
type Dependencies struct {
	Client        ports.WeatherClient
	Cities        ports.CityRepository
	Precipitation ports.PrecipitationRepository
	Clothing      ports.ClothingRepository
	History       ports.SearchHistoryRepository
	Cache         ports.CacheService
	Metrics       ports.MetricsRecorder
	Clock         func() time.Time
}

type weatherService struct {
	settings Settings
	catalog  *cityCatalog
	resolver *locationResolver
	outfits  *outfitResolver
	history  *historyRecorder
	cache    *resultCache
	logger   *zap.Logger
}

func NewWeatherService(deps Dependencies, settings Settings, logger *zap.Logger) ports.WeatherService {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	if settings.HistoryWindow <= 0 {
		settings.HistoryWindow = domain.HistoryWindow
	}

	s := &weatherService{
		settings: settings,
		catalog:  &cityCatalog{repo: deps.Cities},
		resolver: &locationResolver{client: deps.Client, metrics: metrics, logger: logger},
		outfits:  &outfitResolver{precipitation: deps.Precipitation, clothing: deps.Clothing},
		cache:    &resultCache{cache: deps.Cache, metrics: metrics, logger: logger},
		logger:   logger,
	}

	if deps.History != nil {
		s.history = &historyRecorder{repo: deps.History, window: settings.HistoryWindow, now: clock}
	}

	return s
}

func (s *weatherService) SearchCities(ctx context.Context, query string) ([]domain.City, error) {
	if err := validateCityQuery(query); err != nil {
		return nil, err
	}

	normalized := domain.NormalizeCityName(query)
	key := "cities:" + normalized

	var cached []domain.City
	if s.cache.load(ctx, "cities", key, &cached) {
		return cached, nil
	}

	cities, err := s.catalog.FindByName(ctx, normalized)
	if err != nil {
		s.logger.Error("city lookup failed", zap.String("query", normalized), zap.Error(err))
		return nil, err
	}

	if len(cities) == 0 {
		return nil, domain.CityNotFound(normalized)
	}

	s.cache.store(ctx, key, cities, s.settings.CityCacheTTL)

	s.logger.Info("cities found",
		zap.String("query", normalized),
		zap.Int("count", len(cities)))

	return cities, nil
}

func (s *weatherService) GetWeatherByCity(ctx context.Context, cityID int64, req ports.WeatherRequest) (*domain.Result, error) {
	if cityID <= 0 {
		return nil, domain.InvalidInput("city id must be positive", nil)
	}

	days, err := s.forecastDays(req.Days)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("weather:city:%d:%d", cityID, days)

	var result domain.Result
	if s.cache.load(ctx, "weather_city", key, &result) {
		s.recordCity(ctx, req.UserID, cityID)
		return &result, nil
	}

	city, err := s.catalog.FindByID(ctx, cityID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.resolver.ResolveCity(ctx, *city, days)
	if err != nil {
		s.logger.Error("failed to resolve weather for city",
			zap.Int64("city_id", cityID),
			zap.String("city", city.Name),
			zap.Error(err))
		return nil, err
	}

	clothing, err := s.outfits.Recommend(ctx, snapshot)
	if err != nil {
		s.logger.Error("failed to resolve clothing", zap.Int64("city_id", cityID), zap.Error(err))
		return nil, err
	}

	assembled := Assemble(snapshot, city, clothing)

	s.cache.store(ctx, key, assembled, s.settings.CityWeatherCacheTTL)
	s.recordCity(ctx, req.UserID, cityID)

	s.logger.Info("weather retrieved for city",
		zap.Int64("city_id", cityID),
		zap.String("location", assembled.Location.Name),
		zap.Float64("feels_like_c", assembled.Weather.FeelsLikeC))

	return assembled, nil
}

func (s *weatherService) GetWeatherByCoordinates(ctx context.Context, coords domain.Coordinates, req ports.WeatherRequest) (*domain.Result, error) {
	if err := coords.Validate(); err != nil {
		s.logger.Warn("invalid coordinates", zap.Error(err))
		return nil, domain.InvalidInput("The provided coordinates are invalid", err)
	}

	days, err := s.forecastDays(req.Days)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("weather:coords:%g:%g:%d", coords.Latitude, coords.Longitude, days)

	var result domain.Result
	if s.cache.load(ctx, "weather_coordinates", key, &result) {
		s.recordCoordinates(ctx, req.UserID, coords, result.Location)
		return &result, nil
	}

	snapshot, err := s.resolver.ResolveCoordinates(ctx, coords, days)
	if err != nil {
		s.logger.Error("failed to resolve weather for coordinates",
			zap.Float64("latitude", coords.Latitude),
			zap.Float64("longitude", coords.Longitude),
			zap.Error(err))
		return nil, err
	}

	clothing, err := s.outfits.Recommend(ctx, snapshot)
	if err != nil {
		s.logger.Error("failed to resolve clothing",
			zap.Float64("latitude", coords.Latitude),
			zap.Float64("longitude", coords.Longitude),
			zap.Error(err))
		return nil, err
	}

	assembled := Assemble(snapshot, nil, clothing)

	s.cache.store(ctx, key, assembled, s.settings.CoordinatesCacheTTL)
	s.recordCoordinates(ctx, req.UserID, coords, assembled.Location)

	s.logger.Info("weather retrieved for coordinates",
		zap.Float64("latitude", coords.Latitude),
		zap.Float64("longitude", coords.Longitude),
		zap.String("location", assembled.Location.Name))

	return assembled, nil
}

func (s *weatherService) forecastDays(requested int) (int, error) {
	if requested == 0 {
		return s.settings.DefaultForecastDays, nil
	}

	if requested < 1 || requested > s.settings.MaxForecastDays {
		return 0, domain.InvalidInput(
			fmt.Sprintf("days must be between 1 and %d", s.settings.MaxForecastDays), nil)
	}

	return requested, nil
}

// recordCity is best-effort; failures are logged and the response is unaffected.
func (s *weatherService) recordCity(ctx context.Context, userID *int64, cityID int64) {
	if userID == nil || s.history == nil {
		return
	}

	inserted, err := s.history.RecordCity(ctx, *userID, cityID)
	if err != nil {
		s.logger.Warn("failed to record city search",
			zap.Int64("user_id", *userID),
			zap.Int64("city_id", cityID),
			zap.Error(err))
		return
	}

	s.logger.Debug("city search history", zap.Int64("user_id", *userID), zap.Bool("inserted", inserted))
}

func (s *weatherService) recordCoordinates(ctx context.Context, userID *int64, coords domain.Coordinates, place domain.Location) {
	if userID == nil || s.history == nil {
		return
	}

	inserted, err := s.history.RecordCoordinates(ctx, *userID, coords, place)
	if err != nil {
		s.logger.Warn("failed to record coordinates search",
			zap.Int64("user_id", *userID),
			zap.Float64("latitude", coords.Latitude),
			zap.Float64("longitude", coords.Longitude),
			zap.Error(err))
		return
	}

	s.logger.Debug("coordinates search history", zap.Int64("user_id", *userID), zap.Bool("inserted", inserted))
}
