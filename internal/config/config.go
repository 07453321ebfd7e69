// Package config provides centralized configuration management for the weather outfit service.
// It loads configuration from environment variables, optionally seeded from a .env file,
// with sensible defaults, and validates the result before the service starts.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration settings for the weather outfit service.
type Config struct {
	Server        ServerConfig
	Redis         RedisConfig
	Database      DatabaseConfig
	Mongo         MongoConfig
	Observability ObservabilityConfig
	WeatherAPI    WeatherAPIConfig
	Cache         CacheConfig
	History       HistoryConfig
	RateLimit     RateLimitConfig
}

// ServerConfig contains HTTP server settings and timeouts.
type ServerConfig struct {
	Port         string `validate:"required,numeric"`
	Environment  string `validate:"oneof=development staging production test"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig contains settings for the result cache and rate limiting.
// When disabled or unreachable the service falls back to in-memory implementations.
type RedisConfig struct {
	Enabled      bool
	Addr         string `validate:"required_if=Enabled true"`
	Password     string
	DB           int `validate:"gte=0"`
	PoolSize     int `validate:"gte=1"`
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig contains PostgreSQL settings for the city catalog and search history.
type DatabaseConfig struct {
	Host                  string        `validate:"required"`
	Port                  int           `validate:"gte=1,lte=65535"`
	User                  string        `validate:"required"`
	Password              string
	Database              string        `validate:"required"`
	SSLMode               string        `validate:"oneof=disable require verify-ca verify-full"`
	MaxConnections        int           `validate:"gte=1"`
	MaxIdleConnections    int           `validate:"gte=0"`
	ConnectionMaxLifetime time.Duration
	ConnectTimeout        time.Duration
}

// MongoConfig contains document store settings for the clothing reference data.
type MongoConfig struct {
	URI                     string `validate:"required,startswith=mongodb"`
	Database                string `validate:"required"`
	ClothingCollection      string `validate:"required"`
	PrecipitationCollection string `validate:"required"`
	ConnectTimeout          time.Duration
}

// ObservabilityConfig contains settings for distributed tracing and metrics.
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64 `validate:"gte=0,lte=1"`
}

// WeatherAPIConfig contains settings for the upstream weather provider.
type WeatherAPIConfig struct {
	BaseURL      string        `validate:"required,url"`
	APIKey       string        `validate:"required"`
	ForecastDays int           `validate:"gte=1,lte=14"`
	RPS          float64       `validate:"gte=0"`
	Burst        int           `validate:"gte=1"`
	HTTPTimeout  time.Duration
}

// CacheConfig contains per-payload result cache TTLs.
type CacheConfig struct {
	CityTTL        time.Duration
	CoordinatesTTL time.Duration
	CityWeatherTTL time.Duration
}

// HistoryConfig contains search history settings.
type HistoryConfig struct {
	Window time.Duration `validate:"gt=0"`
}

// RateLimitConfig contains inbound rate limiting settings.
type RateLimitConfig struct {
	RPS    int `validate:"gte=1"`
	Window time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// A .env file in the working directory, when present, seeds variables that are not already set.
//
// Returns:
//   - *Config: Configuration with values from environment or defaults
//   - error: .env parse error or validation failure
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	environment := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  environment,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Database:      loadDatabase(),
		Mongo:         loadMongo(),
		Observability: ObservabilityConfig{
			ServiceName:    "weather-outfit",
			ServiceVersion: getEnv("VERSION", "1.0.0"),
			Environment:    environment,
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:     getEnvAsFloat("OTEL_SAMPLE_RATE", 0.1),
		},
		WeatherAPI: loadWeatherAPI(),
		Cache:      CacheConfig{
			CityTTL:        getEnvAsDuration("CACHE_CITY_TTL", 3600*time.Second),
			CoordinatesTTL: getEnvAsDuration("CACHE_COORDINATES_TTL", 60*time.Second),
			CityWeatherTTL: getEnvAsDuration("CACHE_CITY_WEATHER_TTL", 60*time.Second),
		},
		History: HistoryConfig{
			Window: getEnvAsDuration("HISTORY_WINDOW", 300*time.Second),
		},
		RateLimit: RateLimitConfig{
			RPS:    getEnvAsInt("RATE_LIMIT_RPS", 100),
			Window: time.Minute,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads and validates only the Postgres section, for tools that need nothing else.
func LoadDatabase() (DatabaseConfig, error) {
	if err := loadDotEnv(); err != nil {
		return DatabaseConfig{}, err
	}

	cfg := loadDatabase()

	return cfg, validateSection(cfg)
}

// LoadMongo reads and validates only the document store section.
func LoadMongo() (MongoConfig, error) {
	if err := loadDotEnv(); err != nil {
		return MongoConfig{}, err
	}

	cfg := loadMongo()

	return cfg, validateSection(cfg)
}

// LoadWeatherAPI reads and validates only the weather provider section.
func LoadWeatherAPI() (WeatherAPIConfig, error) {
	if err := loadDotEnv(); err != nil {
		return WeatherAPIConfig{}, err
	}

	cfg := loadWeatherAPI()

	return cfg, validateSection(cfg)
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	return nil
}

func validateSection(section interface{}) error {
	if err := validator.New().Struct(section); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:                  getEnv("DB_HOST", "localhost"),
		Port:                  getEnvAsInt("DB_PORT", 5432),
		User:                  getEnv("DB_USER", "weather"),
		Password:              getEnv("DB_PASSWORD", ""),
		Database:              getEnv("DB_NAME", "weather_outfit"),
		SSLMode:               getEnv("DB_SSLMODE", "disable"),
		MaxConnections:        25,
		MaxIdleConnections:    5,
		ConnectionMaxLifetime: 5 * time.Minute,
		ConnectTimeout:        getEnvAsDuration("DB_CONNECT_TIMEOUT", 30*time.Second),
	}
}

func loadMongo() MongoConfig {
	return MongoConfig{
		URI:                     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database:                getEnv("MONGO_DATABASE", "weather_outfit"),
		ClothingCollection:      getEnv("MONGO_CLOTHING_COLLECTION", "clothing"),
		PrecipitationCollection: getEnv("MONGO_PRECIPITATION_COLLECTION", "precipitation"),
		ConnectTimeout:          getEnvAsDuration("MONGO_CONNECT_TIMEOUT", 30*time.Second),
	}
}

func loadWeatherAPI() WeatherAPIConfig {
	return WeatherAPIConfig{
		BaseURL:      getEnv("WEATHER_API_BASE_URL", "https://api.weatherapi.com/v1"),
		APIKey:       getEnv("WEATHER_API_KEY", ""),
		ForecastDays: getEnvAsInt("WEATHER_API_FORECAST_DAYS", 3),
		RPS:          getEnvAsFloat("WEATHER_API_RPS", 10),
		Burst:        getEnvAsInt("WEATHER_API_BURST", 5),
		HTTPTimeout:  getEnvAsDuration("WEATHER_API_TIMEOUT", 10*time.Second),
	}
}

// Validate checks struct constraints on every section.
func (c *Config) Validate() error {
	return validateSection(c)
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// URL builds the postgres:// form golang-migrate expects.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// getEnv retrieves an environment variable value with a fallback default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer with a fallback default.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}

	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean with a fallback default.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
