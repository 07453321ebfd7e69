// Package weatherapi implements a client for the weatherapi.com forecast API.
// This package serves as a secondary adapter, translating a location query
// into a forecast.json call and converting the payload back to domain objects.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.weatherapi.com/v1"

// Client implements the WeatherClient port for weatherapi.com.
// Outbound calls are paced by a token bucket so a burst of cache misses
// cannot exhaust the API key quota.
type Client struct {
	// baseURL is the API root, without the endpoint path
	baseURL string

	// apiKey is sent as the key query parameter
	apiKey string

	// httpClient handles HTTP communication with timeout
	httpClient *http.Client

	// limiter paces outbound requests; nil disables pacing
	limiter *rate.Limiter

	tracer trace.Tracer
	logger *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithRateLimit allows rps requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewClient creates a new weatherapi.com client.
//
// Parameters:
//   - baseURL: API root (DefaultBaseURL when empty)
//   - apiKey: weatherapi.com key
//   - httpClient: HTTP client with timeout configuration
//   - logger: Zap logger for API interaction logging
//
// Returns:
//   - *Client: Configured API client
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		tracer:     otel.Tracer("weatherapi"),
		logger:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

// forecastResponse represents the forecast.json payload. Error is set instead of the
// other fields when the provider rejects the query.
type forecastResponse struct {
	Location *struct {
		Name      string  `json:"name"`
		Region    string  `json:"region"`
		Country   string  `json:"country"`
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
		TzID      string  `json:"tz_id"`
		Localtime string  `json:"localtime"`
	} `json:"location"`
	Current struct {
		TempC       float64   `json:"temp_c"`
		FeelsLikeC  float64   `json:"feelslike_c"`
		Condition   condition `json:"condition"`
		LastUpdated string    `json:"last_updated"`
		WindKph     float64   `json:"wind_kph"`
		Humidity    int       `json:"humidity"`
		Cloud       int       `json:"cloud"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC  float64   `json:"maxtemp_c"`
				MinTempC  float64   `json:"mintemp_c"`
				Condition condition `json:"condition"`
			} `json:"day"`
			Hour []struct {
				Time      string    `json:"time"`
				TempC     float64   `json:"temp_c"`
				Condition condition `json:"condition"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fetch issues one forecast.json request for query, which is either "{lat},{lon}"
// or a free-text place.
//
// Return:
//   - *domain.WeatherSnapshot: normalized payload
//   - error: domain.ProviderError when the provider reports an error field,
//     any other error for transport, status or decoding failures
func (c *Client) Fetch(ctx context.Context, query string, days int) (*domain.WeatherSnapshot, error) {
	ctx, span := c.tracer.Start(ctx, "weatherapi.Fetch", trace.WithAttributes(
		attribute.String("weatherapi.query", query),
		attribute.Int("weatherapi.days", days),
	))
	defer span.End()

	snapshot, err := c.fetch(ctx, query, days)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	return snapshot, nil
}

func (c *Client) fetch(ctx context.Context, query string, days int) (*domain.WeatherSnapshot, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)

	if days > 0 {
		params.Set("days", strconv.Itoa(days))
	}

	endpoint := c.baseURL + "/forecast.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.httpClient.Timeout == 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		req = req.WithContext(ctx)
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	var payload forecastResponse

	// weatherapi.com reports query errors with a 4xx status and a JSON error body.
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("weatherapi returned status %d", resp.StatusCode)
		}

		return nil, fmt.Errorf("decode weatherapi response: %w", err)
	}

	c.logger.Debug("weatherapi response",
		zap.String("query", query),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if payload.Error != nil {
		return nil, domain.ProviderError(payload.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weatherapi returned status %d", resp.StatusCode)
	}

	if payload.Location == nil {
		return nil, errors.New("weatherapi response has no location")
	}

	return payload.snapshot(), nil
}

func (r *forecastResponse) snapshot() *domain.WeatherSnapshot {
	loc := r.Location
	cur := r.Current

	s := &domain.WeatherSnapshot{
		Location: domain.ProviderLocation{
			Name:        loc.Name,
			Region:      loc.Region,
			Country:     loc.Country,
			Coordinates: domain.Coordinates{Latitude: loc.Lat, Longitude: loc.Lon},
			TimezoneID:  loc.TzID,
			LocalTime:   loc.Localtime,
		},
		Current: domain.CurrentConditions{
			TemperatureC: cur.TempC,
			FeelsLikeC:   cur.FeelsLikeC,
			Condition:    domain.Condition(cur.Condition),
			LastUpdated:  cur.LastUpdated,
			WindKph:      cur.WindKph,
			Humidity:     cur.Humidity,
			Cloudiness:   cur.Cloud,
		},
		Forecast: make([]domain.DailyForecast, 0, len(r.Forecast.ForecastDay)),
	}

	for _, fd := range r.Forecast.ForecastDay {
		day := domain.DailyForecast{
			Date:      fd.Date,
			MinTempC:  fd.Day.MinTempC,
			MaxTempC:  fd.Day.MaxTempC,
			Condition: domain.Condition(fd.Day.Condition),
			Hours:     make([]domain.HourlyForecast, 0, len(fd.Hour)),
		}

		for _, h := range fd.Hour {
			day.Hours = append(day.Hours, domain.HourlyForecast{
				Time:         h.Time,
				TemperatureC: h.TempC,
				Condition:    domain.Condition(h.Condition),
			})
		}

		s.Forecast = append(s.Forecast, day)
	}

	return s
}
