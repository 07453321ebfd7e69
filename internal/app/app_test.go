package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/adapters/primary/rest"
	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
	"github.com/sean-rowe/weather-outfit/internal/core/ports/portstest"
	"github.com/sean-rowe/weather-outfit/internal/core/services"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/circuitbreaker"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/ratelimit"
	"github.com/sean-rowe/weather-outfit/internal/middleware"
	"github.com/sean-rowe/weather-outfit/internal/version"
)

type clientFunc func(ctx context.Context, query string, days int) (*domain.WeatherSnapshot, error)

func (f clientFunc) Fetch(ctx context.Context, query string, days int) (*domain.WeatherSnapshot, error) {
	return f(ctx, query, days)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var gent = domain.City{
	ID:          2797656,
	Name:        "Gent",
	Region:      "Flanders",
	Country:     "Belgium",
	Coordinates: domain.Coordinates{Latitude: 51.05, Longitude: 3.75},
	Population:  231493,
}

func gentSnapshot() *domain.WeatherSnapshot {
	return &domain.WeatherSnapshot{
		Location: domain.ProviderLocation{Name: "Gent", Region: "Flanders", Country: "Belgium", Coordinates: gent.Coordinates},
		Current: domain.CurrentConditions{
			TemperatureC: 22.4,
			FeelsLikeC:   22.4,
			Condition:    domain.Condition{Text: "Sunny", Code: 1000},
		},
	}
}

func newTestApp() *App {
	return &App{logger: zap.NewNop(), breakers: circuitbreaker.NewManager(zap.NewNop())}
}

func newTestRouter(t *testing.T, a *App, client ports.WeatherClient, limit int, checks map[string]pinger) (http.Handler, *portstest.History) {
	t.Helper()

	history := &portstest.History{}

	service := services.NewWeatherService(services.Dependencies{
		Client:        client,
		Cities:        portstest.NewCities(gent),
		Precipitation: portstest.NewPrecipitation(map[int]domain.Precipitation{1000: domain.PrecipitationNone}),
		Clothing: portstest.NewClothing(domain.ClothingDocument{
			Range: domain.TemperatureRange{Min: 20, Max: 25},
			None:  &domain.ClothingRecommendation{Footwear: []string{"Sneakers"}},
		}),
		History: history,
		Cache:   portstest.NewCache(),
	}, services.DefaultSettings(), zap.NewNop())

	router := a.setupRouter(
		rest.NewWeatherHandler(service, zap.NewNop()),
		middleware.NewRateLimitMiddleware(ratelimit.NewMemoryRateLimiter(zap.NewNop()), limit, time.Minute, zap.NewNop()),
		checks,
	)

	return router, history
}

func get(router http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	return rr
}

func TestRouter_WeatherByCityRecordsHistory(t *testing.T) {
	client := clientFunc(func(_ context.Context, query string, days int) (*domain.WeatherSnapshot, error) {
		return gentSnapshot(), nil
	})

	router, history := newTestRouter(t, newTestApp(), client, 100, nil)

	rr := get(router, "/api/v1/weather/cities/2797656", http.Header{"X-User-Id": {"7"}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "Gent", body["location"].(map[string]interface{})["location"])
	assert.Equal(t, []interface{}{"Sneakers"}, body["clothing"].(map[string]interface{})["footwear"])

	require.Equal(t, 1, history.CityRowCount())
	assert.Equal(t, int64(7), history.CityRows[0].UserID)
}

func TestRouter_RateLimited(t *testing.T) {
	client := clientFunc(func(context.Context, string, int) (*domain.WeatherSnapshot, error) {
		return gentSnapshot(), nil
	})

	router, _ := newTestRouter(t, newTestApp(), client, 1, nil)

	assert.Equal(t, http.StatusOK, get(router, "/api/v1/cities?q=gent", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "/api/v1/cities?q=gent", nil).Code)
	assert.Equal(t, http.StatusOK, get(router, "/health", nil).Code, "health is not rate limited")
}

func TestRouter_Readiness(t *testing.T) {
	a := newTestApp()
	NewCircuitBreakerWeatherClient(clientFunc(nil), a.breakers, nil)

	healthy := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	router, _ := newTestRouter(t, a, nil, 100, map[string]pinger{"postgres": healthy, "mongo": healthy})

	rr := get(router, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var ready readinessResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "mongo": "ok"}, ready.Checks)
	require.Len(t, ready.Breakers, 1)
	assert.Equal(t, "weatherapi", ready.Breakers[0].Name)
	assert.Equal(t, "closed", ready.Breakers[0].State)

	router, _ = newTestRouter(t, a, nil, 100, map[string]pinger{"postgres": healthy, "mongo": down})

	rr = get(router, "/health/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&ready))
	assert.Equal(t, "unavailable", ready.Status)
	assert.Equal(t, "connection refused", ready.Checks["mongo"])
}

func TestRouter_Version(t *testing.T) {
	router, _ := newTestRouter(t, newTestApp(), nil, 100, nil)

	rr := get(router, "/version", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var info version.Info
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&info))
	assert.Equal(t, version.Version, info.Version)
}

func TestCircuitBreakerWeatherClient(t *testing.T) {
	t.Run("provider errors keep the breaker closed", func(t *testing.T) {
		manager := circuitbreaker.NewManager(zap.NewNop())
		client := NewCircuitBreakerWeatherClient(clientFunc(func(context.Context, string, int) (*domain.WeatherSnapshot, error) {
			return nil, domain.ProviderError("No matching location found.")
		}), manager, nil)

		for i := 0; i < 5; i++ {
			_, err := client.Fetch(context.Background(), "Nowhere", 3)
			assert.ErrorIs(t, err, domain.ErrProvider)
		}

		assert.Equal(t, gobreaker.StateClosed, manager.Get("weatherapi", circuitbreaker.Config{}).State())
	})

	t.Run("transport errors open it", func(t *testing.T) {
		manager := circuitbreaker.NewManager(zap.NewNop())

		var transitions []string

		calls := 0
		client := NewCircuitBreakerWeatherClient(clientFunc(func(context.Context, string, int) (*domain.WeatherSnapshot, error) {
			calls++
			return nil, errors.New("dial tcp: connection refused")
		}), manager, func(name, from, to string) {
			transitions = append(transitions, from+"->"+to)
		})

		for i := 0; i < 3; i++ {
			_, _ = client.Fetch(context.Background(), "50.85,4.35", 3)
		}

		_, err := client.Fetch(context.Background(), "50.85,4.35", 3)
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []string{"closed->open"}, transitions)
	})

	t.Run("open breaker surfaces as retrieval error", func(t *testing.T) {
		a := newTestApp()
		client := NewCircuitBreakerWeatherClient(clientFunc(func(context.Context, string, int) (*domain.WeatherSnapshot, error) {
			return nil, errors.New("i/o timeout")
		}), a.breakers, nil)

		router, _ := newTestRouter(t, a, client, 100, nil)

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusServiceUnavailable, get(router, "/api/v1/weather?lat=51.05&lon=3.75", nil).Code)
		}

		rr := get(router, "/api/v1/weather?lat=51.05&lon=3.75", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		var body middleware.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, domain.CodeForecastRetrieval, body.Error)
	})
}
