package weatherapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
)

const brusselsPayload = `{
  "location": {"name": "Brussels", "region": "Brussels Capital", "country": "Belgium",
    "lat": 50.83, "lon": 4.33, "tz_id": "Europe/Brussels", "localtime": "2024-06-01 14:00"},
  "current": {"last_updated": "2024-06-01 13:45", "temp_c": 23.0, "feelslike_c": 22.4,
    "condition": {"text": "Sunny", "icon": "//cdn.weatherapi.com/weather/64x64/day/113.png", "code": 1000},
    "wind_kph": 11.2, "humidity": 55, "cloud": 10},
  "forecast": {"forecastday": [
    {"date": "2024-06-01",
     "day": {"maxtemp_c": 24.3, "mintemp_c": 14.1, "condition": {"text": "Sunny", "icon": "", "code": 1000}},
     "hour": [
       {"time": "2024-06-01 00:00", "temp_c": 15.2, "condition": {"text": "Clear", "icon": "", "code": 1000}},
       {"time": "2024-06-01 01:00", "temp_c": 14.8, "condition": {"text": "Clear", "icon": "", "code": 1000}}
     ]}
  ]}
}`

func TestClient_Fetch(t *testing.T) {
	var gotQuery, gotKey, gotDays, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		gotDays = r.URL.Query().Get("days")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(brusselsPayload))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", server.Client(), zap.NewNop())

	snapshot, err := client.Fetch(context.Background(), "50.8504,4.34878", 3)
	require.NoError(t, err)

	assert.Equal(t, "/forecast.json", gotPath)
	assert.Equal(t, "50.8504,4.34878", gotQuery)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "3", gotDays)

	assert.Equal(t, "Brussels", snapshot.Location.Name)
	assert.Equal(t, domain.Coordinates{Latitude: 50.83, Longitude: 4.33}, snapshot.Location.Coordinates)
	assert.Equal(t, "Europe/Brussels", snapshot.Location.TimezoneID)
	assert.Equal(t, 22.4, snapshot.Current.FeelsLikeC)
	assert.Equal(t, 1000, snapshot.Current.Condition.Code)
	assert.Equal(t, 10, snapshot.Current.Cloudiness)

	require.Len(t, snapshot.Forecast, 1)
	assert.Equal(t, 14.1, snapshot.Forecast[0].MinTempC)
	require.Len(t, snapshot.Forecast[0].Hours, 2)
	assert.Equal(t, "2024-06-01 01:00", snapshot.Forecast[0].Hours[1].Time)
}

func TestClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		providerError bool
		message       string
	}{
		{
			name:          "provider error with 400",
			status:        http.StatusBadRequest,
			body:          `{"error": {"code": 1006, "message": "No matching location found."}}`,
			providerError: true,
			message:       "No matching location found.",
		},
		{
			name:          "provider error with 200",
			status:        http.StatusOK,
			body:          `{"error": {"code": 1003, "message": "Parameter q is missing."}}`,
			providerError: true,
			message:       "Parameter q is missing.",
		},
		{
			name:   "server error without body",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"location": `,
		},
		{
			name:   "missing location",
			status: http.StatusOK,
			body:   `{"current": {"temp_c": 1}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "secret", server.Client(), zap.NewNop())

			snapshot, err := client.Fetch(context.Background(), "Atlantis", 1)

			require.Error(t, err)
			assert.Nil(t, snapshot)
			assert.Equal(t, tt.providerError, errors.Is(err, domain.ErrProvider))

			if tt.message != "" {
				var werr *domain.WeatherError
				require.ErrorAs(t, err, &werr)
				assert.Equal(t, tt.message, werr.Message)
			}
		})
	}
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(brusselsPayload))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", server.Client(), zap.NewNop(), WithRateLimit(0.001, 1))

	_, err := client.Fetch(context.Background(), "Brussels", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Fetch(ctx, "Brussels", 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrProvider))
}
