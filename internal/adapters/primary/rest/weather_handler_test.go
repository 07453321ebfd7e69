package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
	"github.com/sean-rowe/weather-outfit/internal/middleware"
)

// MockWeatherService is a mock implementation of the WeatherService interface.
type MockWeatherService struct {
	mock.Mock
}

func (m *MockWeatherService) SearchCities(ctx context.Context, query string) ([]domain.City, error) {
	args := m.Called(ctx, query)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.City), args.Error(1)
}

func (m *MockWeatherService) GetWeatherByCity(ctx context.Context, cityID int64, req ports.WeatherRequest) (*domain.Result, error) {
	args := m.Called(ctx, cityID, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Result), args.Error(1)
}

func (m *MockWeatherService) GetWeatherByCoordinates(ctx context.Context, coords domain.Coordinates, req ports.WeatherRequest) (*domain.Result, error) {
	args := m.Called(ctx, coords, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Result), args.Error(1)
}

func newRouter(service ports.WeatherService) *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.UserIdentity(zap.NewNop()))
	NewWeatherHandler(service, zap.NewNop()).RegisterRoutes(api)

	return router
}

func serve(t *testing.T, service ports.WeatherService, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}

	rr := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rr, req)

	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()

	var body middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))

	return body
}

var brusselsResult = &domain.Result{
	Location: domain.Location{Name: "Brussels", Region: "Brussels Capital", Country: "Belgium", Latitude: 50.85, Longitude: 4.35},
	Weather:  domain.CurrentWeather{TemperatureC: 13.1, FeelsLikeC: 12, Condition: "Light rain", ConditionCode: 1183},
	Clothing: &domain.ClothingRecommendation{Footwear: []string{"Rain boots"}},
	Forecast: []domain.ForecastDay{},
}

func TestWeatherHandler_GetWeatherByCity(t *testing.T) {
	userID := int64(42)

	svc := new(MockWeatherService)
	svc.On("GetWeatherByCity", mock.Anything, int64(2800866), ports.WeatherRequest{UserID: &userID, Days: 5}).
		Return(brusselsResult, nil)

	rr := serve(t, svc, "/api/v1/weather/cities/2800866?days=5", http.Header{"X-User-Id": {"42"}})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "Belgium", body["location"].(map[string]interface{})["country"])
	assert.Equal(t, 12.0, body["weather"].(map[string]interface{})["feels like, °C"])
	assert.Equal(t, []interface{}{"Rain boots"}, body["clothing"].(map[string]interface{})["footwear"])

	svc.AssertExpectations(t)
}

func TestWeatherHandler_GetWeatherByCoordinates(t *testing.T) {
	svc := new(MockWeatherService)
	svc.On("GetWeatherByCoordinates", mock.Anything, domain.Coordinates{Latitude: 50.85, Longitude: 4.35}, ports.WeatherRequest{}).
		Return(brusselsResult, nil)

	rr := serve(t, svc, "/api/v1/weather?lat=50.85&lon=4.35", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestWeatherHandler_RequestValidation(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		header         http.Header
		expectedStatus int
		expectedCode   string
	}{
		{name: "missing longitude", target: "/api/v1/weather?lat=50.85", expectedStatus: http.StatusBadRequest, expectedCode: domain.CodeInvalidInput},
		{name: "bad latitude", target: "/api/v1/weather?lat=north&lon=4.35", expectedStatus: http.StatusBadRequest, expectedCode: domain.CodeInvalidInput},
		{name: "bad longitude", target: "/api/v1/weather?lat=50.85&lon=east", expectedStatus: http.StatusBadRequest, expectedCode: domain.CodeInvalidInput},
		{name: "bad days", target: "/api/v1/weather?lat=50.85&lon=4.35&days=many", expectedStatus: http.StatusBadRequest, expectedCode: domain.CodeInvalidInput},
		{name: "bad city id", target: "/api/v1/weather/cities/brussels", expectedStatus: http.StatusBadRequest, expectedCode: domain.CodeInvalidInput},
		{name: "malformed user", target: "/api/v1/weather/cities/1", header: http.Header{"X-User-Id": {"bob"}}, expectedStatus: http.StatusBadRequest, expectedCode: domain.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWeatherService)

			rr := serve(t, svc, tt.target, tt.header)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedCode, decodeError(t, rr).Error)
			svc.AssertNotCalled(t, "GetWeatherByCity", mock.Anything, mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "GetWeatherByCoordinates", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestWeatherHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
	}{
		{
			name:            "invalid input",
			err:             domain.InvalidInput("The provided coordinates are invalid", nil),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    domain.CodeInvalidInput,
			expectedMessage: "The provided coordinates are invalid",
		},
		{
			name:            "provider message passes through",
			err:             domain.ProviderError("No matching location found."),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    domain.CodeProviderError,
			expectedMessage: "No matching location found.",
		},
		{
			name:            "no location",
			err:             domain.NoLocationFound(),
			expectedStatus:  http.StatusBadRequest,
			expectedCode:    domain.CodeNoLocationFound,
			expectedMessage: "No information found for given coordinates",
		},
		{
			name:           "reference data",
			err:            domain.ReferenceDataNotFound("no clothing data for temperature range [-5, 0]"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   domain.CodeReferenceDataNotFound,
		},
		{
			name:            "provider unreachable",
			err:             &domain.WeatherError{Code: domain.CodeForecastRetrieval, Message: "Failed to retrieve weather forecast", Cause: errors.New("dial tcp")},
			expectedStatus:  http.StatusServiceUnavailable,
			expectedCode:    domain.CodeForecastRetrieval,
			expectedMessage: "Weather service is temporarily unavailable",
		},
		{
			name:            "unexpected",
			err:             errors.New("pq: connection refused"),
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    "INTERNAL_ERROR",
			expectedMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWeatherService)
			svc.On("GetWeatherByCoordinates", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			rr := serve(t, svc, "/api/v1/weather?lat=1&lon=2", nil)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			body := decodeError(t, rr)
			assert.Equal(t, tt.expectedCode, body.Error)

			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, body.Message)
			}
		})
	}
}

func TestWeatherHandler_SearchCities(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := new(MockWeatherService)
		svc.On("SearchCities", mock.Anything, "paris").Return([]domain.City{
			{ID: 2988507, Name: "Paris", Country: "France", Population: 2138551},
			{ID: 4717560, Name: "Paris", Region: "Texas", Country: "United States of America", Population: 24782},
		}, nil)

		rr := serve(t, svc, "/api/v1/cities?q=paris", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var cities []domain.City
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&cities))
		require.Len(t, cities, 2)
		assert.Equal(t, int64(2988507), cities[0].ID)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockWeatherService)
		svc.On("SearchCities", mock.Anything, "Atlantis").Return(nil, domain.CityNotFound("Atlantis"))

		rr := serve(t, svc, "/api/v1/cities?q=Atlantis", nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, domain.CodeCityNotFound, decodeError(t, rr).Error)
	})
}
