// Package rest implements the HTTP handlers of the weather outfit API.
// It is the primary adapter: it parses requests, calls the WeatherService
// and maps domain errors to status codes.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
	"github.com/sean-rowe/weather-outfit/internal/middleware"
)

// WeatherHandler serves city search and weather-with-clothing lookups.
type WeatherHandler struct {
	service ports.WeatherService
	logger  *zap.Logger
}

func NewWeatherHandler(service ports.WeatherService, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the API under r.
func (h *WeatherHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/cities", h.SearchCities).Methods(http.MethodGet)
	r.HandleFunc("/weather/cities/{id}", h.GetWeatherByCity).Methods(http.MethodGet)
	r.HandleFunc("/weather", h.GetWeatherByCoordinates).Methods(http.MethodGet)
}

// SearchCities handles GET /cities?q=.
//
// Response codes:
//   - 200: list of matching cities, most populous first
//   - 400: INVALID_INPUT for an empty or malformed query
//   - 404: CITY_NOT_FOUND
func (h *WeatherHandler) SearchCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.service.SearchCities(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, cities)
}

// GetWeatherByCity handles GET /weather/cities/{id}?days=.
func (h *WeatherHandler) GetWeatherByCity(w http.ResponseWriter, r *http.Request) {
	cityID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidInput, "City id must be an integer")
		return
	}

	req, ok := h.weatherRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetWeatherByCity(r.Context(), cityID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, result)
}

// GetWeatherByCoordinates handles GET /weather?lat=&lon=&days=.
//
// Response codes:
//   - 200: assembled weather and clothing
//   - 400: INVALID_INPUT, PROVIDER_ERROR, NO_LOCATION_FOUND
//   - 500: REFERENCE_DATA_NOT_FOUND
//   - 503: FORECAST_RETRIEVAL_ERROR
func (h *WeatherHandler) GetWeatherByCoordinates(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	latStr, lonStr := query.Get("lat"), query.Get("lon")

	if latStr == "" || lonStr == "" {
		h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidInput,
			"Both 'lat' and 'lon' query parameters are required")
		return
	}

	latitude, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid latitude format")
		return
	}

	longitude, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid longitude format")
		return
	}

	req, ok := h.weatherRequest(w, r)
	if !ok {
		return
	}

	coords := domain.Coordinates{Latitude: latitude, Longitude: longitude}

	result, err := h.service.GetWeatherByCoordinates(r.Context(), coords, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, result)
}

// weatherRequest reads the caller and the optional days parameter. It writes the error response itself.
func (h *WeatherHandler) weatherRequest(w http.ResponseWriter, r *http.Request) (ports.WeatherRequest, bool) {
	req := ports.WeatherRequest{UserID: middleware.UserIDFromContext(r.Context())}

	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, domain.CodeInvalidInput, "days must be an integer")
			return req, false
		}

		req.Days = days
	}

	return req, true
}

func (h *WeatherHandler) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *WeatherHandler) respondWithError(w http.ResponseWriter, status int, code, message string) {
	middleware.WriteError(w, status, code, message)
}

// handleServiceError maps domain error codes to HTTP responses.
//
// Error mappings:
//   - INVALID_INPUT, PROVIDER_ERROR, NO_LOCATION_FOUND -> 400 Bad Request
//   - CITY_NOT_FOUND -> 404 Not Found
//   - REFERENCE_DATA_NOT_FOUND -> 500 Internal Server Error
//   - FORECAST_RETRIEVAL_ERROR -> 503 Service Unavailable
//   - Other errors -> 500 INTERNAL_ERROR
func (h *WeatherHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var e *domain.WeatherError

	if !errors.As(err, &e) {
		h.logger.Error("unexpected error",
			zap.Error(err),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)

		h.respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")

		return
	}

	switch e.Code {
	case domain.CodeInvalidInput, domain.CodeProviderError, domain.CodeNoLocationFound:
		h.respondWithError(w, http.StatusBadRequest, e.Code, e.Message)
	case domain.CodeCityNotFound:
		h.respondWithError(w, http.StatusNotFound, e.Code, e.Message)
	case domain.CodeReferenceDataNotFound:
		h.logger.Error("reference data missing",
			zap.String("message", e.Message),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())))
		h.respondWithError(w, http.StatusInternalServerError, e.Code, e.Message)
	case domain.CodeForecastRetrieval:
		h.respondWithError(w, http.StatusServiceUnavailable, e.Code, "Weather service is temporarily unavailable")
	default:
		h.respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}
