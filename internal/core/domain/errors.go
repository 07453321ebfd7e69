package domain

import "fmt"

// Error codes carried by WeatherError. Handlers map them to transport status codes.
const (
	CodeInvalidInput          = "INVALID_INPUT"
	CodeCityNotFound          = "CITY_NOT_FOUND"
	CodeProviderError         = "PROVIDER_ERROR"
	CodeNoLocationFound       = "NO_LOCATION_FOUND"
	CodeReferenceDataNotFound = "REFERENCE_DATA_NOT_FOUND"
	CodeForecastRetrieval     = "FORECAST_RETRIEVAL_ERROR"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrInvalidInput          = &WeatherError{Code: CodeInvalidInput}
	ErrCityNotFound          = &WeatherError{Code: CodeCityNotFound}
	ErrProvider              = &WeatherError{Code: CodeProviderError}
	ErrNoLocationFound       = &WeatherError{Code: CodeNoLocationFound}
	ErrReferenceDataNotFound = &WeatherError{Code: CodeReferenceDataNotFound}
	ErrForecastRetrieval     = &WeatherError{Code: CodeForecastRetrieval}
)

// WeatherError represents domain-specific errors that can occur during weather operations.
// It provides structured error information with error codes and optional underlying causes.
type WeatherError struct {
	// Code identifies the type of error for programmatic handling
	Code string

	// Message provides a human-readable error description
	Message string

	// Cause wraps an underlying error if applicable
	Cause error
}

// Error implements the error interface for WeatherError.
// It formats the error message to include the code, message, and underlying cause.
func (e *WeatherError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *WeatherError) Unwrap() error {
	return e.Cause
}

// Is matches any WeatherError with the same code.
func (e *WeatherError) Is(target error) bool {
	t, ok := target.(*WeatherError)
	if !ok {
		return false
	}

	return t.Code == e.Code
}

// InvalidInput is returned before any I/O for malformed coordinates, ids or queries.
func InvalidInput(message string, cause error) *WeatherError {
	return &WeatherError{Code: CodeInvalidInput, Message: message, Cause: cause}
}

// CityNotFound is returned when the catalog has no match.
func CityNotFound(query string) *WeatherError {
	return &WeatherError{Code: CodeCityNotFound, Message: fmt.Sprintf("no city found for %q", query)}
}

// ProviderError passes the upstream provider's own message through.
func ProviderError(message string) *WeatherError {
	return &WeatherError{Code: CodeProviderError, Message: message}
}

// NoLocationFound is returned when the provider resolved the coordinates to a place
// outside CoordinateTolerance.
func NoLocationFound() *WeatherError {
	return &WeatherError{Code: CodeNoLocationFound, Message: "No information found for given coordinates"}
}

// ReferenceDataNotFound marks missing curated data in the document store.
func ReferenceDataNotFound(message string) *WeatherError {
	return &WeatherError{Code: CodeReferenceDataNotFound, Message: message}
}
