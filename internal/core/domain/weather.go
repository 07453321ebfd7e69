// Package domain contains the core business entities and domain logic for the weather outfit service.
// This package defines the fundamental types and business rules that are independent
// of external frameworks and infrastructure concerns.
package domain

import (
	"fmt"
	"math"
)

// CoordinateTolerance is the maximum distance, in degrees on each axis, between the
// requested coordinates and the location the provider resolved them to.
const CoordinateTolerance = 1.0

// coordinateEpsilon absorbs binary rounding in the subtraction, so decimal offsets of exactly
// the tolerance (1.13 - 0.13) are not accepted.
const coordinateEpsilon = 1e-9

// Coordinates represent a geographic location using latitude and longitude.
// This follows the standard geographic coordinate system used worldwide.
type Coordinates struct {
	// Latitude specifies the north-south position (-90 to 90 degrees)
	Latitude float64 `json:"latitude"`

	// Longitude specifies the east-west position (-180 to 180 degrees)
	Longitude float64 `json:"longitude"`
}

// Validate checks if the coordinates are within valid geographic bounds.
// Latitude must be between -90 and 90 degrees (south to north poles).
// Longitude must be between -180 and 180 degrees (international date line).
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", c.Latitude)
	}

	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", c.Longitude)
	}

	return nil
}

// Query formats the coordinates the way the upstream provider expects them in its q parameter.
func (c Coordinates) Query() string {
	return fmt.Sprintf("%g,%g", c.Latitude, c.Longitude)
}

// Within reports whether other lies strictly inside the tolerance box around c.
func (c Coordinates) Within(other Coordinates, tolerance float64) bool {
	limit := tolerance - coordinateEpsilon

	return math.Abs(c.Latitude-other.Latitude) < limit &&
		math.Abs(c.Longitude-other.Longitude) < limit
}

// Condition is the provider's description of the sky.
type Condition struct {
	Text string
	Icon string
	Code int
}

// ProviderLocation is the place the upstream provider matched a query to.
type ProviderLocation struct {
	Name        string
	Region      string
	Country     string
	Coordinates Coordinates
	TimezoneID  string
	LocalTime   string
}

// CurrentConditions holds the provider's current reading.
type CurrentConditions struct {
	TemperatureC float64
	FeelsLikeC   float64
	Condition    Condition
	LastUpdated  string
	WindKph      float64
	Humidity     int
	Cloudiness   int
}

// HourlyForecast is one hour inside a forecast day.
type HourlyForecast struct {
	Time         string
	TemperatureC float64
	Condition    Condition
}

// DailyForecast is one day of the provider forecast, hours in provider order.
type DailyForecast struct {
	Date      string
	MinTempC  float64
	MaxTempC  float64
	Condition Condition
	Hours     []HourlyForecast
}

// WeatherSnapshot is the normalized provider payload for a single lookup.
// It is never persisted; only derived search history is.
type WeatherSnapshot struct {
	Location ProviderLocation
	Current  CurrentConditions
	Forecast []DailyForecast
}

// FeelsLikeBucket returns the clothing lookup key for the snapshot's apparent temperature.
func (s *WeatherSnapshot) FeelsLikeBucket() TemperatureRange {
	return BucketTemperature(int(math.Floor(s.Current.FeelsLikeC)))
}
