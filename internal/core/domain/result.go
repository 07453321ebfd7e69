package domain

// Location is the location group of an assembled result.
type Location struct {
	Name       string  `json:"location"`
	Region     string  `json:"region"`
	Country    string  `json:"country"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Timezone   string  `json:"timezone"`
	LocalTime  string  `json:"local time"`
	Population *int64  `json:"population,omitempty"`
}

// CurrentWeather is the weather group of an assembled result. Its JSON keys carry units
// and are written by MarshalJSON.
type CurrentWeather struct {
	TemperatureC  float64
	FeelsLikeC    float64
	Condition     string
	ConditionCode int
	Icon          string
	LastUpdated   string
	WindKph       float64
	Humidity      int
	Cloudiness    int
}

// ForecastHour is one hourly entry of the forecast group.
type ForecastHour struct {
	Time         string
	TemperatureC float64
	Condition    string
	Icon         string
}

// ForecastDay is one day of the forecast group.
type ForecastDay struct {
	Date      string
	MaxTempC  float64
	MinTempC  float64
	Condition string
	Icon      string
	Hours     []ForecastHour
}

// Result is the payload handed to the presentation layer. Clothing is nil when the
// precipitation category could not be classified.
type Result struct {
	Location Location                `json:"location"`
	Weather  CurrentWeather          `json:"weather"`
	Clothing *ClothingRecommendation `json:"clothing"`
	Forecast []ForecastDay           `json:"forecast"`
}
