package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_JSONKeys(t *testing.T) {
	result := Result{
		Location: Location{Name: "Brussels", Country: "Belgium", LocalTime: "2024-06-01 14:00"},
		Weather:  CurrentWeather{TemperatureC: 13.1, FeelsLikeC: 12, Humidity: 82, WindKph: 14.4},
		Forecast: []ForecastDay{{
			Date:     "2024-06-01",
			MaxTempC: 16.2,
			Hours:    []ForecastHour{{Time: "2024-06-01 00:00", TemperatureC: 11.3}},
		}},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))

	weather := generic["weather"].(map[string]interface{})
	assert.Equal(t, 12.0, weather["feels like, °C"])
	assert.Equal(t, 13.1, weather["temperature, °C"])
	assert.Equal(t, 82.0, weather["humidity, %"])
	assert.Equal(t, 14.4, weather["wind, kph"])

	location := generic["location"].(map[string]interface{})
	assert.Equal(t, "Brussels", location["location"])
	assert.Equal(t, "2024-06-01 14:00", location["local time"])
	assert.NotContains(t, location, "population")

	assert.Nil(t, generic["clothing"])

	day := generic["forecast"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 16.2, day["max temperature, °C"])

	hour := day["hours"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 11.3, hour["temperature, °C"])

	var decoded Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result, decoded)
}

func TestCurrentWeather_UnmarshalRejectsWrongTypes(t *testing.T) {
	var w CurrentWeather

	err := json.Unmarshal([]byte(`{"feels like, °C":"warm"}`), &w)
	assert.ErrorContains(t, err, "feels like, °C")
}
