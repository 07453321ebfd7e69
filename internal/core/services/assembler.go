package services

import "github.com/sean-rowe/weather-outfit/internal/core/domain"

// Assemble relabels a provider snapshot into the four output groups. city adds its
// population to the location group; a snapshot without forecast yields an empty forecast.
func Assemble(snapshot *domain.WeatherSnapshot, city *domain.City, clothing *domain.ClothingRecommendation) *domain.Result {
	loc := snapshot.Location
	cur := snapshot.Current

	result := &domain.Result{
		Location: domain.Location{
			Name:      loc.Name,
			Region:    loc.Region,
			Country:   loc.Country,
			Latitude:  loc.Coordinates.Latitude,
			Longitude: loc.Coordinates.Longitude,
			Timezone:  loc.TimezoneID,
			LocalTime: loc.LocalTime,
		},
		Weather: domain.CurrentWeather{
			TemperatureC:  cur.TemperatureC,
			FeelsLikeC:    cur.FeelsLikeC,
			Condition:     cur.Condition.Text,
			ConditionCode: cur.Condition.Code,
			Icon:          cur.Condition.Icon,
			LastUpdated:   cur.LastUpdated,
			WindKph:       cur.WindKph,
			Humidity:      cur.Humidity,
			Cloudiness:    cur.Cloudiness,
		},
		Clothing: clothing,
		Forecast: make([]domain.ForecastDay, 0, len(snapshot.Forecast)),
	}

	if city != nil {
		population := city.Population
		result.Location.Population = &population
	}

	for _, day := range snapshot.Forecast {
		hours := make([]domain.ForecastHour, 0, len(day.Hours))

		for _, h := range day.Hours {
			hours = append(hours, domain.ForecastHour{
				Time:         h.Time,
				TemperatureC: h.TemperatureC,
				Condition:    h.Condition.Text,
				Icon:         h.Condition.Icon,
			})
		}

		result.Forecast = append(result.Forecast, domain.ForecastDay{
			Date:      day.Date,
			MaxTempC:  day.MaxTempC,
			MinTempC:  day.MinTempC,
			Condition: day.Condition.Text,
			Icon:      day.Condition.Icon,
			Hours:     hours,
		})
	}

	return result
}
