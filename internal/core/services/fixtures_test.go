package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
	"github.com/sean-rowe/weather-outfit/internal/core/ports/portstest"
)

// MockWeatherClient is a mock implementation of the WeatherClient interface.
type MockWeatherClient struct {
	mock.Mock
}

// Fetch mocks the weather client Fetch method.
func (m *MockWeatherClient) Fetch(ctx context.Context, query string, days int) (*domain.WeatherSnapshot, error) {
	args := m.Called(ctx, query, days)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.WeatherSnapshot), args.Error(1)
}

var (
	brussels = domain.City{
		ID:             2800866,
		Name:           "Brussels",
		Region:         "Brussels Capital",
		Country:        "Belgium",
		Coordinates:    domain.Coordinates{Latitude: 50.8504, Longitude: 4.34878},
		Population:     1019022,
		Timezone:       "Europe/Brussels",
		AlternateNames: []string{"Bruxelles", "Brussel", "Brüssel"},
	}

	parisFrance = domain.City{
		ID:          2988507,
		Name:        "Paris",
		Region:      "Ile-de-France",
		Country:     "France",
		Coordinates: domain.Coordinates{Latitude: 48.85341, Longitude: 2.3488},
		Population:  2138551,
		Timezone:    "Europe/Paris",
	}

	parisTexas = domain.City{
		ID:          4717560,
		Name:        "Paris",
		Region:      "Texas",
		Country:     "United States of America",
		Coordinates: domain.Coordinates{Latitude: 33.66094, Longitude: -95.55551},
		Population:  24782,
		Timezone:    "America/Chicago",
	}

	mildNone = &domain.ClothingRecommendation{
		UpperBody: domain.ClothingLayers{BaseLayer: []string{"T-shirt"}, MidLayer: []string{"Light sweater"}},
		LowerBody: domain.ClothingLayers{BaseLayer: []string{"Chinos"}},
		Footwear:  []string{"Sneakers"},
	}

	mildRain = &domain.ClothingRecommendation{
		UpperBody: domain.ClothingLayers{BaseLayer: []string{"T-shirt"}, OuterLayerShell: []string{"Rain jacket"}},
		LowerBody: domain.ClothingLayers{BaseLayer: []string{"Jeans"}},
		Footwear:  []string{"Waterproof shoes"},
	}
)

// snapshotAt builds a provider payload for a place at coords with the given apparent temperature.
func snapshotAt(name string, coords domain.Coordinates, feelsLike float64, code int) *domain.WeatherSnapshot {
	return &domain.WeatherSnapshot{
		Location: domain.ProviderLocation{
			Name:        name,
			Region:      "Brussels Capital",
			Country:     "Belgium",
			Coordinates: coords,
			TimezoneID:  "Europe/Brussels",
			LocalTime:   "2024-06-01 14:00",
		},
		Current: domain.CurrentConditions{
			TemperatureC: feelsLike + 0.5,
			FeelsLikeC:   feelsLike,
			Condition:    domain.Condition{Text: "Sunny", Icon: "//cdn.weatherapi.com/weather/64x64/day/113.png", Code: code},
			LastUpdated:  "2024-06-01 13:45",
			WindKph:      11.2,
			Humidity:     55,
			Cloudiness:   10,
		},
		Forecast: []domain.DailyForecast{
			{
				Date:      "2024-06-01",
				MinTempC:  14.1,
				MaxTempC:  24.3,
				Condition: domain.Condition{Text: "Sunny", Code: code},
				Hours: []domain.HourlyForecast{
					{Time: "2024-06-01 00:00", TemperatureC: 15.2, Condition: domain.Condition{Text: "Clear"}},
					{Time: "2024-06-01 01:00", TemperatureC: 14.8, Condition: domain.Condition{Text: "Clear"}},
				},
			},
		},
	}
}

type pipeline struct {
	client  *MockWeatherClient
	history *portstest.History
	cache   *portstest.Cache
	clock   *portstest.Clock
	service ports.WeatherService
}

func newPipeline(logger *zap.Logger) *pipeline {
	p := &pipeline{
		client:  new(MockWeatherClient),
		history: &portstest.History{},
		cache:   portstest.NewCache(),
		clock:   portstest.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
	}

	p.service = NewWeatherService(Dependencies{
		Client: p.client,
		Cities: portstest.NewCities(brussels, parisFrance, parisTexas),
		Precipitation: portstest.NewPrecipitation(map[int]domain.Precipitation{
			1000: domain.PrecipitationNone,
			1183: domain.PrecipitationRain,
			1225: domain.PrecipitationSnow,
			1030: domain.PrecipitationUnclassified,
		}),
		Clothing: portstest.NewClothing(
			domain.ClothingDocument{Range: domain.TemperatureRange{Min: 20, Max: 25}, None: mildNone, Rain: mildRain},
			domain.ClothingDocument{Range: domain.TemperatureRange{Min: 10, Max: 15}, None: mildNone},
		),
		History: p.history,
		Cache:   p.cache,
		Clock:   p.clock.Now,
	}, DefaultSettings(), logger)

	return p
}

func userID(id int64) *int64 {
	return &id
}
