package app

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/circuitbreaker"
)

// CircuitBreakerWeatherClient wraps a weather client with circuit breaker protection.
// While the breaker is open Fetch fails fast with gobreaker.ErrOpenState.
type CircuitBreakerWeatherClient struct {
	client ports.WeatherClient
	cb     *circuitbreaker.Breaker
}

// NewCircuitBreakerWeatherClient registers the "weatherapi" breaker on manager and wraps client with it.
// onStateChange, when set, is told about every transition.
func NewCircuitBreakerWeatherClient(client ports.WeatherClient, manager *circuitbreaker.Manager, onStateChange func(name, from, to string)) *CircuitBreakerWeatherClient {
	cfg := circuitbreaker.Config{
		MaxRequests:  3,
		Interval:     10 * time.Second,
		Timeout:      30 * time.Second,
		IsSuccessful: providerHealthy,
	}

	if onStateChange != nil {
		cfg.OnStateChange = func(name string, from, to gobreaker.State) {
			onStateChange(name, from.String(), to.String())
		}
	}

	return &CircuitBreakerWeatherClient{
		client: client,
		cb:     manager.Get("weatherapi", cfg),
	}
}

// providerHealthy reports errors that do not indicate an unhealthy provider: a query
// the provider rejected, or a request the caller abandoned.
func providerHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrProvider) ||
		errors.Is(err, context.Canceled)
}

// Fetch retrieves a weather snapshot with circuit breaker protection.
func (c *CircuitBreakerWeatherClient) Fetch(ctx context.Context, query string, days int) (*domain.WeatherSnapshot, error) {
	var result *domain.WeatherSnapshot

	err := c.cb.Execute(ctx, "fetch-forecast", func(ctx context.Context) error {
		var err error
		result, err = c.client.Fetch(ctx, query, days)

		return err
	})

	return result, err
}
