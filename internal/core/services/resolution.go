package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

// resolutionState is the outcome of checking one provider response against what was asked for.
type resolutionState int

const (
	stateResolved resolutionState = iota
	stateNeedsRefinement
	stateFailed
)

func (s resolutionState) String() string {
	switch s {
	case stateResolved:
		return "resolved"
	case stateNeedsRefinement:
		return "needs_refinement"
	default:
		return "failed"
	}
}

// resolution carries the state plus whatever the next step needs: the snapshot when resolved,
// the refined query when another fetch is due, the error when failed.
type resolution struct {
	state      resolutionState
	snapshot   *domain.WeatherSnapshot
	refinement string
	err        error
}

// evaluator inspects a fetched snapshot and decides the next state.
type evaluator func(*domain.WeatherSnapshot) resolution

// acceptSnapshot is used after the one allowed refinement: whatever came back is final.
func acceptSnapshot(s *domain.WeatherSnapshot) resolution {
	return resolution{state: stateResolved, snapshot: s}
}

// evaluateCoordinates fails with NO_LOCATION_FOUND when the provider matched a place
// outside the tolerance box around the requested point.
func evaluateCoordinates(requested domain.Coordinates) evaluator {
	return func(s *domain.WeatherSnapshot) resolution {
		if !requested.Within(s.Location.Coordinates, domain.CoordinateTolerance) {
			return resolution{state: stateFailed, err: domain.NoLocationFound()}
		}

		return resolution{state: stateResolved, snapshot: s}
	}
}

// evaluateCity asks for a refinement when the provider named the place differently from
// the catalog city and all its alternate names.
func evaluateCity(city domain.City) evaluator {
	return func(s *domain.WeatherSnapshot) resolution {
		if city.MatchesName(domain.NormalizeCityName(s.Location.Name)) {
			return resolution{state: stateResolved, snapshot: s}
		}

		return resolution{state: stateNeedsRefinement, refinement: city.RefinedQuery()}
	}
}

// locationResolver drives the provider through at most two fetches per lookup.
type locationResolver struct {
	client  ports.WeatherClient
	metrics ports.MetricsRecorder
	logger  *zap.Logger
}

// step performs one fetch and evaluates it.
func (r *locationResolver) step(ctx context.Context, query string, days int, evaluate evaluator) resolution {
	start := time.Now()
	snapshot, err := r.client.Fetch(ctx, query, days)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, domain.ErrProvider) {
			r.metrics.RecordProviderCall(ctx, "provider_error", duration)
			return resolution{state: stateFailed, err: err}
		}

		r.metrics.RecordProviderCall(ctx, "transport_error", duration)

		return resolution{
			state: stateFailed,
			err: &domain.WeatherError{
				Code:    domain.CodeForecastRetrieval,
				Message: "Failed to retrieve weather forecast",
				Cause:   err,
			},
		}
	}

	r.metrics.RecordProviderCall(ctx, "ok", duration)

	return evaluate(snapshot)
}

func (r *locationResolver) finish(res resolution) (*domain.WeatherSnapshot, error) {
	switch res.state {
	case stateResolved:
		return res.snapshot, nil
	case stateFailed:
		return nil, res.err
	default:
		return nil, &domain.WeatherError{Code: domain.CodeNoLocationFound, Message: "location could not be resolved"}
	}
}

// ResolveCoordinates fetches by "{lat},{lon}" and enforces the coordinate tolerance.
func (r *locationResolver) ResolveCoordinates(ctx context.Context, coords domain.Coordinates, days int) (*domain.WeatherSnapshot, error) {
	return r.finish(r.step(ctx, coords.Query(), days, evaluateCoordinates(coords)))
}

// ResolveCity fetches by the city's coordinates and, if the provider named the place
// differently, re-queries once by "{name}, {region}, {country}".
func (r *locationResolver) ResolveCity(ctx context.Context, city domain.City, days int) (*domain.WeatherSnapshot, error) {
	res := r.step(ctx, city.Coordinates.Query(), days, evaluateCity(city))

	if res.state == stateNeedsRefinement {
		r.logger.Info("provider location name mismatch, refining query",
			zap.Int64("city_id", city.ID),
			zap.String("city", city.Name),
			zap.String("query", res.refinement))

		res = r.step(ctx, res.refinement, days, acceptSnapshot)
	}

	return r.finish(res)
}
