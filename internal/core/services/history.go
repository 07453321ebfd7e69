package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

// historyRecorder debounces search history per (user, target): a new row is written only
// when there is no previous one or the latest is at least window old.
//
// The latest-then-insert pair is not atomic; two concurrent identical searches may both insert.
type historyRecorder struct {
	repo   ports.SearchHistoryRepository
	window time.Duration
	now    func() time.Time
}

func (h *historyRecorder) stale(last time.Time, found bool, now time.Time) bool {
	return !found || now.Sub(last) >= h.window
}

// RecordCity reports whether a row was inserted.
func (h *historyRecorder) RecordCity(ctx context.Context, userID, cityID int64) (bool, error) {
	now := h.now()

	last, found, err := h.repo.LatestCitySearch(ctx, userID, cityID)
	if err != nil {
		return false, fmt.Errorf("latest city search: %w", err)
	}

	if !h.stale(last, found, now) {
		return false, nil
	}

	entry := domain.CitySearch{UserID: userID, CityID: cityID, RequestedAt: now}
	if err := h.repo.InsertCitySearch(ctx, entry); err != nil {
		return false, fmt.Errorf("insert city search: %w", err)
	}

	return true, nil
}

// RecordCoordinates stores the raw coordinates plus the place the provider resolved them to.
func (h *historyRecorder) RecordCoordinates(ctx context.Context, userID int64, coords domain.Coordinates, place domain.Location) (bool, error) {
	now := h.now()

	last, found, err := h.repo.LatestCoordinatesSearch(ctx, userID, coords)
	if err != nil {
		return false, fmt.Errorf("latest coordinates search: %w", err)
	}

	if !h.stale(last, found, now) {
		return false, nil
	}

	entry := domain.CoordinatesSearch{
		UserID:      userID,
		Coordinates: coords,
		Place:       place.Name,
		Region:      place.Region,
		Country:     place.Country,
		RequestedAt: now,
	}
	if err := h.repo.InsertCoordinatesSearch(ctx, entry); err != nil {
		return false, fmt.Errorf("insert coordinates search: %w", err)
	}

	return true, nil
}
