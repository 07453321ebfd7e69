package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/database"
)

// DatabaseAdapter adapts PostgresDB rows to the city catalog and search history ports.
type DatabaseAdapter struct {
	db *database.PostgresDB
}

func NewDatabaseAdapter(db *database.PostgresDB) *DatabaseAdapter {
	return &DatabaseAdapter{db: db}
}

// FindByName implements ports.CityRepository.
func (d *DatabaseAdapter) FindByName(ctx context.Context, name string) ([]domain.City, error) {
	records, err := d.db.FindCitiesByName(ctx, name)
	if err != nil {
		return nil, err
	}

	cities := make([]domain.City, 0, len(records))
	for _, r := range records {
		cities = append(cities, cityFromRecord(r))
	}

	return cities, nil
}

// FindByID implements ports.CityRepository.
func (d *DatabaseAdapter) FindByID(ctx context.Context, id int64) (*domain.City, error) {
	record, err := d.db.FindCityByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("city %d: %w", id, ports.ErrNotFound)
	}

	if err != nil {
		return nil, err
	}

	city := cityFromRecord(*record)

	return &city, nil
}

// LatestCitySearch implements ports.SearchHistoryRepository.
func (d *DatabaseAdapter) LatestCitySearch(ctx context.Context, userID, cityID int64) (time.Time, bool, error) {
	return d.db.LatestCitySearch(ctx, userID, cityID)
}

func (d *DatabaseAdapter) InsertCitySearch(ctx context.Context, entry domain.CitySearch) error {
	return d.db.InsertCitySearch(ctx, database.CitySearchRecord{
		UserID:    entry.UserID,
		CityID:    entry.CityID,
		RequestAt: entry.RequestedAt,
	})
}

func (d *DatabaseAdapter) LatestCoordinatesSearch(ctx context.Context, userID int64, coords domain.Coordinates) (time.Time, bool, error) {
	return d.db.LatestCoordinatesSearch(ctx, userID, coords.Latitude, coords.Longitude)
}

func (d *DatabaseAdapter) InsertCoordinatesSearch(ctx context.Context, entry domain.CoordinatesSearch) error {
	return d.db.InsertCoordinatesSearch(ctx, database.CoordinatesSearchRecord{
		UserID:    entry.UserID,
		Latitude:  entry.Coordinates.Latitude,
		Longitude: entry.Coordinates.Longitude,
		Place:     entry.Place,
		Region:    entry.Region,
		Country:   entry.Country,
		RequestAt: entry.RequestedAt,
	})
}

func cityFromRecord(r database.CityRecord) domain.City {
	return domain.City{
		ID:             r.ID,
		Name:           r.Name,
		Region:         r.Region,
		Country:        r.Country,
		Coordinates:    domain.Coordinates{Latitude: r.Latitude, Longitude: r.Longitude},
		Population:     r.Population,
		Timezone:       r.Timezone,
		AlternateNames: r.AlternateNames,
	}
}
