package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// CitySearchRecord is one row of city_search_history.
type CitySearchRecord struct {
	UserID    int64
	CityID    int64
	RequestAt time.Time
}

// CoordinatesSearchRecord is one row of coordinates_search_history.
type CoordinatesSearchRecord struct {
	UserID    int64
	Latitude  float64
	Longitude float64
	Place     string
	Region    string
	Country   string
	RequestAt time.Time
}

// LatestCitySearch returns the newest request_at for (userID, cityID).
// The bool is false when the user never searched the city.
func (p *PostgresDB) LatestCitySearch(ctx context.Context, userID, cityID int64) (at time.Time, found bool, err error) {
	ctx, done := p.instrument(ctx, "LatestCitySearch",
		attribute.Int64("user.id", userID), attribute.Int64("city.id", cityID))
	defer func() { done(err) }()

	return latest(p.db.QueryRowContext(ctx, `
		SELECT max(request_at) FROM city_search_history
		WHERE user_id = $1 AND city_id = $2
	`, userID, cityID))
}

func (p *PostgresDB) InsertCitySearch(ctx context.Context, r CitySearchRecord) (err error) {
	ctx, done := p.instrument(ctx, "InsertCitySearch",
		attribute.Int64("user.id", r.UserID), attribute.Int64("city.id", r.CityID))
	defer func() { done(err) }()

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO city_search_history (user_id, city_id, request_at) VALUES ($1, $2, $3)
	`, r.UserID, r.CityID, r.RequestAt.UTC())

	return err
}

// LatestCoordinatesSearch matches coordinates exactly.
func (p *PostgresDB) LatestCoordinatesSearch(ctx context.Context, userID int64, lat, lon float64) (at time.Time, found bool, err error) {
	ctx, done := p.instrument(ctx, "LatestCoordinatesSearch", attribute.Int64("user.id", userID))
	defer func() { done(err) }()

	return latest(p.db.QueryRowContext(ctx, `
		SELECT max(request_at) FROM coordinates_search_history
		WHERE user_id = $1 AND latitude = $2 AND longitude = $3
	`, userID, lat, lon))
}

func (p *PostgresDB) InsertCoordinatesSearch(ctx context.Context, r CoordinatesSearchRecord) (err error) {
	ctx, done := p.instrument(ctx, "InsertCoordinatesSearch", attribute.Int64("user.id", r.UserID))
	defer func() { done(err) }()

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO coordinates_search_history (user_id, latitude, longitude, place, region, country, request_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.UserID, r.Latitude, r.Longitude, r.Place, r.Region, r.Country, r.RequestAt.UTC())

	return err
}

func latest(row *sql.Row) (time.Time, bool, error) {
	var at sql.NullTime

	if err := row.Scan(&at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}

		return time.Time{}, false, err
	}

	return at.Time, at.Valid, nil
}
