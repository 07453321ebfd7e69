package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// CityRecord is one row of the city table.
type CityRecord struct {
	ID             int64
	Name           string
	Region         string
	Country        string
	Latitude       float64
	Longitude      float64
	Population     int64
	Timezone       string
	AlternateNames []string
}

const cityColumns = `id, name, COALESCE(region, ''), country, latitude, longitude,
	COALESCE(population, 0), COALESCE(timezone, ''), COALESCE(alternatenames, '{}')`

// FindCitiesByName returns the rows whose name or an alternate name equals name,
// ignoring case, most populous first.
func (p *PostgresDB) FindCitiesByName(ctx context.Context, name string) (cities []CityRecord, err error) {
	ctx, done := p.instrument(ctx, "FindCitiesByName", attribute.String("city.name", name))
	defer func() { done(err) }()

	query := `
		SELECT ` + cityColumns + `
		FROM city
		WHERE lower(name) = lower($1)
		   OR lower($1) = ANY (SELECT lower(alt) FROM unnest(alternatenames) AS alt)
		ORDER BY population DESC NULLS LAST, id
	`

	rows, err := p.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, err
		}

		cities = append(cities, c)
	}

	return cities, rows.Err()
}

// FindCityByID returns ErrNotFound when no row has id.
func (p *PostgresDB) FindCityByID(ctx context.Context, id int64) (city *CityRecord, err error) {
	ctx, done := p.instrument(ctx, "FindCityByID", attribute.Int64("city.id", id))
	defer func() {
		if errors.Is(err, ErrNotFound) {
			done(nil)
			return
		}

		done(err)
	}()

	row := p.db.QueryRowContext(ctx, `SELECT `+cityColumns+` FROM city WHERE id = $1`, id)

	c, err := scanCity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("city %d: %w", id, ErrNotFound)
	}

	if err != nil {
		return nil, err
	}

	return &c, nil
}

// InsertCities writes records in one transaction and returns how many were inserted.
// Rows whose coordinates already exist are skipped.
func (p *PostgresDB) InsertCities(ctx context.Context, records []CityRecord) (inserted int, err error) {
	ctx, done := p.instrument(ctx, "InsertCities", attribute.Int("city.count", len(records)))
	defer func() { done(err) }()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO city (name, region, country, latitude, longitude, population, timezone, alternatenames)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NULLIF($7, ''), $8)
		ON CONFLICT (latitude, longitude) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range records {
		res, err := stmt.ExecContext(ctx,
			r.Name, r.Region, r.Country, r.Latitude, r.Longitude,
			r.Population, r.Timezone, pq.Array(r.AlternateNames))
		if err != nil {
			return inserted, fmt.Errorf("insert city %q: %w", r.Name, err)
		}

		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return inserted, nil
}

// CityCoordinates lists the coordinates of every stored city.
func (p *PostgresDB) CityCoordinates(ctx context.Context) (coords [][2]float64, err error) {
	ctx, done := p.instrument(ctx, "CityCoordinates")
	defer func() { done(err) }()

	rows, err := p.db.QueryContext(ctx, `SELECT latitude, longitude FROM city`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c [2]float64
		if err := rows.Scan(&c[0], &c[1]); err != nil {
			return nil, err
		}

		coords = append(coords, c)
	}

	return coords, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCity(s scanner) (CityRecord, error) {
	var c CityRecord

	err := s.Scan(
		&c.ID,
		&c.Name,
		&c.Region,
		&c.Country,
		&c.Latitude,
		&c.Longitude,
		&c.Population,
		&c.Timezone,
		pq.Array(&c.AlternateNames),
	)

	return c, err
}
