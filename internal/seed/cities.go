// Package seed loads the city catalog and the clothing reference data from dataset files.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/database"
)

const insertBatchSize = 500

// GeonamesCity is one entry of a geonamescache cities.json file.
type GeonamesCity struct {
	GeonameID      int64    `json:"geonameid"`
	Name           string   `json:"name"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	CountryCode    string   `json:"countrycode"`
	Population     int64    `json:"population"`
	Timezone       string   `json:"timezone"`
	AlternateNames []string `json:"alternatenames"`
}

// ReadCities decodes a cities.json object keyed by geoname id, ordered by id.
func ReadCities(r io.Reader) ([]GeonamesCity, error) {
	var byID map[string]GeonamesCity
	if err := json.NewDecoder(r).Decode(&byID); err != nil {
		return nil, fmt.Errorf("decode cities: %w", err)
	}

	cities := make([]GeonamesCity, 0, len(byID))
	for _, c := range byID {
		cities = append(cities, c)
	}

	sort.Slice(cities, func(i, j int) bool { return cities[i].GeonameID < cities[j].GeonameID })

	return cities, nil
}

// ReadCountries decodes a countries.json object into ISO code -> country name.
func ReadCountries(r io.Reader) (map[string]string, error) {
	var byCode map[string]struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r).Decode(&byCode); err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}

	names := make(map[string]string, len(byCode))
	for code, c := range byCode {
		names[code] = c.Name
	}

	return names, nil
}

// CityStore is the part of the catalog the importer writes to.
type CityStore interface {
	CityCoordinates(ctx context.Context) ([][2]float64, error)
	InsertCities(ctx context.Context, records []database.CityRecord) (int, error)
}

// ImportReport counts what one import did.
type ImportReport struct {
	Read       int
	Skipped    int
	Inserted   int
	Unresolved int
}

// CityImporter adds dataset cities whose coordinates are not yet in the catalog.
type CityImporter struct {
	store   CityStore
	regions ports.WeatherClient
	workers int
	logger  *zap.Logger
}

// NewCityImporter creates an importer. With a nil regions client the region column is left empty.
func NewCityImporter(store CityStore, regions ports.WeatherClient, workers int, logger *zap.Logger) *CityImporter {
	if workers < 1 {
		workers = 1
	}

	return &CityImporter{
		store:   store,
		regions: regions,
		workers: workers,
		logger:  logger,
	}
}

func (im *CityImporter) Import(ctx context.Context, cities []GeonamesCity, countries map[string]string) (ImportReport, error) {
	report := ImportReport{Read: len(cities)}

	existing, err := im.store.CityCoordinates(ctx)
	if err != nil {
		return report, fmt.Errorf("load existing coordinates: %w", err)
	}

	seen := make(map[[2]float64]struct{}, len(existing)+len(cities))
	for _, c := range existing {
		seen[c] = struct{}{}
	}

	var pending []database.CityRecord

	for _, c := range cities {
		key := [2]float64{c.Latitude, c.Longitude}
		if _, ok := seen[key]; ok {
			report.Skipped++
			continue
		}

		country, ok := countries[c.CountryCode]
		if !ok {
			im.logger.Warn("skipping city with unknown country",
				zap.Int64("geonameid", c.GeonameID),
				zap.String("countrycode", c.CountryCode))
			report.Skipped++

			continue
		}

		seen[key] = struct{}{}
		pending = append(pending, database.CityRecord{
			Name:           domain.NormalizeCityName(c.Name),
			Country:        country,
			Latitude:       c.Latitude,
			Longitude:      c.Longitude,
			Population:     c.Population,
			Timezone:       c.Timezone,
			AlternateNames: c.AlternateNames,
		})
	}

	if im.regions != nil {
		report.Unresolved, err = im.resolveRegions(ctx, pending)
		if err != nil {
			return report, err
		}
	}

	for start := 0; start < len(pending); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(pending) {
			end = len(pending)
		}

		n, err := im.store.InsertCities(ctx, pending[start:end])
		report.Inserted += n

		if err != nil {
			return report, fmt.Errorf("insert cities: %w", err)
		}

		im.logger.Info("inserted city batch", zap.Int("inserted", report.Inserted), zap.Int("pending", len(pending)))
	}

	return report, nil
}

// resolveRegions fills Region in place and returns how many cities could not be resolved.
func (im *CityImporter) resolveRegions(ctx context.Context, records []database.CityRecord) (int, error) {
	unresolved := make([]bool, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)

	for i := range records {
		i := i
		g.Go(func() error {
			region, err := lookupRegion(gctx, im.regions, records[i])
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				im.logger.Debug("region lookup failed", zap.String("city", records[i].Name), zap.Error(err))
				unresolved[i] = true

				return nil
			}

			records[i].Region = region

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	count := 0
	for _, u := range unresolved {
		if u {
			count++
		}
	}

	return count, nil
}

// lookupRegion asks the provider about the coordinates first. When the place it resolves to is
// neither the city nor one of its alternate names, it asks again by name.
func lookupRegion(ctx context.Context, client ports.WeatherClient, r database.CityRecord) (string, error) {
	coords := domain.Coordinates{Latitude: r.Latitude, Longitude: r.Longitude}

	snapshot, err := client.Fetch(ctx, coords.Query(), 1)
	if err != nil {
		return "", err
	}

	city := domain.City{Name: r.Name, AlternateNames: r.AlternateNames}
	if city.MatchesName(domain.NormalizeCityName(snapshot.Location.Name)) {
		return snapshot.Location.Region, nil
	}

	snapshot, err = client.Fetch(ctx, r.Name, 1)
	if err != nil {
		return "", err
	}

	if snapshot.Location.Region == "" {
		return "", errors.New("provider returned no region")
	}

	return snapshot.Location.Region, nil
}
