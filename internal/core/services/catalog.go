package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

const maxCityQueryLength = 200

// cityCatalog resolves free-text and id lookups against the city table.
type cityCatalog struct {
	repo ports.CityRepository
}

// validateCityQuery rejects queries that cannot name a city before any I/O happens.
func validateCityQuery(query string) error {
	trimmed := strings.TrimSpace(query)

	if trimmed == "" {
		return domain.InvalidInput("city query must not be empty", nil)
	}

	if !utf8.ValidString(trimmed) || utf8.RuneCountInString(trimmed) > maxCityQueryLength {
		return domain.InvalidInput("city query is malformed", nil)
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return domain.InvalidInput("city query is malformed", nil)
		}
	}

	return nil
}

// FindByName returns every city whose canonical or alternate name equals the title-cased
// query, most populous first. An empty slice means no match.
func (c *cityCatalog) FindByName(ctx context.Context, query string) ([]domain.City, error) {
	normalized := domain.NormalizeCityName(query)

	candidates, err := c.repo.FindByName(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("find cities by name: %w", err)
	}

	matches := make([]domain.City, 0, len(candidates))

	for _, city := range candidates {
		if city.MatchesName(normalized) {
			matches = append(matches, city)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Population > matches[j].Population
	})

	return matches, nil
}

// FindByID maps a missing row to CITY_NOT_FOUND.
func (c *cityCatalog) FindByID(ctx context.Context, id int64) (*domain.City, error) {
	city, err := c.repo.FindByID(ctx, id)

	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.CityNotFound(strconv.FormatInt(id, 10))
	}

	if err != nil {
		return nil, fmt.Errorf("find city %d: %w", id, err)
	}

	return city, nil
}
