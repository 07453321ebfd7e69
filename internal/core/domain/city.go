package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// City is a catalog entry imported from the bulk city dataset. It is read-only at request time.
type City struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Region         string      `json:"region"`
	Country        string      `json:"country"`
	Coordinates    Coordinates `json:"coordinates"`
	Population     int64       `json:"population"`
	Timezone       string      `json:"timezone"`
	AlternateNames []string    `json:"alternateNames,omitempty"`
}

// NormalizeCityName trims the input and converts it to title case, which is the
// form both queries and catalog names are compared in.
func NormalizeCityName(name string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(name))
}

// MatchesName reports whether the normalized query equals the canonical name or any
// alternate name after title-casing.
func (c City) MatchesName(normalized string) bool {
	if NormalizeCityName(c.Name) == normalized {
		return true
	}

	for _, alt := range c.AlternateNames {
		if NormalizeCityName(alt) == normalized {
			return true
		}
	}

	return false
}

// RefinedQuery is the free-text place string used when a coordinate lookup resolved
// to a differently named place: "{name}, {region}, {country}" with empty parts omitted.
func (c City) RefinedQuery() string {
	parts := make([]string, 0, 3)

	for _, part := range []string{c.Name, c.Region, c.Country} {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}
