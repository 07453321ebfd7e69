// Package domain contains unit tests for domain rules.
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBucketTemperature tests the saturating 5-degree bucketing rule.
func TestBucketTemperature(t *testing.T) {
	tests := []struct {
		name     string
		celsius  int
		expected TemperatureRange
	}{
		{name: "mid range", celsius: 22, expected: TemperatureRange{Min: 20, Max: 25}},
		{name: "lower edge inclusive", celsius: 10, expected: TemperatureRange{Min: 10, Max: 15}},
		{name: "feels like twelve", celsius: 12, expected: TemperatureRange{Min: 10, Max: 15}},
		{name: "zero", celsius: 0, expected: TemperatureRange{Min: 0, Max: 5}},
		{name: "just below zero", celsius: -1, expected: TemperatureRange{Min: -5, Max: 0}},
		{name: "negative edge", celsius: -5, expected: TemperatureRange{Min: -5, Max: 0}},
		{name: "negative mid", celsius: -13, expected: TemperatureRange{Min: -15, Max: -10}},
		// Sub-zero saturation uses min=-25,max=-20; the reversed ordering is not produced.
		{name: "cold cap boundary", celsius: -25, expected: TemperatureRange{Min: -25, Max: -20}},
		{name: "below cold cap", celsius: -26, expected: TemperatureRange{Min: -25, Max: -20}},
		{name: "far below cold cap", celsius: -60, expected: TemperatureRange{Min: -25, Max: -20}},
		{name: "just below warm cap", celsius: 29, expected: TemperatureRange{Min: 25, Max: 30}},
		{name: "warm cap boundary", celsius: 30, expected: TemperatureRange{Min: 25, Max: 30}},
		{name: "above warm cap", celsius: 45, expected: TemperatureRange{Min: 25, Max: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BucketTemperature(tt.celsius))
		})
	}
}

// TestBucketTemperature_Totality checks every bucket is five wide and contains its input
// outside the saturated tails.
func TestBucketTemperature_Totality(t *testing.T) {
	for c := -200; c <= 200; c++ {
		r := BucketTemperature(c)

		assert.Equal(t, 5, r.Max-r.Min, "celsius %d", c)
		assert.LessOrEqual(t, r.Min, r.Max, "celsius %d", c)
		assert.GreaterOrEqual(t, r.Min, -25, "celsius %d", c)
		assert.LessOrEqual(t, r.Max, 30, "celsius %d", c)

		if c >= -25 && c < 30 {
			assert.True(t, c >= r.Min && c < r.Max, "celsius %d outside %s", c, r)
		}
	}
}

// TestParsePrecipitation tests parsing of the document-store spelling.
func TestParsePrecipitation(t *testing.T) {
	for _, p := range []Precipitation{PrecipitationNone, PrecipitationRain, PrecipitationSnow} {
		parsed, err := ParsePrecipitation(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	parsed, err := ParsePrecipitation("")
	require.NoError(t, err)
	assert.Equal(t, PrecipitationUnclassified, parsed)

	_, err = ParsePrecipitation("Hail")
	assert.Error(t, err)
}

// TestClothingDocument_Section tests subsection selection.
func TestClothingDocument_Section(t *testing.T) {
	rain := &ClothingRecommendation{Footwear: []string{"Rain boots"}}
	doc := &ClothingDocument{
		Range: TemperatureRange{Min: 10, Max: 15},
		None:  &ClothingRecommendation{Footwear: []string{"Sneakers"}},
		Rain:  rain,
	}

	section, ok := doc.Section(PrecipitationRain)
	assert.True(t, ok)
	assert.Same(t, rain, section)

	_, ok = doc.Section(PrecipitationSnow)
	assert.False(t, ok)

	_, ok = doc.Section(PrecipitationUnclassified)
	assert.False(t, ok)
}
