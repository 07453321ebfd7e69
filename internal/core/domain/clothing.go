package domain

import "fmt"

const (
	bucketWidth = 5

	// Feels-like temperatures below this saturate to the coldest bucket.
	coldestBucketMin = -25

	// Feels-like temperatures at or above this saturate to the warmest bucket.
	warmestBucketMax = 30
)

// TemperatureRange is a closed 5-degree interval used as the clothing lookup key.
type TemperatureRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// String renders the range as "[min,max]".
func (r TemperatureRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

// BucketTemperature maps a feels-like temperature in °C to its range.
// Below -25 saturates to [-25,-20]; 30 and above saturates to [25,30].
func BucketTemperature(celsius int) TemperatureRange {
	switch {
	case celsius < coldestBucketMin:
		return TemperatureRange{Min: coldestBucketMin, Max: coldestBucketMin + bucketWidth}
	case celsius >= warmestBucketMax:
		return TemperatureRange{Min: warmestBucketMax - bucketWidth, Max: warmestBucketMax}
	}

	lower := floorDiv(celsius, bucketWidth) * bucketWidth

	return TemperatureRange{Min: lower, Max: lower + bucketWidth}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

// Precipitation is the category a provider condition code maps to.
type Precipitation uint8

const (
	// PrecipitationUnclassified means the mapping exists but carries no category;
	// clothing lookup is skipped rather than failed.
	PrecipitationUnclassified Precipitation = iota
	PrecipitationNone
	PrecipitationRain
	PrecipitationSnow
)

// ParsePrecipitation converts the document-store spelling ("None", "Rain", "Snow").
// An empty string is unclassified.
func ParsePrecipitation(s string) (Precipitation, error) {
	switch s {
	case "":
		return PrecipitationUnclassified, nil
	case "None":
		return PrecipitationNone, nil
	case "Rain":
		return PrecipitationRain, nil
	case "Snow":
		return PrecipitationSnow, nil
	default:
		return PrecipitationUnclassified, fmt.Errorf("unknown precipitation %q", s)
	}
}

func (p Precipitation) String() string {
	switch p {
	case PrecipitationNone:
		return "None"
	case PrecipitationRain:
		return "Rain"
	case PrecipitationSnow:
		return "Snow"
	default:
		return ""
	}
}

// ClothingLayers is one body zone of a recommendation.
type ClothingLayers struct {
	BaseLayer       []string `json:"baseLayer"`
	MidLayer        []string `json:"midLayer"`
	OuterLayerShell []string `json:"outerLayerShell"`
	Accessories     []string `json:"accessories"`
}

// ClothingRecommendation is the outfit for one precipitation category.
type ClothingRecommendation struct {
	UpperBody ClothingLayers `json:"upperBody"`
	LowerBody ClothingLayers `json:"lowerBody"`
	Footwear  []string       `json:"footwear"`
}

// ClothingDocument is the curated reference entry for one temperature range.
// Rain and Snow sections are optional; None is expected but may be missing in malformed data.
type ClothingDocument struct {
	Range TemperatureRange
	None  *ClothingRecommendation
	Rain  *ClothingRecommendation
	Snow  *ClothingRecommendation
}

// Section selects the subsection for p. The bool is false when the document has no
// such section or p is unclassified.
func (d *ClothingDocument) Section(p Precipitation) (*ClothingRecommendation, bool) {
	var section *ClothingRecommendation

	switch p {
	case PrecipitationNone:
		section = d.None
	case PrecipitationRain:
		section = d.Rain
	case PrecipitationSnow:
		section = d.Snow
	case PrecipitationUnclassified:
		return nil, false
	}

	return section, section != nil
}
