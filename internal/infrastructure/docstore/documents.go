package docstore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
)

type itemsDocument struct {
	ClothingItems []string `bson:"clothingItems"`
}

type layersDocument struct {
	BaseLayer       itemsDocument `bson:"BaseLayer"`
	MidLayer        itemsDocument `bson:"MidLayer"`
	OuterLayerShell itemsDocument `bson:"OuterLayerShell"`
	Accessories     itemsDocument `bson:"Accessories"`
}

type outfitDocument struct {
	UpperBody layersDocument `bson:"UpperBody"`
	LowerBody layersDocument `bson:"LowerBody"`
	Footwear  itemsDocument  `bson:"Footwear"`
}

type rangeDocument struct {
	Min int `bson:"min"`
	Max int `bson:"max"`
}

// ClothingDocument is the stored shape of one temperature range entry.
type ClothingDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TemperatureRange rangeDocument      `bson:"temperatureRange" json:"temperatureRange"`
	Precipitation    struct {
		None *outfitDocument `bson:"None,omitempty" json:"None,omitempty"`
		Rain *outfitDocument `bson:"Rain,omitempty" json:"Rain,omitempty"`
		Snow *outfitDocument `bson:"Snow,omitempty" json:"Snow,omitempty"`
	} `bson:"precipitation" json:"precipitation"`
}

// PrecipitationDocument maps one provider condition code to a category.
// An empty or missing Precipitation leaves the code unclassified.
type PrecipitationDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Code          int                `bson:"code" json:"code"`
	Text          string             `bson:"text,omitempty" json:"text,omitempty"`
	Precipitation string             `bson:"precipitation,omitempty" json:"precipitation,omitempty"`
}

func (l layersDocument) toDomain() domain.ClothingLayers {
	return domain.ClothingLayers{
		BaseLayer:       l.BaseLayer.ClothingItems,
		MidLayer:        l.MidLayer.ClothingItems,
		OuterLayerShell: l.OuterLayerShell.ClothingItems,
		Accessories:     l.Accessories.ClothingItems,
	}
}

func layersFromDomain(l domain.ClothingLayers) layersDocument {
	return layersDocument{
		BaseLayer:       itemsDocument{ClothingItems: l.BaseLayer},
		MidLayer:        itemsDocument{ClothingItems: l.MidLayer},
		OuterLayerShell: itemsDocument{ClothingItems: l.OuterLayerShell},
		Accessories:     itemsDocument{ClothingItems: l.Accessories},
	}
}

func (o *outfitDocument) toDomain() *domain.ClothingRecommendation {
	if o == nil {
		return nil
	}

	return &domain.ClothingRecommendation{
		UpperBody: o.UpperBody.toDomain(),
		LowerBody: o.LowerBody.toDomain(),
		Footwear:  o.Footwear.ClothingItems,
	}
}

func outfitFromDomain(r *domain.ClothingRecommendation) *outfitDocument {
	if r == nil {
		return nil
	}

	return &outfitDocument{
		UpperBody: layersFromDomain(r.UpperBody),
		LowerBody: layersFromDomain(r.LowerBody),
		Footwear:  itemsDocument{ClothingItems: r.Footwear},
	}
}

// ToDomain converts the stored document.
func (d *ClothingDocument) ToDomain() *domain.ClothingDocument {
	return &domain.ClothingDocument{
		Range: domain.TemperatureRange{Min: d.TemperatureRange.Min, Max: d.TemperatureRange.Max},
		None:  d.Precipitation.None.toDomain(),
		Rain:  d.Precipitation.Rain.toDomain(),
		Snow:  d.Precipitation.Snow.toDomain(),
	}
}

// ClothingFromDomain builds the stored shape of doc.
func ClothingFromDomain(doc domain.ClothingDocument) ClothingDocument {
	var d ClothingDocument

	d.TemperatureRange = rangeDocument{Min: doc.Range.Min, Max: doc.Range.Max}
	d.Precipitation.None = outfitFromDomain(doc.None)
	d.Precipitation.Rain = outfitFromDomain(doc.Rain)
	d.Precipitation.Snow = outfitFromDomain(doc.Snow)

	return d
}

// Category parses the stored precipitation name.
func (d *PrecipitationDocument) Category() (domain.Precipitation, error) {
	p, err := domain.ParsePrecipitation(d.Precipitation)
	if err != nil {
		return domain.PrecipitationUnclassified, fmt.Errorf("condition code %d: %w", d.Code, err)
	}

	return p, nil
}
