package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

// outfitResolver turns a snapshot into a clothing recommendation using the two
// reference collections of the document store.
type outfitResolver struct {
	precipitation ports.PrecipitationRepository
	clothing      ports.ClothingRepository
}

// Classify maps a provider condition code to its precipitation category.
func (o *outfitResolver) Classify(ctx context.Context, code int) (domain.Precipitation, error) {
	category, err := o.precipitation.FindByCode(ctx, code)

	if errors.Is(err, ports.ErrNotFound) {
		return domain.PrecipitationUnclassified,
			domain.ReferenceDataNotFound(fmt.Sprintf("no precipitation mapping for condition code %d", code))
	}

	if err != nil {
		return domain.PrecipitationUnclassified, fmt.Errorf("classify condition code %d: %w", code, err)
	}

	return category, nil
}

// Resolve fetches the clothing document whose range equals r exactly.
func (o *outfitResolver) Resolve(ctx context.Context, r domain.TemperatureRange) (*domain.ClothingDocument, error) {
	doc, err := o.clothing.FindByRange(ctx, r)

	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.ReferenceDataNotFound("no clothing data for temperature range " + r.String())
	}

	if err != nil {
		return nil, fmt.Errorf("resolve clothing for %s: %w", r, err)
	}

	return doc, nil
}

// Extract selects the section for category. An unclassified category yields nil without error.
func Extract(doc *domain.ClothingDocument, category domain.Precipitation) (*domain.ClothingRecommendation, error) {
	if category == domain.PrecipitationUnclassified {
		return nil, nil
	}

	section, ok := doc.Section(category)
	if !ok {
		return nil, domain.ReferenceDataNotFound("no clothing data for current precipitation")
	}

	return section, nil
}

// Recommend runs the classifier and the range lookup concurrently; neither depends on the other.
func (o *outfitResolver) Recommend(ctx context.Context, snapshot *domain.WeatherSnapshot) (*domain.ClothingRecommendation, error) {
	var (
		category domain.Precipitation
		doc      *domain.ClothingDocument
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		category, err = o.Classify(gctx, snapshot.Current.Condition.Code)

		return err
	})

	g.Go(func() error {
		var err error
		doc, err = o.Resolve(gctx, snapshot.FeelsLikeBucket())

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Extract(doc, category)
}
