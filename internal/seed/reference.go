package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/docstore"
)

// ReferenceStore is the document store the reference loader writes to.
type ReferenceStore interface {
	UpsertClothing(ctx context.Context, doc domain.ClothingDocument) error
	UpsertPrecipitation(ctx context.Context, doc docstore.PrecipitationDocument) error
}

// ReadClothing decodes a JSON array of clothing documents in their stored shape.
// Ranges must be five degrees wide and unique.
func ReadClothing(r io.Reader) ([]domain.ClothingDocument, error) {
	var stored []docstore.ClothingDocument
	if err := json.NewDecoder(r).Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode clothing: %w", err)
	}

	docs := make([]domain.ClothingDocument, 0, len(stored))
	seen := make(map[domain.TemperatureRange]struct{}, len(stored))

	for i := range stored {
		doc := stored[i].ToDomain()

		if doc.Range.Max-doc.Range.Min != 5 {
			return nil, fmt.Errorf("clothing document %d: range %s is not five degrees wide", i, doc.Range)
		}

		if _, dup := seen[doc.Range]; dup {
			return nil, fmt.Errorf("clothing document %d: duplicate range %s", i, doc.Range)
		}

		seen[doc.Range] = struct{}{}
		docs = append(docs, *doc)
	}

	return docs, nil
}

// ReadPrecipitation decodes a JSON array of condition code mappings and rejects unknown categories.
func ReadPrecipitation(r io.Reader) ([]docstore.PrecipitationDocument, error) {
	var docs []docstore.PrecipitationDocument
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode precipitation: %w", err)
	}

	for i := range docs {
		if _, err := docs[i].Category(); err != nil {
			return nil, err
		}
	}

	return docs, nil
}

// LoadReference upserts every document and reports how many of each were written.
func LoadReference(ctx context.Context, store ReferenceStore, clothing []domain.ClothingDocument, codes []docstore.PrecipitationDocument, logger *zap.Logger) (int, int, error) {
	for i, doc := range clothing {
		if err := store.UpsertClothing(ctx, doc); err != nil {
			return i, 0, fmt.Errorf("upsert clothing %s: %w", doc.Range, err)
		}
	}

	for i, doc := range codes {
		if err := store.UpsertPrecipitation(ctx, doc); err != nil {
			return len(clothing), i, fmt.Errorf("upsert condition code %d: %w", doc.Code, err)
		}
	}

	logger.Info("reference data loaded",
		zap.Int("clothing", len(clothing)),
		zap.Int("condition_codes", len(codes)))

	return len(clothing), len(codes), nil
}
