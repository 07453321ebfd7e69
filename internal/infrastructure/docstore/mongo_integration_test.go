//go:build integration

package docstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/domain"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

type MongoTestSuite struct {
	suite.Suite
	store *Store
}

func TestMongoSuite(t *testing.T) {
	suite.Run(t, new(MongoTestSuite))
}

func (s *MongoTestSuite) SetupSuite() {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	store, err := Connect(context.Background(), Config{
		URI:                     uri,
		Database:                "weather_outfit_test",
		ClothingCollection:      "clothing",
		PrecipitationCollection: "precipitation",
		ConnectTimeout:          5 * time.Second,
	}, zap.NewNop())
	if err != nil {
		s.T().Skipf("Cannot connect to test mongo: %v", err)
	}

	s.store = store
}

func (s *MongoTestSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.store.clothing.Drop(ctx))
	s.Require().NoError(s.store.precipitation.Drop(ctx))
	s.Require().NoError(s.store.EnsureIndexes(ctx))
}

func (s *MongoTestSuite) TearDownSuite() {
	if s.store != nil {
		_ = s.store.Disconnect(context.Background())
	}
}

func (s *MongoTestSuite) TestClothingRoundTrip() {
	ctx := context.Background()
	doc := domain.ClothingDocument{
		Range: domain.TemperatureRange{Min: 20, Max: 25},
		None:  &domain.ClothingRecommendation{Footwear: []string{"Sneakers"}},
	}

	s.Require().NoError(s.store.UpsertClothing(ctx, doc))

	doc.Rain = &domain.ClothingRecommendation{Footwear: []string{"Rain boots"}}
	s.Require().NoError(s.store.UpsertClothing(ctx, doc))

	found, err := s.store.FindByRange(ctx, doc.Range)
	s.Require().NoError(err)
	s.Equal([]string{"Sneakers"}, found.None.Footwear)
	s.Equal([]string{"Rain boots"}, found.Rain.Footwear)

	count, err := s.store.clothing.CountDocuments(ctx, map[string]interface{}{})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	_, err = s.store.FindByRange(ctx, domain.TemperatureRange{Min: 0, Max: 5})
	s.ErrorIs(err, ports.ErrNotFound)
}

func (s *MongoTestSuite) TestPrecipitationLookup() {
	ctx := context.Background()

	s.Require().NoError(s.store.UpsertPrecipitation(ctx, PrecipitationDocument{Code: 1183, Text: "Light rain", Precipitation: "Rain"}))
	s.Require().NoError(s.store.UpsertPrecipitation(ctx, PrecipitationDocument{Code: 1030, Text: "Mist"}))
	s.Error(s.store.UpsertPrecipitation(ctx, PrecipitationDocument{Code: 1, Precipitation: "Hail"}))

	p, err := s.store.FindByCode(ctx, 1183)
	s.Require().NoError(err)
	s.Equal(domain.PrecipitationRain, p)

	p, err = s.store.FindByCode(ctx, 1030)
	s.Require().NoError(err)
	s.Equal(domain.PrecipitationUnclassified, p)

	_, err = s.store.FindByCode(ctx, 9999)
	s.ErrorIs(err, ports.ErrNotFound)
}
