//go:build integration

package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type PostgresTestSuite struct {
	suite.Suite
	db *PostgresDB
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) SetupSuite() {
	dbHost := os.Getenv("TEST_DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	cfg := Config{
		DSN:                   fmt.Sprintf("host=%s port=5432 user=test password=test dbname=weather_test sslmode=disable", dbHost),
		MaxConnections:        5,
		MaxIdleConnections:    2,
		ConnectionMaxLifetime: time.Minute,
		ConnectTimeout:        5 * time.Second,
	}

	db, err := NewPostgresDB(context.Background(), cfg, zap.NewNop())
	if err != nil {
		s.T().Skipf("Cannot connect to test database: %v", err)
	}

	s.db = db
	s.Require().NoError(RunMigrations(db.DB(), zap.NewNop()))
}

func (s *PostgresTestSuite) SetupTest() {
	_, err := s.db.DB().Exec(`TRUNCATE city, city_search_history, coordinates_search_history RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *PostgresTestSuite) seed() {
	inserted, err := s.db.InsertCities(context.Background(), []CityRecord{
		{Name: "Paris", Region: "Texas", Country: "United States of America", Latitude: 33.66, Longitude: -95.55, Population: 24782},
		{Name: "Paris", Region: "Ile-de-France", Country: "France", Latitude: 48.85, Longitude: 2.35, Population: 2138551, Timezone: "Europe/Paris"},
		{Name: "Brussels", Country: "Belgium", Latitude: 50.85, Longitude: 4.35, Population: 1019022, AlternateNames: []string{"Bruxelles", "Brussel"}},
	})
	s.Require().NoError(err)
	s.Require().Equal(3, inserted)
}

func (s *PostgresTestSuite) TestFindCitiesByName() {
	s.seed()
	ctx := context.Background()

	cities, err := s.db.FindCitiesByName(ctx, "paris")
	s.Require().NoError(err)
	s.Require().Len(cities, 2)
	s.Equal("France", cities[0].Country)
	s.Equal("Texas", cities[1].Region)

	cities, err = s.db.FindCitiesByName(ctx, "BRUXELLES")
	s.Require().NoError(err)
	s.Require().Len(cities, 1)
	s.Equal([]string{"Bruxelles", "Brussel"}, cities[0].AlternateNames)
	s.Equal("", cities[0].Region)
}

func (s *PostgresTestSuite) TestFindCityByID() {
	s.seed()

	city, err := s.db.FindCityByID(context.Background(), 3)
	s.Require().NoError(err)
	s.Equal("Brussels", city.Name)

	_, err = s.db.FindCityByID(context.Background(), 999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresTestSuite) TestInsertCitiesSkipsExistingCoordinates() {
	s.seed()

	inserted, err := s.db.InsertCities(context.Background(), []CityRecord{
		{Name: "Brussels", Country: "Belgium", Latitude: 50.85, Longitude: 4.35},
		{Name: "Ghent", Country: "Belgium", Latitude: 51.05, Longitude: 3.72},
	})
	s.Require().NoError(err)
	s.Equal(1, inserted)

	coords, err := s.db.CityCoordinates(context.Background())
	s.Require().NoError(err)
	s.Len(coords, 4)
}

func (s *PostgresTestSuite) TestSearchHistory() {
	s.seed()
	ctx := context.Background()

	_, found, err := s.db.LatestCitySearch(ctx, 1, 3)
	s.Require().NoError(err)
	s.False(found)

	first := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.db.InsertCitySearch(ctx, CitySearchRecord{UserID: 1, CityID: 3, RequestAt: first}))
	s.Require().NoError(s.db.InsertCitySearch(ctx, CitySearchRecord{UserID: 1, CityID: 3, RequestAt: first.Add(10 * time.Minute)}))

	at, found, err := s.db.LatestCitySearch(ctx, 1, 3)
	s.Require().NoError(err)
	s.True(found)
	s.True(at.Equal(first.Add(10 * time.Minute)))

	s.Require().NoError(s.db.InsertCoordinatesSearch(ctx, CoordinatesSearchRecord{
		UserID: 1, Latitude: 50.85, Longitude: 4.35, Place: "Brussels", Country: "Belgium", RequestAt: first,
	}))

	at, found, err = s.db.LatestCoordinatesSearch(ctx, 1, 50.85, 4.35)
	s.Require().NoError(err)
	s.True(found)
	s.True(at.Equal(first))

	_, found, err = s.db.LatestCoordinatesSearch(ctx, 2, 50.85, 4.35)
	s.Require().NoError(err)
	s.False(found)
}
