package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/adapters/secondary/weatherapi"
	"github.com/sean-rowe/weather-outfit/internal/config"
	"github.com/sean-rowe/weather-outfit/internal/core/ports"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/database"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/docstore"
	"github.com/sean-rowe/weather-outfit/internal/seed"
)

const usage = `usage:
  seed cities -cities cities.json -countries countries.json [-resolve-regions] [-workers 8]
  seed reference -clothing clothing.json -precipitation precipitation.json`

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "cities":
		err = seedCities(ctx, os.Args[2:], logger)
	case "reference":
		err = seedReference(ctx, os.Args[2:], logger)
	default:
		err = fmt.Errorf("unknown command %q\n%s", os.Args[1], usage)
	}

	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}
}

func seedCities(ctx context.Context, args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("cities", flag.ExitOnError)

	var (
		citiesPath    = fs.String("cities", "", "geonamescache cities.json")
		countriesPath = fs.String("countries", "", "geonamescache countries.json")
		resolve       = fs.Bool("resolve-regions", false, "Look up each city's region at the weather provider")
		workers       = fs.Int("workers", 8, "Concurrent region lookups")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *citiesPath == "" || *countriesPath == "" {
		return fmt.Errorf("both -cities and -countries are required\n%s", usage)
	}

	cities, err := readFile(*citiesPath, seed.ReadCities)
	if err != nil {
		return err
	}

	countries, err := readFile(*countriesPath, seed.ReadCountries)
	if err != nil {
		return err
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("load database configuration: %w", err)
	}

	pg, err := database.NewPostgresDB(ctx, database.Config{
		DSN:            dbCfg.DSN(),
		MaxConnections: 2,
		ConnectTimeout: dbCfg.ConnectTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	defer pg.Close()

	var regions ports.WeatherClient

	if *resolve {
		apiCfg, err := config.LoadWeatherAPI()
		if err != nil {
			return fmt.Errorf("load weather provider configuration: %w", err)
		}

		regions = weatherapi.NewClient(
			apiCfg.BaseURL,
			apiCfg.APIKey,
			&http.Client{Timeout: apiCfg.HTTPTimeout},
			logger,
			weatherapi.WithRateLimit(apiCfg.RPS, apiCfg.Burst),
		)
	}

	report, err := seed.NewCityImporter(pg, regions, *workers, logger).Import(ctx, cities, countries)
	if err != nil {
		return err
	}

	logger.Info("City import completed",
		zap.Int("read", report.Read),
		zap.Int("skipped", report.Skipped),
		zap.Int("inserted", report.Inserted),
		zap.Int("unresolved_regions", report.Unresolved))

	return nil
}

func seedReference(ctx context.Context, args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("reference", flag.ExitOnError)

	var (
		clothingPath      = fs.String("clothing", "", "JSON array of clothing documents")
		precipitationPath = fs.String("precipitation", "", "JSON array of condition code mappings")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *clothingPath == "" || *precipitationPath == "" {
		return fmt.Errorf("both -clothing and -precipitation are required\n%s", usage)
	}

	clothing, err := readFile(*clothingPath, seed.ReadClothing)
	if err != nil {
		return err
	}

	codes, err := readFile(*precipitationPath, seed.ReadPrecipitation)
	if err != nil {
		return err
	}

	mongoCfg, err := config.LoadMongo()
	if err != nil {
		return fmt.Errorf("load document store configuration: %w", err)
	}

	store, err := docstore.Connect(ctx, docstore.Config{
		URI:                     mongoCfg.URI,
		Database:                mongoCfg.Database,
		ClothingCollection:      mongoCfg.ClothingCollection,
		PrecipitationCollection: mongoCfg.PrecipitationCollection,
		ConnectTimeout:          mongoCfg.ConnectTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect to document store: %w", err)
	}

	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.Disconnect(dctx); err != nil {
			logger.Error("Failed to disconnect document store", zap.Error(err))
		}
	}()

	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	_, _, err = seed.LoadReference(ctx, store, clothing, codes, logger)

	return err
}

func readFile[T any](path string, decode func(r io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}

	defer f.Close()

	v, err := decode(f)
	if err != nil {
		return v, fmt.Errorf("%s: %w", path, err)
	}

	return v, nil
}
