package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/config"
	"github.com/sean-rowe/weather-outfit/internal/infrastructure/database"
)

func main() {
	var (
		action  = flag.String("action", "up", "Migration action: up, down, version, force")
		version = flag.Uint("version", 0, "Target version for the version and force actions")
		dsn     = flag.String("dsn", "", "Postgres connection string; defaults to the DB_* environment")
	)

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	defer func() { _ = logger.Sync() }()

	if *dsn == "" {
		cfg, err := config.LoadDatabase()
		if err != nil {
			logger.Fatal("Failed to load database configuration", zap.Error(err))
		}

		*dsn = cfg.DSN()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := database.NewPostgresDB(ctx, database.Config{
		DSN:            *dsn,
		MaxConnections: 2,
		ConnectTimeout: 20 * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	defer func() {
		if err := pg.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	db := pg.DB()

	switch *action {
	case "up":
		if err := database.RunMigrations(db, logger); err != nil {
			logger.Fatal("Migration failed", zap.Error(err))
		}

		logger.Info("Migrations completed successfully")

	case "down":
		if err := database.MigrateDown(db, logger); err != nil {
			logger.Fatal("Rollback failed", zap.Error(err))
		}

		logger.Info("Rollback completed successfully")

	case "version":
		if *version == 0 {
			logger.Fatal("Version must be specified with -version flag")
		}

		if err := database.MigrateToVersion(db, *version, logger); err != nil {
			logger.Fatal("Migration to version failed",
				zap.Uint("version", *version),
				zap.Error(err))
		}

		logger.Info("Migration to version completed", zap.Uint("version", *version))

	case "force":
		if *version == 0 {
			logger.Fatal("Version must be specified with -version flag")
		}

		if err := database.ForceVersion(db, *version, logger); err != nil {
			logger.Fatal("Force version failed",
				zap.Uint("version", *version),
				zap.Error(err))
		}

		logger.Info("Schema version forced", zap.Uint("version", *version))

	default:
		logger.Fatal("Invalid action", zap.String("action", *action))
	}
}
