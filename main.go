package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/wsuduce/ghost-rank/adapters/postgres"
	"github.com/wsuduce/ghost-rank/app"
	"github.com/wsuduce/ghost-rank/internal/config"
	"github.com/wsuduce/ghost-rank/internal/errors"
	"github.com/wsuduce/ghost-rank/internal/migration"
	"github.com/wsuduce/ghost-rank/ports"
	"github.com/wsuduce/ghost-rank/ui"
)

// initDatabase connects to the optional run archive and brings its schema
// up to date.
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The run archive is optional; without DATABASE_URL the API serves
	// detection without persistence.
	var archive ports.RunArchive
	if appConfig.Database.Enabled() {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		archive = postgres.NewRunArchive(db)
		log.Println("Run archive enabled")
	} else {
		log.Println("No DATABASE_URL configured, run archival disabled")
	}

	detection := app.NewDetectionService(archive)
	calibration := app.NewCalibrationService()

	server := ui.NewServer(appConfig, detection, calibration)
	log.Printf("Ghost Rank API listening on :%s", appConfig.Server.Port)
	if err := server.Run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
