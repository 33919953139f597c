package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/wsuduce/ghost-rank/adapters/dataset"
	"github.com/wsuduce/ghost-rank/adapters/postgres"
	"github.com/wsuduce/ghost-rank/domain/core"
	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/metric"
	"github.com/wsuduce/ghost-rank/internal/migration"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [ghosts.csv]")
	}
	databaseURL := os.Args[1]

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	runner := migration.NewRunner()
	log.Printf("Running schema migration %s", runner.Version())
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Schema migration complete")

	if len(os.Args) < 3 {
		return
	}

	// Backfill: import an existing ghosts CSV as one archived run.
	csvPath := os.Args[2]
	ghosts, err := dataset.ReadGhostsCSV(csvPath)
	if err != nil {
		log.Fatalf("Failed to load ghost CSV: %v", err)
	}

	run := ghost.NewDetectionRun(filepath.Base(csvPath), metric.GhostThreshold, 0)
	run.Stats = backfillStats(ghosts)
	run.FinishedAt = core.NewTimestamp(time.Now())

	archive := postgres.NewRunArchive(db)
	if err := archive.SaveRun(ctx, run, ghosts); err != nil {
		log.Fatalf("Failed to archive backfilled run: %v", err)
	}
	log.Printf("Backfilled %d ghosts from %s as run %s", len(ghosts), csvPath, run.ID)
}

// backfillStats reconstructs what can be known from a ghost-only CSV: the
// scan population is lost, so the totals equal the detection count.
func backfillStats(ghosts []ghost.Ghost) ghost.DetectionStats {
	stats := ghost.DetectionStats{
		TotalCurves:    len(ghosts),
		Rank0Curves:    len(ghosts),
		GhostsDetected: len(ghosts),
	}
	for _, g := range ghosts {
		switch {
		case g.Sha > 1:
			stats.GhostsShaGt1++
		case g.Sha == 1:
			stats.GhostsShaEq1++
		}
	}
	stats.PerfectSeparation = stats.GhostsShaEq1 == 0
	if stats.GhostsShaGt1 > 0 {
		stats.PGhostGivenShaGt1 = 1
	}
	if stats.GhostsShaEq1 > 0 {
		stats.PGhostGivenShaEq1 = 1
	}
	return stats
}
