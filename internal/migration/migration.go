package migration

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wsuduce/ghost-rank/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createDetectionRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create detection_runs table")
	}

	if err := r.createDetectedGhostsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create detected_ghosts table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createDetectionRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS detection_runs (
			id UUID PRIMARY KEY,
			source TEXT NOT NULL,
			threshold DOUBLE PRECISION NOT NULL,
			rank_filter INTEGER NOT NULL DEFAULT 0,
			total_curves INTEGER NOT NULL DEFAULT 0,
			rank0_curves INTEGER NOT NULL DEFAULT 0,
			ghosts_detected INTEGER NOT NULL DEFAULT 0,
			ghosts_sha_gt_1 INTEGER NOT NULL DEFAULT 0,
			ghosts_sha_eq_1 INTEGER NOT NULL DEFAULT 0,
			p_ghost_given_sha_gt_1 DOUBLE PRECISION NOT NULL DEFAULT 0.0,
			p_ghost_given_sha_eq_1 DOUBLE PRECISION NOT NULL DEFAULT 0.0,
			perfect_separation BOOLEAN NOT NULL DEFAULT false,
			started_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			finished_at TIMESTAMP WITH TIME ZONE
		)
	`)
	return err
}

func (r *MigrationRunner) createDetectedGhostsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS detected_ghosts (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES detection_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			conductor BIGINT NOT NULL,
			rank INTEGER NOT NULL DEFAULT 0,
			sha DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			l_value DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			l_prime DOUBLE PRECISION NOT NULL DEFAULT 0.1,
			stability DOUBLE PRECISION NOT NULL,
			diffusion DOUBLE PRECISION
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		// Detection runs indexes
		"CREATE INDEX IF NOT EXISTS idx_runs_started_at ON detection_runs(started_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_runs_source ON detection_runs(source)",

		// Detected ghosts indexes
		"CREATE INDEX IF NOT EXISTS idx_ghosts_run_id ON detected_ghosts(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_ghosts_run_position ON detected_ghosts(run_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_ghosts_sha ON detected_ghosts(sha DESC)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}
