package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"github.com/wsuduce/ghost-rank/domain/core"
	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/ports"
)

// runArchive implements the RunArchive interface
type runArchive struct {
	db *sqlx.DB
}

// NewRunArchive creates a new postgres-backed run archive
func NewRunArchive(db *sqlx.DB) ports.RunArchive {
	return &runArchive{db: db}
}

// SaveRun inserts a detection run and its positive detections atomically
func (a *runArchive) SaveRun(ctx context.Context, run ghost.DetectionRun, ghosts []ghost.Ghost) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runQuery := `INSERT INTO detection_runs (
		id, source, threshold, rank_filter,
		total_curves, rank0_curves, ghosts_detected, ghosts_sha_gt_1, ghosts_sha_eq_1,
		p_ghost_given_sha_gt_1, p_ghost_given_sha_eq_1, perfect_separation,
		started_at, finished_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)`

	_, err = tx.ExecContext(ctx, runQuery,
		run.ID.String(), run.Source, run.Threshold, run.RankFilter,
		run.Stats.TotalCurves, run.Stats.Rank0Curves, run.Stats.GhostsDetected,
		run.Stats.GhostsShaGt1, run.Stats.GhostsShaEq1,
		run.Stats.PGhostGivenShaGt1, run.Stats.PGhostGivenShaEq1, run.Stats.PerfectSeparation,
		run.StartedAt.Time(), run.FinishedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert detection run: %w", err)
	}

	ghostQuery := `INSERT INTO detected_ghosts (
		run_id, position, label, conductor, rank, sha, l_value, l_prime, stability, diffusion
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
	)`

	for i, g := range ghosts {
		_, err = tx.ExecContext(ctx, ghostQuery,
			run.ID.String(), i, g.Label, g.Conductor, g.Rank,
			g.Sha, g.LValue, g.LPrime, g.Stability, archiveDiffusion(g.Diffusion),
		)
		if err != nil {
			return fmt.Errorf("failed to insert detected ghost %s: %w", g.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit detection run: %w", err)
	}

	return nil
}

// GetRun retrieves an archived run and its detections by ID
func (a *runArchive) GetRun(ctx context.Context, id core.RunID) (ghost.DetectionRun, []ghost.Ghost, error) {
	runQuery := `SELECT
		id, source, threshold, rank_filter,
		total_curves, rank0_curves, ghosts_detected, ghosts_sha_gt_1, ghosts_sha_eq_1,
		p_ghost_given_sha_gt_1, p_ghost_given_sha_eq_1, perfect_separation,
		started_at, finished_at
	FROM detection_runs WHERE id = $1`

	run, err := a.scanRun(a.db.QueryRowxContext(ctx, runQuery, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return ghost.DetectionRun{}, nil, core.ErrRunNotFound
		}
		return ghost.DetectionRun{}, nil, fmt.Errorf("failed to get detection run: %w", err)
	}

	ghostQuery := `SELECT
		label, conductor, rank, sha, l_value, l_prime, stability, diffusion
	FROM detected_ghosts WHERE run_id = $1 ORDER BY position`

	rows, err := a.db.QueryContext(ctx, ghostQuery, id.String())
	if err != nil {
		return ghost.DetectionRun{}, nil, fmt.Errorf("failed to query detected ghosts: %w", err)
	}
	defer rows.Close()

	var ghosts []ghost.Ghost
	for rows.Next() {
		var g ghost.Ghost
		var diffusion sql.NullFloat64
		err := rows.Scan(
			&g.Label, &g.Conductor, &g.Rank, &g.Sha, &g.LValue, &g.LPrime,
			&g.Stability, &diffusion,
		)
		if err != nil {
			return ghost.DetectionRun{}, nil, fmt.Errorf("failed to scan detected ghost: %w", err)
		}
		g.Diffusion = restoreDiffusion(diffusion)
		ghosts = append(ghosts, g)
	}
	if err := rows.Err(); err != nil {
		return ghost.DetectionRun{}, nil, fmt.Errorf("failed to iterate detected ghosts: %w", err)
	}

	return run, ghosts, nil
}

// ListRuns retrieves archived runs, newest first
func (a *runArchive) ListRuns(ctx context.Context, limit int) ([]ghost.DetectionRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT
		id, source, threshold, rank_filter,
		total_curves, rank0_curves, ghosts_detected, ghosts_sha_gt_1, ghosts_sha_eq_1,
		p_ghost_given_sha_gt_1, p_ghost_given_sha_eq_1, perfect_separation,
		started_at, finished_at
	FROM detection_runs ORDER BY started_at DESC LIMIT $1`

	rows, err := a.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detection runs: %w", err)
	}
	defer rows.Close()

	var runs []ghost.DetectionRun
	for rows.Next() {
		run, err := a.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate detection runs: %w", err)
	}

	return runs, nil
}

// archiveDiffusion stores the diffusion column, mapping the +Inf sentinel
// of a zero-stability ghost to NULL: Postgres float parameters must be
// finite.
func archiveDiffusion(d float64) sql.NullFloat64 {
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: d, Valid: true}
}

// restoreDiffusion maps a NULL diffusion back to the +Inf sentinel.
func restoreDiffusion(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.Inf(1)
	}
	return n.Float64
}

// rowScanner covers both sqlx.Row and sqlx.Rows so run scanning is shared
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRun is a helper to scan a single detection run row
func (a *runArchive) scanRun(row rowScanner) (ghost.DetectionRun, error) {
	var (
		run        ghost.DetectionRun
		id         string
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&id, &run.Source, &run.Threshold, &run.RankFilter,
		&run.Stats.TotalCurves, &run.Stats.Rank0Curves, &run.Stats.GhostsDetected,
		&run.Stats.GhostsShaGt1, &run.Stats.GhostsShaEq1,
		&run.Stats.PGhostGivenShaGt1, &run.Stats.PGhostGivenShaEq1, &run.Stats.PerfectSeparation,
		&startedAt, &finishedAt,
	)
	if err != nil {
		return ghost.DetectionRun{}, err
	}

	run.ID = core.RunID(id)
	if startedAt.Valid {
		run.StartedAt = core.NewTimestamp(startedAt.Time)
	}
	if finishedAt.Valid {
		run.FinishedAt = core.NewTimestamp(finishedAt.Time)
	}

	return run, nil
}
