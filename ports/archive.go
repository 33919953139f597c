package ports

import (
	"context"

	"github.com/wsuduce/ghost-rank/domain/core"
	"github.com/wsuduce/ghost-rank/domain/ghost"
)

// RunArchive persists detection runs and their positive detections.
// Archival is an audit sink: it never feeds back into detection, and fit
// results are deliberately not stored.
type RunArchive interface {
	SaveRun(ctx context.Context, run ghost.DetectionRun, ghosts []ghost.Ghost) error
	GetRun(ctx context.Context, id core.RunID) (ghost.DetectionRun, []ghost.Ghost, error)
	ListRuns(ctx context.Context, limit int) ([]ghost.DetectionRun, error)
}
