package app

import (
	"context"
	"time"

	"github.com/wsuduce/ghost-rank/domain/core"
	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/detector"
	"github.com/wsuduce/ghost-rank/internal/errors"
	"github.com/wsuduce/ghost-rank/ports"
)

// DetectionService orchestrates a batch ghost scan: load the dataset,
// score and classify every curve, summarize the contingency breakdown,
// and optionally archive the run.
type DetectionService struct {
	archive ports.RunArchive // nil when archival is disabled
}

// DetectionRequest defines the inputs for one batch scan.
type DetectionRequest struct {
	Reader     ports.CurveReader
	Threshold  float64 // 0 falls back to the published constant
	RankFilter int
	Archive    bool // persist the run; requires a configured archive
}

// DetectionResult contains the complete output of a scan.
type DetectionResult struct {
	Ghosts []ghost.Ghost        `json:"ghosts"`
	Stats  ghost.DetectionStats `json:"stats"`
	Run    *ghost.DetectionRun  `json:"run,omitempty"`
}

// NewDetectionService creates a detection service. A nil archive is
// valid; requests asking for archival then fail with ErrArchiveDisabled.
func NewDetectionService(archive ports.RunArchive) *DetectionService {
	return &DetectionService{archive: archive}
}

// ArchiveEnabled reports whether detection runs can be persisted.
func (s *DetectionService) ArchiveEnabled() bool {
	return s.archive != nil
}

// Run executes the scan. Detection semantics are identical with and
// without archival; the archive is a sink, never an input.
func (s *DetectionService) Run(ctx context.Context, req DetectionRequest) (*DetectionResult, error) {
	if req.Archive && s.archive == nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, core.ErrArchiveDisabled)
	}

	curves, err := req.Reader.ReadCurves()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load curve dataset")
	}

	opts := detector.Options{RankFilter: req.RankFilter, Threshold: req.Threshold}
	ghosts := detector.Detect(curves, opts)
	stats := detector.Statistics(curves, ghosts, opts)

	result := &DetectionResult{Ghosts: ghosts, Stats: stats}

	if req.Archive {
		run := ghost.NewDetectionRun(req.Reader.SourceName(), opts.EffectiveThreshold(), req.RankFilter)
		run.Stats = stats
		run.FinishedAt = core.NewTimestamp(time.Now())
		if err := s.archive.SaveRun(ctx, run, ghosts); err != nil {
			return nil, errors.Wrap(err, "failed to archive detection run")
		}
		result.Run = &run
	}

	return result, nil
}

// GetRun retrieves an archived run with its detections.
func (s *DetectionService) GetRun(ctx context.Context, id core.RunID) (ghost.DetectionRun, []ghost.Ghost, error) {
	if s.archive == nil {
		return ghost.DetectionRun{}, nil, core.ErrArchiveDisabled
	}
	return s.archive.GetRun(ctx, id)
}

// ListRuns retrieves the most recent archived run summaries.
func (s *DetectionService) ListRuns(ctx context.Context, limit int) ([]ghost.DetectionRun, error) {
	if s.archive == nil {
		return nil, core.ErrArchiveDisabled
	}
	return s.archive.ListRuns(ctx, limit)
}
