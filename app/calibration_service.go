package app

import (
	"path/filepath"

	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/calibration"
	"github.com/wsuduce/ghost-rank/internal/errors"
	"github.com/wsuduce/ghost-rank/internal/metric"
)

// CalibrationService exposes the calibration analysis and single-curve
// verdicts to the CLI and the HTTP API. The reference catalog is embedded,
// so the service carries no dependencies.
type CalibrationService struct{}

// NewCalibrationService creates a calibration service.
func NewCalibrationService() *CalibrationService {
	return &CalibrationService{}
}

// Report builds the full calibration report over the embedded catalog.
func (s *CalibrationService) Report() (ghost.CalibrationReport, error) {
	return calibration.BuildReport()
}

// SaveReport builds the report and writes it as indented JSON.
func (s *CalibrationService) SaveReport(path string) (ghost.CalibrationReport, error) {
	report, err := calibration.BuildReport()
	if err != nil {
		return ghost.CalibrationReport{}, err
	}
	if err := calibration.SaveJSON(report, filepath.Clean(path)); err != nil {
		return ghost.CalibrationReport{}, errors.Wrap(err, "failed to save calibration report")
	}
	return report, nil
}

// ReportMarkdown builds the report and renders it for the report page.
func (s *CalibrationService) ReportMarkdown() ([]byte, error) {
	report, err := calibration.BuildReport()
	if err != nil {
		return nil, err
	}
	return calibration.RenderMarkdown(report), nil
}

// AnalyzeCurve produces the full verdict for one curve's L-function data.
func (s *CalibrationService) AnalyzeCurve(lPrime, lValue float64, conductor, rank int) (ghost.Analysis, error) {
	return metric.Analyze(lPrime, lValue, conductor, rank)
}
