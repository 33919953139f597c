package ghost

import (
	"github.com/wsuduce/ghost-rank/domain/core"
	"github.com/wsuduce/ghost-rank/domain/curve"
)

// ============================================================================
// SINGLE-CURVE VERDICTS
// ============================================================================

// Analysis is the complete single-curve verdict.
type Analysis struct {
	Stability    float64 `json:"stability"`     // S(E) = |L'| / (|L| · ln N)
	Diffusion    float64 `json:"diffusion"`     // D = -log10(S) / (log10(N)/10)
	IsGhost      bool    `json:"is_ghost"`      // S strictly below threshold
	PredictedSha float64 `json:"predicted_sha"` // 1.0 when not a ghost
	Confidence   float64 `json:"confidence"`    // min(1, |S - threshold| / threshold)
}

// Ghost is a positive detection: the curve plus its scores.
type Ghost struct {
	curve.Curve
	Stability float64 `json:"stability"`
	Diffusion float64 `json:"diffusion"`
}

// ============================================================================
// BATCH DETECTION
// ============================================================================

// DetectionStats is the 2x2 contingency summary of a batch scan.
// Probabilities are 0 whenever the conditioning population is empty.
type DetectionStats struct {
	TotalCurves       int     `json:"total_curves"`
	Rank0Curves       int     `json:"rank0_curves"`
	GhostsDetected    int     `json:"ghosts_detected"`
	GhostsShaGt1      int     `json:"ghosts_sha_gt_1"`
	GhostsShaEq1      int     `json:"ghosts_sha_eq_1"`
	PGhostGivenShaGt1 float64 `json:"p_ghost_given_sha_gt_1"`
	PGhostGivenShaEq1 float64 `json:"p_ghost_given_sha_eq_1"`
	PerfectSeparation bool    `json:"perfect_separation"`
}

// DetectionRun is the archival record of one batch scan.
type DetectionRun struct {
	ID         core.RunID     `json:"id"`
	Source     string         `json:"source"`
	Threshold  float64        `json:"threshold"`
	RankFilter int            `json:"rank_filter"`
	Stats      DetectionStats `json:"stats"`
	StartedAt  core.Timestamp `json:"started_at"`
	FinishedAt core.Timestamp `json:"finished_at"`
}

// NewDetectionRun starts an archival record for a scan of the named source.
func NewDetectionRun(source string, threshold float64, rankFilter int) DetectionRun {
	return DetectionRun{
		ID:         core.NewRunID(),
		Source:     source,
		Threshold:  threshold,
		RankFilter: rankFilter,
		StartedAt:  core.Now(),
	}
}

// ============================================================================
// CALIBRATION REFERENCE DATA
// ============================================================================

// CalibrationPoint is one immutable reference measurement for the
// diffusion law fit.
type CalibrationPoint struct {
	Label   string  `json:"label"`
	Sha     float64 `json:"sha"`
	D       float64 `json:"D"` // measured diffusion index
	Anomaly bool    `json:"anomaly,omitempty"`
	Name    string  `json:"name,omitempty"`
}

// CalibrationPoints returns the nine clean reference monsters.
func CalibrationPoints() []CalibrationPoint {
	return []CalibrationPoint{
		{Label: "165066.v1", Sha: 5625, D: 2.27, Name: "Leviathan"},
		{Label: "287175.n1", Sha: 2500, D: 2.06, Name: "Titan"},
		{Label: "146850.cb1", Sha: 2209, D: 2.03, Name: "Behemoth"},
		{Label: "234446.p1", Sha: 1849, D: 1.98},
		{Label: "279022.ca1", Sha: 1681, D: 1.95},
		{Label: "95438.c2", Sha: 676, D: 1.71, Name: "Original Monster"},
		{Label: "various_529", Sha: 529, D: 1.65},
		{Label: "various_361", Sha: 361, D: 1.55},
		{Label: "various_289", Sha: 289, D: 1.49},
	}
}

// D3Anomaly returns the 3σ outlier excluded from the clean fit.
func D3Anomaly() CalibrationPoint {
	return CalibrationPoint{Label: "165066.d3", Sha: 1225, D: 2.50, Anomaly: true}
}

// AllCalibrationPoints returns the clean points plus the d3 anomaly.
func AllCalibrationPoints() []CalibrationPoint {
	return append(CalibrationPoints(), D3Anomaly())
}

// ============================================================================
// FIT RESULTS (derived, recomputed each run, never authoritative state)
// ============================================================================

// ResidualPoint is one point's deviation from a fitted line.
type ResidualPoint struct {
	Label      string  `json:"label"`
	Sha        float64 `json:"sha"`
	DMeasured  float64 `json:"D_measured"`
	DPredicted float64 `json:"D_predicted"`
	Residual   float64 `json:"residual"`
	ZScore     float64 `json:"z_score"`
}

// FitResult is an ordinary least-squares fit of D on log10|Ш|.
type FitResult struct {
	Slope            float64         `json:"slope"`
	Intercept        float64         `json:"intercept"`
	RSquared         float64         `json:"r_squared"`
	PValue           float64         `json:"p_value"` // two-tailed test of slope != 0
	StdErr           float64         `json:"std_err"` // standard error of the slope
	TheoreticalSlope float64         `json:"theoretical_slope"`
	SlopeRatio       float64         `json:"slope_ratio"` // fitted / theoretical
	NPoints          int             `json:"n_points"`
	Residuals        []ResidualPoint `json:"residuals"`
}

// HypothesisTest reports the t-test of the fitted slope against 1/√e.
type HypothesisTest struct {
	ObservedSlope    float64 `json:"observed_slope"`
	TheoreticalSlope float64 `json:"theoretical_slope"`
	TStatistic       float64 `json:"t_statistic"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
	RejectNull       bool    `json:"reject_null"`
	Interpretation   string  `json:"interpretation"`
}

// AnomalyAnalysis measures one point against a clean fit.
type AnomalyAnalysis struct {
	Label          string  `json:"label"`
	Sha            float64 `json:"sha"`
	DMeasured      float64 `json:"D_measured"`
	DPredicted     float64 `json:"D_predicted"`
	Residual       float64 `json:"residual"`
	ZScore         float64 `json:"z_score"`
	Interpretation string  `json:"interpretation"`
}

// CalibratedLaw is the headline equation block of a report.
type CalibratedLaw struct {
	Equation  string  `json:"equation"`
	Slope     string  `json:"slope"` // display form, e.g. "1/√e ≈ 0.6065"
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"R_squared"`
}

// CalibrationReport is the full nested calibration analysis.
type CalibrationReport struct {
	FitAllData     FitResult       `json:"fit_all_data"`
	FitExcludingD3 FitResult       `json:"fit_excluding_d3"`
	HypothesisTest HypothesisTest  `json:"hypothesis_test"`
	D3Anomaly      AnomalyAnalysis `json:"d3_anomaly"`
	CalibratedLaw  CalibratedLaw   `json:"calibrated_law"`
}
