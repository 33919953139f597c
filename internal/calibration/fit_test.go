package calibration

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/errors"
	"github.com/wsuduce/ghost-rank/internal/metric"
)

var randState = 12345.0

func randNorm() float64 {
	// Update state with linear congruential generator
	randState = math.Mod(randState*1103515245+12345, 2147483648)
	u1 := randState / 2147483648.0

	randState = math.Mod(randState*1103515245+12345, 2147483648)
	u2 := randState / 2147483648.0

	// Box-Muller transform
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// syntheticPoints lays n points on slope*log10(sha)+intercept with
// zero-mean Gaussian noise on the measured index.
func syntheticPoints(n int, slope, intercept, noise float64) []ghost.CalibrationPoint {
	points := make([]ghost.CalibrationPoint, n)
	for i := 0; i < n; i++ {
		logSha := 2.0 + 2.0*float64(i)/float64(n-1) // log10|Ш| in [2, 4]
		sha := math.Pow(10, logSha)
		points[i] = ghost.CalibrationPoint{
			Label: fmt.Sprintf("synthetic_%d", i),
			Sha:   sha,
			D:     slope*logSha + intercept + randNorm()*noise,
		}
	}
	return points
}

func TestFitRecoversNoisySlope(t *testing.T) {
	randState = 12345.0
	points := syntheticPoints(40, metric.DiffusionSlope, -0.0025, 0.01)

	fit, err := Fit(points, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(fit.Slope-metric.DiffusionSlope) > 0.03 {
		t.Errorf("slope = %.4f, expected %.4f within 0.03", fit.Slope, metric.DiffusionSlope)
	}
	if math.Abs(fit.Intercept-(-0.0025)) > 0.08 {
		t.Errorf("intercept = %.4f, expected -0.0025 within 0.08", fit.Intercept)
	}
	if fit.RSquared < 0.99 {
		t.Errorf("R² = %.4f, expected > 0.99 for low-noise synthetic data", fit.RSquared)
	}
	if fit.PValue > 1e-6 {
		t.Errorf("slope p-value = %g, expected near zero for a strong trend", fit.PValue)
	}
	if fit.NPoints != 40 {
		t.Errorf("n_points = %d, expected 40", fit.NPoints)
	}

	t.Logf("recovered slope %.4f (theory %.4f), intercept %.4f, R²=%.5f",
		fit.Slope, metric.DiffusionSlope, fit.Intercept, fit.RSquared)
}

func TestFitPerfectLineZeroFillsZScores(t *testing.T) {
	points := make([]ghost.CalibrationPoint, 5)
	for i := range points {
		logSha := 2.5 + 0.3*float64(i)
		points[i] = ghost.CalibrationPoint{
			Label: fmt.Sprintf("exact_%d", i),
			Sha:   math.Pow(10, logSha),
			D:     metric.DiffusionSlope*logSha + metric.CalibrationIntercept,
		}
	}

	fit, err := Fit(points, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(fit.Slope-metric.DiffusionSlope) > 1e-9 {
		t.Errorf("slope = %.12f, expected exact recovery", fit.Slope)
	}
	if fit.RSquared < 1-1e-9 {
		t.Errorf("R² = %.12f, expected 1 for collinear points", fit.RSquared)
	}
	for _, r := range fit.Residuals {
		if r.ZScore != 0 {
			t.Errorf("point %s: z-score = %f, expected zero-fill on zero spread", r.Label, r.ZScore)
		}
	}
}

func TestFitAnomalyExclusionShiftsLine(t *testing.T) {
	all := ghost.AllCalibrationPoints()

	withAnomaly, err := Fit(all, false)
	if err != nil {
		t.Fatalf("full fit: %v", err)
	}
	clean, err := Fit(all, true)
	if err != nil {
		t.Fatalf("clean fit: %v", err)
	}

	if withAnomaly.NPoints != 10 || clean.NPoints != 9 {
		t.Fatalf("point counts = %d/%d, expected 10/9", withAnomaly.NPoints, clean.NPoints)
	}
	if math.Abs(withAnomaly.Slope-clean.Slope) < 0.001 {
		t.Errorf("anomaly exclusion left slope unchanged: %.4f vs %.4f",
			withAnomaly.Slope, clean.Slope)
	}
	if math.Abs(withAnomaly.Intercept-clean.Intercept) < 0.001 {
		t.Errorf("anomaly exclusion left intercept unchanged: %.4f vs %.4f",
			withAnomaly.Intercept, clean.Intercept)
	}

	// The clean fit reproduces the published law.
	if math.Abs(clean.Slope-metric.DiffusionSlope) > 0.005 {
		t.Errorf("clean slope = %.4f, expected ≈ 1/√e", clean.Slope)
	}
	if clean.RSquared < 0.999 {
		t.Errorf("clean R² = %.5f, expected > 0.999", clean.RSquared)
	}
}

func TestFitRejectsTooFewPoints(t *testing.T) {
	points := ghost.CalibrationPoints()[:2]
	_, err := Fit(points, false)
	if err == nil {
		t.Fatal("expected validation error for 2 points")
	}
	if errors.GetCode(err) != errors.CodeValidationError {
		t.Errorf("error code = %s, expected %s", errors.GetCode(err), errors.CodeValidationError)
	}

	// Exclusion can empty the set too.
	anomalies := []ghost.CalibrationPoint{
		{Label: "a", Sha: 100, D: 1.0, Anomaly: true},
		{Label: "b", Sha: 200, D: 1.2, Anomaly: true},
		{Label: "c", Sha: 400, D: 1.4, Anomaly: true},
	}
	if _, err := Fit(anomalies, true); err == nil {
		t.Error("expected validation error when exclusion drops every point")
	}
}

func TestSlopeHypothesisOnCatalog(t *testing.T) {
	clean, err := Fit(ghost.AllCalibrationPoints(), true)
	if err != nil {
		t.Fatalf("clean fit: %v", err)
	}

	test := TestSlope(clean.Slope, clean.StdErr, clean.NPoints)

	if test.DegreesOfFreedom != clean.NPoints-2 {
		t.Errorf("df = %d, expected %d", test.DegreesOfFreedom, clean.NPoints-2)
	}
	if test.RejectNull {
		t.Errorf("catalog slope %.4f must not reject H0 (p=%.4f)", test.ObservedSlope, test.PValue)
	}
	if math.Abs(test.TStatistic) > 1 {
		t.Errorf("t-statistic = %.4f, expected near zero for the reference catalog", test.TStatistic)
	}
	if test.Interpretation != "Cannot reject that slope = 1/√e" {
		t.Errorf("unexpected interpretation: %q", test.Interpretation)
	}
}

func TestSlopeHypothesisRejectsDistantSlope(t *testing.T) {
	test := TestSlope(1.2, 0.01, 9)
	if !test.RejectNull {
		t.Error("slope 1.2 with tight standard error must reject H0")
	}
	if test.Interpretation != "Slopes are significantly different" {
		t.Errorf("unexpected interpretation: %q", test.Interpretation)
	}
	if test.PValue >= 0.05 {
		t.Errorf("p-value = %f, expected < 0.05", test.PValue)
	}
}

func TestBuildReport(t *testing.T) {
	report, err := BuildReport()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.FitAllData.NPoints != 10 {
		t.Errorf("full fit n = %d, expected 10", report.FitAllData.NPoints)
	}
	if report.FitExcludingD3.NPoints != 9 {
		t.Errorf("clean fit n = %d, expected 9", report.FitExcludingD3.NPoints)
	}
	if report.HypothesisTest.RejectNull {
		t.Error("reference catalog must not reject the 1/√e hypothesis")
	}
	if report.D3Anomaly.ZScore <= 2 {
		t.Errorf("d3 z-score = %.2f, expected > 2", report.D3Anomaly.ZScore)
	}
	if report.D3Anomaly.Residual <= 0 {
		t.Errorf("d3 residual = %.4f, expected excess diffusion", report.D3Anomaly.Residual)
	}
	if !strings.Contains(report.CalibratedLaw.Equation, "log₁₀|Ш|") {
		t.Errorf("law equation malformed: %q", report.CalibratedLaw.Equation)
	}
	if report.CalibratedLaw.RSquared < 0.999 {
		t.Errorf("law R² = %.5f, expected > 0.999", report.CalibratedLaw.RSquared)
	}

	t.Logf("clean fit: slope=%.4f intercept=%.4f R²=%.5f; d3 z=%.1fσ",
		report.FitExcludingD3.Slope, report.FitExcludingD3.Intercept,
		report.FitExcludingD3.RSquared, report.D3Anomaly.ZScore)
}

func TestSaveJSONShape(t *testing.T) {
	report, err := BuildReport()
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	path := filepath.Join(t.TempDir(), "calibration_curve.json")
	if err := SaveJSON(report, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"") {
		t.Error("report must be two-space indented")
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"fit_all_data", "fit_excluding_d3", "hypothesis_test", "d3_anomaly", "calibrated_law"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("report missing %q section", key)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	report, err := BuildReport()
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	md := string(RenderMarkdown(report))
	for _, want := range []string{"# Ghost Rank Calibration", "Hypothesis test", "d3 anomaly", report.CalibratedLaw.Equation} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown summary missing %q", want)
		}
	}
	if !strings.Contains(md, "165066.v1") {
		t.Error("markdown summary must list the calibration points")
	}
}
