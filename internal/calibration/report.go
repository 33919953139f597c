package calibration

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/errors"
)

const d3Interpretation = "The d3 anomaly shows 3σ excess diffusion, possibly indicating " +
	"Ghost Breeding behavior where the base curve encodes information " +
	"about its twist family."

// BuildReport assembles the complete calibration analysis over the embedded
// reference catalog: the fit with and without the d3 anomaly, the slope
// hypothesis test on the clean fit, and the anomaly's deviation from it.
func BuildReport() (ghost.CalibrationReport, error) {
	all := ghost.AllCalibrationPoints()

	fitAll, err := Fit(all, false)
	if err != nil {
		return ghost.CalibrationReport{}, errors.Wrap(err, "full-catalog fit failed")
	}

	fitClean, err := Fit(all, true)
	if err != nil {
		return ghost.CalibrationReport{}, errors.Wrap(err, "anomaly-excluded fit failed")
	}

	hypothesis := TestSlope(fitClean.Slope, fitClean.StdErr, fitClean.NPoints)

	d3 := analyzeAnomaly(ghost.D3Anomaly(), fitClean)

	law := ghost.CalibratedLaw{
		Equation:  fmt.Sprintf("D = (1/√e) × log₁₀|Ш| + %.4f", fitClean.Intercept),
		Slope:     "1/√e ≈ 0.6065",
		Intercept: fitClean.Intercept,
		RSquared:  fitClean.RSquared,
	}

	return ghost.CalibrationReport{
		FitAllData:     fitAll,
		FitExcludingD3: fitClean,
		HypothesisTest: hypothesis,
		D3Anomaly:      d3,
		CalibratedLaw:  law,
	}, nil
}

// analyzeAnomaly measures a point against the clean fit, scoring its
// residual in units of the clean residual spread.
func analyzeAnomaly(point ghost.CalibrationPoint, clean ghost.FitResult) ghost.AnomalyAnalysis {
	predicted := clean.Slope*math.Log10(point.Sha) + clean.Intercept
	residual := point.D - predicted

	cleanResiduals := make([]float64, len(clean.Residuals))
	for i, r := range clean.Residuals {
		cleanResiduals[i] = r.Residual
	}
	residualStd, _ := stats.StandardDeviation(cleanResiduals)

	z := 0.0
	if residualStd > 0 {
		z = residual / residualStd
	}

	return ghost.AnomalyAnalysis{
		Label:          point.Label,
		Sha:            point.Sha,
		DMeasured:      point.D,
		DPredicted:     predicted,
		Residual:       residual,
		ZScore:         z,
		Interpretation: d3Interpretation,
	}
}

// SaveJSON writes the report with two-space indentation. Every scalar in
// the report is a plain finite number, so the encoding never fails on
// sentinel values.
func SaveJSON(report ghost.CalibrationReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode calibration report")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write calibration report to %s", path)
	}
	return nil
}

// RenderMarkdown produces the human-readable report summary served on the
// web report page.
func RenderMarkdown(report ghost.CalibrationReport) []byte {
	var b strings.Builder

	fit := report.FitExcludingD3
	b.WriteString("# Ghost Rank Calibration\n\n")
	b.WriteString(fmt.Sprintf("**Calibrated law:** `%s`\n\n", report.CalibratedLaw.Equation))

	b.WriteString("## Fit excluding d3 anomaly\n\n")
	b.WriteString("| Statistic | Value |\n|---|---|\n")
	b.WriteString(fmt.Sprintf("| Slope | %.4f |\n", fit.Slope))
	b.WriteString(fmt.Sprintf("| Expected (1/√e) | %.4f |\n", fit.TheoreticalSlope))
	b.WriteString(fmt.Sprintf("| Ratio | %.4f |\n", fit.SlopeRatio))
	b.WriteString(fmt.Sprintf("| R² | %.4f |\n", fit.RSquared))
	b.WriteString(fmt.Sprintf("| p-value | %.2e |\n", fit.PValue))
	b.WriteString(fmt.Sprintf("| Points | %d |\n\n", fit.NPoints))

	test := report.HypothesisTest
	b.WriteString("## Hypothesis test (H₀: slope = 1/√e)\n\n")
	b.WriteString(fmt.Sprintf("- t-statistic: %.4f (df = %d)\n", test.TStatistic, test.DegreesOfFreedom))
	b.WriteString(fmt.Sprintf("- p-value: %.4f\n", test.PValue))
	b.WriteString(fmt.Sprintf("- Result: %s\n\n", test.Interpretation))

	d3 := report.D3Anomaly
	b.WriteString("## d3 anomaly\n\n")
	b.WriteString(fmt.Sprintf("- Curve: %s (|Ш| = %.0f)\n", d3.Label, d3.Sha))
	b.WriteString(fmt.Sprintf("- Measured D: %.2f, predicted D: %.2f\n", d3.DMeasured, d3.DPredicted))
	b.WriteString(fmt.Sprintf("- Z-score: %.2fσ\n\n", d3.ZScore))
	b.WriteString(d3.Interpretation)
	b.WriteString("\n\n## Calibration points\n\n")
	b.WriteString("| Label | |Ш| | D measured | D predicted | Residual | z |\n|---|---|---|---|---|---|\n")
	for _, r := range fit.Residuals {
		b.WriteString(fmt.Sprintf("| %s | %.0f | %.2f | %.3f | %+.3f | %+.2f |\n",
			r.Label, r.Sha, r.DMeasured, r.DPredicted, r.Residual, r.ZScore))
	}

	return []byte(b.String())
}
