// Package calibration fits the diffusion law D = (1/√e) × log₁₀|Ш| + C to
// reference monster data, tests the fitted slope against the theoretical
// constant, and assembles the full calibration report.
package calibration

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/errors"
	"github.com/wsuduce/ghost-rank/internal/metric"
)

// minFitPoints keeps the residual t-distribution meaningful (df = n-2 >= 1).
const minFitPoints = 3

// Fit performs ordinary least squares of the diffusion index on log₁₀|Ш|.
// Points flagged as anomalies are dropped when excludeAnomalies is set.
func Fit(points []ghost.CalibrationPoint, excludeAnomalies bool) (ghost.FitResult, error) {
	data := points
	if excludeAnomalies {
		data = make([]ghost.CalibrationPoint, 0, len(points))
		for _, p := range points {
			if !p.Anomaly {
				data = append(data, p)
			}
		}
	}

	n := len(data)
	if n < minFitPoints {
		return ghost.FitResult{}, errors.ValidationError(
			fmt.Sprintf("calibration fit requires at least %d points, got %d", minFitPoints, n))
	}

	x := make([]float64, n) // log10(sha)
	y := make([]float64, n) // measured D
	for i, p := range data {
		if p.Sha <= 0 {
			return ghost.FitResult{}, errors.ValidationError(
				fmt.Sprintf("calibration point %q has non-positive sha %v", p.Label, p.Sha))
		}
		x[i] = math.Log10(p.Sha)
		y[i] = p.D
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	rSquared := stat.RSquared(x, y, nil, intercept, slope)

	// Residuals against the fitted line.
	residuals := make([]float64, n)
	predicted := make([]float64, n)
	for i := range x {
		predicted[i] = slope*x[i] + intercept
		residuals[i] = y[i] - predicted[i]
	}

	stdErr := slopeStdErr(x, residuals)
	pValue := slopePValue(slope, stdErr, n)

	// Population spread of the residuals; z-scores are zero-filled when
	// the points sit exactly on the line.
	residualStd, err := stats.StandardDeviation(residuals)
	if err != nil {
		return ghost.FitResult{}, errors.Wrap(err, "residual spread computation failed")
	}

	residualPoints := make([]ghost.ResidualPoint, n)
	for i, p := range data {
		z := 0.0
		if residualStd > 0 {
			z = residuals[i] / residualStd
		}
		residualPoints[i] = ghost.ResidualPoint{
			Label:      p.Label,
			Sha:        p.Sha,
			DMeasured:  y[i],
			DPredicted: predicted[i],
			Residual:   residuals[i],
			ZScore:     z,
		}
	}

	return ghost.FitResult{
		Slope:            slope,
		Intercept:        intercept,
		RSquared:         rSquared,
		PValue:           pValue,
		StdErr:           stdErr,
		TheoreticalSlope: metric.DiffusionSlope,
		SlopeRatio:       slope / metric.DiffusionSlope,
		NPoints:          n,
		Residuals:        residualPoints,
	}, nil
}

// slopeStdErr is the standard error of the fitted slope:
// sqrt(SSE / (n-2) / Σ(x-x̄)²).
func slopeStdErr(x, residuals []float64) float64 {
	n := len(x)
	xMean := stat.Mean(x, nil)

	var sse, sxx float64
	for i := range x {
		sse += residuals[i] * residuals[i]
		dx := x[i] - xMean
		sxx += dx * dx
	}
	if sxx == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(sse / float64(n-2) / sxx)
}

// slopePValue is the two-tailed p-value for H0: slope = 0.
func slopePValue(slope, stdErr float64, n int) float64 {
	if stdErr == 0 {
		return 0
	}
	if math.IsInf(stdErr, 1) {
		return 1
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * (1 - tDist.CDF(math.Abs(slope/stdErr)))
}
