// Package metric implements the Ghost Rank stability metric and the
// transforms derived from it: the diffusion index, the inverse |Ш|
// prediction, and the threshold classifier.
//
// The law under everything here is
//
//	D = (1/√e) × log₁₀|Ш| + C
//
// with the threshold, slope and intercept below taken as trusted external
// constants; they are asserted empirically upstream and never re-derived.
package metric

import (
	"fmt"
	"math"

	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/errors"
)

const (
	// GhostThreshold is the classification cutoff: curves with
	// stability strictly below it are ghosts.
	GhostThreshold = 0.025

	// CalibrationIntercept is the constant C of the calibrated law.
	CalibrationIntercept = -0.0025
)

// DiffusionSlope is the theoretical slope 1/√e ≈ 0.6065306597 of the
// diffusion law.
var DiffusionSlope = 1 / math.Sqrt(math.E)

// Stability computes S(E) = |L'(E,1)| / (|L(E,1)| · ln N) for a rank-0
// curve of conductor N. A vanishing L-value yields +Inf rather than an
// error; the conductor must exceed 1 for the logarithm to be meaningful.
func Stability(lPrime, lValue float64, conductor int) (float64, error) {
	if lValue == 0 {
		return math.Inf(1), nil
	}
	if conductor <= 1 {
		return 0, errors.InvalidInput(fmt.Sprintf("conductor must be greater than 1, got %d", conductor))
	}
	return math.Abs(lPrime) / (math.Abs(lValue) * math.Log(float64(conductor))), nil
}

// StabilityRank1 is the rank-1 variant of Stability, substituting
// |L''(E,1)| / |L'(E,1)| for the rank-0 ratio. Zero and invalid inputs
// are handled identically.
func StabilityRank1(lSecond, lPrime float64, conductor int) (float64, error) {
	if lPrime == 0 {
		return math.Inf(1), nil
	}
	if conductor <= 1 {
		return 0, errors.InvalidInput(fmt.Sprintf("conductor must be greater than 1, got %d", conductor))
	}
	return math.Abs(lSecond) / (math.Abs(lPrime) * math.Log(float64(conductor))), nil
}

// IsGhost classifies a stability score against the default threshold.
func IsGhost(stability float64) bool {
	return IsGhostAt(stability, GhostThreshold)
}

// IsGhostAt reports whether stability is strictly below threshold.
func IsGhostAt(stability, threshold float64) bool {
	return stability < threshold
}

// Diffusion computes the index D = -log₁₀(S) / (log₁₀(N)/10).
// Non-positive stability yields +Inf.
func Diffusion(stability float64, conductor int) float64 {
	if stability <= 0 {
		return math.Inf(1)
	}
	logN := math.Log10(float64(conductor))
	return -math.Log10(stability) / (logN / 10)
}

// PredictSha inverts the calibrated law, recovering |Ш| = 10^((D-C)/slope)
// from a diffusion index. Predictions are typically accurate to within an
// order of magnitude.
func PredictSha(diffusion float64) float64 {
	logSha := (diffusion - CalibrationIntercept) / DiffusionSlope
	return math.Pow(10, logSha)
}

// Analyze produces the full verdict for one curve. Only rank 0 is
// supported; higher ranks need |L''(E,1)| measurements that the datasets
// do not carry.
func Analyze(lPrime, lValue float64, conductor, rank int) (ghost.Analysis, error) {
	if rank != 0 {
		return ghost.Analysis{}, errors.NotImplemented("rank > 0 analysis requires |L''(E,1)|")
	}

	stability, err := Stability(lPrime, lValue, conductor)
	if err != nil {
		return ghost.Analysis{}, err
	}

	diffusion := Diffusion(stability, conductor)
	isGhost := IsGhost(stability)

	predicted := 1.0
	if isGhost {
		predicted = PredictSha(diffusion)
	}

	// Confidence grows with distance from the threshold, capped at 1.
	distance := math.Abs(stability-GhostThreshold) / GhostThreshold
	confidence := math.Min(1.0, distance)

	return ghost.Analysis{
		Stability:    stability,
		Diffusion:    diffusion,
		IsGhost:      isGhost,
		PredictedSha: predicted,
		Confidence:   confidence,
	}, nil
}
