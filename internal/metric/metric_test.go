package metric

import (
	"math"
	"testing"

	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/errors"
)

func TestStabilityFormula(t *testing.T) {
	// S = |L'| / (|L| · ln N), hand-computed reference values
	cases := []struct {
		name      string
		lPrime    float64
		lValue    float64
		conductor int
		expected  float64
	}{
		{"small conductor", 0.5, 2.0, 11, 0.104257},
		{"leviathan-like", 0.1, 4.93, 165066, 0.001688},
		{"negative magnitudes", -0.5, -2.0, 11, 0.104257},
	}

	for _, tc := range cases {
		s, err := Stability(tc.lPrime, tc.lValue, tc.conductor)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if math.Abs(s-tc.expected) > 1e-5 {
			t.Errorf("%s: stability = %.6f, expected %.6f", tc.name, s, tc.expected)
		}
		if s < 0 {
			t.Errorf("%s: stability must be non-negative, got %f", tc.name, s)
		}
	}
}

func TestStabilityZeroLValue(t *testing.T) {
	s, err := Stability(0.1, 0, 165066)
	if err != nil {
		t.Fatalf("zero L-value must not error: %v", err)
	}
	if !math.IsInf(s, 1) {
		t.Errorf("zero L-value: expected +Inf sentinel, got %f", s)
	}
}

func TestStabilityInvalidConductor(t *testing.T) {
	for _, conductor := range []int{1, 0, -5} {
		_, err := Stability(0.1, 1.0, conductor)
		if err == nil {
			t.Fatalf("conductor %d: expected invalid-input error", conductor)
		}
		if errors.GetCode(err) != errors.CodeInvalidInput {
			t.Errorf("conductor %d: error code = %s, expected %s",
				conductor, errors.GetCode(err), errors.CodeInvalidInput)
		}
	}
}

func TestStabilityRank1(t *testing.T) {
	// |L''| / (|L'| · ln N) with the same guards as the rank-0 form
	s, err := StabilityRank1(0.3, 1.5, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := 0.3 / (1.5 * math.Log(11))
	if math.Abs(s-expected) > 1e-12 {
		t.Errorf("rank-1 stability = %f, expected %f", s, expected)
	}

	s, err = StabilityRank1(0.3, 0, 11)
	if err != nil {
		t.Fatalf("zero L' must not error: %v", err)
	}
	if !math.IsInf(s, 1) {
		t.Errorf("zero L': expected +Inf sentinel, got %f", s)
	}

	if _, err := StabilityRank1(0.3, 1.5, 1); err == nil {
		t.Error("conductor 1: expected invalid-input error")
	}
}

func TestClassifierStrictThreshold(t *testing.T) {
	if !IsGhost(0.0249) {
		t.Error("0.0249 is below the threshold and must classify as ghost")
	}
	if IsGhost(GhostThreshold) {
		t.Error("score equal to the threshold must not classify as ghost")
	}
	if IsGhost(0.3) {
		t.Error("0.3 is well above the threshold")
	}
}

func TestClassifierMonotonicInThreshold(t *testing.T) {
	// Raising the threshold can only turn negatives into positives.
	score := 0.025
	thresholds := []float64{0.001, 0.01, 0.025, 0.0251, 0.1, 1.0}

	wasGhost := false
	for _, th := range thresholds {
		got := IsGhostAt(score, th)
		if wasGhost && !got {
			t.Errorf("classification regressed at threshold %f", th)
		}
		if got {
			wasGhost = true
		}
	}
	if !wasGhost {
		t.Error("score must classify as ghost once threshold exceeds it")
	}
}

func TestDiffusionNonPositiveStability(t *testing.T) {
	if d := Diffusion(0, 165066); !math.IsInf(d, 1) {
		t.Errorf("zero stability: expected +Inf, got %f", d)
	}
	if d := Diffusion(-0.5, 165066); !math.IsInf(d, 1) {
		t.Errorf("negative stability: expected +Inf, got %f", d)
	}
}

func TestPredictShaInvertsCalibratedLaw(t *testing.T) {
	// Points placed exactly on the law must round-trip through the
	// diffusion transform and back to their invariant.
	conductor := 165066
	for _, sha := range []float64{289, 676, 1225, 2500, 5625} {
		dOnLine := DiffusionSlope*math.Log10(sha) + CalibrationIntercept

		// Choose the stability that produces exactly this index.
		logN := math.Log10(float64(conductor))
		stability := math.Pow(10, -dOnLine*logN/10)

		d := Diffusion(stability, conductor)
		if math.Abs(d-dOnLine) > 1e-9 {
			t.Fatalf("sha %.0f: diffusion = %.12f, expected %.12f", sha, d, dOnLine)
		}

		predicted := PredictSha(d)
		if math.Abs(predicted-sha)/sha > 1e-9 {
			t.Errorf("sha %.0f: round-trip predicted %.6f", sha, predicted)
		}
	}
}

func TestAnalyzeGhostVerdict(t *testing.T) {
	result, err := Analyze(0.1, 4.93, 165066, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.IsGhost {
		t.Error("leviathan-like values must classify as ghost")
	}
	if math.Abs(result.Stability-0.001688) > 1e-5 {
		t.Errorf("stability = %.6f, expected 0.001688", result.Stability)
	}
	if result.PredictedSha <= 1 {
		t.Errorf("ghost prediction must exceed 1, got %f", result.PredictedSha)
	}
	if math.Abs(result.Confidence-0.9325) > 1e-3 {
		t.Errorf("confidence = %.4f, expected 0.9325", result.Confidence)
	}

	t.Logf("analysis: S=%.6f D=%.4f ghost=%v predicted=%.0f confidence=%.2f",
		result.Stability, result.Diffusion, result.IsGhost, result.PredictedSha, result.Confidence)
}

func TestAnalyzeNonGhostDefaults(t *testing.T) {
	// S = 1/ln(100) ≈ 0.217, far above the threshold.
	result, err := Analyze(1.0, 1.0, 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsGhost {
		t.Error("stability above threshold must not classify as ghost")
	}
	if result.PredictedSha != 1.0 {
		t.Errorf("non-ghost predicted sha = %f, expected exactly 1.0", result.PredictedSha)
	}
	if result.Confidence != 1.0 {
		t.Errorf("confidence = %f, expected clamp at 1.0", result.Confidence)
	}
}

func TestAnalyzeHigherRankUnsupported(t *testing.T) {
	_, err := Analyze(0.1, 4.93, 165066, 1)
	if err == nil {
		t.Fatal("rank 1 must report not-implemented")
	}
	if errors.GetCode(err) != errors.CodeNotImplemented {
		t.Errorf("error code = %s, expected %s", errors.GetCode(err), errors.CodeNotImplemented)
	}

	var zero ghost.Analysis
	if a, _ := Analyze(0.1, 4.93, 165066, 2); a != zero {
		t.Error("failed analysis must return the zero verdict")
	}
}
