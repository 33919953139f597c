package detector

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/wsuduce/ghost-rank/domain/curve"
	"github.com/wsuduce/ghost-rank/internal/metric"
	"github.com/wsuduce/ghost-rank/internal/testkit"
)

// testCurve builds a rank-r record whose stability works out to exactly
// the requested value.
func testCurve(label string, conductor, rank int, sha, stability float64) curve.Curve {
	lPrime := 0.1
	return curve.Curve{
		Label:     label,
		Conductor: conductor,
		Rank:      rank,
		Sha:       sha,
		LValue:    lPrime / (stability * math.Log(float64(conductor))),
		LPrime:    lPrime,
	}
}

func TestDetectEmptyInput(t *testing.T) {
	ghosts := Detect(nil, DefaultOptions())
	if len(ghosts) != 0 {
		t.Errorf("Expected no ghosts from empty input, got %d", len(ghosts))
	}

	stats := Statistics(nil, ghosts, DefaultOptions())
	if stats.TotalCurves != 0 || stats.Rank0Curves != 0 || stats.GhostsDetected != 0 {
		t.Errorf("Expected zeroed counts, got %+v", stats)
	}
	if stats.PGhostGivenShaGt1 != 0 || stats.PGhostGivenShaEq1 != 0 {
		t.Errorf("Expected zero probabilities for empty population, got %+v", stats)
	}
	if math.IsNaN(stats.PGhostGivenShaGt1) || math.IsNaN(stats.PGhostGivenShaEq1) {
		t.Error("Probabilities must never be NaN")
	}
}

func TestDetectClassifiesSyntheticPopulation(t *testing.T) {
	population := append(testkit.GhostCurves(25, 101), testkit.NormalCurves(40, 202)...)

	ghosts := Detect(population, DefaultOptions())

	if len(ghosts) != 25 {
		t.Fatalf("Expected 25 ghosts, got %d", len(ghosts))
	}
	for _, g := range ghosts {
		if g.Sha <= 1 {
			t.Errorf("Ghost %s has sha %f, expected > 1", g.Label, g.Sha)
		}
		if g.Stability >= metric.GhostThreshold {
			t.Errorf("Ghost %s has stability %f, expected below %f", g.Label, g.Stability, metric.GhostThreshold)
		}
		if math.IsInf(g.Diffusion, 0) || math.IsNaN(g.Diffusion) {
			t.Errorf("Ghost %s has non-finite diffusion %f", g.Label, g.Diffusion)
		}
	}
}

func TestDetectSortsByShaDescending(t *testing.T) {
	population := append(testkit.GhostCurves(30, 7), testkit.NormalCurves(10, 8)...)

	ghosts := Detect(population, DefaultOptions())

	for i := 1; i < len(ghosts); i++ {
		if ghosts[i].Sha > ghosts[i-1].Sha {
			t.Fatalf("Ghosts not sorted by sha descending: %f before %f", ghosts[i-1].Sha, ghosts[i].Sha)
		}
	}
}

func TestDetectRankFilter(t *testing.T) {
	// Ghost-grade L-values on rank-1 records: the rank filter alone must
	// decide who gets scanned.
	rank1 := testkit.GhostCurves(12, 33)
	for i := range rank1 {
		rank1[i].Rank = 1
	}

	if ghosts := Detect(rank1, DefaultOptions()); len(ghosts) != 0 {
		t.Errorf("Expected rank-1 curves to be skipped under rank-0 filter, got %d ghosts", len(ghosts))
	}

	opts := Options{RankFilter: 1, Threshold: metric.GhostThreshold}
	if ghosts := Detect(rank1, opts); len(ghosts) != 12 {
		t.Errorf("Expected 12 ghosts under rank-1 filter, got %d", len(ghosts))
	}
}

func TestDetectSkipsInvalidConductor(t *testing.T) {
	curves := []curve.Curve{
		{Label: "zero", Conductor: 0, Rank: 0, Sha: 4, LValue: 0.0001, LPrime: 0.1},
		{Label: "one", Conductor: 1, Rank: 0, Sha: 9, LValue: 0.0001, LPrime: 0.1},
		{Label: "one-vanishing", Conductor: 1, Rank: 0, Sha: 9, LValue: 0, LPrime: 0.1},
	}

	if ghosts := Detect(curves, DefaultOptions()); len(ghosts) != 0 {
		t.Errorf("Expected conductor <= 1 records to be skipped, got %d ghosts", len(ghosts))
	}
}

func TestDetectZeroLValueNotGhost(t *testing.T) {
	curves := []curve.Curve{
		{Label: "vanishing", Conductor: 389, Rank: 0, Sha: 1, LValue: 0, LPrime: 0.7},
	}

	// Vanishing L gives +Inf stability, which can never fall below the
	// threshold.
	if ghosts := Detect(curves, DefaultOptions()); len(ghosts) != 0 {
		t.Errorf("Expected no ghosts for vanishing L-value, got %d", len(ghosts))
	}
}

func TestStatisticsContingency(t *testing.T) {
	curves := []curve.Curve{
		testCurve("g1", 165066, 0, 1225, 0.005),
		testCurve("g2", 234446, 0, 289, 0.004),
		testCurve("g3", 50000, 0, 4, 0.003),
		testCurve("n1", 11, 0, 1, 0.5),
		testCurve("n2", 37, 0, 1, 0.6),
		testCurve("n3", 389, 0, 1, 0.7),
		testCurve("n4", 5077, 0, 1, 0.8),
		testCurve("n5", 1001, 0, 1, 0.9),
		testCurve("r1", 5077, 1, 1, 0.001),
		{Label: "c0", Conductor: 0, Rank: 0, Sha: 4, LValue: 0.0001, LPrime: 0.1},
	}

	opts := DefaultOptions()
	ghosts := Detect(curves, opts)
	stats := Statistics(curves, ghosts, opts)

	if stats.TotalCurves != 10 {
		t.Errorf("Expected 10 total curves, got %d", stats.TotalCurves)
	}
	if stats.Rank0Curves != 8 {
		t.Errorf("Expected 8 scannable curves, got %d", stats.Rank0Curves)
	}
	if stats.GhostsDetected != 3 {
		t.Errorf("Expected 3 ghosts, got %d", stats.GhostsDetected)
	}
	if stats.GhostsShaGt1 != 3 || stats.GhostsShaEq1 != 0 {
		t.Errorf("Expected 3/0 ghost split, got %d/%d", stats.GhostsShaGt1, stats.GhostsShaEq1)
	}
	if stats.PGhostGivenShaGt1 != 1.0 {
		t.Errorf("Expected P(ghost | sha > 1) = 1.0, got %f", stats.PGhostGivenShaGt1)
	}
	if stats.PGhostGivenShaEq1 != 0.0 {
		t.Errorf("Expected P(ghost | sha = 1) = 0.0, got %f", stats.PGhostGivenShaEq1)
	}
	if !stats.PerfectSeparation {
		t.Error("Expected perfect separation")
	}
}

func TestStatisticsImperfectSeparation(t *testing.T) {
	curves := []curve.Curve{
		testCurve("g1", 165066, 0, 1225, 0.005),
		testCurve("leak", 50000, 0, 1, 0.001), // sha = 1 but still a ghost
		testCurve("n1", 11, 0, 1, 0.5),
		testCurve("n2", 37, 0, 1, 0.6),
	}

	opts := DefaultOptions()
	ghosts := Detect(curves, opts)
	stats := Statistics(curves, ghosts, opts)

	if stats.GhostsShaEq1 != 1 {
		t.Fatalf("Expected 1 trivial-sha ghost, got %d", stats.GhostsShaEq1)
	}
	if stats.PerfectSeparation {
		t.Error("Expected separation to break with a trivial-sha ghost")
	}
	want := 1.0 / 3.0
	if math.Abs(stats.PGhostGivenShaEq1-want) > 1e-12 {
		t.Errorf("Expected P(ghost | sha = 1) = %f, got %f", want, stats.PGhostGivenShaEq1)
	}
}

func TestStatisticsEmptyPopulationGuards(t *testing.T) {
	// Nothing matches the rank filter, so both conditionals guard their
	// divisions.
	curves := testkit.HigherRankCurves(5, 2, 44)

	opts := DefaultOptions()
	ghosts := Detect(curves, opts)
	stats := Statistics(curves, ghosts, opts)

	if stats.Rank0Curves != 0 {
		t.Errorf("Expected empty scan population, got %d", stats.Rank0Curves)
	}
	if stats.PGhostGivenShaGt1 != 0 || stats.PGhostGivenShaEq1 != 0 {
		t.Errorf("Expected guarded zero probabilities, got %+v", stats)
	}
}

func TestWriteTopTable(t *testing.T) {
	ghosts := Detect([]curve.Curve{
		testCurve("165066.d3", 165066, 0, 1225, 0.000163),
		testCurve("50000.x1", 50000, 0, 5.5, 0.002),
	}, DefaultOptions())

	var buf bytes.Buffer
	WriteTopTable(&buf, ghosts, 10)
	out := buf.String()

	if !strings.Contains(out, "TOP 2 GHOSTS") {
		t.Errorf("Expected clamped header TOP 2 GHOSTS, got:\n%s", out)
	}
	if !strings.Contains(out, "165066.d3") {
		t.Errorf("Expected label in table, got:\n%s", out)
	}
	if !strings.Contains(out, "35✓") {
		t.Errorf("Expected perfect-square root 35✓, got:\n%s", out)
	}
	if strings.Contains(out, "2✓") {
		t.Errorf("Expected no checkmark for non-square invariant, got:\n%s", out)
	}
}
