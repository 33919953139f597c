package calibration

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/metric"
)

// rejectionAlpha is the significance level for the slope hypothesis test.
const rejectionAlpha = 0.05

// TestSlope runs the t-test of H0: slope = 1/√e against the fitted slope,
// with df = n-2 and a two-tailed p-value.
func TestSlope(slope, stdErr float64, n int) ghost.HypothesisTest {
	tStat := (slope - metric.DiffusionSlope) / stdErr
	df := n - 2

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	pValue := 2 * (1 - tDist.CDF(math.Abs(tStat)))

	reject := pValue < rejectionAlpha
	interpretation := "Cannot reject that slope = 1/√e"
	if reject {
		interpretation = "Slopes are significantly different"
	}

	return ghost.HypothesisTest{
		ObservedSlope:    slope,
		TheoreticalSlope: metric.DiffusionSlope,
		TStatistic:       tStat,
		DegreesOfFreedom: df,
		PValue:           pValue,
		RejectNull:       reject,
		Interpretation:   interpretation,
	}
}
