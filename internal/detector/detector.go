// Package detector runs the batch ghost scan: filter, score, classify,
// sort, and summarize a curve dataset.
package detector

import (
	"sort"

	"github.com/wsuduce/ghost-rank/domain/curve"
	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/metric"
)

// Options control a batch scan. A zero Threshold falls back to the
// published constant so an empty Options value is safe to use.
type Options struct {
	RankFilter int
	Threshold  float64
}

// DefaultOptions returns the published scan settings.
func DefaultOptions() Options {
	return Options{RankFilter: 0, Threshold: metric.GhostThreshold}
}

// EffectiveThreshold resolves the zero-value fallback.
func (o Options) EffectiveThreshold() float64 {
	if o.Threshold == 0 {
		return metric.GhostThreshold
	}
	return o.Threshold
}

// Detect scans the dataset and returns every positive detection, sorted by
// invariant magnitude, largest first. Records with a non-matching rank or
// conductor <= 1 are skipped silently; each record is independent.
func Detect(curves []curve.Curve, opts Options) []ghost.Ghost {
	threshold := opts.EffectiveThreshold()
	ghosts := make([]ghost.Ghost, 0)

	for _, c := range curves {
		if c.Rank != opts.RankFilter {
			continue
		}

		// A conductor outside the metric's domain (<= 1) surfaces as an
		// error here; a zero L-value gives +Inf, which never classifies.
		stability, err := metric.Stability(c.LPrime, c.LValue, c.Conductor)
		if err != nil {
			continue
		}

		if metric.IsGhostAt(stability, threshold) {
			ghosts = append(ghosts, ghost.Ghost{
				Curve:     c,
				Stability: stability,
				Diffusion: metric.Diffusion(stability, c.Conductor),
			})
		}
	}

	sort.SliceStable(ghosts, func(i, j int) bool {
		return ghosts[i].Sha > ghosts[j].Sha
	})

	return ghosts
}

// Statistics summarizes a scan as a 2x2 contingency breakdown over the
// scan population (matching rank, conductor > 1). Empty populations yield
// zero probabilities rather than dividing by zero.
func Statistics(curves []curve.Curve, ghosts []ghost.Ghost, opts Options) ghost.DetectionStats {
	population := make([]curve.Curve, 0, len(curves))
	for _, c := range curves {
		if c.Rank == opts.RankFilter && c.Conductor > 1 {
			population = append(population, c)
		}
	}

	var ghostsShaGt1, ghostsShaEq1 int
	for _, g := range ghosts {
		switch {
		case g.Sha > 1:
			ghostsShaGt1++
		case g.Sha == 1:
			ghostsShaEq1++
		}
	}

	var totalShaGt1, totalShaEq1 int
	for _, c := range population {
		switch {
		case c.Sha > 1:
			totalShaGt1++
		case c.Sha == 1:
			totalShaEq1++
		}
	}

	var pGt1, pEq1 float64
	if totalShaGt1 > 0 {
		pGt1 = float64(ghostsShaGt1) / float64(totalShaGt1)
	}
	if totalShaEq1 > 0 {
		pEq1 = float64(ghostsShaEq1) / float64(totalShaEq1)
	}

	return ghost.DetectionStats{
		TotalCurves:       len(curves),
		Rank0Curves:       len(population),
		GhostsDetected:    len(ghosts),
		GhostsShaGt1:      ghostsShaGt1,
		GhostsShaEq1:      ghostsShaEq1,
		PGhostGivenShaGt1: pGt1,
		PGhostGivenShaEq1: pEq1,
		PerfectSeparation: ghostsShaEq1 == 0,
	}
}
