package ui

import (
	"math"

	"github.com/wsuduce/ghost-rank/domain/curve"
	"github.com/wsuduce/ghost-rank/domain/ghost"
)

// analysisResponse mirrors ghost.Analysis with the non-finite sentinel
// values serialized as JSON null.
type analysisResponse struct {
	Stability    *float64 `json:"stability"`
	Diffusion    *float64 `json:"diffusion"`
	IsGhost      bool     `json:"is_ghost"`
	PredictedSha *float64 `json:"predicted_sha"`
	Confidence   float64  `json:"confidence"`
}

func newAnalysisResponse(a ghost.Analysis) analysisResponse {
	return analysisResponse{
		Stability:    finiteOrNull(a.Stability),
		Diffusion:    finiteOrNull(a.Diffusion),
		IsGhost:      a.IsGhost,
		PredictedSha: finiteOrNull(a.PredictedSha),
		Confidence:   a.Confidence,
	}
}

// ghostResponse mirrors ghost.Ghost for API output. A zero-stability
// ghost carries diffusion +Inf, which encoding/json cannot represent.
type ghostResponse struct {
	curve.Curve
	Stability *float64 `json:"stability"`
	Diffusion *float64 `json:"diffusion"`
}

func newGhostResponses(ghosts []ghost.Ghost) []ghostResponse {
	out := make([]ghostResponse, len(ghosts))
	for i, g := range ghosts {
		out[i] = ghostResponse{
			Curve:     g.Curve,
			Stability: finiteOrNull(g.Stability),
			Diffusion: finiteOrNull(g.Diffusion),
		}
	}
	return out
}

// finiteOrNull maps ±Inf and NaN to null so c.JSON never fails after the
// status line is committed.
func finiteOrNull(f float64) *float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}
