package curve

import (
	"math"

	"github.com/wsuduce/ghost-rank/domain/core"
)

// ============================================================================
// CURVE RECORDS (Immutable after load)
// ============================================================================

// Curve is a single elliptic-curve record from an L-function dataset.
// INVARIANTS:
// - Records never mutate after load; each is independent of every other.
// - Sha defaults to 1 when the invariant is unknown.
// - LValue/LPrime are magnitudes, always >= 0.
type Curve struct {
	Label     string  `json:"label"`
	Conductor int     `json:"conductor"`
	Rank      int     `json:"rank"`
	Sha       float64 `json:"sha"`     // |Ш|, the structural invariant magnitude
	LValue    float64 `json:"l_value"` // |L(E,1)|
	LPrime    float64 `json:"l_prime"` // |L'(E,1)|
}

// Validate checks the record invariants. Conductor 0 is tolerated here
// because datasets default missing conductors to 0 and the detector skips
// them; strict conductor validation happens at the metric boundary.
func (c Curve) Validate() error {
	if c.Conductor < 0 {
		return core.NewValidationError("conductor", "must be non-negative")
	}
	if c.Rank < 0 {
		return core.NewValidationError("rank", "must be non-negative")
	}
	if c.Sha <= 0 {
		return core.NewValidationError("sha", "must be positive")
	}
	if c.LValue < 0 {
		return core.NewValidationError("l_value", "must be non-negative")
	}
	if c.LPrime < 0 {
		return core.NewValidationError("l_prime", "must be non-negative")
	}
	return nil
}

// SqrtSha returns the integer square root of |Ш| and whether |Ш| is a
// perfect square. All confirmed ghosts have square invariants.
func (c Curve) SqrtSha() (int, bool) {
	root := int(math.Sqrt(c.Sha))
	return root, float64(root*root) == math.Trunc(c.Sha)
}
