package ports

import (
	"github.com/wsuduce/ghost-rank/domain/curve"
)

// CurveReader loads immutable curve records from a dataset source.
// Implementations validate shape (header row, numeric cells) but leave
// range filtering to the detector.
type CurveReader interface {
	ReadCurves() ([]curve.Curve, error)
	SourceName() string
}
