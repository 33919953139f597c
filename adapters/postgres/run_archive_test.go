package postgres

import (
	"math"
	"testing"
)

func TestArchiveDiffusionFiniteValues(t *testing.T) {
	for _, d := range []float64{0, 2.5, -0.3, 18.2} {
		n := archiveDiffusion(d)
		if !n.Valid {
			t.Errorf("diffusion %g must store as a value, got NULL", d)
		}
		if n.Float64 != d {
			t.Errorf("diffusion %g stored as %g", d, n.Float64)
		}
		if got := restoreDiffusion(n); got != d {
			t.Errorf("diffusion %g restored as %g", d, got)
		}
	}
}

func TestArchiveDiffusionSentinelRoundTrip(t *testing.T) {
	// A zero-stability ghost carries diffusion +Inf; it archives as NULL
	// and restores as the same sentinel.
	n := archiveDiffusion(math.Inf(1))
	if n.Valid {
		t.Fatalf("+Inf diffusion must store as NULL, got %g", n.Float64)
	}
	if got := restoreDiffusion(n); !math.IsInf(got, 1) {
		t.Errorf("NULL diffusion restored as %g, expected +Inf", got)
	}

	if archiveDiffusion(math.Inf(-1)).Valid {
		t.Error("-Inf diffusion must store as NULL")
	}
	if archiveDiffusion(math.NaN()).Valid {
		t.Error("NaN diffusion must store as NULL")
	}
}
