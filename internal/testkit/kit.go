// Package testkit provides deterministic fixtures and in-memory adapters
// for exercising the detection pipeline without files or a database.
package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/wsuduce/ghost-rank/domain/core"
	"github.com/wsuduce/ghost-rank/domain/curve"
	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/ports"
)

// TestKit bundles shared fake adapters so tests and services observe the
// same storage.
type TestKit struct {
	archive *InMemoryRunArchive
}

// NewTestKit creates a new test kit instance.
func NewTestKit() *TestKit {
	return &TestKit{archive: NewInMemoryRunArchive()}
}

// RunArchive returns the shared in-memory archive.
func (t *TestKit) RunArchive() ports.RunArchive {
	return t.archive
}

// GhostCurves generates n rank-0 curves whose stability lands strictly
// below the default detection threshold, each carrying a square |Ш| > 1.
// The same seed always yields the same population.
func GhostCurves(n int, seed int64) []curve.Curve {
	rng := rand.New(rand.NewSource(seed))
	curves := make([]curve.Curve, n)
	for i := range curves {
		conductor := 10000 + rng.Intn(900000)
		root := 2 + rng.Intn(40)
		stability := 1e-5 + rng.Float64()*0.02
		lPrime := 0.1
		curves[i] = curve.Curve{
			Label:     fmt.Sprintf("%d.g%d", conductor, i+1),
			Conductor: conductor,
			Rank:      0,
			Sha:       float64(root * root),
			LValue:    lPrime / (stability * math.Log(float64(conductor))),
			LPrime:    lPrime,
		}
	}
	return curves
}

// NormalCurves generates n rank-0 curves with trivial |Ш| whose stability
// sits well above the default threshold.
func NormalCurves(n int, seed int64) []curve.Curve {
	rng := rand.New(rand.NewSource(seed))
	curves := make([]curve.Curve, n)
	for i := range curves {
		conductor := 10000 + rng.Intn(900000)
		stability := 0.05 + rng.Float64()*1.45
		lPrime := 0.1
		curves[i] = curve.Curve{
			Label:     fmt.Sprintf("%d.a%d", conductor, i+1),
			Conductor: conductor,
			Rank:      0,
			Sha:       1,
			LValue:    lPrime / (stability * math.Log(float64(conductor))),
			LPrime:    lPrime,
		}
	}
	return curves
}

// HigherRankCurves generates n curves of the given analytic rank. Runs
// filtering on rank 0 must skip all of them.
func HigherRankCurves(n, rank int, seed int64) []curve.Curve {
	rng := rand.New(rand.NewSource(seed))
	curves := make([]curve.Curve, n)
	for i := range curves {
		conductor := 10000 + rng.Intn(900000)
		curves[i] = curve.Curve{
			Label:     fmt.Sprintf("%d.r%d", conductor, i+1),
			Conductor: conductor,
			Rank:      rank,
			Sha:       1,
			LValue:    0,
			LPrime:    0.3 + rng.Float64(),
		}
	}
	return curves
}

// SliceReader implements ports.CurveReader over an in-memory dataset.
type SliceReader struct {
	Name   string
	Curves []curve.Curve
	Err    error // returned from ReadCurves when set
}

func (r *SliceReader) ReadCurves() ([]curve.Curve, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Curves, nil
}

func (r *SliceReader) SourceName() string {
	if r.Name == "" {
		return "in-memory"
	}
	return r.Name
}

// InMemoryRunArchive implements ports.RunArchive with map storage.
type InMemoryRunArchive struct {
	runs   map[core.RunID]ghost.DetectionRun
	ghosts map[core.RunID][]ghost.Ghost
	order  []core.RunID
	mu     sync.RWMutex
}

func NewInMemoryRunArchive() *InMemoryRunArchive {
	return &InMemoryRunArchive{
		runs:   make(map[core.RunID]ghost.DetectionRun),
		ghosts: make(map[core.RunID][]ghost.Ghost),
	}
}

func (a *InMemoryRunArchive) SaveRun(ctx context.Context, run ghost.DetectionRun, ghosts []ghost.Ghost) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.runs[run.ID]; !exists {
		a.order = append(a.order, run.ID)
	}
	a.runs[run.ID] = run

	stored := make([]ghost.Ghost, len(ghosts))
	copy(stored, ghosts)
	a.ghosts[run.ID] = stored

	return nil
}

func (a *InMemoryRunArchive) GetRun(ctx context.Context, id core.RunID) (ghost.DetectionRun, []ghost.Ghost, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	run, exists := a.runs[id]
	if !exists {
		return ghost.DetectionRun{}, nil, core.ErrRunNotFound
	}

	stored := a.ghosts[id]
	ghosts := make([]ghost.Ghost, len(stored))
	copy(ghosts, stored)

	return run, ghosts, nil
}

// ListRuns returns archived runs newest first.
func (a *InMemoryRunArchive) ListRuns(ctx context.Context, limit int) ([]ghost.DetectionRun, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	runs := make([]ghost.DetectionRun, 0, len(a.order))
	for i := len(a.order) - 1; i >= 0; i-- {
		runs = append(runs, a.runs[a.order[i]])
		if limit > 0 && len(runs) >= limit {
			break
		}
	}
	return runs, nil
}
