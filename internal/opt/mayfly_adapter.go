package opt

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MinPopulation is the smallest population the mayfly library accepts.
const MinPopulation = 20

// ErrBounds is returned for a box whose bounds do not match the dimension
// or are empty.
var ErrBounds = errors.New("mayfly: invalid bounds")

// MayflyAdapter runs the mayfly swarm search over a box.
type MayflyAdapter struct {
	iterations int
	population int
	seed       int64
}

// NewMayfly returns a seeded mayfly search. Populations below
// MinPopulation are raised to it.
func NewMayfly(iterations, population int, seed int64) Optimizer {
	return &MayflyAdapter{
		iterations: iterations,
		population: max(population, MinPopulation),
		seed:       seed,
	}
}

// Run searches the box [lower, upper]. The library only knows a scalar
// range, so the swarm moves in the unit cube and every position is mapped
// onto the box before evaluation. A single lower and upper value applies
// to all dim coordinates.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error) {
	lo, hi, err := expandBounds(lower, upper, dim)
	if err != nil {
		return nil, 0, err
	}

	x := make([]float64, dim)
	toBox := func(u []float64) []float64 {
		for i := range x {
			x[i] = lo[i] + math.Min(math.Max(u[i], 0), 1)*(hi[i]-lo[i])
		}
		return x
	}

	cfg := mayfly.NewDefaultConfig()
	cfg.ProblemSize = dim
	cfg.LowerBound, cfg.UpperBound = 0, 1
	cfg.MaxIterations = m.iterations
	cfg.NPop = m.population
	cfg.Rand = rand.New(rand.NewSource(m.seed))
	cfg.ObjectiveFunc = func(u []float64) float64 { return eval(toBox(u)) }

	result, err := mayfly.Optimize(cfg)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly: %w", err)
	}
	best := append([]float64(nil), toBox(result.GlobalBest.Position)...)
	return best, result.GlobalBest.Cost, nil
}

func expandBounds(lower, upper []float64, dim int) ([]float64, []float64, error) {
	widen := func(b []float64) ([]float64, bool) {
		switch len(b) {
		case dim:
			return b, true
		case 1:
			out := make([]float64, dim)
			for i := range out {
				out[i] = b[0]
			}
			return out, true
		}
		return nil, false
	}
	lo, ok1 := widen(lower)
	hi, ok2 := widen(upper)
	if !ok1 || !ok2 || dim < 1 {
		return nil, nil, fmt.Errorf("%w: %d lower and %d upper values for dimension %d", ErrBounds, len(lower), len(upper), dim)
	}
	for i := range lo {
		if !(lo[i] < hi[i]) {
			return nil, nil, fmt.Errorf("%w: empty range [%g, %g] at coordinate %d", ErrBounds, lo[i], hi[i], i)
		}
	}
	return lo, hi, nil
}
