package solve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/equimin/internal/funcmin"
	"github.com/cwbudde/equimin/internal/merit"
)

func TestRunQuadraticDFP(t *testing.T) {
	cfg := Config{Objective: "quadratic", Params: merit.Params{Center: []float64{3, -1}}, Tol: 1e-8}

	report, err := Run(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, MethodDFP, report.Method)
	assert.Equal(t, funcmin.StatusConverged, report.Status)
	assert.Equal(t, 1, report.Runs)
	assert.Equal(t, 10.0, report.Initial)
	assert.InDeltaSlice(t, []float64{3, -1}, report.X, 1e-4)
	assert.Positive(t, report.Evaluations)
	assert.Positive(t, report.Gradients)
}

func TestRunPowellHasNoGradients(t *testing.T) {
	cfg := Config{Objective: "quadratic", Method: MethodPowell, Params: merit.Params{Center: []float64{1, 2, 3}}, Tol: 1e-8}

	report, err := Run(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, funcmin.StatusConverged, report.Status)
	assert.Zero(t, report.Gradients)
	assert.InDeltaSlice(t, []float64{1, 2, 3}, report.X, 1e-4)
}

func TestRunRestarts(t *testing.T) {
	cfg := Config{
		Objective:   "rosenbrock",
		MaxIter:     5,
		Restarts:    3,
		Convergence: ConvergenceConfig{Enabled: false, Patience: 1},
	}

	report, err := Run(cfg, nil, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.Runs, 2)
	assert.GreaterOrEqual(t, report.Iterations, 6)
	assert.Less(t, report.F, report.Initial)
}

func TestRunLiapSeeded(t *testing.T) {
	cfg := Config{
		Objective: "liap",
		Method:    MethodPowell,
		Params: merit.Params{
			A: [][]float64{{3, 0}, {5, 1}},
			B: [][]float64{{3, 5}, {0, 1}},
		},
		Interior: true,
		MaxIter:  50,
		Seed:     SeedConfig{Enabled: true, Iterations: 20, Seed: 3},
	}

	report, err := Run(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, report.Layout)
	assert.LessOrEqual(t, report.F, report.Initial)
	if report.Seeded {
		assert.Less(t, report.SeedValue, report.Initial)
	}
	assert.InDelta(t, 1.0, floats.Sum(report.X[:2]), 1e-9)
	assert.InDelta(t, 1.0, floats.Sum(report.X[2:]), 1e-9)
	for _, v := range report.X {
		assert.Positive(t, v)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := Config{Objective: "rosenbrock", Restarts: 5}

	report, err := Run(cfg, funcmin.ContextSink(ctx, nil), nil)
	require.NoError(t, err)
	assert.Equal(t, funcmin.StatusCancelled, report.Status)
	assert.Equal(t, 1, report.Runs)
	assert.Equal(t, 1, report.Iterations)
}

func TestRunTracer(t *testing.T) {
	var iters int
	tracer := funcmin.TracerFunc(func(ev funcmin.Event) {
		if ev.Kind == funcmin.EventIter {
			iters++
		}
	})
	cfg := Config{Objective: "beale", MaxIter: 3}

	report, err := Run(cfg, nil, tracer)
	require.NoError(t, err)
	assert.Positive(t, iters)
	assert.LessOrEqual(t, iters, report.Iterations)
}

func TestRunErrors(t *testing.T) {
	_, err := Run(Config{Objective: "nope"}, nil, nil)
	assert.True(t, errors.Is(err, merit.ErrUnknown))

	_, err = Run(Config{Objective: "beale", Start: []float64{1, 2, 3}}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = Run(Config{Objective: "beale", Method: "simplex"}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalid))

	// The quadratic starts at the origin, which is not interior.
	_, err = Run(Config{Objective: "quadratic", Params: merit.Params{Center: []float64{1}}, Interior: true}, nil, nil)
	assert.True(t, errors.Is(err, funcmin.ErrDomain))
}
