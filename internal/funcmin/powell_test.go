package funcmin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/functions"
)

func TestPowellQuadratic(t *testing.T) {
	f := &Counter{F: quadratic{center: []float64{3, -1}}}
	x := []float64{0, 0}

	res, err := Powell(f, x, CoordinateDirections(2), Settings{Tol: 1e-8})
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	assert.InDeltaSlice(t, []float64{3, -1}, res.X, 1e-4)
	assert.Zero(t, f.Gradients, "Powell never asks for a gradient")
	assert.Positive(t, f.Values)
}

func TestPowellBeale(t *testing.T) {
	var b functions.Beale
	f := Objective{Func: b.Func}

	res, err := Powell(f, []float64{1, 1}, CoordinateDirections(2), Settings{MaxIter: 200})
	require.NoError(t, err)
	assert.Less(t, res.F, 1e-4)
}

func TestPowellBlockLayout(t *testing.T) {
	layout := []int{2, 3}
	center := []float64{0.7, 0.3, 0.1, 0.6, 0.3}
	x := []float64{0.5, 0.5, 0.2, 0.2, 0.6}

	res, err := Powell(quadratic{center: center}, x, BlockDirections(layout), Settings{Layout: layout, Tol: 1e-10})
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	assert.InDelta(t, 1.0, floats.Sum(res.X[:2]), 1e-10)
	assert.InDelta(t, 1.0, floats.Sum(res.X[2:]), 1e-10)
	assert.InDeltaSlice(t, center, res.X, 1e-4)
}

func TestPowellInteriorStaysPositive(t *testing.T) {
	layout := []int{3}
	// The unconstrained minimum has a negative coordinate.
	center := []float64{0.8, 0.4, -0.2}
	x := []float64{0.3, 0.3, 0.4}

	f := &recorder{f: quadratic{center: center}.Value}
	res, err := Powell(f, x, BlockDirections(layout), Settings{Layout: layout, Interior: true, MaxIter: 20})
	require.NoError(t, err)
	assert.Equal(t, StatusExceeded, res.Status)
	for _, v := range res.X {
		assert.Positive(t, v)
	}
	assert.InDelta(t, 1.0, floats.Sum(res.X), 1e-10)

	require.NotEmpty(t, f.points)
	for i, p := range f.points {
		for j, v := range p {
			assert.Positive(t, v, "evaluation %d coordinate %d", i, j)
		}
	}
}

func TestPowellLegacy(t *testing.T) {
	layout := []int{2, 3}
	// Block sums 1.3 and 1.2: reachable only by leaving the simplices.
	center := []float64{0.9, 0.4, 0.1, 0.6, 0.5}
	x := []float64{0.5, 0.5, 0.2, 0.2, 0.6}

	res, err := Powell(quadratic{center: center}, x, CoordinateDirections(5), Settings{Layout: layout, Legacy: true, Tol: 1e-10, MaxIter: 50})
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	assert.InDeltaSlice(t, center, res.X, 1e-4)
	assert.InDelta(t, 1.3, floats.Sum(res.X[:2]), 1e-4)
	assert.InDelta(t, 1.2, floats.Sum(res.X[2:]), 1e-4)
}

func TestPowellCancel(t *testing.T) {
	sink := &sinkFunc{poll: func() Signal { return Cancel }}

	res, err := Powell(quadratic{center: []float64{3, -1}}, []float64{0, 0}, CoordinateDirections(2), Settings{Progress: sink})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, 1, res.Iterations)
}

func TestPowellRejectsBadDirections(t *testing.T) {
	_, err := Powell(quadratic{center: []float64{1, 1}}, []float64{0, 0}, mat.NewDense(3, 3, nil), Settings{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLayout))
}

func TestBlockDirections(t *testing.T) {
	dirs := BlockDirections([]int{2, 3})
	want := mat.NewDense(5, 5, []float64{
		1, -1, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, -1,
		0, 0, 0, 1, -1,
		0, 0, 0, 0, 1,
	})
	assert.True(t, mat.Equal(want, dirs))
}

func TestActiveRows(t *testing.T) {
	s := Settings{Layout: []int{2, 3}}
	assert.Equal(t, []int{0, 2, 3}, s.activeRows(5))

	s.Legacy = true
	assert.Equal(t, []int{0, 1, 2, 3, 4}, s.activeRows(5))

	assert.Equal(t, []int{0, 1, 2}, Settings{}.activeRows(3))
}
