// Package merit holds the objectives that the solver can be pointed at by
// name: simple test functions and the Lyapunov merit function of a
// two-player game.
package merit

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/optimize/functions"

	"github.com/cwbudde/equimin/internal/funcmin"
)

// ErrUnknown is returned by Lookup for an unregistered objective name.
var ErrUnknown = errors.New("unknown objective")

// Params configures the objectives built by Lookup. Only the fields that
// the chosen objective needs are read.
type Params struct {
	// Center is the minimizer of the quadratic objective.
	Center []float64 `json:"center,omitempty" yaml:"center,omitempty"`
	// Dim is the dimension of the extended Rosenbrock function.
	Dim int `json:"dim,omitempty" yaml:"dim,omitempty"`
	// A and B are the row and column player payoffs of a bimatrix game.
	A [][]float64 `json:"a,omitempty" yaml:"a,omitempty"`
	B [][]float64 `json:"b,omitempty" yaml:"b,omitempty"`
}

// Problem bundles an objective with the point layout it expects and a
// default start point.
type Problem struct {
	Name   string
	Func   funcmin.Differentiable
	Start  []float64
	Layout []int
	// Lower and Upper bound the region sampled by global seeding.
	Lower, Upper float64
}

type builder func(Params) (*Problem, error)

var registry = map[string]builder{
	"quadratic":  buildQuadratic,
	"beale":      buildBeale,
	"rosenbrock": buildRosenbrock,
	"liap":       buildLiap,
}

// Names lists the registered objectives.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup builds the named objective.
func Lookup(name string, p Params) (*Problem, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	prob, err := build(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	prob.Name = name
	return prob, nil
}

func buildQuadratic(p Params) (*Problem, error) {
	if len(p.Center) == 0 {
		return nil, errors.New("center is required")
	}
	q := Quadratic{Center: append([]float64(nil), p.Center...)}
	return &Problem{Func: q, Start: make([]float64, len(p.Center)), Lower: -10, Upper: 10}, nil
}

func buildBeale(Params) (*Problem, error) {
	var b functions.Beale
	return &Problem{
		Func:  funcmin.Objective{Func: b.Func, Grad: b.Grad},
		Start: []float64{1, 1},
		Lower: -4.5,
		Upper: 4.5,
	}, nil
}

func buildRosenbrock(p Params) (*Problem, error) {
	dim := p.Dim
	if dim == 0 {
		dim = 2
	}
	if dim < 2 {
		return nil, fmt.Errorf("dimension %d is below 2", dim)
	}
	var r functions.ExtendedRosenbrock
	start := make([]float64, dim)
	for i := range start {
		if i%2 == 0 {
			start[i] = -1.2
		} else {
			start[i] = 1
		}
	}
	return &Problem{Func: funcmin.Objective{Func: r.Func, Grad: r.Grad}, Start: start, Lower: -2, Upper: 2}, nil
}

func buildLiap(p Params) (*Problem, error) {
	g, err := NewBimatrix(p.A, p.B)
	if err != nil {
		return nil, err
	}
	return &Problem{Func: g, Start: g.Centroid(), Layout: g.Layout(), Lower: 0, Upper: 1}, nil
}

// Quadratic is the squared distance to Center.
type Quadratic struct {
	Center []float64
}

func (q Quadratic) Value(x []float64) float64 {
	var sum float64
	for i, c := range q.Center {
		d := x[i] - c
		sum += d * d
	}
	return sum
}

func (q Quadratic) Gradient(grad, x []float64) {
	for i, c := range q.Center {
		grad[i] = 2 * (x[i] - c)
	}
}
