package opt

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// floor keeps every normalized weight strictly positive.
const floor = 1e-9

// ToSimplex maps a point of the box search space onto the product of
// simplices described by layout: each block is made non-negative and
// scaled to sum to one. The result is a new slice.
func ToSimplex(x []float64, layout []int) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v) + floor
	}
	index := 0
	for _, n := range layout {
		block := out[index : index+n]
		floats.Scale(1/floats.Sum(block), block)
		index += n
	}
	return out
}

// OnSimplex wraps eval so that a box optimizer searches the simplex
// product instead.
func OnSimplex(eval func([]float64) float64, layout []int) func([]float64) float64 {
	return func(x []float64) float64 {
		return eval(ToSimplex(x, layout))
	}
}
