package funcmin

import "gonum.org/v1/gonum/diff/fd"

// Function is a scalar objective evaluated at a point.
// Implementations must not retain or modify x.
type Function interface {
	Value(x []float64) float64
}

// Differentiable is a Function that can also fill in its gradient.
type Differentiable interface {
	Function
	Gradient(grad, x []float64)
}

// Objective adapts plain functions to Differentiable, in the same shape as
// gonum's optimize.Problem. When Grad is nil the gradient is estimated with
// central finite differences.
type Objective struct {
	Func func(x []float64) float64
	Grad func(grad, x []float64)
}

func (o Objective) Value(x []float64) float64 {
	return o.Func(x)
}

func (o Objective) Gradient(grad, x []float64) {
	if o.Grad != nil {
		o.Grad(grad, x)
		return
	}
	NumericGradient(grad, o.Func, x)
}

var centralDiff = &fd.Settings{Formula: fd.Central}

// NumericGradient estimates the gradient of f at x into grad.
func NumericGradient(grad []float64, f func([]float64) float64, x []float64) {
	fd.Gradient(grad, f, x, centralDiff)
}

// Counter wraps a Function and counts value and gradient evaluations.
// Gradients come from the wrapped function when it is Differentiable and
// from finite differences otherwise; those inner evaluations are counted
// as gradient calls, not value calls.
type Counter struct {
	F         Function
	Values    int
	Gradients int
}

func (c *Counter) Value(x []float64) float64 {
	c.Values++
	return c.F.Value(x)
}

func (c *Counter) Gradient(grad, x []float64) {
	c.Gradients++
	if d, ok := c.F.(Differentiable); ok {
		d.Gradient(grad, x)
		return
	}
	NumericGradient(grad, c.F.Value, x)
}

// Evaluations returns the total number of calls seen.
func (c *Counter) Evaluations() int {
	return c.Values + c.Gradients
}
