// Package funcmin minimizes scalar merit functions over products of
// probability simplices.
//
// The package provides a one-dimensional line search (bracketing followed by
// Brent's method), a block projection that keeps simplex sums fixed, and two
// multivariate minimizers built on top of it: DFP, a quasi-Newton method that
// needs a gradient, and Powell, a derivative-free direction-set method.
//
// A point is a flat []float64 split into contiguous blocks by a layout, one
// block per agent. When Settings.Layout is nil the point is treated as
// unconstrained. In interior mode every coordinate must stay strictly
// positive; the line search shrinks its interval to keep it so and reports a
// domain error if a step still lands outside.
//
// Minimizers never return an error for ordinary termination. Convergence,
// stalling, an exhausted iteration budget and cancellation are reported
// through Result.Status together with the best point found.
package funcmin
