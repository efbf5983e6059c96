package opt

// Optimizer is a derivative-free global search used to pick a start point
// for local refinement.
type Optimizer interface {
	// Run minimizes eval over the box [lower, upper] of dimension dim and
	// returns the best point and its value.
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error)
}
