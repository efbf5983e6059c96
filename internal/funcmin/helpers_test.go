package funcmin

// quadratic is (x-c)ᵀA(x-c) with A symmetric positive definite; a nil A
// means the identity.
type quadratic struct {
	center []float64
	a      [][]float64
}

func (q quadratic) Value(x []float64) float64 {
	var sum float64
	for i := range x {
		di := x[i] - q.center[i]
		if q.a == nil {
			sum += di * di
			continue
		}
		for j := range x {
			sum += di * q.a[i][j] * (x[j] - q.center[j])
		}
	}
	return sum
}

func (q quadratic) Gradient(grad, x []float64) {
	for i := range x {
		if q.a == nil {
			grad[i] = 2 * (x[i] - q.center[i])
			continue
		}
		grad[i] = 0
		for j := range x {
			grad[i] += 2 * q.a[i][j] * (x[j] - q.center[j])
		}
	}
}

// recorder remembers every point a function was evaluated at.
type recorder struct {
	f      func(x []float64) float64
	points [][]float64
}

func (r *recorder) Value(x []float64) float64 {
	r.points = append(r.points, append([]float64(nil), x...))
	return r.f(x)
}

type sinkFunc struct {
	poll     func() Signal
	progress []float64
}

func (s *sinkFunc) Poll() Signal {
	if s.poll == nil {
		return Continue
	}
	return s.poll()
}

func (s *sinkFunc) SetProgress(fraction float64) {
	s.progress = append(s.progress, fraction)
}
