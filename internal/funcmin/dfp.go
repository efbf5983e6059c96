package funcmin

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DFP minimizes f starting at x with the Davidon-Fletcher-Powell
// quasi-Newton method. x is updated in place and aliased by Result.X.
//
// Each outer iteration projects the search direction onto the block
// hyperplanes (when a layout is set), runs a line search along it, polls
// the progress sink and then updates the inverse Hessian estimate from the
// change in gradient. The run stops when the value reaches s.Tol, when an
// iteration fails to improve, or when s.MaxIter iterations have run.
//
// An error is returned only for an invalid layout or start point, or when
// interior mode leaves the feasible region; the Result then holds the
// state reached so far.
func DFP(f Differentiable, x []float64, s Settings) (*Result, error) {
	s = s.withDefaults()
	if err := s.check("DFP", x); err != nil {
		return nil, err
	}

	n := len(x)
	g := make([]float64, n)
	xi := make([]float64, n)
	dg := make([]float64, n)
	hdg := make([]float64, n)
	u := make([]float64, n)

	gVec := mat.NewVecDense(n, g)
	xiVec := mat.NewVecDense(n, xi)
	dgVec := mat.NewVecDense(n, dg)
	hdgVec := mat.NewVecDense(n, hdg)
	uVec := mat.NewVecDense(n, u)

	hessin := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		hessin.SetSym(i, i, 1)
	}

	fp := f.Value(x)
	f.Gradient(g, x)
	floats.ScaleTo(xi, -1, g)

	res := &Result{X: x, F: fp, Initial: fp}
	s.trace(Event{Kind: EventStart, Level: 1, Method: "DFP", Value: fp, X: x})

	for its := 1; its <= s.MaxIter; its++ {
		res.Iterations = its
		if s.Layout != nil {
			Project(xi, s.Layout)
		}

		fret, err := rayMin(f, x, xi, &s)
		res.F = fret
		if err != nil {
			return res, err
		}

		if s.Progress.Poll() == Cancel {
			return finish(res, StatusCancelled, "DFP", &s), nil
		}
		s.Progress.SetProgress((res.Initial - fret) / (res.Initial - s.Tol))

		switch {
		case fret <= s.Tol:
			return finish(res, StatusConverged, "DFP", &s), nil
		case fret >= fp:
			return finish(res, StatusStalled, "DFP", &s), nil
		case its >= s.MaxIter:
			return finish(res, StatusExceeded, "DFP", &s), nil
		}
		fp = fret

		copy(dg, g)
		f.Gradient(g, x)
		if s.Layout != nil {
			Project(g, s.Layout)
		}
		floats.SubTo(dg, g, dg)
		hdgVec.MulVec(hessin, dgVec)

		fac := floats.Dot(dg, xi)
		fae := floats.Dot(dg, hdg)
		if fac == 0 {
			fac = tiny
		}
		if fae == 0 {
			fae = tiny
		}
		fac = 1 / fac
		fad := 1 / fae

		floats.ScaleTo(u, fac, xi)
		floats.AddScaled(u, -fad, hdg)

		hessin.SymRankOne(hessin, fac, xiVec)
		hessin.SymRankOne(hessin, -fad, hdgVec)
		hessin.SymRankOne(hessin, fae, uVec)

		xiVec.MulVec(hessin, gVec)
		floats.Scale(-1, xi)

		slog.Debug("DFP iteration", "iter", its, "value", fret)
		s.trace(Event{Kind: EventIter, Level: 1, Method: "DFP", Iter: its, Value: fret, X: x})
	}
	return finish(res, StatusExceeded, "DFP", &s), nil
}

func finish(res *Result, status Status, method string, s *Settings) *Result {
	res.Status = status
	slog.Debug("Minimization finished", "method", method, "status", status, "iterations", res.Iterations, "value", res.F)
	s.trace(Event{Kind: EventDone, Level: 1, Method: method, Iter: res.Iterations, Value: res.F, X: res.X, Status: status})
	return res
}
