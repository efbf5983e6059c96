package funcmin

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
)

const (
	bigNum         = 1.0e20
	interiorShrink = 0.99
)

// LineMin minimizes f(origin + t*dir) for t in [tmin, tmax] and returns the
// minimal value together with the step t. Neither origin nor dir is
// modified. Only s.LineIter, s.LineTol and s.Tracer are used.
//
// If no bracket can be established the limit step reached by the bracketing
// search is returned as is, even when it does not improve on f(origin).
func LineMin(tmin, tmax float64, f Function, origin, dir []float64, s Settings) (value, step float64, err error) {
	s = s.withDefaults()
	return lineMin(tmin, tmax, f, origin, dir, &s)
}

func lineMin(tmin, tmax float64, f Function, origin, dir []float64, s *Settings) (float64, float64, error) {
	s.trace(Event{Kind: EventSearch, Level: 2, X: origin, Dir: dir})

	if tmin >= tmax {
		return 0, 0, rangeError("LineMin", tmin, tmax)
	}
	if a, b := bracketStart(tmin, tmax); tmin >= a || a >= b || b >= tmax {
		return 0, 0, rangeError("LineMin", tmin, tmax)
	}

	ln := newLine(f, origin, dir)
	a, b, c, ok := bracket(tmin, tmax, ln)
	if !ok {
		value := ln.at(c)
		slog.Debug("Bracketing failed", "step", c, "value", value)
		s.trace(Event{Kind: EventBracketFailed, Level: 2, Step: c, Value: value})
		return value, c, nil
	}

	value, step := brent(a, b, c, ln, s.LineIter, s.LineTol)
	s.trace(Event{Kind: EventStep, Level: 2, Step: step, Value: value})
	return value, step, nil
}

// feasibleInterval returns the largest negative and the smallest positive
// step that would zero a coordinate of x + t*dir.
func feasibleInterval(x, dir []float64) (tmin, tmax float64) {
	tmin, tmax = -bigNum, bigNum
	for j, d := range dir {
		if d < smallNum && d > -smallNum {
			continue
		}
		tt := -x[j] / d
		if tt < 0 && tt > tmin {
			tmin = tt
		}
		if tt > 0 && tt < tmax {
			tmax = tt
		}
	}
	return tmin, tmax
}

// RayMin minimizes f along dir starting at x and moves x to the minimizer.
// On return dir holds the displacement that was applied. When the point is
// simplex-constrained (a layout is set or interior mode is on) the search
// interval stops where a coordinate would reach zero; interior mode keeps
// a margin from that boundary and fails with a domain error if x still
// ends up with a non-positive coordinate.
func RayMin(f Function, x, dir []float64, s Settings) (float64, error) {
	s = s.withDefaults()
	return rayMin(f, x, dir, &s)
}

func rayMin(f Function, x, dir []float64, s *Settings) (float64, error) {
	tmin, tmax := -bigNum, bigNum
	if s.Layout != nil || s.Interior {
		tmin, tmax = feasibleInterval(x, dir)
		if s.Interior {
			tmin *= interiorShrink
			tmax *= interiorShrink
		}
	}

	fret, step, err := lineMin(tmin, tmax, f, x, dir, s)
	if err != nil {
		return fret, err
	}

	floats.Scale(step, dir)
	floats.Add(x, dir)

	if s.Interior {
		for i, v := range x {
			if v <= 0 {
				return fret, domainError("RayMin", i, v)
			}
		}
	}
	return fret, nil
}
