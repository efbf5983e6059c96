package funcmin

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	gold = 1.618034
	tiny = 1.0e-20
)

// line evaluates a function along origin + t*dir, reusing one scratch point.
type line struct {
	f       Function
	origin  []float64
	dir     []float64
	scratch []float64
}

func newLine(f Function, origin, dir []float64) *line {
	return &line{f: f, origin: origin, dir: dir, scratch: make([]float64, len(origin))}
}

func (l *line) at(t float64) float64 {
	floats.AddScaledTo(l.scratch, l.origin, t, l.dir)
	return l.f.Value(l.scratch)
}

// bracketStart places the first two trial steps inside [tmin, tmax].
func bracketStart(tmin, tmax float64) (a, b float64) {
	if tmin < 0 {
		a = 0
	} else {
		a = (3*tmin + tmax) / 4
	}
	if tmax-a > 4 {
		b = a + 1
	} else {
		b = a + (tmax-a)/4
	}
	return a, b
}

// bracket searches for steps a, b, c with f(b) below both f(a) and f(c),
// walking downhill from a toward c. It returns ok == false when the search
// runs into the interval limit without seeing the function rise again; c is
// then the limit step the caller should fall back to.
func bracket(tmin, tmax float64, ln *line) (a, b, c float64, ok bool) {
	tlim := tmax
	alpha, beta := 0.5, 0.5
	direc := 1.0

	a, b = bracketStart(tmin, tmax)
	fa := ln.at(a)
	fb := ln.at(b)
	if fb > fa {
		a, b = b, a
		fa, fb = fb, fa
		direc = -1
		tlim = tmin
	}

	c = b + gold*(b-a)
	if direc*(c-tlim) >= 0 {
		c = alpha*b + beta*tlim
	}
	fc := ln.at(c)

	for fb > fc {
		r := (b - a) * (fb - fc)
		q := (b - c) * (fb - fa)
		den := q - r
		if den >= 0 {
			den = math.Max(den, tiny)
		} else {
			den = math.Min(den, -tiny)
		}
		u := b - ((b-c)*q-(b-a)*r)/(2*den)

		ulim := alpha*c + beta*tlim
		if math.Abs(ulim-tlim) < tiny {
			return b, c, tlim, false
		}

		var fu float64
		switch {
		case (b-u)*(u-c) > 0:
			// Parabolic step between b and c.
			fu = ln.at(u)
			if fu < fc {
				return b, u, c, true
			}
			if fu > fb {
				return a, b, u, true
			}
			u = c + gold*(c-b)
		case (c-u)*(u-ulim) > 0:
			// Parabolic step between c and the limit.
			fu = ln.at(u)
			if fu < fc {
				b, c = c, u
				fb, fc = fc, fu
				u = c + gold*(c-b)
			}
		case (u-ulim)*(ulim-c) >= 0:
			u = ulim
		default:
			u = c + gold*(c-b)
		}

		if direc*(u-ulim) > 0 {
			u = ulim
		}
		if u < math.Min(tmin, tmax) || u > math.Max(tmin, tmax) {
			return b, c, ulim, false
		}
		if u == ulim {
			alpha *= alpha
			beta = 1 - alpha
		}

		fu = ln.at(u)
		a, b, c = b, c, u
		fa, fb, fc = fb, fc, fu
	}
	return a, b, c, true
}
