package funcmin

import "math"

const (
	cgold    = 0.3819660
	brentEps = 1.0e-10
	smallNum = 1.0e-200
)

// brent refines the bracket (ax, bx, cx) to a local minimum along ln and
// returns the minimal value and the step that attains it. Running out of
// iterations is not an error; the best step so far is returned.
func brent(ax, bx, cx float64, ln *line, maxIter int, tol float64) (fmin, xmin float64) {
	var d, e float64
	a := math.Min(ax, cx)
	b := math.Max(ax, cx)
	x, w, v := bx, bx, bx
	fx := ln.at(x)
	fw, fv := fx, fx

	for iter := 1; iter <= maxIter; iter++ {
		xm := 0.5 * (a + b)
		tol1 := tol*math.Abs(x) + brentEps
		tol2 := 2 * tol1

		if math.Abs(x-xm) <= tol2-0.5*(b-a) {
			return fx, x
		}

		golden := true
		if math.Abs(e) > tol1 {
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			etemp := e
			e = d

			accept := math.Abs(p) < math.Abs(0.5*q*etemp) &&
				p > q*(a-x) && p < q*(b-x) &&
				q > smallNum
			if accept {
				d = p / q
				u := x + d
				if u-a < tol2 || b-u < tol2 {
					d = tol1
					if xm <= x {
						d = -d
					}
				}
				golden = false
			}
		}
		if golden {
			if x >= xm {
				e = a - x
			} else {
				e = b - x
			}
			d = cgold * e
		}

		var u float64
		switch {
		case math.Abs(d) >= tol1:
			u = x + d
		case d <= 0:
			u = x - tol1
		default:
			u = x + tol1
		}

		fu := ln.at(u)
		if fu <= fx {
			if u >= x {
				a = x
			} else {
				b = x
			}
			v, w, x = w, x, u
			fv, fw, fx = fw, fx, fu
			continue
		}

		if u < x {
			a = u
		} else {
			b = u
		}
		switch {
		case fu <= fw || w == x:
			v, w = w, u
			fv, fw = fw, fu
		case fu <= fv || v == x || v == w:
			v = u
			fv = fu
		}
	}
	return fx, x
}
