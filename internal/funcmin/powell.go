package funcmin

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CoordinateDirections returns the n×n identity direction set.
func CoordinateDirections(n int) *mat.Dense {
	dirs := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		dirs.Set(i, i, 1)
	}
	return dirs
}

// BlockDirections returns a direction set for a simplex layout. Row j of a
// block moves weight from the block's last coordinate to coordinate j, so
// every swept direction keeps the block sums fixed. The last row of each
// block is a plain coordinate direction and is not swept by Powell.
func BlockDirections(layout []int) *mat.Dense {
	n := 0
	for _, l := range layout {
		n += l
	}
	dirs := CoordinateDirections(n)
	index := 0
	for _, l := range layout {
		last := index + l - 1
		for j := index; j < last; j++ {
			dirs.Set(j, last, -1)
		}
		index += l
	}
	return dirs
}

// activeRows lists the rows of the direction set that Powell sweeps. With
// block projection each block gives up its last row to the sum constraint.
func (s Settings) activeRows(n int) []int {
	rows := make([]int, 0, n)
	if !s.projected() {
		for i := 0; i < n; i++ {
			rows = append(rows, i)
		}
		return rows
	}
	index := 0
	for _, l := range s.Layout {
		for j := 0; j < l-1; j++ {
			rows = append(rows, index+j)
		}
		index += l
	}
	return rows
}

// Powell minimizes f starting at x with Powell's direction-set method,
// which needs no gradient. dirs holds one search direction per row and is
// updated in place as new conjugate directions are found. x is updated in
// place and aliased by Result.X.
//
// With a layout and without s.Legacy, only the first l-1 rows of a block of
// length l are swept and every new direction is projected onto the block
// hyperplanes. The run stops when the value reaches s.Tol or after
// s.MaxIter outer iterations.
func Powell(f Function, x []float64, dirs *mat.Dense, s Settings) (*Result, error) {
	s = s.withDefaults()
	if err := s.check("Powell", x); err != nil {
		return nil, err
	}
	n := len(x)
	if r, c := dirs.Dims(); r != n || c != n {
		return nil, &Error{Op: "Powell", Kind: KindLayout, Detail: fmt.Sprintf("direction set is %dx%d, want %dx%d", r, c, n, n)}
	}

	rows := s.activeRows(n)
	pt := make([]float64, n)
	ptt := make([]float64, n)
	xit := make([]float64, n)

	fret := f.Value(x)
	res := &Result{X: x, F: fret, Initial: fret}
	copy(pt, x)
	s.trace(Event{Kind: EventStart, Level: 1, Method: "Pow", Value: fret, X: x})

	for iter := 1; ; iter++ {
		res.Iterations = iter
		fp := fret
		ibig := -1
		del := 0.0

		for _, i := range rows {
			mat.Row(xit, i, dirs)
			fptt := fret
			var err error
			fret, err = rayMin(f, x, xit, &s)
			res.F = fret
			if err != nil {
				return res, err
			}
			if fptt-fret > del {
				del = fptt - fret
				ibig = i
			}
		}

		slog.Debug("Powell iteration", "iter", iter, "value", fret)
		s.trace(Event{Kind: EventIter, Level: 1, Method: "Pow", Iter: iter, Value: fret, X: x})

		if s.Progress.Poll() == Cancel {
			return finish(res, StatusCancelled, "Pow", &s), nil
		}
		s.Progress.SetProgress((res.Initial - fret) / (res.Initial - s.Tol))

		if fret <= s.Tol {
			return finish(res, StatusConverged, "Pow", &s), nil
		}
		if iter >= s.MaxIter {
			return finish(res, StatusExceeded, "Pow", &s), nil
		}

		floats.ScaleTo(ptt, 2, x)
		floats.Sub(ptt, pt)
		floats.SubTo(xit, x, pt)
		copy(pt, x)

		if s.Interior && !positive(ptt) {
			continue
		}
		fptt := f.Value(ptt)
		if fptt >= fp || ibig < 0 {
			continue
		}
		t := 2*(fp-2*fret+fptt)*sq(fp-fret-del) - del*sq(fp-fptt)
		if t >= 0 {
			continue
		}

		if s.projected() {
			Project(xit, s.Layout)
		}
		var err error
		fret, err = rayMin(f, x, xit, &s)
		res.F = fret
		if err != nil {
			return res, err
		}
		dirs.SetRow(ibig, xit)
		if s.Interior {
			for i, v := range x {
				if v <= 0 {
					return res, domainError("Powell", i, v)
				}
			}
		}
	}
}

func positive(x []float64) bool {
	for _, v := range x {
		if v <= 0 {
			return false
		}
	}
	return true
}

func sq(v float64) float64 {
	return v * v
}
