package merit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/equimin/internal/funcmin"
)

// penalty weighs the distance of a profile from the product of simplices.
const penalty = 100

// Bimatrix is a two-player game in strategic form. A point is a mixed
// profile: the row player's probabilities followed by the column player's.
//
// Its Value is the Lyapunov merit function: the squared gains each player
// could make by deviating to a pure strategy, plus a penalty for leaving
// the simplices. It is zero exactly at the Nash equilibria. A Bimatrix is
// safe for concurrent use.
type Bimatrix struct {
	A, B *mat.Dense
	m, n int
}

// NewBimatrix builds a game from the payoff tables of the row player (a)
// and the column player (b). Both must be m×n with m, n >= 1.
func NewBimatrix(a, b [][]float64) (*Bimatrix, error) {
	if len(a) == 0 || len(a[0]) == 0 {
		return nil, errors.New("payoff matrix a is empty")
	}
	m, n := len(a), len(a[0])
	if len(b) != m {
		return nil, fmt.Errorf("payoff matrix b has %d rows, want %d", len(b), m)
	}
	A := mat.NewDense(m, n, nil)
	B := mat.NewDense(m, n, nil)
	for i := 0; i < m; i++ {
		if len(a[i]) != n || len(b[i]) != n {
			return nil, fmt.Errorf("payoff row %d does not have %d columns", i, n)
		}
		A.SetRow(i, a[i])
		B.SetRow(i, b[i])
	}
	return &Bimatrix{A: A, B: B, m: m, n: n}, nil
}

// Layout returns the simplex blocks of a profile.
func (g *Bimatrix) Layout() []int {
	return []int{g.m, g.n}
}

// Centroid returns the profile in which both players mix uniformly.
func (g *Bimatrix) Centroid() []float64 {
	x := make([]float64, g.m+g.n)
	floats.AddConst(1/float64(g.m), x[:g.m])
	floats.AddConst(1/float64(g.n), x[g.m:])
	return x
}

// Payoffs returns the expected payoff of each player under profile x.
func (g *Bimatrix) Payoffs(x []float64) (row, col float64) {
	p, q := x[:g.m], x[g.m:]
	row = mat.Inner(mat.NewVecDense(g.m, p), g.A, mat.NewVecDense(g.n, q))
	col = mat.Inner(mat.NewVecDense(g.m, p), g.B, mat.NewVecDense(g.n, q))
	return row, col
}

func (g *Bimatrix) Value(x []float64) float64 {
	p, q := x[:g.m], x[g.m:]
	pv := mat.NewVecDense(g.m, p)
	qv := mat.NewVecDense(g.n, q)

	// Pure strategy payoffs against the opponent's mix.
	var u, v mat.VecDense
	u.MulVec(g.A, qv)
	v.MulVec(g.B.T(), pv)
	rowGains, colGains := u.RawVector().Data, v.RawVector().Data

	rowAvg := floats.Dot(p, rowGains)
	colAvg := floats.Dot(q, colGains)

	var sum float64
	for _, gain := range rowGains {
		if d := gain - rowAvg; d > 0 {
			sum += d * d
		}
	}
	for _, gain := range colGains {
		if d := gain - colAvg; d > 0 {
			sum += d * d
		}
	}

	var off float64
	for _, w := range x {
		if w < 0 {
			off += w * w
		}
	}
	off += sq(floats.Sum(p)-1) + sq(floats.Sum(q)-1)
	return sum + penalty*off
}

// Gradient estimates the gradient by central differences.
func (g *Bimatrix) Gradient(grad, x []float64) {
	funcmin.NumericGradient(grad, g.Value, x)
}

func sq(v float64) float64 { return v * v }
