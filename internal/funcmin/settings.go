package funcmin

import "fmt"

// Settings controls a minimization run. Zero-valued budgets and tolerances
// are replaced by the values of DefaultSettings.
type Settings struct {
	// LineIter is the Brent iteration budget of each line search.
	LineIter int
	// LineTol is Brent's relative step tolerance.
	LineTol float64

	// MaxIter is the outer iteration budget.
	MaxIter int
	// Tol is the target value: a run converges once f <= Tol.
	Tol float64

	// Layout splits the point into simplex blocks. Nil means unconstrained.
	Layout []int
	// Interior keeps every coordinate strictly positive.
	Interior bool
	// Legacy selects the unprojected Powell variant that sweeps all n
	// directions and never projects. DFP ignores it.
	Legacy bool

	Progress ProgressSink
	Tracer   Tracer
}

// DefaultSettings returns the budgets used when a field is left zero.
func DefaultSettings() Settings {
	return Settings{
		LineIter: 100,
		LineTol:  2.0e-10,
		MaxIter:  100,
		Tol:      1.0e-10,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.LineIter <= 0 {
		s.LineIter = d.LineIter
	}
	if s.LineTol <= 0 {
		s.LineTol = d.LineTol
	}
	if s.MaxIter <= 0 {
		s.MaxIter = d.MaxIter
	}
	if s.Tol == 0 {
		s.Tol = d.Tol
	}
	if s.Progress == nil {
		s.Progress = NopSink
	}
	return s
}

// check validates the point against the settings before a run starts.
func (s Settings) check(op string, x []float64) error {
	if len(x) == 0 {
		return &Error{Op: op, Kind: KindLayout, Detail: "empty point"}
	}
	if s.Layout != nil {
		if err := checkLayout(op, len(x), s.Layout); err != nil {
			return err
		}
	}
	if s.Interior {
		for i, v := range x {
			if v <= 0 {
				return domainError(op, i, v)
			}
		}
	}
	return nil
}

// projected reports whether search directions are projected onto the
// block hyperplanes.
func (s Settings) projected() bool {
	return s.Layout != nil && !s.Legacy
}

func (s Settings) trace(ev Event) {
	if s.Tracer != nil {
		s.Tracer.Trace(ev)
	}
}

// ValidateLayout checks that every block is non-empty and that the blocks
// cover exactly n coordinates.
func ValidateLayout(n int, layout []int) error {
	return checkLayout("layout", n, layout)
}

func checkLayout(op string, n int, layout []int) error {
	total := 0
	for i, l := range layout {
		if l <= 0 {
			return &Error{Op: op, Kind: KindLayout, Detail: fmt.Sprintf("block %d has length %d", i, l)}
		}
		total += l
	}
	if total != n {
		return &Error{Op: op, Kind: KindLayout, Detail: fmt.Sprintf("blocks cover %d coordinates, point has %d", total, n)}
	}
	return nil
}
