package funcmin

import "fmt"

// Status is the outcome of a minimization run.
type Status int

const (
	// StatusConverged means the value reached Settings.Tol.
	StatusConverged Status = iota + 1
	// StatusStalled means an outer iteration did not improve the value.
	StatusStalled
	// StatusExceeded means the outer iteration budget ran out.
	StatusExceeded
	// StatusCancelled means the progress sink asked to stop.
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusConverged: "converged",
	StatusStalled:   "stalled",
	StatusExceeded:  "exceeded",
	StatusCancelled: "cancelled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for st, name := range statusNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Converged reports whether the run reached its target value.
func (s Status) Converged() bool {
	return s == StatusConverged
}

// Result carries the final state of a run. X aliases the caller's point,
// which the minimizers update in place.
type Result struct {
	X          []float64 `json:"x"`
	F          float64   `json:"f"`
	Initial    float64   `json:"initial"`
	Iterations int       `json:"iterations"`
	Status     Status    `json:"status"`
}
