package funcmin

import "fmt"

// Kind classifies a hard failure of a minimization call.
type Kind int

const (
	// KindRange reports a malformed search interval (tmin >= tmax).
	KindRange Kind = iota + 1
	// KindDomain reports that an interior-mode step left the feasible region.
	KindDomain
	// KindLayout reports block lengths that do not match the point.
	KindLayout
)

func (k Kind) String() string {
	switch k {
	case KindRange:
		return "range"
	case KindDomain:
		return "domain"
	case KindLayout:
		return "layout"
	default:
		return "unknown"
	}
}

// Error is returned for structural misuse and feasibility violations.
// Use errors.Is(err, ErrRange), errors.Is(err, ErrDomain) or
// errors.Is(err, ErrLayout) to check for a specific kind.
type Error struct {
	Op     string
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	msg := "funcmin: " + e.Kind.String() + " error"
	if e.Op != "" {
		msg = "funcmin: " + e.Op + ": " + e.Kind.String() + " error"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrRange  = &Error{Kind: KindRange}
	ErrDomain = &Error{Kind: KindDomain}
	ErrLayout = &Error{Kind: KindLayout}
)

func rangeError(op string, tmin, tmax float64) error {
	return &Error{Op: op, Kind: KindRange, Detail: fmt.Sprintf("empty interval [%g, %g]", tmin, tmax)}
}

func domainError(op string, index int, value float64) error {
	return &Error{Op: op, Kind: KindDomain, Detail: fmt.Sprintf("coordinate %d = %g is not positive", index, value)}
}
