package funcmin

import (
	"fmt"
	"io"
	"strings"
)

// EventKind identifies a trace event.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventIter
	EventSearch
	EventStep
	EventBracketFailed
	EventDone
)

// Event is emitted by the minimizers and the line search. Level 1 events
// describe outer iterations, level 2 events describe individual line
// searches. X and Dir alias live solver state and must be copied if kept.
type Event struct {
	Kind   EventKind
	Level  int
	Method string
	Iter   int
	Value  float64
	Step   float64
	X      []float64
	Dir    []float64
	Status Status
}

// Tracer receives trace events.
type Tracer interface {
	Trace(ev Event)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(Event)

func (f TracerFunc) Trace(ev Event) { f(ev) }

// NumberFormat holds explicit width and precision for printed numbers.
type NumberFormat struct {
	Width     int
	Precision int
}

// DefaultNumberFormat prints six digits after the point with no padding.
var DefaultNumberFormat = NumberFormat{Width: 0, Precision: 6}

// Fixed formats v in fixed-point notation.
func (nf NumberFormat) Fixed(v float64) string {
	return fmt.Sprintf("%*.*f", nf.Width, nf.Precision, v)
}

// Sci formats v in exponent notation.
func (nf NumberFormat) Sci(v float64) string {
	return fmt.Sprintf("%*.*e", nf.Width, nf.Precision, v)
}

// Vector formats x as "(x1, x2, ...)" in fixed-point notation.
func (nf NumberFormat) Vector(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = nf.Fixed(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// TextTracer writes human-readable trace lines for events up to Level.
type TextTracer struct {
	W      io.Writer
	Format NumberFormat
	Level  int
}

func (t *TextTracer) Trace(ev Event) {
	if ev.Level > t.Level {
		return
	}
	nf := t.Format
	switch ev.Kind {
	case EventStart:
		fmt.Fprintf(t.W, "%s start: val = %s p = %s\n", ev.Method, nf.Sci(ev.Value), nf.Vector(ev.X))
	case EventIter:
		fmt.Fprintf(t.W, "%s iter: %d val = %s p = %s\n", ev.Method, ev.Iter, nf.Sci(ev.Value), nf.Vector(ev.X))
	case EventSearch:
		fmt.Fprintf(t.W, "  searching from %s direction %s\n", nf.Vector(ev.X), nf.Vector(ev.Dir))
	case EventStep:
		fmt.Fprintf(t.W, "  step size = %s value = %s\n", nf.Sci(ev.Step), nf.Sci(ev.Value))
	case EventBracketFailed:
		fmt.Fprintf(t.W, "  bracketing failed, step size = %s\n", nf.Sci(ev.Step))
	case EventDone:
		fmt.Fprintf(t.W, "%s %s after %d iterations val = %s\n", ev.Method, ev.Status, ev.Iter, nf.Sci(ev.Value))
	}
}
