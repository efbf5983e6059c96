package funcmin

import "context"

// Signal is the answer of a ProgressSink poll.
type Signal int

const (
	Continue Signal = iota
	Cancel
)

// ProgressSink is polled once per outer iteration of DFP and Powell.
// Poll must not block; returning Cancel ends the run with StatusCancelled.
type ProgressSink interface {
	Poll() Signal
	SetProgress(fraction float64)
}

type nopSink struct{}

func (nopSink) Poll() Signal          { return Continue }
func (nopSink) SetProgress(_ float64) {}

// NopSink never cancels and discards progress.
var NopSink ProgressSink = nopSink{}

type contextSink struct {
	ctx        context.Context
	onProgress func(float64)
}

// ContextSink cancels once ctx is done and forwards progress to onProgress,
// which may be nil.
func ContextSink(ctx context.Context, onProgress func(float64)) ProgressSink {
	return &contextSink{ctx: ctx, onProgress: onProgress}
}

func (s *contextSink) Poll() Signal {
	select {
	case <-s.ctx.Done():
		return Cancel
	default:
		return Continue
	}
}

func (s *contextSink) SetProgress(fraction float64) {
	if s.onProgress != nil {
		s.onProgress(fraction)
	}
}
