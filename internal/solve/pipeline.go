// Package solve turns a Config into a minimization run: it builds the
// objective, optionally seeds the start point with a global search, runs
// DFP or Powell and restarts until the value stops improving.
package solve

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/equimin/internal/funcmin"
	"github.com/cwbudde/equimin/internal/merit"
	"github.com/cwbudde/equimin/internal/opt"
)

// Report is the outcome of Run.
type Report struct {
	Objective string    `json:"objective"`
	Method    string    `json:"method"`
	Layout    []int     `json:"layout,omitempty"`
	Start     []float64 `json:"start"`
	// Seeded is set when the global search found a better start.
	Seeded    bool    `json:"seeded"`
	SeedValue float64 `json:"seedValue,omitempty"`

	X          []float64      `json:"x"`
	F          float64        `json:"f"`
	Initial    float64        `json:"initial"`
	Status     funcmin.Status `json:"status"`
	Iterations int            `json:"iterations"`
	Runs       int            `json:"runs"`

	Evaluations int           `json:"evaluations"`
	Gradients   int           `json:"gradients"`
	Duration    time.Duration `json:"duration"`
}

// Run executes cfg. The sink is polled once per outer iteration and may be
// nil; tracer may be nil. Hard failures of the minimizer are returned
// together with the report built so far.
func Run(cfg Config, sink funcmin.ProgressSink, tracer funcmin.Tracer) (*Report, error) {
	began := time.Now()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prob, err := merit.Lookup(cfg.Objective, cfg.Params)
	if err != nil {
		return nil, err
	}

	start := prob.Start
	if len(cfg.Start) > 0 {
		if len(cfg.Start) != len(prob.Start) {
			return nil, &ValidationError{Field: "Start", Reason: fmt.Sprintf("has %d coordinates, objective needs %d", len(cfg.Start), len(prob.Start))}
		}
		start = cfg.Start
	}
	start = append([]float64(nil), start...)

	counter := &funcmin.Counter{F: prob.Func}
	report := &Report{
		Objective: prob.Name,
		Method:    cfg.Method,
		Layout:    prob.Layout,
		Initial:   counter.Value(start),
	}

	if cfg.Seed.Enabled {
		if err := seed(cfg.Seed, prob, counter, start, report); err != nil {
			return nil, err
		}
	}
	report.Start = append([]float64(nil), start...)

	settings := funcmin.Settings{
		LineIter: cfg.LineIter,
		LineTol:  cfg.LineTol,
		MaxIter:  cfg.MaxIter,
		Tol:      cfg.Tol,
		Layout:   prob.Layout,
		Interior: cfg.Interior,
		Legacy:   cfg.Legacy,
		Progress: sink,
		Tracer:   tracer,
	}

	slog.Info("Starting minimization", "objective", prob.Name, "method", cfg.Method, "dim", len(start), "restarts", cfg.Restarts)

	tracker := NewConvergenceTracker(cfg.Convergence)
	x := start
	for run := 0; run <= cfg.Restarts; run++ {
		res, err := minimize(cfg.Method, counter, x, settings)
		if res != nil {
			report.Runs++
			report.Iterations += res.Iterations
			if report.X == nil || res.F < report.F {
				report.X = append([]float64(nil), res.X...)
				report.F = res.F
			}
			report.Status = res.Status
		}
		if err != nil {
			report.Evaluations, report.Gradients = counter.Values, counter.Gradients
			report.Duration = time.Since(began)
			return report, err
		}

		slog.Debug("Run finished", "run", run, "status", res.Status, "value", res.F, "iterations", res.Iterations)
		if res.Status == funcmin.StatusConverged || res.Status == funcmin.StatusCancelled {
			break
		}
		if tracker.Update(res.F) {
			break
		}
		x = append([]float64(nil), res.X...)
	}

	report.Evaluations, report.Gradients = counter.Values, counter.Gradients
	report.Duration = time.Since(began)
	slog.Info("Minimization complete", "status", report.Status, "value", report.F, "iterations", report.Iterations, "evaluations", report.Evaluations)
	return report, nil
}

func minimize(method string, f *funcmin.Counter, x []float64, s funcmin.Settings) (*funcmin.Result, error) {
	if method == MethodPowell {
		dirs := funcmin.CoordinateDirections(len(x))
		if s.Layout != nil && !s.Legacy {
			dirs = funcmin.BlockDirections(s.Layout)
		}
		return funcmin.Powell(f, x, dirs, s)
	}
	return funcmin.DFP(f, x, s)
}

// seed runs the global search and replaces start when it found a lower
// value. Simplex problems are searched in [0, 1]^n and mapped onto the
// blocks.
func seed(sc SeedConfig, prob *merit.Problem, f *funcmin.Counter, start []float64, report *Report) error {
	n := len(start)
	eval := f.Value
	lo, hi := prob.Lower, prob.Upper
	if prob.Layout != nil {
		eval = opt.OnSimplex(f.Value, prob.Layout)
		lo, hi = 0, 1
	}

	best, value, err := opt.NewMayfly(sc.Iterations, sc.Population, sc.Seed).Run(eval, []float64{lo}, []float64{hi}, n)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	if prob.Layout != nil {
		best = opt.ToSimplex(best, prob.Layout)
	}
	report.SeedValue = value
	slog.Debug("Seed search finished", "value", value, "initial", report.Initial)
	if value < report.Initial {
		copy(start, best)
		report.Seeded = true
	}
	return nil
}
