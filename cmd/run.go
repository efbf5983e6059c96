package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cwbudde/equimin/internal/funcmin"
	"github.com/cwbudde/equimin/internal/solve"
	"github.com/cwbudde/equimin/internal/store"
)

var (
	configPath string
	runCfg     solve.Config
	seedSearch bool
	traceLevel int
	traceWidth int
	tracePrec  int
	tracePath  string
	tracePts   bool
	showBar    bool
	jsonOut    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Minimize an objective",
	Long: `Minimizes a registered objective and prints the best point found.
Settings are read from --config when given; flags that are set explicitly
override the file.`,
	RunE: runMinimize,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file")
	f.StringVar(&runCfg.Objective, "objective", "", "Objective name (see 'equimin objectives')")
	f.StringVar(&runCfg.Method, "method", solve.MethodDFP, "Minimizer: dfp or powell")
	f.Float64SliceVar(&runCfg.Params.Center, "center", nil, "Center of the quadratic objective")
	f.IntVar(&runCfg.Params.Dim, "dim", 0, "Dimension of the rosenbrock objective")
	f.Float64SliceVar(&runCfg.Start, "start", nil, "Start point (defaults to the objective's)")
	f.IntVar(&runCfg.MaxIter, "max-iter", 0, "Maximum outer iterations (0 for the default)")
	f.Float64Var(&runCfg.Tol, "tol", 0, "Target value: stop once the objective is at or below it (0 for the default)")
	f.IntVar(&runCfg.LineIter, "line-iter", 0, "Maximum Brent iterations per line search")
	f.Float64Var(&runCfg.LineTol, "line-tol", 0, "Line search tolerance")
	f.BoolVar(&runCfg.Interior, "interior", false, "Keep every coordinate strictly positive")
	f.BoolVar(&runCfg.Legacy, "legacy", false, "Use the unprojected Powell variant")
	f.IntVar(&runCfg.Restarts, "restarts", 0, "Restart the minimizer up to this many times")
	f.BoolVar(&seedSearch, "seed-search", false, "Seed the start point with a mayfly global search")
	f.Int64Var(&runCfg.Seed.Seed, "seed", 42, "Random seed of the global search")
	f.IntVar(&traceLevel, "trace-level", 0, "Trace verbosity on stderr (0 off, 1 iterations, 2 line searches)")
	f.IntVar(&traceWidth, "width", funcmin.DefaultNumberFormat.Width, "Field width of traced numbers")
	f.IntVar(&tracePrec, "precision", funcmin.DefaultNumberFormat.Precision, "Precision of traced numbers")
	f.StringVar(&tracePath, "trace", "", "Write a JSONL trace to this file")
	f.BoolVar(&tracePts, "trace-points", true, "Include the current point in JSONL trace entries")
	f.BoolVar(&showBar, "progress", false, "Show a progress bar on stderr")
	f.BoolVar(&jsonOut, "json", false, "Print the report as JSON")

	rootCmd.AddCommand(runCmd)
}

// loadRunConfig merges the config file with the explicitly set flags.
func loadRunConfig(cmd *cobra.Command) (solve.Config, error) {
	cfg := runCfg
	if configPath != "" {
		fileCfg, err := solve.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *fileCfg
		flags := cmd.Flags()
		override := func(name string, apply func()) {
			if flags.Changed(name) {
				apply()
			}
		}
		override("objective", func() { cfg.Objective = runCfg.Objective })
		override("method", func() { cfg.Method = runCfg.Method })
		override("center", func() { cfg.Params.Center = runCfg.Params.Center })
		override("dim", func() { cfg.Params.Dim = runCfg.Params.Dim })
		override("start", func() { cfg.Start = runCfg.Start })
		override("max-iter", func() { cfg.MaxIter = runCfg.MaxIter })
		override("tol", func() { cfg.Tol = runCfg.Tol })
		override("line-iter", func() { cfg.LineIter = runCfg.LineIter })
		override("line-tol", func() { cfg.LineTol = runCfg.LineTol })
		override("interior", func() { cfg.Interior = runCfg.Interior })
		override("legacy", func() { cfg.Legacy = runCfg.Legacy })
		override("restarts", func() { cfg.Restarts = runCfg.Restarts })
		override("seed", func() { cfg.Seed.Seed = runCfg.Seed.Seed })
	}
	if seedSearch {
		cfg.Seed.Enabled = true
	}
	return cfg, nil
}

func runMinimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	var tracers []funcmin.Tracer
	if traceLevel > 0 {
		tracers = append(tracers, &funcmin.TextTracer{
			W:      cmd.ErrOrStderr(),
			Format: funcmin.NumberFormat{Width: traceWidth, Precision: tracePrec},
			Level:  traceLevel,
		})
	}
	if tracePath != "" {
		writer, err := store.CreateTrace(tracePath, false)
		if err != nil {
			return err
		}
		defer func() {
			if err := writer.Close(); err != nil {
				slog.Warn("Failed to close trace", "path", tracePath, "error", err)
			}
		}()
		if !tracePts {
			writer.OmitPoints()
		}
		tracers = append(tracers, writer.Tracer())
	}

	var onProgress func(float64)
	if showBar {
		bar := newProgressBar(cmd.ErrOrStderr())
		defer bar.Finish()
		onProgress = func(fraction float64) {
			bar.Set(int(1000 * clamp01(fraction)))
		}
	}
	sink := funcmin.ContextSink(commandContext(cmd), onProgress)

	report, err := solve.Run(cfg, sink, traceFanout(tracers))
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(1000,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Minimizing"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// traceFanout returns nil when there is nothing to trace.
func traceFanout(tracers []funcmin.Tracer) funcmin.Tracer {
	switch len(tracers) {
	case 0:
		return nil
	case 1:
		return tracers[0]
	}
	return funcmin.TracerFunc(func(ev funcmin.Event) {
		for _, t := range tracers {
			t.Trace(ev)
		}
	})
}

func printReport(w io.Writer, r *solve.Report) {
	nf := funcmin.NumberFormat{Precision: tracePrec}
	fmt.Fprintf(w, "Objective: %s (%s)\n", r.Objective, r.Method)
	if len(r.Layout) > 0 {
		fmt.Fprintf(w, "Layout: %v\n", r.Layout)
	}
	if r.Seeded {
		fmt.Fprintf(w, "Seeded start: %s (value %s)\n", nf.Vector(r.Start), nf.Sci(r.SeedValue))
	}
	fmt.Fprintf(w, "Status: %s after %d iterations in %d run(s)\n", r.Status, r.Iterations, r.Runs)
	fmt.Fprintf(w, "Value: %s -> %s\n", nf.Sci(r.Initial), nf.Sci(r.F))
	fmt.Fprintf(w, "Point: %s\n", nf.Vector(r.X))
	fmt.Fprintf(w, "Evaluations: %s values, %s gradients in %s\n",
		humanize.Comma(int64(r.Evaluations)), humanize.Comma(int64(r.Gradients)), r.Duration.Round(time.Microsecond))
}
