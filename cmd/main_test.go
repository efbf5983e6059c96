package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/cwbudde/equimin/internal/server"
	"github.com/cwbudde/equimin/internal/solve"
	"github.com/cwbudde/equimin/internal/store"
)

// executeCommand runs the root command with fresh flag values.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	runCfg = solve.Config{}
	configPath, seedSearch, tracePath, showBar, jsonOut = "", false, "", false, false
	enumCounts, enumFreeze, enumLimit = "", "", 0
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				sv.Replace(nil)
			} else {
				f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeReport(t *testing.T, out string) solve.Report {
	t.Helper()
	var report solve.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Failed to decode report: %v\n%s", err, out)
	}
	return report
}

func TestRunCommand_Quadratic(t *testing.T) {
	out, _, err := executeCommand(t, "run", "--objective", "quadratic", "--center", "3,-1", "--tol", "1e-8", "--json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	report := decodeReport(t, out)
	if report.Method != "dfp" {
		t.Errorf("Expected method dfp, got %s", report.Method)
	}
	if len(report.X) != 2 || abs(report.X[0]-3) > 1e-4 || abs(report.X[1]+1) > 1e-4 {
		t.Errorf("Expected point near (3, -1), got %v", report.X)
	}
	if report.Initial != 10 {
		t.Errorf("Expected initial value 10, got %f", report.Initial)
	}
}

func TestRunCommand_TextReport(t *testing.T) {
	out, _, err := executeCommand(t, "run", "--objective", "beale", "--method", "powell", "--precision", "3")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, want := range []string{"Objective: beale (powell)", "Status: ", "Point: (", "Evaluations: "} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRunCommand_ConfigOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := "objective: rosenbrock\nmethod: dfp\nmax_iter: 3\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := executeCommand(t, "run", "--config", path, "--json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report := decodeReport(t, out); report.Iterations != 3 || report.Objective != "rosenbrock" {
		t.Errorf("Expected 3 rosenbrock iterations from the file, got %d on %s", report.Iterations, report.Objective)
	}

	out, _, err = executeCommand(t, "run", "--config", path, "--max-iter", "5", "--method", "powell", "--json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	report := decodeReport(t, out)
	if report.Iterations != 5 {
		t.Errorf("Expected the flag to override max_iter, got %d iterations", report.Iterations)
	}
	if report.Method != "powell" {
		t.Errorf("Expected the flag to override the method, got %s", report.Method)
	}
}

func TestRunCommand_Trace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	_, stderr, err := executeCommand(t, "run", "--objective", "quadratic", "--center", "1,2",
		"--trace", path, "--trace-level", "1")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.Contains(stderr, "DFP start: val = ") {
		t.Errorf("Expected a text trace on stderr, got:\n%s", stderr)
	}

	reader, err := store.OpenTrace(path)
	if err != nil {
		t.Fatalf("Failed to open trace: %v", err)
	}
	defer reader.Close()
	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read trace: %v", err)
	}
	if len(entries) < 2 || entries[0].Kind != "start" || entries[len(entries)-1].Kind != "done" {
		t.Errorf("Unexpected trace entries: %+v", entries)
	}
	if len(entries[0].Point) != 2 {
		t.Errorf("Expected points in the trace, got %v", entries[0].Point)
	}

	_, _, err = executeCommand(t, "run", "--objective", "beale", "--trace", path, "--trace-points=false")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	reader, err = store.OpenTrace(path)
	if err != nil {
		t.Fatalf("Failed to open trace: %v", err)
	}
	defer reader.Close()
	entries, err = reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read trace: %v", err)
	}
	for _, e := range entries {
		if e.Point != nil {
			t.Fatalf("Expected no points, got %+v", e)
		}
	}
}

func TestRunCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand(t, "run", "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}

	if !strings.Contains(stdout, "stop once the objective is at or below it") {
		t.Errorf("Expected --tol to be described as a target value:\n%s", stdout)
	}
	if strings.Contains(stdout, "Relative") {
		t.Errorf("--tol is not a relative tolerance:\n%s", stdout)
	}
	if !strings.Contains(stdout, "(0 off, 1 iterations, 2 line searches)") {
		t.Errorf("Unexpected --trace-level levels:\n%s", stdout)
	}
}

func TestRunCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no objective", []string{"run"}},
		{"unknown objective", []string{"run", "--objective", "himmelblau"}},
		{"bad method", []string{"run", "--objective", "beale", "--method", "newton"}},
		{"missing config", []string{"run", "--config", filepath.Join(t.TempDir(), "missing.yaml")}},
		{"wrong start length", []string{"run", "--objective", "beale", "--start", "1,2,3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := executeCommand(t, tt.args...); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestEnumerateCommand(t *testing.T) {
	out, _, err := executeCommand(t, "enumerate", "--counts", "2,3,2", "--freeze", "2:2")
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}
	want := "1 2 1\n1 2 2\n2 2 1\n2 2 2\n"
	if out != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, out)
	}

	out, _, err = executeCommand(t, "enumerate", "--counts", "2,3,2", "--limit", "2")
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}
	if out != "1 1 1\n1 1 2\n" {
		t.Errorf("Expected the first two profiles, got:\n%s", out)
	}

	if _, _, err := executeCommand(t, "enumerate", "--counts", "2,0"); err == nil {
		t.Error("Expected an error for a zero strategy count")
	}
	if _, _, err := executeCommand(t, "enumerate", "--counts", "2,3", "--freeze", "3:1"); err == nil {
		t.Error("Expected an error for an unknown agent")
	}
}

func TestObjectivesCommand(t *testing.T) {
	out, _, err := executeCommand(t, "objectives")
	if err != nil {
		t.Fatalf("objectives failed: %v", err)
	}
	if out != "beale\nliap\nquadratic\nrosenbrock\n" {
		t.Errorf("Unexpected objectives:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "equimin version "+version+"\n" {
		t.Errorf("Unexpected version output: %q", out)
	}
}

func TestStatusAndCancelCommands(t *testing.T) {
	s := server.NewServer("localhost:0", "")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	out, _, err := executeCommand(t, "status", "--server", srv.URL)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "No jobs found") {
		t.Errorf("Expected no jobs, got:\n%s", out)
	}

	if _, _, err := executeCommand(t, "status", "missing", "--server", srv.URL); err == nil ||
		!strings.Contains(err.Error(), "job not found") {
		t.Errorf("Expected job not found, got %v", err)
	}

	if _, _, err := executeCommand(t, "cancel", "missing", "--server", srv.URL); err == nil ||
		!strings.Contains(err.Error(), "job not found") {
		t.Errorf("Expected job not found, got %v", err)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
