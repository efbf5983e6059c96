package solve

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/equimin/internal/merit"
)

// Methods understood by Run.
const (
	MethodDFP    = "dfp"
	MethodPowell = "powell"
)

// SeedConfig controls the global Mayfly search that picks the start point.
type SeedConfig struct {
	Enabled    bool  `json:"enabled" yaml:"enabled"`
	Iterations int   `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Population int   `json:"population,omitempty" yaml:"population,omitempty"`
	Seed       int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Config describes one solve: which objective, which method and the
// budgets of the minimizer. Zero budgets fall back to the minimizer
// defaults.
type Config struct {
	Objective string       `json:"objective" yaml:"objective"`
	Params    merit.Params `json:"params,omitempty" yaml:"params,omitempty"`
	Method    string       `json:"method,omitempty" yaml:"method,omitempty"`
	// Start overrides the objective's default start point.
	Start []float64 `json:"start,omitempty" yaml:"start,omitempty"`

	MaxIter  int     `json:"maxIter,omitempty" yaml:"max_iter,omitempty"`
	Tol      float64 `json:"tol,omitempty" yaml:"tol,omitempty"`
	LineIter int     `json:"lineIter,omitempty" yaml:"line_iter,omitempty"`
	LineTol  float64 `json:"lineTol,omitempty" yaml:"line_tol,omitempty"`

	Interior bool `json:"interior,omitempty" yaml:"interior,omitempty"`
	Legacy   bool `json:"legacy,omitempty" yaml:"legacy,omitempty"`

	Seed SeedConfig `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Restarts reruns the minimizer from the point the previous run ended
	// at, with a fresh Hessian estimate or direction set.
	Restarts    int               `json:"restarts,omitempty" yaml:"restarts,omitempty"`
	Convergence ConvergenceConfig `json:"convergence,omitempty" yaml:"convergence,omitempty"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills in the method and the seeding budgets.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = MethodDFP
	}
	if c.Seed.Enabled {
		if c.Seed.Iterations == 0 {
			c.Seed.Iterations = 50
		}
		if c.Seed.Population == 0 {
			c.Seed.Population = 20
		}
	}
	if c.Restarts > 0 && c.Convergence == (ConvergenceConfig{}) {
		c.Convergence = DefaultConvergenceConfig()
	}
}

// Validate checks the config for obvious mistakes.
func (c *Config) Validate() error {
	if c.Objective == "" {
		return &ValidationError{Field: "Objective", Reason: "cannot be empty"}
	}
	switch c.Method {
	case MethodDFP, MethodPowell:
	default:
		return &ValidationError{Field: "Method", Reason: fmt.Sprintf("must be %s or %s, got %q", MethodDFP, MethodPowell, c.Method)}
	}
	if c.MaxIter < 0 {
		return &ValidationError{Field: "MaxIter", Reason: "cannot be negative"}
	}
	if c.LineIter < 0 {
		return &ValidationError{Field: "LineIter", Reason: "cannot be negative"}
	}
	if c.LineTol < 0 {
		return &ValidationError{Field: "LineTol", Reason: "cannot be negative"}
	}
	if c.Restarts < 0 {
		return &ValidationError{Field: "Restarts", Reason: "cannot be negative"}
	}
	if c.Seed.Enabled && c.Seed.Iterations <= 0 {
		return &ValidationError{Field: "Seed.Iterations", Reason: "must be positive"}
	}
	if c.Convergence.Enabled && c.Convergence.Patience <= 0 {
		return &ValidationError{Field: "Convergence.Patience", Reason: "must be positive"}
	}
	return nil
}

// ValidationError reports an invalid config field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// ErrInvalid matches any *ValidationError with errors.Is.
var ErrInvalid = &ValidationError{}
