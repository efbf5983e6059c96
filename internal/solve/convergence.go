package solve

import (
	"log/slog"
	"math"
)

// ConvergenceConfig decides when restarts stop paying off.
type ConvergenceConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Patience is the number of restarts without a significant improvement
	// tolerated before stopping.
	Patience int `json:"patience,omitempty" yaml:"patience,omitempty"`
	// Threshold is the relative improvement (old-new)/|old| that counts as
	// significant.
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// DefaultConvergenceConfig stops after two restarts that gain less than 0.1%.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  2,
		Threshold: 0.001,
	}
}

// ConvergenceTracker watches the value reached by successive runs.
type ConvergenceTracker struct {
	config      ConvergenceConfig
	values      []float64
	best        float64
	significant float64
	stale       int
}

// NewConvergenceTracker returns a tracker with no history.
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:      config,
		best:        math.Inf(1),
		significant: math.Inf(1),
	}
}

// Update records the value of a finished run and reports whether further
// restarts should be skipped.
func (c *ConvergenceTracker) Update(value float64) bool {
	if !c.config.Enabled {
		return false
	}
	c.values = append(c.values, value)
	if value < c.best {
		c.best = value
	}
	if len(c.values) == 1 {
		c.significant = value
		return false
	}

	var gain float64
	if c.significant != 0 {
		gain = (c.significant - value) / math.Abs(c.significant)
	}
	if gain >= c.config.Threshold && gain > 0 {
		c.significant = value
		c.stale = 0
		slog.Debug("Restart improved", "value", value, "gain", gain)
		return false
	}

	c.stale++
	slog.Debug("Restart did not improve", "value", value, "gain", gain, "stale", c.stale, "patience", c.config.Patience)
	if c.stale >= c.config.Patience {
		slog.Info("Restarts converged", "stale", c.stale, "best", c.best)
		return true
	}
	return false
}

// Best returns the lowest value seen.
func (c *ConvergenceTracker) Best() float64 {
	return c.best
}

// History returns a copy of the recorded values.
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64(nil), c.values...)
}

// StaleCount returns the number of restarts since the last significant
// improvement.
func (c *ConvergenceTracker) StaleCount() int {
	return c.stale
}
