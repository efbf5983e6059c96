package solve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `objective: liap
method: powell
interior: true
max_iter: 40
tol: 1.0e-9
params:
  a: [[3, 0], [5, 1]]
  b: [[3, 5], [0, 1]]
seed:
  enabled: true
  seed: 7
restarts: 2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "liap", cfg.Objective)
	assert.Equal(t, MethodPowell, cfg.Method)
	assert.True(t, cfg.Interior)
	assert.Equal(t, 40, cfg.MaxIter)
	assert.Equal(t, 1e-9, cfg.Tol)
	assert.Equal(t, [][]float64{{3, 0}, {5, 1}}, cfg.Params.A)
	assert.Equal(t, int64(7), cfg.Seed.Seed)

	cfg.ApplyDefaults()
	assert.Equal(t, 50, cfg.Seed.Iterations)
	assert.Equal(t, 20, cfg.Seed.Population)
	assert.Equal(t, DefaultConvergenceConfig(), cfg.Convergence)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("objective: [unclosed"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"missing objective", Config{Method: MethodDFP}, "Objective"},
		{"unknown method", Config{Objective: "beale", Method: "newton"}, "Method"},
		{"negative budget", Config{Objective: "beale", Method: MethodDFP, MaxIter: -1}, "MaxIter"},
		{"negative restarts", Config{Objective: "beale", Method: MethodDFP, Restarts: -1}, "Restarts"},
		{"seed without iterations", Config{Objective: "beale", Method: MethodDFP, Seed: SeedConfig{Enabled: true}}, "Seed.Iterations"},
		{"no patience", Config{Objective: "beale", Method: MethodDFP, Convergence: ConvergenceConfig{Enabled: true}}, "Convergence.Patience"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{Objective: "beale", Method: MethodPowell, Restarts: 1, Convergence: ConvergenceConfig{Enabled: true, Patience: 5}}
	cfg.ApplyDefaults()
	assert.Equal(t, MethodPowell, cfg.Method)
	assert.Equal(t, 5, cfg.Convergence.Patience)
	assert.False(t, cfg.Seed.Enabled)
	assert.Zero(t, cfg.Seed.Iterations)
}
