package score

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeights_Valid(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate(DefaultValidation()))
}

func TestWeights_Validate_SumTolerance(t *testing.T) {
	w := DefaultWeights()
	w.Geological = 0.30 // sum now 1.05

	err := w.Validate(DefaultValidation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0500")
}

func TestWeights_Validate_Bounds(t *testing.T) {
	w := Weights{Geological: 0.70, Regulatory: 0.05, Ownership: 0.05, Infrastructure: 0.05, Geopolitical: 0.15}
	err := w.Validate(DefaultValidation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "above maximum")

	w = Weights{Geological: 0.40, Regulatory: 0.02, Ownership: 0.23, Infrastructure: 0.15, Geopolitical: 0.20}
	err = w.Validate(DefaultValidation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below minimum")
}

func TestLoadWeights_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.yaml")

	content := `weights:
  geological: 0.25
  regulatory: 0.20
  ownership: 0.20
  infrastructure: 0.15
  geopolitical: 0.20
validation:
  weight_sum_tolerance: 0.001
  min_weight: 0.05
  max_weight: 0.60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	w, err := LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultWeights(), w)
}

func TestLoadWeights_RejectsBadSum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.yaml")

	content := `weights:
  geological: 0.50
  regulatory: 0.20
  ownership: 0.20
  infrastructure: 0.15
  geopolitical: 0.20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadWeights(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadWeights_MissingFile(t *testing.T) {
	_, err := LoadWeights(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestWeights_Summary(t *testing.T) {
	s := DefaultWeights().Summary()
	assert.Contains(t, s, "geological_score")
	assert.Contains(t, s, "25.0%")
	assert.Contains(t, s, "geopolitical_score")
}
