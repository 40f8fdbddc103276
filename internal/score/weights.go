package score

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/arcticwatch/reescan/internal/deposit"
)

// WeightsConfig represents the strategic weights configuration file.
type WeightsConfig struct {
	Weights    Weights          `yaml:"weights"`
	Validation ValidationConfig `yaml:"validation"`
}

// Weights defines the weight allocation across the five analytical lenses.
// Treated as an immutable value; scoring functions take it by value so no
// hidden process-wide default can leak in.
type Weights struct {
	Geological     float64 `yaml:"geological"`
	Regulatory     float64 `yaml:"regulatory"`
	Ownership      float64 `yaml:"ownership"`
	Infrastructure float64 `yaml:"infrastructure"`
	Geopolitical   float64 `yaml:"geopolitical"`
}

// ValidationConfig defines weight validation parameters.
type ValidationConfig struct {
	WeightSumTolerance float64 `yaml:"weight_sum_tolerance"`
	MinWeight          float64 `yaml:"min_weight"`
	MaxWeight          float64 `yaml:"max_weight"`
}

// DefaultValidation returns the production validation parameters.
func DefaultValidation() ValidationConfig {
	return ValidationConfig{
		WeightSumTolerance: 0.001,
		MinWeight:          0.05,
		MaxWeight:          0.60,
	}
}

// DefaultWeights returns the published five-lens allocation.
func DefaultWeights() Weights {
	return Weights{
		Geological:     0.25,
		Regulatory:     0.20,
		Ownership:      0.20,
		Infrastructure: 0.15,
		Geopolitical:   0.20,
	}
}

// Map returns the weights keyed by dimension name.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		deposit.DimGeological:     w.Geological,
		deposit.DimRegulatory:     w.Regulatory,
		deposit.DimOwnership:      w.Ownership,
		deposit.DimInfrastructure: w.Infrastructure,
		deposit.DimGeopolitical:   w.Geopolitical,
	}
}

// Validate checks individual weight bounds and that the five weights sum to
// 1.0 within tolerance.
func (w Weights) Validate(validation ValidationConfig) error {
	values := w.Map()
	for _, name := range deposit.DimensionOrder {
		value := values[name]
		if value < 0 {
			return fmt.Errorf("negative weight for %s: %.3f", name, value)
		}
		if value < validation.MinWeight {
			return fmt.Errorf("weight for %s (%.3f) below minimum (%.3f)",
				name, value, validation.MinWeight)
		}
		if value > validation.MaxWeight {
			return fmt.Errorf("weight for %s (%.3f) above maximum (%.3f)",
				name, value, validation.MaxWeight)
		}
	}

	sum := w.Geological + w.Regulatory + w.Ownership + w.Infrastructure + w.Geopolitical
	if math.Abs(sum-1.0) > validation.WeightSumTolerance {
		return fmt.Errorf("weights sum to %.4f, expected 1.0 ± %.3f",
			sum, validation.WeightSumTolerance)
	}

	return nil
}

// LoadWeights loads and validates a weights configuration from a YAML file.
// Zero validation parameters in the file fall back to defaults.
func LoadWeights(configPath string) (Weights, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return Weights{}, fmt.Errorf("failed to read weights file %s: %w", configPath, err)
	}

	var config WeightsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Weights{}, fmt.Errorf("failed to parse weights YAML: %w", err)
	}

	if config.Validation == (ValidationConfig{}) {
		config.Validation = DefaultValidation()
	}
	if config.Validation.WeightSumTolerance == 0 {
		config.Validation.WeightSumTolerance = DefaultValidation().WeightSumTolerance
	}

	if err := config.Weights.Validate(config.Validation); err != nil {
		return Weights{}, fmt.Errorf("weights validation failed: %w", err)
	}

	return config.Weights, nil
}

// Summary returns a formatted breakdown of the weight allocation.
func (w Weights) Summary() string {
	summary := "Strategic weight allocation:\n"
	values := w.Map()
	for _, name := range deposit.DimensionOrder {
		summary += fmt.Sprintf("  %-21s %.1f%%\n", name+":", values[name]*100)
	}
	return summary
}

// DefaultWeightsPath returns the default weights configuration file path.
func DefaultWeightsPath() string {
	return filepath.Join("config", "weights.yaml")
}
