// Package quality scores tool results across four dimensions and applies
// the engine's quality gate.
//
// Scoring is advisory and declarative: completeness is computed from the
// result data, while accuracy, consistency, and performance come from
// per-tool-type baseline criteria. An embedder with reference data can
// replace the baselines with real comparisons without changing the
// assessor's contract. All scores are in [0.0, 1.0].
package quality

import (
	"fmt"
	"math"
	"sort"
)

// Level is the discrete quality band derived from the overall score.
type Level string

const (
	LevelExcellent  Level = "EXCELLENT"
	LevelGood       Level = "GOOD"
	LevelAcceptable Level = "ACCEPTABLE"
	LevelMarginal   Level = "MARGINAL"
	LevelPoor       Level = "POOR"
)

// LevelFor discretizes an overall score.
func LevelFor(overall float64) Level {
	switch {
	case overall >= 0.9:
		return LevelExcellent
	case overall >= 0.8:
		return LevelGood
	case overall >= 0.7:
		return LevelAcceptable
	case overall >= 0.6:
		return LevelMarginal
	default:
		return LevelPoor
	}
}

// Weights holds the contribution of each dimension to the overall score.
// They must be non-negative and sum to 1.0.
type Weights struct {
	Completeness float64 `yaml:"completeness" json:"completeness"`
	Accuracy     float64 `yaml:"accuracy" json:"accuracy"`
	Consistency  float64 `yaml:"consistency" json:"consistency"`
	Performance  float64 `yaml:"performance" json:"performance"`
}

// DefaultWeights returns the documented default split:
// 0.3 completeness, 0.4 accuracy, 0.2 consistency, 0.1 performance.
func DefaultWeights() Weights {
	return Weights{
		Completeness: 0.3,
		Accuracy:     0.4,
		Consistency:  0.2,
		Performance:  0.1,
	}
}

// Validate checks each weight is in [0,1] and the sum is 1.0 within a
// small tolerance.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"completeness": w.Completeness,
		"accuracy":     w.Accuracy,
		"consistency":  w.Consistency,
		"performance":  w.Performance,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("weight %s must be in [0,1], got %v", name, v)
		}
	}
	sum := w.Completeness + w.Accuracy + w.Consistency + w.Performance
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// Criteria holds the per-tool-type assessment inputs: which output fields a
// complete result contains, and the baseline scores for the dimensions the
// engine cannot compute from the data alone.
type Criteria struct {
	// RequiredFields are the output fields a complete result contains.
	RequiredFields []string `yaml:"required_fields" json:"required_fields"`

	// Baseline scores for the declarative dimensions, each in [0,1].
	BaselineAccuracy    float64 `yaml:"baseline_accuracy" json:"baseline_accuracy"`
	BaselineConsistency float64 `yaml:"baseline_consistency" json:"baseline_consistency"`
	BaselinePerformance float64 `yaml:"baseline_performance" json:"baseline_performance"`
}

// DefaultCriteria returns criteria with no required fields and mid-high
// baselines suitable for tools that have not calibrated their own.
func DefaultCriteria() Criteria {
	return Criteria{
		BaselineAccuracy:    0.85,
		BaselineConsistency: 0.9,
		BaselinePerformance: 0.8,
	}
}

// Assessment is the computed multi-dimensional score for one result.
type Assessment struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Consistency  float64 `json:"consistency"`
	Performance  float64 `json:"performance"`

	// Overall is the weighted sum of the dimension scores.
	Overall float64 `json:"overall"`

	// Level is the discrete band for Overall.
	Level Level `json:"level"`

	// Passed reports whether Overall met the configured minimum.
	Passed bool `json:"passed"`
}

// Assessor scores results with a fixed weight split and minimum threshold.
type Assessor struct {
	weights    Weights
	minOverall float64
}

// NewAssessor validates the weights and returns an assessor. minOverall is
// the quality gate threshold; 0.7 is the conventional default.
func NewAssessor(w Weights, minOverall float64) (*Assessor, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if minOverall < 0 || minOverall > 1 {
		return nil, fmt.Errorf("minimum overall score must be in [0,1], got %v", minOverall)
	}
	return &Assessor{weights: w, minOverall: minOverall}, nil
}

// Assess scores result data against the criteria. Completeness is the
// fraction of required fields present (1.0 when none are declared); the
// remaining dimensions take the criteria baselines, clamped to [0,1].
func (a *Assessor) Assess(data map[string]any, criteria Criteria) Assessment {
	completeness := 1.0
	if n := len(criteria.RequiredFields); n > 0 {
		present := n - len(MissingFields(data, criteria.RequiredFields))
		completeness = float64(present) / float64(n)
	}

	assessment := Assessment{
		Completeness: completeness,
		Accuracy:     clamp01(criteria.BaselineAccuracy),
		Consistency:  clamp01(criteria.BaselineConsistency),
		Performance:  clamp01(criteria.BaselinePerformance),
	}
	assessment.Overall = a.weights.Completeness*assessment.Completeness +
		a.weights.Accuracy*assessment.Accuracy +
		a.weights.Consistency*assessment.Consistency +
		a.weights.Performance*assessment.Performance
	assessment.Level = LevelFor(assessment.Overall)
	assessment.Passed = assessment.Overall >= a.minOverall

	return assessment
}

// MissingFields returns the required fields absent from the data, sorted.
// A field present with a nil value counts as missing.
func MissingFields(data map[string]any, required []string) []string {
	var missing []string
	for _, name := range required {
		if v, ok := data[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
