package model

import "fmt"

// Thresholds groups the confidence cut-offs used by resolution and data-flow inference
type Thresholds struct {
	// ExactMatch is the EXACT confidence at or above which a task is accepted
	// without running the remaining strategies
	ExactMatch float64 `json:"exact_match" yaml:"exact_match"`

	// SemanticMatch is the minimum raw similarity a SEMANTIC candidate needs
	SemanticMatch float64 `json:"semantic_match" yaml:"semantic_match"`

	// MinConfidence is the minimum winning confidence for a task to be mapped
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`

	// DataFlowMin is the exclusive lower bound for emitted data-flow edges
	DataFlowMin float64 `json:"data_flow_min" yaml:"data_flow_min"`
}

// DefaultThresholds returns the stock cut-offs
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExactMatch:    0.95,
		SemanticMatch: 0.4,
		MinConfidence: 0.3,
		DataFlowMin:   0.3,
	}
}

// Validate checks that every threshold lies within [0, 1]
func (t Thresholds) Validate() error {
	values := []struct {
		name  string
		value float64
	}{
		{"exact_match", t.ExactMatch},
		{"semantic_match", t.SemanticMatch},
		{"min_confidence", t.MinConfidence},
		{"data_flow_min", t.DataFlowMin},
	}
	for _, v := range values {
		if v.value < 0 || v.value > 1 {
			return fmt.Errorf("threshold %s must be within [0, 1], got %v", v.name, v.value)
		}
	}
	return nil
}
