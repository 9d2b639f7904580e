package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		expected    RiskLevel
	}{
		{
			name:        "zero probability is low",
			probability: 0.0,
			expected:    RiskLow,
		},
		{
			name:        "just under medium boundary is low",
			probability: 0.29,
			expected:    RiskLow,
		},
		{
			name:        "medium boundary is medium",
			probability: 0.3,
			expected:    RiskMedium,
		},
		{
			name:        "just under high boundary is medium",
			probability: 0.59,
			expected:    RiskMedium,
		},
		{
			name:        "high boundary is high",
			probability: 0.6,
			expected:    RiskHigh,
		},
		{
			name:        "just under critical boundary is high",
			probability: 0.79,
			expected:    RiskHigh,
		},
		{
			name:        "critical boundary is critical",
			probability: 0.8,
			expected:    RiskCritical,
		},
		{
			name:        "full probability is critical",
			probability: 1.0,
			expected:    RiskCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.probability))
		})
	}
}

func TestClassify_Monotonic(t *testing.T) {
	order := map[RiskLevel]int{
		RiskLow:      0,
		RiskMedium:   1,
		RiskHigh:     2,
		RiskCritical: 3,
	}

	prev := RiskLow
	for p := 0.0; p <= 1.0; p += 0.01 {
		level := Classify(p)
		assert.GreaterOrEqual(t, order[level], order[prev],
			"risk level regressed at probability %.2f", p)
		prev = level
	}
}
