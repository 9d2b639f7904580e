package heuristics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamlens/scamlens/internal/types"
)

func TestPriceAnalyzer_Analyze(t *testing.T) {
	tests := []struct {
		name          string
		listing       types.Listing
		opts          map[string]any
		expectedScore float64
		expectFinding string
	}{
		{
			name:          "no reference price scores neutral",
			listing:       types.Listing{Price: 50},
			expectedScore: 0,
		},
		{
			name:          "no listing price scores neutral",
			listing:       types.Listing{MarketPrice: 100},
			expectedScore: 0,
		},
		{
			name:          "price at market scores neutral",
			listing:       types.Listing{Price: 100, MarketPrice: 100},
			expectedScore: 0,
		},
		{
			name:          "price above market scores neutral",
			listing:       types.Listing{Price: 150, MarketPrice: 100},
			expectedScore: 0,
		},
		{
			name:          "twenty percent of market is a strong signal",
			listing:       types.Listing{Price: 200, MarketPrice: 1000},
			expectedScore: 0.8,
			expectFinding: "Price is suspiciously low (20% of market price)",
		},
		{
			name:          "moderate discount is a weak signal",
			listing:       types.Listing{Price: 60, MarketPrice: 100},
			expectedScore: 0.4,
			expectFinding: "Price is well below market price (60%)",
		},
		{
			name:          "original price used when market price missing",
			listing:       types.Listing{Price: 20, OriginalPrice: 100},
			expectedScore: 0.8,
			expectFinding: "Price is suspiciously low (20% of original price)",
		},
		{
			name:    "custom ratio widens the suspicious band",
			listing: types.Listing{Price: 60, MarketPrice: 100},
			opts: map[string]any{
				"minMarketRatio": 0.65,
			},
			expectedScore: 0.4,
			expectFinding: "Price is suspiciously low (60% of market price)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := PriceAnalyzer{}.Analyze(context.Background(), &tt.listing, tt.opts)
			require.NoError(t, err)

			assert.InDelta(t, tt.expectedScore, score.Value, 1e-9)
			if tt.expectFinding != "" {
				assert.Contains(t, score.Findings, tt.expectFinding)
			} else {
				assert.Empty(t, score.Findings)
			}
		})
	}
}

func TestPriceAnalyzer_DeviationFinding(t *testing.T) {
	// 200 of 1000 is four 20%-units below reference, past the default 2.5.
	listing := types.Listing{Price: 200, MarketPrice: 1000}

	score, err := PriceAnalyzer{}.Analyze(context.Background(), &listing, nil)
	require.NoError(t, err)
	assert.Contains(t, score.Findings, "Price deviates 4.0 units below market price")
}

func TestPriceAnalyzer_MalformedOptionsFallBackToDefaults(t *testing.T) {
	listing := types.Listing{Price: 200, MarketPrice: 1000}

	score, err := PriceAnalyzer{}.Analyze(context.Background(), &listing, map[string]any{
		"minMarketRatio":  "not a number",
		"zScoreThreshold": []string{"nope"},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, score.Value, 1e-9)
}
