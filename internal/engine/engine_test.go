package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamlens/scamlens/internal/catalog"
	"github.com/scamlens/scamlens/internal/heuristics"
	"github.com/scamlens/scamlens/internal/preferences"
	"github.com/scamlens/scamlens/internal/types"
)

// stubAnalyzer returns a fixed outcome, or fails on demand.
type stubAnalyzer struct {
	id     string
	score  heuristics.Score
	err    error
	panics bool
	called *bool
}

func (s stubAnalyzer) ID() string { return s.id }

func (s stubAnalyzer) Analyze(_ context.Context, _ *types.Listing, _ map[string]any) (heuristics.Score, error) {
	if s.called != nil {
		*s.called = true
	}
	if s.panics {
		panic("stub analyzer exploded")
	}
	if s.err != nil {
		return heuristics.Score{}, s.err
	}
	return s.score, nil
}

func descriptor(id string, enabled bool, weight float64) catalog.Descriptor {
	return catalog.Descriptor{
		ID:             id,
		Name:           id,
		DefaultEnabled: enabled,
		DefaultWeight:  weight,
	}
}

func newTestEngine(t *testing.T, descriptors []catalog.Descriptor, analyzers ...heuristics.Analyzer) *Engine {
	t.Helper()

	registry := heuristics.NewRegistry()
	for _, a := range analyzers {
		registry.Register(a)
	}
	store := preferences.NewStore(catalog.New(descriptors), preferences.NewMemoryBackend())
	return New(store, registry, nil)
}

func TestEngine_Analyze_NoEnabledHeuristics(t *testing.T) {
	e := newTestEngine(t,
		[]catalog.Descriptor{
			descriptor("a", false, 0.8),
			descriptor("b", false, 0.5),
		},
		stubAnalyzer{id: "a", score: heuristics.Score{Value: 1}},
		stubAnalyzer{id: "b", score: heuristics.Score{Value: 1}},
	)

	res, err := e.Analyze(context.Background(), &types.Listing{Title: "x"}, "u1")
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Probability)
	assert.Empty(t, res.RiskFactors)
	assert.NotNil(t, res.RiskFactors)
	assert.Equal(t, RiskLow, res.OverallRiskLevel)
	assert.Len(t, res.DetailedResults, 2)
	for _, dr := range res.DetailedResults {
		assert.False(t, dr.Enabled)
		assert.Equal(t, 0.0, dr.Score)
	}
}

func TestEngine_Analyze_DisabledAnalyzerNotInvoked(t *testing.T) {
	invoked := false
	e := newTestEngine(t,
		[]catalog.Descriptor{
			descriptor("on", true, 0.5),
			descriptor("off", false, 0.5),
		},
		stubAnalyzer{id: "on", score: heuristics.Score{Value: 0.2}},
		stubAnalyzer{id: "off", score: heuristics.Score{Value: 1}, called: &invoked},
	)

	_, err := e.Analyze(context.Background(), &types.Listing{Title: "x"}, "u1")
	require.NoError(t, err)
	assert.False(t, invoked)
}

func TestEngine_Analyze_SuspiciousPriceScenario(t *testing.T) {
	// A listing at 20% of market price with only the price heuristic enabled
	// at its default weight lands in the CRITICAL band.
	store := preferences.NewStore(catalog.Default(), preferences.NewMemoryBackend())
	registry := heuristics.DefaultRegistry()
	e := New(store, registry, nil)

	ctx := context.Background()
	for _, id := range []string{catalog.SellerHistory, catalog.ImageQuality, catalog.ReviewPattern} {
		enabled := false
		_, err := store.UpdateHeuristic(ctx, "u1", id, preferences.HeuristicUpdate{Enabled: &enabled})
		require.NoError(t, err)
	}

	listing := &types.Listing{
		Title:       "Luxury watch",
		Price:       200,
		MarketPrice: 1000,
	}

	res, err := e.Analyze(ctx, listing, "u1")
	require.NoError(t, err)

	assert.InDelta(t, 0.8, res.Probability, 1e-9)
	assert.Equal(t, RiskCritical, res.OverallRiskLevel)
	assert.Contains(t, res.RiskFactors, "Price is suspiciously low (20% of market price)")
}

func TestEngine_Analyze_ThresholdScalesProbability(t *testing.T) {
	store := preferences.NewStore(catalog.Default(), preferences.NewMemoryBackend())
	e := New(store, heuristics.DefaultRegistry(), nil)

	ctx := context.Background()
	for _, id := range []string{catalog.SellerHistory, catalog.ImageQuality, catalog.ReviewPattern} {
		enabled := false
		_, err := store.UpdateHeuristic(ctx, "u1", id, preferences.HeuristicUpdate{Enabled: &enabled})
		require.NoError(t, err)
	}
	_, err := store.UpdateGlobalThreshold(ctx, "u1", 35)
	require.NoError(t, err)

	listing := &types.Listing{Title: "Luxury watch", Price: 200, MarketPrice: 1000}

	res, err := e.Analyze(ctx, listing, "u1")
	require.NoError(t, err)

	// Same raw score, half the sensitivity.
	assert.InDelta(t, 0.4, res.Probability, 1e-9)
	assert.Equal(t, RiskMedium, res.OverallRiskLevel)
}

func TestEngine_Analyze_ProbabilityClampedToOne(t *testing.T) {
	e := newTestEngine(t,
		[]catalog.Descriptor{descriptor("max", true, 1.0)},
		stubAnalyzer{id: "max", score: heuristics.Score{Value: 1.0}},
	)

	ctx := context.Background()
	_, err := e.prefs.UpdateGlobalThreshold(ctx, "u1", 100)
	require.NoError(t, err)

	res, err := e.Analyze(ctx, &types.Listing{Title: "x"}, "u1")
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.Probability)
	assert.Equal(t, RiskCritical, res.OverallRiskLevel)
}

func TestEngine_Analyze_FailureIsolation(t *testing.T) {
	tests := []struct {
		name   string
		broken heuristics.Analyzer
	}{
		{
			name:   "analyzer error",
			broken: stubAnalyzer{id: "broken", err: errors.New("upstream unavailable")},
		},
		{
			name:   "analyzer panic",
			broken: stubAnalyzer{id: "broken", panics: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t,
				[]catalog.Descriptor{
					descriptor("ok", true, 0.5),
					descriptor("broken", true, 0.5),
				},
				stubAnalyzer{id: "ok", score: heuristics.Score{Value: 0.6, Findings: []string{"ok finding"}}},
				tt.broken,
			)

			res, err := e.Analyze(context.Background(), &types.Listing{Title: "x"}, "u1")
			require.NoError(t, err)

			// Broken heuristic contributes zero but keeps its weight in the sum.
			assert.InDelta(t, 0.3*70.0/70.0, res.Probability, 1e-9)
			assert.Len(t, res.DetailedResults, 2)
			assert.Equal(t, 0.0, res.DetailedResults[1].Score)
			assert.Equal(t, []string{"ok finding"}, res.RiskFactors)
		})
	}
}

func TestEngine_Analyze_MissingRegistration(t *testing.T) {
	// Preference record names a heuristic nothing is registered for.
	e := newTestEngine(t,
		[]catalog.Descriptor{
			descriptor("known", true, 0.5),
			descriptor("retired", true, 0.5),
		},
		stubAnalyzer{id: "known", score: heuristics.Score{Value: 0.4}},
	)

	res, err := e.Analyze(context.Background(), &types.Listing{Title: "x"}, "u1")
	require.NoError(t, err)

	assert.InDelta(t, 0.2, res.Probability, 1e-9)
	assert.Equal(t, 0.0, res.DetailedResults[1].Score)
}

func TestEngine_Analyze_RiskFactorOrderAndCutoff(t *testing.T) {
	e := newTestEngine(t,
		[]catalog.Descriptor{
			descriptor("first", true, 0.5),
			descriptor("quiet", true, 0.5),
			descriptor("second", true, 0.5),
		},
		stubAnalyzer{id: "first", score: heuristics.Score{Value: 0.9, Findings: []string{"f1", "f2"}}},
		// Exactly at the cutoff, not above it: excluded.
		stubAnalyzer{id: "quiet", score: heuristics.Score{Value: 0.5, Findings: []string{"quiet finding"}}},
		stubAnalyzer{id: "second", score: heuristics.Score{Value: 0.7, Findings: []string{"s1"}}},
	)

	res, err := e.Analyze(context.Background(), &types.Listing{Title: "x"}, "u1")
	require.NoError(t, err)

	assert.Equal(t, []string{"f1", "f2", "s1"}, res.RiskFactors)
}

func TestEngine_Analyze_EmptyUserIDUsesDefaultProfile(t *testing.T) {
	e := newTestEngine(t,
		[]catalog.Descriptor{descriptor("a", true, 0.5)},
		stubAnalyzer{id: "a", score: heuristics.Score{Value: 0.2}},
	)

	ctx := context.Background()
	_, err := e.Analyze(ctx, &types.Listing{Title: "x"}, "")
	require.NoError(t, err)

	// The default profile was materialized, not an empty-ID one.
	prefs, err := e.prefs.GetUserPreferences(ctx, preferences.DefaultUserID)
	require.NoError(t, err)
	assert.Equal(t, preferences.DefaultUserID, prefs.UserID)
}

func TestEngine_Analyze_OutOfRangeScoreClamped(t *testing.T) {
	e := newTestEngine(t,
		[]catalog.Descriptor{descriptor("wild", true, 1.0)},
		stubAnalyzer{id: "wild", score: heuristics.Score{Value: 3.5}},
	)

	res, err := e.Analyze(context.Background(), &types.Listing{Title: "x"}, "u1")
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.DetailedResults[0].Score)
	assert.Equal(t, 1.0, res.Probability)
}
