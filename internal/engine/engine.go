package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/scamlens/scamlens/internal/heuristics"
	"github.com/scamlens/scamlens/internal/monitoring"
	"github.com/scamlens/scamlens/internal/preferences"
	"github.com/scamlens/scamlens/internal/types"
)

// significanceCutoff is the per-heuristic score above which its findings are
// surfaced as risk factors.
const significanceCutoff = 0.5

// Engine is the scoring engine. It is explicitly constructed with its
// collaborators; it holds no mutable state of its own, so one instance serves
// all concurrent analyze calls.
type Engine struct {
	prefs    *preferences.Store
	registry *heuristics.Registry
	metrics  *monitoring.Metrics
}

// New creates a scoring engine. metrics may be nil when no metering is wanted
// (library use, tests).
func New(prefs *preferences.Store, registry *heuristics.Registry, metrics *monitoring.Metrics) *Engine {
	return &Engine{
		prefs:    prefs,
		registry: registry,
		metrics:  metrics,
	}
}

// Analyze scores a listing against the user's enabled heuristics.
//
// Enabled heuristics run concurrently and independently; a single analyzer
// failure (error, panic, or missing registration) becomes a zero-score result
// and never aborts the call. Disabled heuristics are reported with a zero
// score without invoking any analyzer. The only returned error is a
// preference-resolution failure, since no meaningful partial result exists
// without preferences.
//
// An empty userID resolves to the shared default profile.
func (e *Engine) Analyze(ctx context.Context, listing *types.Listing, userID string) (*AnalysisResult, error) {
	if userID == "" {
		userID = preferences.DefaultUserID
	}

	prefs, err := e.prefs.GetUserPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]HeuristicResult, len(prefs.Heuristics))
	var wg sync.WaitGroup
	for i, hp := range prefs.Heuristics {
		results[i] = HeuristicResult{
			HeuristicID: hp.ID,
			Name:        hp.Name,
			Enabled:     hp.Enabled,
			Weight:      hp.Weight,
			Findings:    []string{},
		}
		if !hp.Enabled {
			continue
		}

		wg.Add(1)
		go func(i int, hp preferences.HeuristicPreference) {
			defer wg.Done()
			score := e.run(ctx, listing, hp)
			results[i].Score = score.Value
			if len(score.Findings) > 0 {
				results[i].Findings = score.Findings
			}
		}(i, hp)
	}
	wg.Wait()

	res := &AnalysisResult{
		RiskFactors:     []string{},
		DetailedResults: results,
	}

	var weightSum, weighted float64
	for i := range prefs.Heuristics {
		if !prefs.Heuristics[i].Enabled {
			continue
		}
		weightSum += prefs.Heuristics[i].Weight
		weighted += results[i].Score * prefs.Heuristics[i].Weight
	}

	if weightSum > 0 {
		raw := weighted / weightSum

		// Sensitivity adjustment: 70 is the neutral threshold, so an
		// untouched profile gets the raw probability. The adjustment is
		// multiplicative and clamped, never sign-changing.
		probability := raw * float64(prefs.GlobalThreshold) / float64(preferences.DefaultThreshold)
		if probability > 1 {
			probability = 1
		}
		res.Probability = probability

		// Findings of significant heuristics, flattened in registration
		// order. The order is a stable contract for reproducible output.
		for i := range prefs.Heuristics {
			if prefs.Heuristics[i].Enabled && results[i].Score > significanceCutoff {
				res.RiskFactors = append(res.RiskFactors, results[i].Findings...)
			}
		}
	}

	res.OverallRiskLevel = Classify(res.Probability)

	if e.metrics != nil {
		e.metrics.RecordAnalysis(string(res.OverallRiskLevel))
	}

	return res, nil
}

// run invokes one analyzer, converting lookup misses, errors and panics into
// a zero score so a single heuristic cannot fail the whole call.
func (e *Engine) run(ctx context.Context, listing *types.Listing, hp preferences.HeuristicPreference) (score heuristics.Score) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Heuristic panicked", "heuristic", hp.ID, "panic", r)
			e.recordFailure(hp.ID)
			score = heuristics.Score{}
		}
	}()

	analyzer, ok := e.registry.Lookup(hp.ID)
	if !ok {
		slog.Warn("No analyzer registered for heuristic", "heuristic", hp.ID)
		e.recordFailure(hp.ID)
		return heuristics.Score{}
	}

	result, err := analyzer.Analyze(ctx, listing, hp.ConfigOptions)
	if err != nil {
		slog.Warn("Heuristic failed", "heuristic", hp.ID, "error", err)
		e.recordFailure(hp.ID)
		return heuristics.Score{}
	}

	// Analyzer scores are a [0,1] contract; out-of-range values are clamped.
	if result.Value < 0 {
		result.Value = 0
	}
	if result.Value > 1 {
		result.Value = 1
	}
	return result
}

func (e *Engine) recordFailure(heuristicID string) {
	if e.metrics != nil {
		e.metrics.IncrementHeuristicFailure(heuristicID)
	}
}
