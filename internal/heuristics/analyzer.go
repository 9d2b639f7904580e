// Package heuristics contains the analyzer contract consumed by the scoring
// engine plus the built-in analyzer implementations. Each analyzer is a pure
// function of (listing, config options): it produces a score in [0,1] and a
// list of human-readable findings, and returns a neutral zero score for
// ordinary "insufficient data" conditions instead of an error.
package heuristics

import (
	"context"
	"sync"

	"github.com/scamlens/scamlens/internal/types"
)

// Score is the outcome of one heuristic run.
type Score struct {
	Value    float64  `json:"value"`
	Findings []string `json:"findings"`
}

// Analyzer scores one risk dimension of a listing. Implementations must be
// safe for concurrent use; the engine fans out all enabled analyzers in
// parallel for each analyze call.
type Analyzer interface {
	ID() string
	Analyze(ctx context.Context, listing *types.Listing, opts map[string]any) (Score, error)
}

// Registry maps heuristic IDs to analyzer implementations. Adding a heuristic
// is a registration, not a code-path edit; an unknown ID is a lookup miss the
// engine treats as an analyzer failure.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]Analyzer
}

// NewRegistry creates an empty analyzer registry.
func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]Analyzer)}
}

// Register adds an analyzer under its own ID, replacing any previous
// registration for that ID.
func (r *Registry) Register(a Analyzer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzers[a.ID()] = a
}

// Lookup returns the analyzer registered for the given heuristic ID.
func (r *Registry) Lookup(id string) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyzers[id]
	return a, ok
}

// IDs returns the registered heuristic IDs in unspecified order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.analyzers))
	for id := range r.analyzers {
		ids = append(ids, id)
	}
	return ids
}

// DefaultRegistry returns a registry with all built-in analyzers registered,
// matching the default catalog.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(PriceAnalyzer{})
	r.Register(SellerAnalyzer{})
	r.Register(ImageAnalyzer{})
	r.Register(ReviewAnalyzer{})
	r.Register(CrossPlatformAnalyzer{})
	return r
}
