// Package preferences implements per-user heuristic configuration: which
// heuristics are enabled, their weights and config options, and the global
// sensitivity threshold. The store keeps an in-process cache with
// copy-on-read isolation over a pluggable persistence backend.
package preferences

import (
	"context"
	"time"

	"github.com/scamlens/scamlens/internal/catalog"
)

const (
	// DefaultThreshold is the neutral sensitivity: a user at 70 gets an
	// unscaled aggregate probability.
	DefaultThreshold = 70

	// DefaultUserID is the shared profile used by unauthenticated callers.
	DefaultUserID = "default"
)

// HeuristicPreference is a per-user, mutable copy of a descriptor's tunables.
// ID always matches exactly one catalog descriptor (or a retired one kept for
// backward compatibility).
type HeuristicPreference struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Enabled       bool           `json:"enabled"`
	Weight        float64        `json:"weight"`
	ConfigOptions map[string]any `json:"config_options"`
}

// Clone returns a deep copy of the preference.
func (p HeuristicPreference) Clone() HeuristicPreference {
	out := p
	if p.ConfigOptions != nil {
		out.ConfigOptions = make(map[string]any, len(p.ConfigOptions))
		for k, v := range p.ConfigOptions {
			out.ConfigOptions[k] = v
		}
	}
	return out
}

// UserPreferences is the full preference record owned by one user.
type UserPreferences struct {
	UserID          string                `json:"user_id"`
	Heuristics      []HeuristicPreference `json:"heuristics"`
	GlobalThreshold int                   `json:"global_threshold"`
	LastUpdated     time.Time             `json:"last_updated"`
}

// Clone returns a deep copy of the record.
func (u *UserPreferences) Clone() *UserPreferences {
	if u == nil {
		return nil
	}
	out := &UserPreferences{
		UserID:          u.UserID,
		GlobalThreshold: u.GlobalThreshold,
		LastUpdated:     u.LastUpdated,
		Heuristics:      make([]HeuristicPreference, len(u.Heuristics)),
	}
	for i, h := range u.Heuristics {
		out.Heuristics[i] = h.Clone()
	}
	return out
}

// HeuristicUpdate is a partial update for one heuristic preference. Nil
// fields are left untouched; ConfigOptions is shallow-merged so keys absent
// from the update are preserved.
type HeuristicUpdate struct {
	Enabled       *bool          `json:"enabled,omitempty"`
	Weight        *float64       `json:"weight,omitempty"`
	ConfigOptions map[string]any `json:"config_options,omitempty"`
}

// Backend is the persistence contract the store runs on. Load returns
// (nil, nil) when no record exists for the user.
type Backend interface {
	Load(ctx context.Context, userID string) (*UserPreferences, error)
	Save(ctx context.Context, userID string, prefs *UserPreferences) error
}

// fromDescriptor materializes a preference from a descriptor's defaults.
func fromDescriptor(d catalog.Descriptor) HeuristicPreference {
	p := HeuristicPreference{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Enabled:     d.DefaultEnabled,
		Weight:      d.DefaultWeight,
	}
	p.ConfigOptions = make(map[string]any, len(d.DefaultConfigOptions))
	for k, v := range d.DefaultConfigOptions {
		p.ConfigOptions[k] = v
	}
	return p
}
