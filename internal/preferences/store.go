package preferences

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scamlens/scamlens/internal/catalog"
	"github.com/scamlens/scamlens/internal/errors"
)

// Store resolves and mutates per-user preferences. It is an explicitly
// constructed service: callers inject the catalog and persistence backend and
// manage its lifetime, so tests get full isolation.
//
// Concurrency: a per-user mutex serializes read-modify-write cycles for the
// same user so concurrent updates cannot lose writes. Different users never
// contend beyond the map lookups.
type Store struct {
	catalog *catalog.Catalog
	backend Backend

	mu    sync.Mutex
	cache map[string]*UserPreferences
	locks map[string]*sync.Mutex
}

// NewStore creates a preference store over the given catalog and backend.
func NewStore(cat *catalog.Catalog, backend Backend) *Store {
	return &Store{
		catalog: cat,
		backend: backend,
		cache:   make(map[string]*UserPreferences),
		locks:   make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex dedicated to one user, creating it on first use.
func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// GetUserPreferences returns the user's preferences, materializing a default
// record on first access and reconciling stored records against the current
// catalog. The returned value is a private copy the caller may mutate freely.
func (s *Store) GetUserPreferences(ctx context.Context, userID string) (*UserPreferences, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.getLocked(ctx, userID)
}

// getLocked implements GetUserPreferences; the caller must hold the user lock.
func (s *Store) getLocked(ctx context.Context, userID string) (*UserPreferences, error) {
	s.mu.Lock()
	cached := s.cache[userID]
	s.mu.Unlock()
	if cached != nil {
		return cached.Clone(), nil
	}

	prefs, err := s.backend.Load(ctx, userID)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to load user preferences", err)
	}

	if prefs == nil {
		prefs = s.defaults(userID)
		if err := s.saveLocked(ctx, prefs); err != nil {
			return nil, err
		}
		slog.Info("Materialized default preferences", "user_id", userID)
		return prefs.Clone(), nil
	}

	// Catalog upgrades append new descriptors with their defaults; retired
	// entries the user customized are kept as-is.
	if s.reconcile(prefs) {
		if err := s.saveLocked(ctx, prefs); err != nil {
			return nil, err
		}
		slog.Info("Reconciled stored preferences with catalog",
			"user_id", userID, "heuristics", len(prefs.Heuristics))
	} else {
		s.mu.Lock()
		s.cache[userID] = prefs.Clone()
		s.mu.Unlock()
	}

	return prefs.Clone(), nil
}

// SaveUserPreferences stamps LastUpdated and writes the record to both the
// in-process cache and the backend, so subsequent reads in this process see
// the change immediately.
func (s *Store) SaveUserPreferences(ctx context.Context, prefs *UserPreferences) error {
	lock := s.userLock(prefs.UserID)
	lock.Lock()
	defer lock.Unlock()

	return s.saveLocked(ctx, prefs)
}

// saveLocked implements SaveUserPreferences; the caller must hold the user lock.
func (s *Store) saveLocked(ctx context.Context, prefs *UserPreferences) error {
	prefs.LastUpdated = time.Now()

	if err := s.backend.Save(ctx, prefs.UserID, prefs); err != nil {
		return errors.NewPersistenceError("failed to save user preferences", err)
	}

	s.mu.Lock()
	s.cache[prefs.UserID] = prefs.Clone()
	s.mu.Unlock()
	return nil
}

// UpdateHeuristic applies a partial update to one heuristic preference and
// returns the updated snapshot. Unknown IDs fail with a not-found error and
// leave stored preferences untouched.
func (s *Store) UpdateHeuristic(ctx context.Context, userID, heuristicID string, update HeuristicUpdate) (*UserPreferences, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	prefs, err := s.getLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range prefs.Heuristics {
		if prefs.Heuristics[i].ID == heuristicID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.NewNotFoundError("heuristic", heuristicID)
	}

	h := &prefs.Heuristics[idx]
	if update.Enabled != nil {
		h.Enabled = *update.Enabled
	}
	if update.Weight != nil {
		h.Weight = clampWeight(*update.Weight)
	}
	if update.ConfigOptions != nil {
		if h.ConfigOptions == nil {
			h.ConfigOptions = make(map[string]any, len(update.ConfigOptions))
		}
		for k, v := range update.ConfigOptions {
			h.ConfigOptions[k] = v
		}
	}

	if err := s.saveLocked(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs.Clone(), nil
}

// UpdateGlobalThreshold clamps the threshold to [0,100], saves and returns
// the updated snapshot.
func (s *Store) UpdateGlobalThreshold(ctx context.Context, userID string, threshold int) (*UserPreferences, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	prefs, err := s.getLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs.GlobalThreshold = clampThreshold(threshold)

	if err := s.saveLocked(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs.Clone(), nil
}

// ResetToDefaults discards all customizations and rebuilds the record from
// catalog defaults with the threshold back at the system default.
func (s *Store) ResetToDefaults(ctx context.Context, userID string) (*UserPreferences, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	prefs := s.defaults(userID)
	if err := s.saveLocked(ctx, prefs); err != nil {
		return nil, err
	}
	slog.Info("Reset preferences to defaults", "user_id", userID)
	return prefs.Clone(), nil
}

// defaults builds a full default record, one preference per descriptor in
// catalog order.
func (s *Store) defaults(userID string) *UserPreferences {
	descriptors := s.catalog.Descriptors()
	prefs := &UserPreferences{
		UserID:          userID,
		GlobalThreshold: DefaultThreshold,
		Heuristics:      make([]HeuristicPreference, 0, len(descriptors)),
	}
	for _, d := range descriptors {
		prefs.Heuristics = append(prefs.Heuristics, fromDescriptor(d))
	}
	return prefs
}

// reconcile appends defaults for catalog descriptors missing from a stored
// record. It never removes user entries, even for retired descriptors.
// Returns whether the record changed.
func (s *Store) reconcile(prefs *UserPreferences) bool {
	known := make(map[string]bool, len(prefs.Heuristics))
	for _, h := range prefs.Heuristics {
		known[h.ID] = true
	}

	changed := false
	for _, d := range s.catalog.Descriptors() {
		if !known[d.ID] {
			prefs.Heuristics = append(prefs.Heuristics, fromDescriptor(d))
			changed = true
		}
	}
	return changed
}

func clampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

func clampThreshold(t int) int {
	if t < 0 {
		return 0
	}
	if t > 100 {
		return 100
	}
	return t
}
