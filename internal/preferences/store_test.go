package preferences

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamlens/scamlens/internal/catalog"
	apperrors "github.com/scamlens/scamlens/internal/errors"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Descriptor{
		{
			ID:             "alpha",
			Name:           "Alpha",
			DefaultEnabled: true,
			DefaultWeight:  0.8,
			DefaultConfigOptions: map[string]any{
				"limit": 2.5,
			},
		},
		{
			ID:             "beta",
			Name:           "Beta",
			DefaultEnabled: false,
			DefaultWeight:  0.4,
		},
	})
}

func TestStore_GetUserPreferences_MaterializesDefaults(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(testCatalog(), backend)

	prefs, err := store.GetUserPreferences(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "u1", prefs.UserID)
	assert.Equal(t, DefaultThreshold, prefs.GlobalThreshold)
	require.Len(t, prefs.Heuristics, 2)
	assert.Equal(t, "alpha", prefs.Heuristics[0].ID)
	assert.True(t, prefs.Heuristics[0].Enabled)
	assert.Equal(t, 0.8, prefs.Heuristics[0].Weight)
	assert.Equal(t, "beta", prefs.Heuristics[1].ID)
	assert.False(t, prefs.Heuristics[1].Enabled)

	// First access persists the defaults.
	assert.Equal(t, 1, backend.Len())
}

func TestStore_GetUserPreferences_CopyOnRead(t *testing.T) {
	store := NewStore(testCatalog(), NewMemoryBackend())
	ctx := context.Background()

	first, err := store.GetUserPreferences(ctx, "u1")
	require.NoError(t, err)

	// Mutations on the returned snapshot must not leak into the store.
	first.GlobalThreshold = 5
	first.Heuristics[0].Weight = 0.01
	first.Heuristics[0].ConfigOptions["limit"] = 99.0

	second, err := store.GetUserPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, second.GlobalThreshold)
	assert.Equal(t, 0.8, second.Heuristics[0].Weight)
	assert.Equal(t, 2.5, second.Heuristics[0].ConfigOptions["limit"])
}

func TestStore_GetUserPreferences_ReconcilesNewDescriptors(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	// Store a record written against an older, single-heuristic catalog.
	old := &UserPreferences{
		UserID:          "u1",
		GlobalThreshold: 50,
		Heuristics: []HeuristicPreference{
			{ID: "alpha", Name: "Alpha", Enabled: false, Weight: 0.1},
		},
	}
	require.NoError(t, backend.Save(ctx, "u1", old))

	store := NewStore(testCatalog(), backend)
	prefs, err := store.GetUserPreferences(ctx, "u1")
	require.NoError(t, err)

	// Customizations survive, the new descriptor is appended with defaults.
	require.Len(t, prefs.Heuristics, 2)
	assert.Equal(t, "alpha", prefs.Heuristics[0].ID)
	assert.False(t, prefs.Heuristics[0].Enabled)
	assert.Equal(t, 0.1, prefs.Heuristics[0].Weight)
	assert.Equal(t, "beta", prefs.Heuristics[1].ID)
	assert.Equal(t, 0.4, prefs.Heuristics[1].Weight)
	assert.Equal(t, 50, prefs.GlobalThreshold)
}

func TestStore_GetUserPreferences_KeepsRetiredEntries(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	old := &UserPreferences{
		UserID:          "u1",
		GlobalThreshold: DefaultThreshold,
		Heuristics: []HeuristicPreference{
			{ID: "alpha", Enabled: true, Weight: 0.8},
			{ID: "beta", Enabled: true, Weight: 0.4},
			{ID: "long_gone", Enabled: true, Weight: 0.9},
		},
	}
	require.NoError(t, backend.Save(ctx, "u1", old))

	store := NewStore(testCatalog(), backend)
	prefs, err := store.GetUserPreferences(ctx, "u1")
	require.NoError(t, err)

	require.Len(t, prefs.Heuristics, 3)
	assert.Equal(t, "long_gone", prefs.Heuristics[2].ID)
}

func TestStore_UpdateHeuristic(t *testing.T) {
	store := NewStore(testCatalog(), NewMemoryBackend())
	ctx := context.Background()

	enabled := false
	weight := 0.25
	prefs, err := store.UpdateHeuristic(ctx, "u1", "alpha", HeuristicUpdate{
		Enabled: &enabled,
		Weight:  &weight,
		ConfigOptions: map[string]any{
			"extra": "on",
		},
	})
	require.NoError(t, err)

	h := prefs.Heuristics[0]
	assert.False(t, h.Enabled)
	assert.Equal(t, 0.25, h.Weight)
	// Merged, not replaced.
	assert.Equal(t, 2.5, h.ConfigOptions["limit"])
	assert.Equal(t, "on", h.ConfigOptions["extra"])
	assert.False(t, prefs.LastUpdated.IsZero())
}

func TestStore_UpdateHeuristic_PartialUpdateLeavesOtherFields(t *testing.T) {
	store := NewStore(testCatalog(), NewMemoryBackend())
	ctx := context.Background()

	weight := 0.5
	prefs, err := store.UpdateHeuristic(ctx, "u1", "alpha", HeuristicUpdate{Weight: &weight})
	require.NoError(t, err)

	h := prefs.Heuristics[0]
	assert.True(t, h.Enabled)
	assert.Equal(t, 0.5, h.Weight)
	assert.Equal(t, 2.5, h.ConfigOptions["limit"])
}

func TestStore_UpdateHeuristic_ClampsWeight(t *testing.T) {
	store := NewStore(testCatalog(), NewMemoryBackend())
	ctx := context.Background()

	tests := []struct {
		name     string
		weight   float64
		expected float64
	}{
		{name: "negative clamps to zero", weight: -0.5, expected: 0},
		{name: "above one clamps to one", weight: 1.7, expected: 1},
		{name: "in range passes through", weight: 0.33, expected: 0.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs, err := store.UpdateHeuristic(ctx, "u1", "alpha", HeuristicUpdate{Weight: &tt.weight})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, prefs.Heuristics[0].Weight)
		})
	}
}

func TestStore_UpdateHeuristic_UnknownID(t *testing.T) {
	store := NewStore(testCatalog(), NewMemoryBackend())
	ctx := context.Background()

	before, err := store.GetUserPreferences(ctx, "u1")
	require.NoError(t, err)

	enabled := false
	_, err = store.UpdateHeuristic(ctx, "u1", "no_such_heuristic", HeuristicUpdate{Enabled: &enabled})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	after, err := store.GetUserPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before.Heuristics, after.Heuristics)
}

func TestStore_UpdateGlobalThreshold(t *testing.T) {
	store := NewStore(testCatalog(), NewMemoryBackend())
	ctx := context.Background()

	tests := []struct {
		name      string
		threshold int
		expected  int
	}{
		{name: "in range", threshold: 42, expected: 42},
		{name: "negative clamps to zero", threshold: -10, expected: 0},
		{name: "above hundred clamps to hundred", threshold: 250, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs, err := store.UpdateGlobalThreshold(ctx, "u1", tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, prefs.GlobalThreshold)
		})
	}
}

func TestStore_ResetToDefaults(t *testing.T) {
	store := NewStore(testCatalog(), NewMemoryBackend())
	ctx := context.Background()

	enabled := false
	_, err := store.UpdateHeuristic(ctx, "u1", "alpha", HeuristicUpdate{Enabled: &enabled})
	require.NoError(t, err)
	_, err = store.UpdateGlobalThreshold(ctx, "u1", 10)
	require.NoError(t, err)

	prefs, err := store.ResetToDefaults(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, DefaultThreshold, prefs.GlobalThreshold)
	assert.True(t, prefs.Heuristics[0].Enabled)
	assert.Equal(t, 0.8, prefs.Heuristics[0].Weight)

	// Resetting an already-default record is a no-op in content.
	again, err := store.ResetToDefaults(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, prefs.Heuristics, again.Heuristics)
	assert.Equal(t, prefs.GlobalThreshold, again.GlobalThreshold)
}

func TestStore_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	store := NewStore(testCatalog(), NewMemoryBackend())
	ctx := context.Background()

	const updates = 50
	var wg sync.WaitGroup
	for i := 0; i < updates; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				w := 0.5
				_, err := store.UpdateHeuristic(ctx, "u1", "alpha", HeuristicUpdate{Weight: &w})
				assert.NoError(t, err)
			} else {
				_, err := store.UpdateGlobalThreshold(ctx, "u1", 40)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	prefs, err := store.GetUserPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0.5, prefs.Heuristics[0].Weight)
	assert.Equal(t, 40, prefs.GlobalThreshold)
}

// failingBackend errors on every operation.
type failingBackend struct{}

func (failingBackend) Load(context.Context, string) (*UserPreferences, error) {
	return nil, errors.New("disk on fire")
}

func (failingBackend) Save(context.Context, string, *UserPreferences) error {
	return errors.New("disk on fire")
}

func TestStore_BackendFailureSurfacesAsPersistenceError(t *testing.T) {
	store := NewStore(testCatalog(), failingBackend{})

	_, err := store.GetUserPreferences(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, apperrors.IsPersistence(err))
}
