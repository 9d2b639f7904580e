// Package catalog holds the static registry of available heuristics. The
// catalog is built once at startup and never mutated; per-user tunables live
// in the preferences package.
package catalog

// Heuristic IDs. These are the stable keys shared by the catalog, user
// preferences and the analyzer registry.
const (
	PriceAnomaly  = "price_anomaly"
	SellerHistory = "seller_history"
	ImageQuality  = "image_quality"
	ReviewPattern = "review_pattern"
	CrossPlatform = "cross_platform"
)

// Descriptor is an immutable catalog entry describing one heuristic: its
// identity, default weight, default enablement and heuristic-specific default
// config options.
type Descriptor struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Description          string         `json:"description"`
	Category             string         `json:"category"`
	DefaultEnabled       bool           `json:"default_enabled"`
	DefaultWeight        float64        `json:"default_weight"`
	DefaultConfigOptions map[string]any `json:"default_config_options"`
}

// Catalog is an ordered, read-only collection of descriptors. Order is the
// registration order and is a stable contract for reporting.
type Catalog struct {
	descriptors []Descriptor
	byID        map[string]int
}

// New builds a catalog from the given descriptors. Later duplicates of an ID
// are ignored; the first registration wins.
func New(descriptors []Descriptor) *Catalog {
	c := &Catalog{
		descriptors: make([]Descriptor, 0, len(descriptors)),
		byID:        make(map[string]int, len(descriptors)),
	}
	for _, d := range descriptors {
		if _, exists := c.byID[d.ID]; exists {
			continue
		}
		c.byID[d.ID] = len(c.descriptors)
		c.descriptors = append(c.descriptors, d)
	}
	return c
}

// Default returns the built-in heuristic catalog.
func Default() *Catalog {
	return New([]Descriptor{
		{
			ID:             PriceAnomaly,
			Name:           "Price Anomaly",
			Description:    "Flags listings priced far below their market or original price",
			Category:       "pricing",
			DefaultEnabled: true,
			DefaultWeight:  0.8,
			DefaultConfigOptions: map[string]any{
				"zScoreThreshold": 2.5,
				"minMarketRatio":  0.4,
			},
		},
		{
			ID:             SellerHistory,
			Name:           "Seller History",
			Description:    "Flags young, unrated or low-rated seller accounts",
			Category:       "seller",
			DefaultEnabled: true,
			DefaultWeight:  0.7,
			DefaultConfigOptions: map[string]any{
				"minAccountAgeDays": 30,
				"minRating":         3.0,
			},
		},
		{
			ID:             ImageQuality,
			Name:           "Image Quality",
			Description:    "Flags listings with too few or duplicated product images",
			Category:       "media",
			DefaultEnabled: true,
			DefaultWeight:  0.5,
			DefaultConfigOptions: map[string]any{
				"minImages": 2,
				"action":    "flag",
			},
		},
		{
			ID:             ReviewPattern,
			Name:           "Review Pattern",
			Description:    "Flags burst-posted or duplicated customer reviews",
			Category:       "reviews",
			DefaultEnabled: true,
			DefaultWeight:  0.6,
			DefaultConfigOptions: map[string]any{
				"burstWindowDays": 7,
				"duplicateRatio":  0.5,
			},
		},
		{
			ID:             CrossPlatform,
			Name:           "Cross-Platform Verification",
			Description:    "Compares the listing against the same item on other platforms",
			Category:       "verification",
			DefaultEnabled: false,
			DefaultWeight:  0.4,
			DefaultConfigOptions: map[string]any{
				"minMatches": 1,
			},
		},
	})
}

// Descriptors returns a copy of the catalog entries in registration order.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

// Get returns the descriptor for the given heuristic ID.
func (c *Catalog) Get(id string) (Descriptor, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Descriptor{}, false
	}
	return c.descriptors[idx], true
}

// Has reports whether the catalog contains the given heuristic ID.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of registered descriptors.
func (c *Catalog) Len() int {
	return len(c.descriptors)
}
