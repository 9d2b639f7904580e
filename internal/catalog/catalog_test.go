package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, 5, c.Len())

	// Registration order is a stable contract.
	ids := make([]string, 0, c.Len())
	for _, d := range c.Descriptors() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{PriceAnomaly, SellerHistory, ImageQuality, ReviewPattern, CrossPlatform}, ids)

	price, ok := c.Get(PriceAnomaly)
	require.True(t, ok)
	assert.True(t, price.DefaultEnabled)
	assert.Equal(t, 0.8, price.DefaultWeight)
	assert.Equal(t, 2.5, price.DefaultConfigOptions["zScoreThreshold"])

	cross, ok := c.Get(CrossPlatform)
	require.True(t, ok)
	assert.False(t, cross.DefaultEnabled)
}

func TestNew_FirstRegistrationWins(t *testing.T) {
	c := New([]Descriptor{
		{ID: "dup", Name: "first", DefaultWeight: 0.9},
		{ID: "dup", Name: "second", DefaultWeight: 0.1},
		{ID: "other", Name: "other"},
	})

	assert.Equal(t, 2, c.Len())
	d, ok := c.Get("dup")
	require.True(t, ok)
	assert.Equal(t, "first", d.Name)
}

func TestCatalog_DescriptorsReturnsCopy(t *testing.T) {
	c := Default()

	ds := c.Descriptors()
	ds[0].Name = "tampered"

	fresh, ok := c.Get(ds[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "tampered", fresh.Name)
}

func TestCatalog_Has(t *testing.T) {
	c := Default()
	assert.True(t, c.Has(SellerHistory))
	assert.False(t, c.Has("no_such_heuristic"))
}
