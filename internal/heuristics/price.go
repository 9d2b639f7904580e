package heuristics

import (
	"context"
	"fmt"
	"math"

	"github.com/scamlens/scamlens/internal/catalog"
	"github.com/scamlens/scamlens/internal/types"
)

// PriceOptions are the typed config options for the price anomaly analyzer.
type PriceOptions struct {
	// ZScoreThreshold is the number of deviation units (one unit = 20% of the
	// reference price) below reference at which the deep-discount finding is
	// added.
	ZScoreThreshold float64
	// MinMarketRatio is the price/reference ratio below which a listing is
	// considered suspiciously cheap.
	MinMarketRatio float64
}

func parsePriceOptions(opts map[string]any) PriceOptions {
	return PriceOptions{
		ZScoreThreshold: floatOption(opts, "zScoreThreshold", 2.5),
		MinMarketRatio:  floatOption(opts, "minMarketRatio", 0.4),
	}
}

// PriceAnalyzer scores how far a listing's price sits below its market or
// original price. A listing priced at a small fraction of the going rate is
// the strongest single scam signal the engine has.
type PriceAnalyzer struct{}

func (PriceAnalyzer) ID() string { return catalog.PriceAnomaly }

func (PriceAnalyzer) Analyze(_ context.Context, listing *types.Listing, opts map[string]any) (Score, error) {
	cfg := parsePriceOptions(opts)

	reference := listing.MarketPrice
	refName := "market"
	if reference <= 0 {
		reference = listing.OriginalPrice
		refName = "original"
	}
	if reference <= 0 || listing.Price <= 0 {
		// No reference price to compare against: insufficient data.
		return Score{}, nil
	}

	ratio := listing.Price / reference
	if ratio >= 1 {
		return Score{}, nil
	}

	var score Score
	percent := int(math.Round(ratio * 100))

	switch {
	case ratio < cfg.MinMarketRatio:
		score.Value = clamp01(1 - ratio)
		score.Findings = append(score.Findings,
			fmt.Sprintf("Price is suspiciously low (%d%% of %s price)", percent, refName))
	case ratio < 0.7:
		score.Value = 0.4
		score.Findings = append(score.Findings,
			fmt.Sprintf("Price is well below %s price (%d%%)", refName, percent))
	}

	// Deviation in 20%-of-reference units, a crude stand-in for a z-score
	// when no category price distribution is available.
	deviation := (reference - listing.Price) / (reference * 0.2)
	if deviation >= cfg.ZScoreThreshold {
		score.Findings = append(score.Findings,
			fmt.Sprintf("Price deviates %.1f units below %s price", deviation, refName))
	}

	return score, nil
}
