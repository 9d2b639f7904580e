package heuristics

import (
	"context"
	"fmt"

	"github.com/scamlens/scamlens/internal/catalog"
	"github.com/scamlens/scamlens/internal/types"
)

// CrossPlatformOptions are the typed config options for the cross-platform
// verification analyzer.
type CrossPlatformOptions struct {
	// MinMatches is the number of suspicious cross-platform matches required
	// before the price-clone finding fires.
	MinMatches int
}

func parseCrossPlatformOptions(opts map[string]any) CrossPlatformOptions {
	return CrossPlatformOptions{
		MinMatches: intOption(opts, "minMatches", 1),
	}
}

// CrossPlatformAnalyzer compares the listing against captures of the same
// item on other platforms. A listing priced at a fraction of the item's price
// elsewhere, or appearing under a different seller, is a clone signal.
// Listings without cross-platform data score neutral.
type CrossPlatformAnalyzer struct{}

func (CrossPlatformAnalyzer) ID() string { return catalog.CrossPlatform }

func (CrossPlatformAnalyzer) Analyze(_ context.Context, listing *types.Listing, opts map[string]any) (Score, error) {
	if len(listing.CrossListings) == 0 {
		return Score{}, nil
	}
	cfg := parseCrossPlatformOptions(opts)

	var score Score
	priceClones := 0
	var clonePlatform string
	for _, cl := range listing.CrossListings {
		if cl.Price > 0 && listing.Price > 0 && listing.Price < 0.5*cl.Price {
			priceClones++
			clonePlatform = cl.Platform
		}
	}
	if priceClones >= cfg.MinMatches && priceClones > 0 {
		score.Value += 0.7
		score.Findings = append(score.Findings,
			fmt.Sprintf("Listing is priced far below the same item on %s", clonePlatform))
	}

	for _, cl := range listing.CrossListings {
		if cl.SellerID != "" && listing.SellerID != "" && cl.SellerID != listing.SellerID {
			score.Value += 0.2
			score.Findings = append(score.Findings,
				fmt.Sprintf("Same listing appears under a different seller on %s", cl.Platform))
			break
		}
	}

	score.Value = clamp01(score.Value)
	return score, nil
}
