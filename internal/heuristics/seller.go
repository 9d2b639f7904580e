package heuristics

import (
	"context"
	"fmt"

	"github.com/scamlens/scamlens/internal/catalog"
	"github.com/scamlens/scamlens/internal/types"
)

// SellerOptions are the typed config options for the seller history analyzer.
type SellerOptions struct {
	MinAccountAgeDays int
	MinRating         float64
}

func parseSellerOptions(opts map[string]any) SellerOptions {
	return SellerOptions{
		MinAccountAgeDays: intOption(opts, "minAccountAgeDays", 30),
		MinRating:         floatOption(opts, "minRating", 3.0),
	}
}

// SellerAnalyzer scores seller reputation signals: account age, rating and
// sales history. Listings without resolved seller data score neutral.
type SellerAnalyzer struct{}

func (SellerAnalyzer) ID() string { return catalog.SellerHistory }

func (SellerAnalyzer) Analyze(_ context.Context, listing *types.Listing, opts map[string]any) (Score, error) {
	if listing.Seller == nil {
		return Score{}, nil
	}
	cfg := parseSellerOptions(opts)
	seller := listing.Seller

	var score Score

	if seller.AccountAgeDays >= 0 && seller.AccountAgeDays < cfg.MinAccountAgeDays {
		score.Value += 0.4
		score.Findings = append(score.Findings,
			fmt.Sprintf("Seller account is only %d days old", seller.AccountAgeDays))
	}

	if seller.RatingCount > 0 && seller.Rating < cfg.MinRating {
		score.Value += 0.3
		score.Findings = append(score.Findings,
			fmt.Sprintf("Seller rating is %.1f, below the %.1f minimum", seller.Rating, cfg.MinRating))
	}

	if seller.RatingCount == 0 {
		score.Value += 0.2
		score.Findings = append(score.Findings, "Seller has no ratings yet")
	}

	if seller.CompletedSales == 0 {
		score.Value += 0.2
		score.Findings = append(score.Findings, "Seller has no completed sales")
	}

	score.Value = clamp01(score.Value)
	return score, nil
}
