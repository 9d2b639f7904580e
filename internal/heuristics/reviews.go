package heuristics

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/scamlens/scamlens/internal/catalog"
	"github.com/scamlens/scamlens/internal/types"
)

// ReviewOptions are the typed config options for the review pattern analyzer.
type ReviewOptions struct {
	BurstWindowDays int
	DuplicateRatio  float64
}

func parseReviewOptions(opts map[string]any) ReviewOptions {
	return ReviewOptions{
		BurstWindowDays: intOption(opts, "burstWindowDays", 7),
		DuplicateRatio:  floatOption(opts, "duplicateRatio", 0.5),
	}
}

// ReviewAnalyzer scores suspicious review patterns: duplicated review text,
// bursts of reviews posted inside a short window and uniform five-star walls.
type ReviewAnalyzer struct{}

func (ReviewAnalyzer) ID() string { return catalog.ReviewPattern }

func (ReviewAnalyzer) Analyze(_ context.Context, listing *types.Listing, opts map[string]any) (Score, error) {
	if len(listing.Reviews) == 0 {
		return Score{}, nil
	}
	cfg := parseReviewOptions(opts)
	reviews := listing.Reviews

	var score Score

	// Duplicate text detection: share of reviews whose normalized text has
	// already been seen.
	seen := make(map[string]bool, len(reviews))
	duplicates := 0
	for _, r := range reviews {
		text := strings.ToLower(strings.TrimSpace(r.Text))
		if text == "" {
			continue
		}
		if seen[text] {
			duplicates++
		}
		seen[text] = true
	}
	if len(reviews) > 1 {
		ratio := float64(duplicates) / float64(len(reviews))
		if ratio >= cfg.DuplicateRatio {
			score.Value += 0.5
			score.Findings = append(score.Findings,
				fmt.Sprintf("%d%% of reviews share identical text", int(math.Round(ratio*100))))
		}
	}

	// Burst detection: three or more reviews all posted within the window.
	if len(reviews) >= 3 {
		var earliest, latest time.Time
		dated := 0
		for _, r := range reviews {
			if r.PostedAt.IsZero() {
				continue
			}
			if dated == 0 || r.PostedAt.Before(earliest) {
				earliest = r.PostedAt
			}
			if dated == 0 || r.PostedAt.After(latest) {
				latest = r.PostedAt
			}
			dated++
		}
		window := time.Duration(cfg.BurstWindowDays) * 24 * time.Hour
		if dated >= 3 && latest.Sub(earliest) <= window {
			score.Value += 0.4
			score.Findings = append(score.Findings,
				fmt.Sprintf("%d reviews posted within %d days", dated, cfg.BurstWindowDays))
		}
	}

	// Uniform five-star walls are a mild signal on their own.
	if len(reviews) >= 5 {
		allFive := true
		for _, r := range reviews {
			if r.Rating < 5 {
				allFive = false
				break
			}
		}
		if allFive {
			score.Value += 0.2
			score.Findings = append(score.Findings,
				fmt.Sprintf("All %d reviews are five-star", len(reviews)))
		}
	}

	score.Value = clamp01(score.Value)
	return score, nil
}
