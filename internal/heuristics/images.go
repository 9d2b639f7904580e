package heuristics

import (
	"context"
	"fmt"

	"github.com/scamlens/scamlens/internal/catalog"
	"github.com/scamlens/scamlens/internal/types"
)

// ImageOptions are the typed config options for the image quality analyzer.
type ImageOptions struct {
	MinImages int
	// Action is a display hint for the caller ("flag" or "warn"); it does not
	// change the score.
	Action string
}

func parseImageOptions(opts map[string]any) ImageOptions {
	return ImageOptions{
		MinImages: intOption(opts, "minImages", 2),
		Action:    stringOption(opts, "action", "flag"),
	}
}

// ImageAnalyzer scores listings with too few or duplicated product images.
// Listings that carry no image data at all score neutral; the caller may
// simply not have captured the gallery.
type ImageAnalyzer struct{}

func (ImageAnalyzer) ID() string { return catalog.ImageQuality }

func (ImageAnalyzer) Analyze(_ context.Context, listing *types.Listing, opts map[string]any) (Score, error) {
	if len(listing.Images) == 0 {
		return Score{}, nil
	}
	cfg := parseImageOptions(opts)

	var score Score

	if len(listing.Images) < cfg.MinImages {
		score.Value += 0.4
		score.Findings = append(score.Findings,
			fmt.Sprintf("Listing has only %d image(s), expected at least %d", len(listing.Images), cfg.MinImages))
	}

	seen := make(map[string]int, len(listing.Images))
	for _, url := range listing.Images {
		seen[url]++
	}
	for url, count := range seen {
		if count > 1 && url != "" {
			score.Value += 0.3
			score.Findings = append(score.Findings,
				fmt.Sprintf("Listing reuses the same image %d times", count))
			break
		}
	}

	score.Value = clamp01(score.Value)
	return score, nil
}
