package types

import "time"

// Listing is the subject of an analysis: a marketplace listing as captured by
// the caller (page scrape, catalog browse, re-analysis job). Only Title,
// Description and Price are expected to be present; every other field is
// optional and its absence degrades the relevant heuristics to a neutral
// score instead of failing the analysis.
type Listing struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Price         float64        `json:"price"`
	OriginalPrice float64        `json:"original_price,omitempty"`
	MarketPrice   float64        `json:"market_price,omitempty"`
	Images        []string       `json:"images,omitempty"`
	SellerID      string         `json:"seller_id,omitempty"`
	CategoryID    string         `json:"category_id,omitempty"`
	Seller        *SellerInfo    `json:"seller,omitempty"`
	Reviews       []Review       `json:"reviews,omitempty"`
	CrossListings []CrossListing `json:"cross_listings,omitempty"`
}

// SellerInfo carries seller reputation data when the caller was able to
// resolve it.
type SellerInfo struct {
	AccountAgeDays int     `json:"account_age_days"`
	Rating         float64 `json:"rating"`
	RatingCount    int     `json:"rating_count"`
	CompletedSales int     `json:"completed_sales"`
}

// Review is a single customer review attached to the listing.
type Review struct {
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	Rating   float64   `json:"rating"`
	PostedAt time.Time `json:"posted_at"`
}

// CrossListing is the same item as observed on another platform, consumed by
// the cross-platform verification heuristic.
type CrossListing struct {
	Platform string  `json:"platform"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	SellerID string  `json:"seller_id,omitempty"`
}

// AnalyzeRequest represents the request structure for the analyze endpoint.
// UserID is optional; anonymous callers share the default preference profile.
type AnalyzeRequest struct {
	Listing Listing `json:"listing" binding:"required"`
	UserID  string  `json:"user_id,omitempty"`
}

// ThresholdRequest represents the request body for the global threshold endpoint.
type ThresholdRequest struct {
	Threshold int `json:"threshold"`
}
