package database

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisRecord is one persisted analysis outcome, kept for the per-user
// history endpoint and re-analysis comparisons.
type AnalysisRecord struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	ListingTitle string    `json:"listing_title" db:"listing_title"`
	Probability  float64   `json:"probability" db:"probability"`
	RiskLevel    string    `json:"risk_level" db:"risk_level"`
	RiskFactors  []string  `json:"risk_factors" db:"risk_factors"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// NewAnalysisRecord creates an analysis record with a generated ID
func NewAnalysisRecord(userID, listingTitle string, probability float64, riskLevel string, riskFactors []string) *AnalysisRecord {
	return &AnalysisRecord{
		ID:           uuid.New().String(),
		UserID:       userID,
		ListingTitle: listingTitle,
		Probability:  probability,
		RiskLevel:    riskLevel,
		RiskFactors:  riskFactors,
		CreatedAt:    time.Now(),
	}
}
