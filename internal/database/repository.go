package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/scamlens/scamlens/internal/preferences"
)

// Repository handles database operations. It implements preferences.Backend
// so the preference store can run on sqlite.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Load returns the stored preference record for a user, or (nil, nil) when
// none exists.
func (r *Repository) Load(ctx context.Context, userID string) (*preferences.UserPreferences, error) {
	stmt, err := r.db.GetPreparedStatement("get_preferences")
	if err != nil {
		return nil, err
	}

	var raw string
	err = stmt.QueryRowContext(ctx, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}

	var prefs preferences.UserPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, fmt.Errorf("failed to decode preferences for user %s: %w", userID, err)
	}

	return &prefs, nil
}

// Save upserts the preference record for a user.
func (r *Repository) Save(ctx context.Context, userID string, prefs *preferences.UserPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	stmt, err := r.db.GetPreparedStatement("upsert_preferences")
	if err != nil {
		return err
	}

	if _, err := stmt.ExecContext(ctx, userID, string(raw), time.Now()); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	return nil
}

// SaveAnalysis persists one analysis outcome.
func (r *Repository) SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error {
	factors, err := json.Marshal(rec.RiskFactors)
	if err != nil {
		return fmt.Errorf("failed to encode risk factors: %w", err)
	}

	stmt, err := r.db.GetPreparedStatement("insert_analysis")
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		rec.ID, rec.UserID, rec.ListingTitle, rec.Probability, rec.RiskLevel, string(factors), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// RecentAnalyses returns the newest analyses for a user, most recent first.
func (r *Repository) RecentAnalyses(ctx context.Context, userID string, limit int) ([]AnalysisRecord, error) {
	stmt, err := r.db.GetPreparedStatement("get_analyses_by_user")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	records := make([]AnalysisRecord, 0, limit)
	for rows.Next() {
		var rec AnalysisRecord
		var factors string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ListingTitle, &rec.Probability, &rec.RiskLevel, &factors, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		if err := json.Unmarshal([]byte(factors), &rec.RiskFactors); err != nil {
			return nil, fmt.Errorf("failed to decode risk factors: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
