// Package engine runs the enabled heuristics for a listing, combines their
// scores into a single probability using per-user weights and the global
// sensitivity threshold, and classifies the result into a risk band.
package engine

// RiskLevel is the discrete risk band derived from the final probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// HeuristicResult is the per-heuristic outcome of one analyze call. Disabled
// heuristics still appear with a zero score and empty findings so callers get
// a complete audit trail. Weight is a snapshot of the user's preference at
// call time.
type HeuristicResult struct {
	HeuristicID string   `json:"heuristic_id"`
	Name        string   `json:"name"`
	Score       float64  `json:"score"`
	Enabled     bool     `json:"enabled"`
	Weight      float64  `json:"weight"`
	Findings    []string `json:"findings"`
}

// AnalysisResult is the engine's output, owned by the caller.
type AnalysisResult struct {
	Probability      float64           `json:"probability"`
	RiskFactors      []string          `json:"risk_factors"`
	DetailedResults  []HeuristicResult `json:"detailed_results"`
	OverallRiskLevel RiskLevel         `json:"overall_risk_level"`
}
