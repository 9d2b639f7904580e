package engine

// Classify maps a probability in [0,1] to a risk band. Boundaries are
// inclusive on the lower bound and exclusive on the upper bound, except the
// final band which includes 1.0. The exact breakpoints are user-facing and
// anchored by regression tests:
//
//	[0.0, 0.3) LOW
//	[0.3, 0.6) MEDIUM
//	[0.6, 0.8) HIGH
//	[0.8, 1.0] CRITICAL
func Classify(probability float64) RiskLevel {
	switch {
	case probability < 0.3:
		return RiskLow
	case probability < 0.6:
		return RiskMedium
	case probability < 0.8:
		return RiskHigh
	default:
		return RiskCritical
	}
}
