package assistant

// Trust levels used for badge colors.
const (
	TrustHigh   = "trust-high"
	TrustMedium = "trust-medium"
	TrustLow    = "trust-low"
)

// CalculateTrustScore rates a data point from 0 to 100: up to 40 for verified
// internal data, 30 for external corroboration, 20 for freshness and 10 for
// the absence of anomalies.
func CalculateTrustScore(internalVerified bool, externalSources, freshnessDays, anomalies int) int {
	score := 0
	if internalVerified {
		score += 40
	}
	score += min(max(externalSources, 0)*10, 30)

	switch {
	case freshnessDays <= 7:
		score += 20
	case freshnessDays <= 30:
		score += 15
	case freshnessDays <= 90:
		score += 10
	default:
		score += 5
	}

	score += max(10-max(anomalies, 0)*5, 0)
	return min(score, 100)
}

// TrustLevel buckets a score for display.
func TrustLevel(score int) string {
	switch {
	case score >= 80:
		return TrustHigh
	case score >= 60:
		return TrustMedium
	default:
		return TrustLow
	}
}

// TrustLabel is the human wording for a score.
func TrustLabel(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 80:
		return "Very Good"
	case score >= 70:
		return "Good"
	case score >= 60:
		return "Fair"
	default:
		return "Needs Review"
	}
}
