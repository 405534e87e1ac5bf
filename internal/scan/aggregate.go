package scan

// Aggregate folds the three buckets into the total signed risk delta and the
// "increased" flag.
//
// Sign convention: an added file contributes its full score, a removed file
// subtracts its full score, and a modified file contributes its net score.
// Deleting a risky file reduces the total, and a file that only lost risky
// behaviors reads as a decrease.
//
// RiskIncreased is keyed off per-item directional deltas, not the aggregate
// sign: it is true when any added file scores above zero or any modified
// file has a positive net, and removed-file reductions alone never set it.
// The flag can therefore disagree with the sign of the total.
func Aggregate(added, removed, modified []FileEntry) (totalRiskDelta int, riskIncreased bool) {
	for _, f := range added {
		totalRiskDelta += f.RiskScore
		if f.RiskScore > 0 {
			riskIncreased = true
		}
	}
	for _, f := range removed {
		totalRiskDelta -= f.RiskScore
	}
	for _, f := range modified {
		totalRiskDelta += f.RiskScore
		if f.RiskScore > 0 {
			riskIncreased = true
		}
	}
	return totalRiskDelta, riskIncreased
}

// AggregateBehaviors sums the derived scores of a bare finding list, for
// payloads that carry a flat array instead of diff buckets.
func AggregateBehaviors(behaviors []Behavior) int {
	total := 0
	for _, b := range behaviors {
		total += b.RiskScore
	}
	return total
}
