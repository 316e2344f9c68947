package engine

import (
	"github.com/shopspring/decimal"

	"github.com/slideboard-dev/reconcile/internal/model"
)

// ComputeStatistics derives the summary from a finished partition.
// Purely derived, no side effects; manual review re-runs it after
// editing a result. Matched amounts are summed over the system side;
// each pair's two amounts are within rule tolerance of each other, so
// either side is valid within that tolerance.
func ComputeStatistics(res model.Result) model.Statistics {
	totalMatched := decimal.Zero
	totalSystem := decimal.Zero
	totalExternal := decimal.Zero

	usage := make(map[string]int)
	var usageOrder []string
	for _, p := range res.Matched {
		totalMatched = totalMatched.Add(p.System.Amount)
		totalSystem = totalSystem.Add(p.System.Amount)
		totalExternal = totalExternal.Add(p.External.Amount)
		if _, seen := usage[p.RuleID]; !seen {
			usageOrder = append(usageOrder, p.RuleID)
		}
		usage[p.RuleID]++
	}
	for _, p := range res.Flagged {
		totalSystem = totalSystem.Add(p.System.Amount)
		totalExternal = totalExternal.Add(p.External.Amount)
	}
	for _, it := range res.UnmatchedSystem {
		totalSystem = totalSystem.Add(it.Amount)
	}
	for _, it := range res.UnmatchedExternal {
		totalExternal = totalExternal.Add(it.Amount)
	}

	ruleUsage := make([]model.RuleUsage, 0, len(usageOrder))
	for _, id := range usageOrder {
		ruleUsage = append(ruleUsage, model.RuleUsage{RuleID: id, Matches: usage[id]})
	}

	systemCount := len(res.Matched) + len(res.Flagged) + len(res.UnmatchedSystem)
	matchRate := 0.0
	if systemCount > 0 {
		matchRate = float64(len(res.Matched)) / float64(systemCount)
	}

	return model.Statistics{
		TotalMatchedAmount:  totalMatched,
		TotalSystemAmount:   totalSystem,
		TotalExternalAmount: totalExternal,
		AmountDifference:    totalSystem.Sub(totalExternal).Abs(),
		MatchRate:           matchRate,
		RuleUsage:           ruleUsage,
	}
}
