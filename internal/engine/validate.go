package engine

import (
	"fmt"
	"strings"

	"github.com/slideboard-dev/reconcile/internal/model"
)

// validateItem returns the reason an item must be excluded from
// matching, or "" when the item is well formed.
func validateItem(it model.Item, want model.Source) string {
	if it.ID == "" {
		return "missing id"
	}
	if it.Source != want {
		return fmt.Sprintf("source %q does not belong in the %s ledger", it.Source, want)
	}
	if it.Amount.IsNegative() {
		return fmt.Sprintf("negative amount %s", it.Amount.StringFixed(2))
	}
	if it.Date.IsZero() {
		return "missing date"
	}
	return ""
}

// validateRule returns the reasons an enabled rule must be excluded
// from the run. A rule with no violations participates.
func validateRule(r model.Rule) []string {
	var reasons []string

	base := r.Base()
	if base.ID == "" {
		reasons = append(reasons, "missing rule id")
	}
	if base.Name == "" {
		reasons = append(reasons, "missing rule name")
	}

	switch v := r.(type) {
	case model.OrderRule:
		if v.AmountTolerance.IsNegative() || v.AmountTolerancePct.IsNegative() {
			reasons = append(reasons, "amount tolerance must be non-negative")
		}
	case model.CustomerRule:
		if v.AmountTolerance.IsNegative() || v.AmountTolerancePct.IsNegative() {
			reasons = append(reasons, "amount tolerance must be non-negative")
		}
		if v.NameSimilarityThreshold <= 0 || v.NameSimilarityThreshold > 1 {
			reasons = append(reasons, "name similarity threshold must be in (0,1]")
		}
	case model.TimeRangeRule:
		if v.AmountTolerance.IsNegative() || v.AmountTolerancePct.IsNegative() {
			reasons = append(reasons, "amount tolerance must be non-negative")
		}
		if v.DateToleranceDays < 0 {
			reasons = append(reasons, "date tolerance days must be non-negative")
		}
	default:
		reasons = append(reasons, fmt.Sprintf("unknown rule type %q", r.Type()))
	}

	return reasons
}

// partitionRules splits the input into usable rules and rejects.
// Disabled rules are dropped silently; enabled rules failing validation
// are reported, never silently ignored.
func partitionRules(rules []model.Rule) ([]model.Rule, []model.RejectedRule) {
	var usable []model.Rule
	var rejected []model.RejectedRule
	for _, r := range rules {
		base := r.Base()
		if !base.Enabled {
			continue
		}
		if reasons := validateRule(r); len(reasons) > 0 {
			rejected = append(rejected, model.RejectedRule{
				RuleID: base.ID,
				Name:   base.Name,
				Reason: strings.Join(reasons, "; "),
			})
			continue
		}
		usable = append(usable, r)
	}
	return usable, rejected
}

// partitionItems splits the input into well-formed items and rejects.
func partitionItems(items []model.Item, want model.Source) ([]model.Item, []model.RejectedItem) {
	var valid []model.Item
	var rejected []model.RejectedItem
	for _, it := range items {
		if reason := validateItem(it, want); reason != "" {
			rejected = append(rejected, model.RejectedItem{Item: it, Reason: reason})
			continue
		}
		valid = append(valid, it)
	}
	return valid, rejected
}
