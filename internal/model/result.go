package model

import "github.com/shopspring/decimal"

// MatchedPair is an accepted pairing of one item from each ledger.
type MatchedPair struct {
	System   Item    `json:"system"`
	External Item    `json:"external"`
	RuleID   string  `json:"matchingRuleId"`
	Score    float64 `json:"matchingScore"`
}

// FlaggedPair is a candidate pairing that failed at least one
// strictness check and needs human review.
type FlaggedPair struct {
	System   Item     `json:"system"`
	External Item     `json:"external"`
	Reasons  []string `json:"suspiciousReasons"`
	Score    float64  `json:"matchingScore"`
}

// RejectedItem is a malformed item excluded before matching.
type RejectedItem struct {
	Item   Item   `json:"item"`
	Reason string `json:"reason"`
}

// RejectedRule is an enabled rule with incomplete or foreign criteria,
// excluded from the run.
type RejectedRule struct {
	RuleID string `json:"ruleId"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// RuleUsage counts how many matched pairs cite a rule.
type RuleUsage struct {
	RuleID  string `json:"ruleId"`
	Matches int    `json:"matches"`
}

// Statistics summarizes the final partition of a run.
type Statistics struct {
	TotalMatchedAmount  decimal.Decimal `json:"totalMatchedAmount"`
	TotalSystemAmount   decimal.Decimal `json:"totalSystemAmount"`
	TotalExternalAmount decimal.Decimal `json:"totalExternalAmount"`
	AmountDifference    decimal.Decimal `json:"amountDifference"`
	MatchRate           float64         `json:"matchRate"` // matched pairs / valid system items
	RuleUsage           []RuleUsage     `json:"ruleUsage"`
}

// Result is the sole output of a reconciliation run. Every valid input
// item appears in exactly one of a matched pair, a flagged pair, or the
// unmatched list for its ledger; malformed inputs appear only in
// RejectedItems.
type Result struct {
	Matched           []MatchedPair  `json:"matchedItems"`
	Flagged           []FlaggedPair  `json:"flaggedItems"`
	UnmatchedSystem   []Item         `json:"unmatchedSystemItems"`
	UnmatchedExternal []Item         `json:"unmatchedExternalItems"`
	RejectedItems     []RejectedItem `json:"rejectedItems,omitempty"`
	RejectedRules     []RejectedRule `json:"rejectedRules,omitempty"`
	Statistics        Statistics     `json:"statistics"`
}
