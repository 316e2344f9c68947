// Package review implements operator overrides on a finished
// reconciliation result: forcing a match, dissolving one, or clearing a
// flagged pair as normal. Operations transform the result value and
// recompute its statistics; they never re-run the engine.
package review

import (
	"fmt"

	"github.com/slideboard-dev/reconcile/internal/engine"
	"github.com/slideboard-dev/reconcile/internal/model"
)

// ManualRuleID marks pairs created by an operator rather than a rule.
const ManualRuleID = "manual"

// Audit log action names.
const (
	ActionManualMatch = "manual_match"
	ActionUnmatch     = "unmatch"
	ActionMarkNormal  = "mark_normal"
)

// ManualMatch force-pairs an unmatched system item with an unmatched
// external item. The pair is recorded with the manual rule ID and a
// score of 1.0.
func ManualMatch(res model.Result, systemID, externalID string) (model.Result, error) {
	si := indexByID(res.UnmatchedSystem, systemID)
	if si < 0 {
		return res, fmt.Errorf("system item %q is not in the unmatched list", systemID)
	}
	ei := indexByID(res.UnmatchedExternal, externalID)
	if ei < 0 {
		return res, fmt.Errorf("external item %q is not in the unmatched list", externalID)
	}

	pair := model.MatchedPair{
		System:   res.UnmatchedSystem[si],
		External: res.UnmatchedExternal[ei],
		RuleID:   ManualRuleID,
		Score:    1.0,
	}

	res.Matched = appendMatched(res.Matched, pair)
	res.UnmatchedSystem = removeItem(res.UnmatchedSystem, si)
	res.UnmatchedExternal = removeItem(res.UnmatchedExternal, ei)
	res.Statistics = engine.ComputeStatistics(res)
	return res, nil
}

// Unmatch dissolves a matched pair, returning both items to the end of
// their unmatched lists.
func Unmatch(res model.Result, systemID, externalID string) (model.Result, error) {
	pi := indexOfPair(res.Matched, systemID, externalID)
	if pi < 0 {
		return res, fmt.Errorf("no matched pair for system %q and external %q", systemID, externalID)
	}

	pair := res.Matched[pi]
	res.Matched = removeMatched(res.Matched, pi)
	res.UnmatchedSystem = appendItem(res.UnmatchedSystem, pair.System)
	res.UnmatchedExternal = appendItem(res.UnmatchedExternal, pair.External)
	res.Statistics = engine.ComputeStatistics(res)
	return res, nil
}

// MarkNormal clears a flagged pair after review, promoting it to a
// matched pair under the manual rule ID with its recorded score.
func MarkNormal(res model.Result, systemID, externalID string) (model.Result, error) {
	fi := -1
	for i, p := range res.Flagged {
		if p.System.ID == systemID && p.External.ID == externalID {
			fi = i
			break
		}
	}
	if fi < 0 {
		return res, fmt.Errorf("no flagged pair for system %q and external %q", systemID, externalID)
	}

	flagged := res.Flagged[fi]
	res.Matched = appendMatched(res.Matched, model.MatchedPair{
		System:   flagged.System,
		External: flagged.External,
		RuleID:   ManualRuleID,
		Score:    flagged.Score,
	})

	kept := make([]model.FlaggedPair, 0, len(res.Flagged)-1)
	kept = append(kept, res.Flagged[:fi]...)
	kept = append(kept, res.Flagged[fi+1:]...)
	res.Flagged = kept

	res.Statistics = engine.ComputeStatistics(res)
	return res, nil
}

func indexByID(items []model.Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func indexOfPair(pairs []model.MatchedPair, systemID, externalID string) int {
	for i, p := range pairs {
		if p.System.ID == systemID && p.External.ID == externalID {
			return i
		}
	}
	return -1
}

// The helpers below copy before editing so a caller's original result
// value is never mutated through shared slice backing.

func appendItem(items []model.Item, it model.Item) []model.Item {
	out := make([]model.Item, 0, len(items)+1)
	out = append(out, items...)
	return append(out, it)
}

func appendMatched(pairs []model.MatchedPair, p model.MatchedPair) []model.MatchedPair {
	out := make([]model.MatchedPair, 0, len(pairs)+1)
	out = append(out, pairs...)
	return append(out, p)
}

func removeItem(items []model.Item, i int) []model.Item {
	out := make([]model.Item, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

func removeMatched(pairs []model.MatchedPair, i int) []model.MatchedPair {
	out := make([]model.MatchedPair, 0, len(pairs)-1)
	out = append(out, pairs[:i]...)
	return append(out, pairs[i+1:]...)
}
