// Package engine implements the transaction reconciliation core: a
// deterministic, rule-priority-ordered matching pass over two ledgers
// that partitions every item into matched, flagged, unmatched, or
// rejected. The pass is greedy by design; a globally optimal pairing
// (bipartite assignment) is a documented non-goal.
package engine

import (
	"sort"

	"github.com/slideboard-dev/reconcile/internal/model"
)

// Options carries the engine-wide score floors.
type Options struct {
	AcceptFloor    float64 // minimum score for a clean match
	SuspicionFloor float64 // minimum score to surface a near-miss for review
}

// DefaultOptions returns the standard score floors.
func DefaultOptions() Options {
	return Options{AcceptFloor: 0.85, SuspicionFloor: 0.5}
}

// Execute runs one reconciliation pass with the default options.
func Execute(systemItems, externalItems []model.Item, rules []model.Rule) model.Result {
	return ExecuteWithOptions(systemItems, externalItems, rules, DefaultOptions())
}

// ExecuteWithOptions runs one reconciliation pass. Malformed items and
// invalid enabled rules are filtered here and reported in the result,
// so callers need no separate ingestion filter. The pass owns private
// pools built from its inputs and retains no state, so concurrent runs
// need no coordination.
func ExecuteWithOptions(systemItems, externalItems []model.Item, rules []model.Rule, opts Options) model.Result {
	var res model.Result

	sysItems, sysRejects := partitionItems(systemItems, model.SourceSystem)
	extItems, extRejects := partitionItems(externalItems, model.SourceExternal)
	res.RejectedItems = append(sysRejects, extRejects...)

	usable, rejectedRules := partitionRules(rules)
	res.RejectedRules = rejectedRules

	// Stable sort keeps the input order of equal-priority rules
	// reproducible.
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Base().Priority < usable[j].Base().Priority
	})

	sysAlive := makeAlive(len(sysItems))
	extAlive := makeAlive(len(extItems))

	// Best suspicious candidate per system item, kept provisional: a
	// later rule may still produce a clean match for either participant.
	type provisional struct {
		extIdx  int
		score   float64
		reasons []string
	}
	flags := make(map[int]provisional)

	m := matcher{opts: opts}

	for _, rule := range usable {
		index := newCandidateIndex(rule, extItems, extAlive)

		for si := range sysItems {
			if !sysAlive[si] {
				continue
			}
			sys := sysItems[si]

			bestAccept, bestSusp := -1, -1
			var bestAcceptOut, bestSuspOut Outcome

			for _, ei := range index.candidates(sys) {
				if !extAlive[ei] {
					continue
				}
				out := m.evaluate(rule, sys, extItems[ei])
				switch out.Verdict {
				case VerdictAccept:
					if bestAccept < 0 || betterCandidate(out, extItems[ei], ei, bestAcceptOut, extItems[bestAccept], bestAccept) {
						bestAccept, bestAcceptOut = ei, out
					}
				case VerdictSuspicious:
					if bestSusp < 0 || betterCandidate(out, extItems[ei], ei, bestSuspOut, extItems[bestSusp], bestSusp) {
						bestSusp, bestSuspOut = ei, out
					}
				}
			}

			if bestAccept >= 0 {
				sysAlive[si] = false
				extAlive[bestAccept] = false
				res.Matched = append(res.Matched, model.MatchedPair{
					System:   sys,
					External: extItems[bestAccept],
					RuleID:   rule.Base().ID,
					Score:    bestAcceptOut.Score,
				})
				delete(flags, si)
				continue
			}

			if bestSusp >= 0 {
				if cur, ok := flags[si]; !ok || bestSuspOut.Score > cur.score {
					flags[si] = provisional{
						extIdx:  bestSusp,
						score:   bestSuspOut.Score,
						reasons: bestSuspOut.Reasons,
					}
				}
			}
		}
	}

	// Promote provisional flags whose participants were never cleanly
	// matched; participants leave the pools so they are not also
	// reported as unmatched. Promotion runs in system input order.
	for si := range sysItems {
		p, ok := flags[si]
		if !ok || !sysAlive[si] || !extAlive[p.extIdx] {
			continue
		}
		sysAlive[si] = false
		extAlive[p.extIdx] = false
		res.Flagged = append(res.Flagged, model.FlaggedPair{
			System:   sysItems[si],
			External: extItems[p.extIdx],
			Reasons:  p.reasons,
			Score:    p.score,
		})
	}

	for si, alive := range sysAlive {
		if alive {
			res.UnmatchedSystem = append(res.UnmatchedSystem, sysItems[si])
		}
	}
	for ei, alive := range extAlive {
		if alive {
			res.UnmatchedExternal = append(res.UnmatchedExternal, extItems[ei])
		}
	}

	res.Statistics = ComputeStatistics(res)
	return res
}

// betterCandidate orders accept/suspicious candidates: highest score
// first, then earliest external date, then input order. Never a hash
// iteration order.
func betterCandidate(out Outcome, ext model.Item, ei int, curOut Outcome, curExt model.Item, curEi int) bool {
	if out.Score != curOut.Score {
		return out.Score > curOut.Score
	}
	if !ext.Date.Equal(curExt.Date) {
		return ext.Date.Before(curExt.Date)
	}
	return ei < curEi
}

func makeAlive(n int) []bool {
	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}
	return alive
}
