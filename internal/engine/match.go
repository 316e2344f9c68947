package engine

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/slideboard-dev/reconcile/internal/model"
)

// Verdict classifies a matcher decision for one candidate pair.
type Verdict int

const (
	VerdictReject Verdict = iota
	VerdictSuspicious
	VerdictAccept
)

// Outcome is the matcher's decision for one candidate pair. Score is
// always in [0,1]; Reasons is populated only for suspicious outcomes.
type Outcome struct {
	Verdict Verdict
	Score   float64
	Reasons []string
}

// Suspicion reasons surfaced to reviewers.
const (
	ReasonAmountMismatchOnOrder   = "amount mismatch on matched order"
	ReasonDateOutsideWindow       = "date outside preferred window"
	ReasonNameNotExact            = "customer name similar but not exact"
	ReasonAmountOutsideForMatched = "amount outside tolerance for matched customer"
	ReasonBelowAcceptFloor        = "score below acceptance threshold"
)

// matcher evaluates one rule against candidate pairs.
type matcher struct {
	opts Options
}

func (m matcher) evaluate(rule model.Rule, sys, ext model.Item) Outcome {
	switch r := rule.(type) {
	case model.OrderRule:
		return m.evalOrder(r, sys, ext)
	case model.CustomerRule:
		return m.evalCustomer(r, sys, ext)
	case model.TimeRangeRule:
		return m.evalTimeRange(r, sys, ext)
	default:
		return Outcome{Verdict: VerdictReject}
	}
}

// evalOrder requires non-empty, normalized-equal order numbers. Within
// amount tolerance the pair is accepted; outside it the order identity
// is still strong evidence, so the pair is flagged rather than dropped.
func (m matcher) evalOrder(r model.OrderRule, sys, ext model.Item) Outcome {
	sysNo := NormalizeOrderNo(sys.OrderNo)
	extNo := NormalizeOrderNo(ext.OrderNo)
	if sysNo == "" || extNo == "" || sysNo != extNo {
		return Outcome{Verdict: VerdictReject}
	}

	score := 1 - amountDiffRatio(sys.Amount, ext.Amount)
	if amountWithin(sys.Amount, ext.Amount, r.AmountTolerance, r.AmountTolerancePct) {
		return m.gateAccept(score)
	}
	return Outcome{
		Verdict: VerdictSuspicious,
		Score:   clampScore(score),
		Reasons: []string{ReasonAmountMismatchOnOrder},
	}
}

// evalCustomer checks normalized-name equality first, then similarity.
// Soft failures on one dimension (inexact name, out-of-tolerance
// amount) are surfaced as suspicious; pairs whose combined score falls
// below the suspicion floor are rejected outright.
func (m matcher) evalCustomer(r model.CustomerRule, sys, ext model.Item) Outcome {
	sysName := NormalizeName(sys.CustomerName)
	extName := NormalizeName(ext.CustomerName)
	if sysName == "" || extName == "" {
		return Outcome{Verdict: VerdictReject}
	}

	exact := sysName == extName
	sim := 1.0
	if !exact {
		sim = tokenOverlap(sysName, extName)
	}

	amountOK := amountWithin(sys.Amount, ext.Amount, r.AmountTolerance, r.AmountTolerancePct)
	score := 0.5*sim + 0.5*(1-amountDiffRatio(sys.Amount, ext.Amount))

	switch {
	case exact && amountOK:
		return m.gateAccept(score)
	case exact:
		return m.gateSuspicious(score, ReasonAmountOutsideForMatched)
	case sim >= r.NameSimilarityThreshold && amountOK:
		return m.gateSuspicious(score, ReasonNameNotExact)
	case sim >= r.NameSimilarityThreshold:
		return m.gateSuspicious(score, ReasonNameNotExact, ReasonAmountOutsideForMatched)
	default:
		return Outcome{Verdict: VerdictReject}
	}
}

// evalTimeRange requires the amount to be within tolerance. Dates
// within the configured window are accepted; up to twice the window the
// pair is flagged for review; beyond that it is rejected.
func (m matcher) evalTimeRange(r model.TimeRangeRule, sys, ext model.Item) Outcome {
	if !amountWithin(sys.Amount, ext.Amount, r.AmountTolerance, r.AmountTolerancePct) {
		return Outcome{Verdict: VerdictReject}
	}

	days := math.Abs(sys.Date.Sub(ext.Date).Hours()) / 24
	window := float64(r.DateToleranceDays)

	switch {
	case days <= window:
		score := 1.0
		if window > 0 {
			score = 1 - 0.1*(days/window) // stays above the acceptance floor
		}
		return m.gateAccept(score)
	case window > 0 && days <= 2*window:
		over := (days - window) / window
		score := 0.85 - 0.35*over // lands in [0.5, 0.85)
		return Outcome{
			Verdict: VerdictSuspicious,
			Score:   clampScore(score),
			Reasons: []string{ReasonDateOutsideWindow},
		}
	default:
		return Outcome{Verdict: VerdictReject}
	}
}

// gateAccept enforces the engine-wide acceptance floor: a would-be
// accept scoring below it is surfaced as suspicious instead of matched.
func (m matcher) gateAccept(score float64) Outcome {
	score = clampScore(score)
	if score >= m.opts.AcceptFloor {
		return Outcome{Verdict: VerdictAccept, Score: score}
	}
	if score >= m.opts.SuspicionFloor {
		return Outcome{
			Verdict: VerdictSuspicious,
			Score:   score,
			Reasons: []string{ReasonBelowAcceptFloor},
		}
	}
	return Outcome{Verdict: VerdictReject}
}

// gateSuspicious drops near-misses that score below the suspicion
// floor; everything above it is kept for review.
func (m matcher) gateSuspicious(score float64, reasons ...string) Outcome {
	score = clampScore(score)
	if score < m.opts.SuspicionFloor {
		return Outcome{Verdict: VerdictReject}
	}
	return Outcome{Verdict: VerdictSuspicious, Score: score, Reasons: reasons}
}

// NormalizeOrderNo upper-cases an order number and strips all whitespace.
func NormalizeOrderNo(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// NormalizeName lower-cases a customer name and collapses whitespace runs.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// tokenOverlap returns the Jaccard ratio of the two names' token sets.
func tokenOverlap(a, b string) float64 {
	aSet := make(map[string]bool)
	for _, t := range strings.Fields(a) {
		aSet[t] = true
	}
	bSet := make(map[string]bool)
	for _, t := range strings.Fields(b) {
		bSet[t] = true
	}
	if len(aSet) == 0 || len(bSet) == 0 {
		return 0
	}

	shared := 0
	for t := range aSet {
		if bSet[t] {
			shared++
		}
	}
	union := len(aSet) + len(bSet) - shared
	return float64(shared) / float64(union)
}

// amountWithin reports whether the pair passes either the absolute or
// the percentage bound, whichever is looser. The percentage bound is
// relative to the system amount.
func amountWithin(sys, ext, tolerance, tolerancePct decimal.Decimal) bool {
	diff := sys.Sub(ext).Abs()
	if diff.LessThanOrEqual(tolerance) {
		return true
	}
	if tolerancePct.IsPositive() && sys.IsPositive() {
		pct := diff.Div(sys).Mul(decimal.NewFromInt(100))
		return pct.LessThanOrEqual(tolerancePct)
	}
	return false
}

// amountDiffRatio is the absolute amount difference relative to the
// system amount, clamped to [0,1].
func amountDiffRatio(sys, ext decimal.Decimal) float64 {
	diff := sys.Sub(ext).Abs()
	if diff.IsZero() {
		return 0
	}
	if !sys.IsPositive() {
		return 1
	}
	ratio, _ := diff.Div(sys).Float64()
	return math.Min(ratio, 1)
}

func clampScore(s float64) float64 {
	return math.Max(0, math.Min(1, s))
}
