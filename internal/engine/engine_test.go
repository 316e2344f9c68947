package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slideboard-dev/reconcile/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sysItem(id, orderNo, name, amount string, date time.Time) model.Item {
	return model.Item{
		ID:           id,
		Source:       model.SourceSystem,
		OrderNo:      orderNo,
		CustomerName: name,
		Amount:       dec(amount),
		Date:         date,
	}
}

func extItem(id, orderNo, name, amount string, date time.Time) model.Item {
	return model.Item{
		ID:           id,
		Source:       model.SourceExternal,
		OrderNo:      orderNo,
		CustomerName: name,
		Amount:       dec(amount),
		Date:         date,
	}
}

func orderRule(id string, priority int, tolerance string) model.OrderRule {
	return model.OrderRule{
		RuleBase:        model.RuleBase{ID: id, Name: "order " + id, Priority: priority, Enabled: true},
		AmountTolerance: dec(tolerance),
	}
}

func timeRangeRule(id string, priority int, tolerance string, days int) model.TimeRangeRule {
	return model.TimeRangeRule{
		RuleBase:          model.RuleBase{ID: id, Name: "time " + id, Priority: priority, Enabled: true},
		AmountTolerance:   dec(tolerance),
		DateToleranceDays: days,
	}
}

func customerRule(id string, priority int, tolerance string, threshold float64) model.CustomerRule {
	return model.CustomerRule{
		RuleBase:                model.RuleBase{ID: id, Name: "customer " + id, Priority: priority, Enabled: true},
		AmountTolerance:         dec(tolerance),
		NameSimilarityThreshold: threshold,
	}
}

func TestExecute_OrderExactMatch(t *testing.T) {
	sys := []model.Item{sysItem("s1", "SO100", "Acme", "1000.00", day(2024, 1, 10))}
	ext := []model.Item{extItem("e1", "SO100", "Acme", "1000.00", day(2024, 1, 11))}

	res := Execute(sys, ext, []model.Rule{orderRule("r1", 1, "0")})

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "s1", res.Matched[0].System.ID)
	assert.Equal(t, "e1", res.Matched[0].External.ID)
	assert.Equal(t, "r1", res.Matched[0].RuleID)
	assert.Equal(t, 1.0, res.Matched[0].Score)
	assert.Empty(t, res.Flagged)
	assert.Empty(t, res.UnmatchedSystem)
	assert.Empty(t, res.UnmatchedExternal)
}

func TestExecute_OrderAmountMismatchFlagged(t *testing.T) {
	sys := []model.Item{sysItem("s1", "SO100", "Acme", "1000.00", day(2024, 1, 10))}
	ext := []model.Item{extItem("e1", "SO100", "Acme", "950.00", day(2024, 1, 11))}

	res := Execute(sys, ext, []model.Rule{orderRule("r1", 1, "10")})

	assert.Empty(t, res.Matched)
	require.Len(t, res.Flagged, 1)
	assert.Contains(t, res.Flagged[0].Reasons, ReasonAmountMismatchOnOrder)
	assert.Empty(t, res.UnmatchedSystem)
	assert.Empty(t, res.UnmatchedExternal)
}

func TestExecute_ToleranceBoundary(t *testing.T) {
	rule := orderRule("r1", 1, "5")

	within := Execute(
		[]model.Item{sysItem("s1", "SO1", "", "100.00", day(2024, 1, 1))},
		[]model.Item{extItem("e1", "SO1", "", "105.00", day(2024, 1, 1))},
		[]model.Rule{rule},
	)
	require.Len(t, within.Matched, 1, "difference of exactly 5.00 must match")

	outside := Execute(
		[]model.Item{sysItem("s1", "SO1", "", "100.00", day(2024, 1, 1))},
		[]model.Item{extItem("e1", "SO1", "", "105.01", day(2024, 1, 1))},
		[]model.Rule{rule},
	)
	assert.Empty(t, outside.Matched, "difference of 5.01 must not match")
	require.Len(t, outside.Flagged, 1)
	assert.Contains(t, outside.Flagged[0].Reasons, ReasonAmountMismatchOnOrder)
}

func TestExecute_NoCandidatesUnmatched(t *testing.T) {
	sys := []model.Item{sysItem("s1", "SO100", "Acme", "1000.00", day(2024, 1, 10))}
	ext := []model.Item{extItem("e1", "SO999", "Other Co", "42.00", day(2024, 6, 1))}

	res := Execute(sys, ext, []model.Rule{
		orderRule("r1", 1, "0"),
		customerRule("r2", 2, "0", 0.8),
		timeRangeRule("r3", 3, "0", 3),
	})

	require.Len(t, res.UnmatchedSystem, 1)
	require.Len(t, res.UnmatchedExternal, 1)
	assert.Equal(t, "s1", res.UnmatchedSystem[0].ID)
	assert.Equal(t, 0.0, res.Statistics.MatchRate)
}

func TestExecute_Determinism(t *testing.T) {
	sys := []model.Item{
		sysItem("s1", "SO1", "Alice Chen", "100.00", day(2024, 3, 1)),
		sysItem("s2", "", "Bob Lee", "250.00", day(2024, 3, 2)),
		sysItem("s3", "SO3", "Carol Wu", "75.50", day(2024, 3, 3)),
	}
	ext := []model.Item{
		extItem("e1", "", "Bob Lee", "250.00", day(2024, 3, 2)),
		extItem("e2", "SO1", "Alice Chen", "100.00", day(2024, 3, 1)),
		extItem("e3", "", "Carole Wu", "75.50", day(2024, 3, 4)),
	}
	rules := []model.Rule{
		orderRule("r1", 1, "0.01"),
		customerRule("r2", 2, "0.01", 0.5),
		timeRangeRule("r3", 3, "0", 2),
	}

	first := Execute(sys, ext, rules)
	second := Execute(sys, ext, rules)
	assert.Equal(t, first, second)
}

func TestExecute_PartitionCompleteness(t *testing.T) {
	sys := []model.Item{
		sysItem("s1", "SO1", "Alice", "100.00", day(2024, 3, 1)),
		sysItem("s2", "SO2", "Bob", "200.00", day(2024, 3, 2)),
		sysItem("s3", "", "Carol", "300.00", day(2024, 3, 3)),
		{ID: "s4", Source: model.SourceSystem, Amount: dec("10.00")}, // missing date
	}
	ext := []model.Item{
		extItem("e1", "SO1", "Alice", "100.00", day(2024, 3, 1)),
		extItem("e2", "SO2", "Bob", "260.00", day(2024, 3, 2)),
	}

	res := Execute(sys, ext, []model.Rule{orderRule("r1", 1, "0")})

	sysSeen := len(res.Matched) + len(res.Flagged) + len(res.UnmatchedSystem)
	extSeen := len(res.Matched) + len(res.Flagged) + len(res.UnmatchedExternal)
	require.Len(t, res.RejectedItems, 1)
	assert.Equal(t, len(sys)-1, sysSeen, "every valid system item lands in exactly one bucket")
	assert.Equal(t, len(ext), extSeen, "every valid external item lands in exactly one bucket")
}

func TestExecute_MalformedItemsRejectedNotUnmatched(t *testing.T) {
	sys := []model.Item{
		{ID: "s1", Source: model.SourceSystem, Amount: dec("-5.00"), Date: day(2024, 1, 1)},
		{ID: "", Source: model.SourceSystem, Amount: dec("5.00"), Date: day(2024, 1, 1)},
	}

	res := Execute(sys, nil, []model.Rule{orderRule("r1", 1, "0")})

	assert.Empty(t, res.UnmatchedSystem)
	require.Len(t, res.RejectedItems, 2)
	assert.Equal(t, "negative amount -5.00", res.RejectedItems[0].Reason)
	assert.Equal(t, "missing id", res.RejectedItems[1].Reason)
}

func TestExecute_InvalidRuleReportedRunProceeds(t *testing.T) {
	sys := []model.Item{sysItem("s1", "SO1", "Alice", "100.00", day(2024, 1, 1))}
	ext := []model.Item{extItem("e1", "SO1", "Alice", "100.00", day(2024, 1, 1))}

	bad := customerRule("r-bad", 1, "0", 0) // threshold outside (0,1]
	res := Execute(sys, ext, []model.Rule{bad, orderRule("r1", 2, "0")})

	require.Len(t, res.RejectedRules, 1)
	assert.Equal(t, "r-bad", res.RejectedRules[0].RuleID)
	require.Len(t, res.Matched, 1, "remaining valid rules still run")
}

func TestExecute_DisabledRuleSkippedSilently(t *testing.T) {
	disabled := model.OrderRule{
		RuleBase:        model.RuleBase{ID: "r-off", Name: "off", Priority: 1},
		AmountTolerance: dec("0"),
	}

	res := Execute(
		[]model.Item{sysItem("s1", "SO1", "", "100.00", day(2024, 1, 1))},
		[]model.Item{extItem("e1", "SO1", "", "100.00", day(2024, 1, 1))},
		[]model.Rule{disabled},
	)

	assert.Empty(t, res.Matched)
	assert.Empty(t, res.RejectedRules)
	assert.Len(t, res.UnmatchedSystem, 1)
}

func TestExecute_RulePriorityOrder(t *testing.T) {
	// Both rules could match the pair; the lower priority number wins.
	sys := []model.Item{sysItem("s1", "SO1", "Alice", "100.00", day(2024, 1, 1))}
	ext := []model.Item{extItem("e1", "SO1", "Alice", "100.00", day(2024, 1, 1))}

	res := Execute(sys, ext, []model.Rule{
		timeRangeRule("r-time", 5, "0", 1),
		orderRule("r-order", 1, "0"),
	})

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "r-order", res.Matched[0].RuleID)
}

func TestExecute_ProvisionalFlagOverriddenByCleanMatch(t *testing.T) {
	// The order rule flags s1/e1 (amount mismatch), but the later
	// time-range rule matches s1/e2 cleanly. The provisional flag must
	// not survive.
	sys := []model.Item{sysItem("s1", "SO1", "Alice", "100.00", day(2024, 1, 1))}
	ext := []model.Item{
		extItem("e1", "SO1", "Alice", "150.00", day(2024, 1, 1)),
		extItem("e2", "", "Unknown", "100.00", day(2024, 1, 2)),
	}

	res := Execute(sys, ext, []model.Rule{
		orderRule("r1", 1, "0"),
		timeRangeRule("r2", 2, "0", 2),
	})

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "e2", res.Matched[0].External.ID)
	assert.Equal(t, "r2", res.Matched[0].RuleID)
	assert.Empty(t, res.Flagged)
	require.Len(t, res.UnmatchedExternal, 1)
	assert.Equal(t, "e1", res.UnmatchedExternal[0].ID)
}

func TestExecute_FlagDroppedWhenExternalConsumed(t *testing.T) {
	// The order rule provisionally flags s2 against e1 (amount
	// mismatch). The later time-range rule cleanly matches s1 to e1, so
	// the provisional flag cannot be promoted and s2 ends up unmatched.
	sys := []model.Item{
		sysItem("s1", "", "Alice", "100.00", day(2024, 1, 1)),
		sysItem("s2", "SO1", "Alice", "180.00", day(2024, 1, 1)),
	}
	ext := []model.Item{extItem("e1", "SO1", "Alice", "100.00", day(2024, 1, 1))}

	res := Execute(sys, ext, []model.Rule{
		orderRule("r1", 1, "0"),
		timeRangeRule("r2", 2, "0", 1),
	})

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "s1", res.Matched[0].System.ID)
	assert.Equal(t, "r2", res.Matched[0].RuleID)
	assert.Empty(t, res.Flagged)
	require.Len(t, res.UnmatchedSystem, 1)
	assert.Equal(t, "s2", res.UnmatchedSystem[0].ID)
}

func TestExecute_TieBreakEarliestDate(t *testing.T) {
	sys := []model.Item{sysItem("s1", "SO1", "", "100.00", day(2024, 1, 5))}
	ext := []model.Item{
		extItem("e-late", "SO1", "", "100.00", day(2024, 1, 8)),
		extItem("e-early", "SO1", "", "100.00", day(2024, 1, 2)),
	}

	res := Execute(sys, ext, []model.Rule{orderRule("r1", 1, "0")})

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "e-early", res.Matched[0].External.ID)
}

func TestExecute_TieBreakInputOrder(t *testing.T) {
	sys := []model.Item{sysItem("s1", "SO1", "", "100.00", day(2024, 1, 5))}
	ext := []model.Item{
		extItem("e-first", "SO1", "", "100.00", day(2024, 1, 5)),
		extItem("e-second", "SO1", "", "100.00", day(2024, 1, 5)),
	}

	res := Execute(sys, ext, []model.Rule{orderRule("r1", 1, "0")})

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "e-first", res.Matched[0].External.ID)
}

func TestExecute_CustomerExactNameNormalized(t *testing.T) {
	sys := []model.Item{sysItem("s1", "", "  Alice   CHEN ", "100.00", day(2024, 1, 1))}
	ext := []model.Item{extItem("e1", "", "alice chen", "100.00", day(2024, 1, 2))}

	res := Execute(sys, ext, []model.Rule{customerRule("r1", 1, "0", 0.8)})

	require.Len(t, res.Matched, 1)
	assert.Equal(t, 1.0, res.Matched[0].Score)
}

func TestExecute_CustomerSimilarNameFlagged(t *testing.T) {
	sys := []model.Item{sysItem("s1", "", "John Smith", "100.00", day(2024, 1, 1))}
	ext := []model.Item{extItem("e1", "", "John Smith Jr", "100.00", day(2024, 1, 1))}

	res := Execute(sys, ext, []model.Rule{customerRule("r1", 1, "0", 0.6)})

	assert.Empty(t, res.Matched)
	require.Len(t, res.Flagged, 1)
	assert.Contains(t, res.Flagged[0].Reasons, ReasonNameNotExact)
}

func TestExecute_TimeRangeWindows(t *testing.T) {
	rule := timeRangeRule("r1", 1, "0", 2)

	within := Execute(
		[]model.Item{sysItem("s1", "", "", "500.00", day(2024, 1, 10))},
		[]model.Item{extItem("e1", "", "", "500.00", day(2024, 1, 12))},
		[]model.Rule{rule},
	)
	require.Len(t, within.Matched, 1)

	soft := Execute(
		[]model.Item{sysItem("s1", "", "", "500.00", day(2024, 1, 10))},
		[]model.Item{extItem("e1", "", "", "500.00", day(2024, 1, 14))},
		[]model.Rule{rule},
	)
	assert.Empty(t, soft.Matched)
	require.Len(t, soft.Flagged, 1)
	assert.Contains(t, soft.Flagged[0].Reasons, ReasonDateOutsideWindow)

	beyond := Execute(
		[]model.Item{sysItem("s1", "", "", "500.00", day(2024, 1, 10))},
		[]model.Item{extItem("e1", "", "", "500.00", day(2024, 1, 20))},
		[]model.Rule{rule},
	)
	assert.Empty(t, beyond.Matched)
	assert.Empty(t, beyond.Flagged)
	assert.Len(t, beyond.UnmatchedSystem, 1)
}

func TestExecute_TimeRangeAmountIsHardRequirement(t *testing.T) {
	res := Execute(
		[]model.Item{sysItem("s1", "", "", "500.00", day(2024, 1, 10))},
		[]model.Item{extItem("e1", "", "", "400.00", day(2024, 1, 10))},
		[]model.Rule{timeRangeRule("r1", 1, "0", 2)},
	)

	assert.Empty(t, res.Matched)
	assert.Empty(t, res.Flagged)
	assert.Len(t, res.UnmatchedSystem, 1)
}

func TestExecute_AcceptFloorDowngradesWeakMatch(t *testing.T) {
	// Within a very loose absolute tolerance, but the score (1 - 0.5)
	// falls below the acceptance floor, so the pair is flagged.
	res := Execute(
		[]model.Item{sysItem("s1", "SO1", "", "100.00", day(2024, 1, 1))},
		[]model.Item{extItem("e1", "SO1", "", "50.00", day(2024, 1, 1))},
		[]model.Rule{orderRule("r1", 1, "60")},
	)

	assert.Empty(t, res.Matched)
	require.Len(t, res.Flagged, 1)
	assert.Contains(t, res.Flagged[0].Reasons, ReasonBelowAcceptFloor)
	assert.InDelta(t, 0.5, res.Flagged[0].Score, 1e-9)
}
