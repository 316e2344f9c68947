package model

import "github.com/shopspring/decimal"

// RuleType discriminates matching strategies.
type RuleType string

const (
	RuleTypeOrder     RuleType = "order"
	RuleTypeCustomer  RuleType = "customer"
	RuleTypeTimeRange RuleType = "time_range"
)

// RuleBase carries the fields common to every rule variant.
type RuleBase struct {
	ID       string
	Name     string
	Priority int // lower runs first
	Enabled  bool
}

// Rule is one matching strategy. Each variant carries only the criteria
// relevant to that strategy, so an order rule cannot be constructed with
// a date window and a customer rule cannot carry order criteria.
type Rule interface {
	Base() RuleBase
	Type() RuleType
}

// OrderRule matches on exact (normalized) order number equality plus
// amount tolerance. A pair passes the amount check when it is within
// either the absolute or the percentage bound, whichever is looser.
type OrderRule struct {
	RuleBase
	AmountTolerance    decimal.Decimal // absolute
	AmountTolerancePct decimal.Decimal // relative, in percent
}

// Base returns the common rule fields.
func (r OrderRule) Base() RuleBase { return r.RuleBase }

// Type returns RuleTypeOrder.
func (r OrderRule) Type() RuleType { return RuleTypeOrder }

// CustomerRule matches on normalized customer-name equality or
// similarity plus amount tolerance.
type CustomerRule struct {
	RuleBase
	AmountTolerance         decimal.Decimal
	AmountTolerancePct      decimal.Decimal
	NameSimilarityThreshold float64 // token overlap ratio in [0,1]
}

// Base returns the common rule fields.
func (r CustomerRule) Base() RuleBase { return r.RuleBase }

// Type returns RuleTypeCustomer.
func (r CustomerRule) Type() RuleType { return RuleTypeCustomer }

// TimeRangeRule matches same-amount transactions within a date window
// when neither order nor customer line up. The amount check is a hard
// requirement for this variant.
type TimeRangeRule struct {
	RuleBase
	AmountTolerance    decimal.Decimal
	AmountTolerancePct decimal.Decimal
	DateToleranceDays  int
}

// Base returns the common rule fields.
func (r TimeRangeRule) Base() RuleBase { return r.RuleBase }

// Type returns RuleTypeTimeRange.
func (r TimeRangeRule) Type() RuleType { return RuleTypeTimeRange }
