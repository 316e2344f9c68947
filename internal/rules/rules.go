// Package rules loads matching rule sets from YAML. There is no
// implicit rule registry: every run receives the rule list its caller
// loaded and passed in.
package rules

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/slideboard-dev/reconcile/internal/model"
)

// Record is one rule as written in rules.yaml, before variant
// construction. Criteria are decoded loosely; Build enforces that each
// record carries only the criteria its type allows.
type Record struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Priority int    `yaml:"priority"`
	Enabled  bool   `yaml:"enabled"`

	AmountTolerance         string   `yaml:"amount_tolerance,omitempty"`
	AmountTolerancePct      string   `yaml:"amount_tolerance_pct,omitempty"`
	NameSimilarityThreshold *float64 `yaml:"name_similarity_threshold,omitempty"`
	DateToleranceDays       *int     `yaml:"date_tolerance_days,omitempty"`
}

// File is the top-level rules.yaml document.
type File struct {
	Rules []Record `yaml:"rules"`
}

// Load reads a rules.yaml file and builds the typed rule set. Records
// that cannot be constructed are reported per record, never fatal.
func Load(path string) ([]model.Rule, []model.RejectedRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading rules: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing rules: %w", err)
	}

	built, rejected := Build(f.Rules)
	return built, rejected, nil
}

// Build converts records into typed rule variants. Enabled records that
// fail construction are reported in the second return value; disabled
// records that fail are dropped, since they cannot affect a run.
func Build(records []Record) ([]model.Rule, []model.RejectedRule) {
	var built []model.Rule
	var rejected []model.RejectedRule

	for _, rec := range records {
		rule, err := buildRecord(rec)
		if err != nil {
			if rec.Enabled {
				rejected = append(rejected, model.RejectedRule{
					RuleID: rec.ID,
					Name:   rec.Name,
					Reason: err.Error(),
				})
			}
			continue
		}
		built = append(built, rule)
	}

	return built, rejected
}

func buildRecord(rec Record) (model.Rule, error) {
	base := model.RuleBase{
		ID:       rec.ID,
		Name:     rec.Name,
		Priority: rec.Priority,
		Enabled:  rec.Enabled,
	}

	tolerance, err := parseTolerance(rec.AmountTolerance, "amount_tolerance")
	if err != nil {
		return nil, err
	}
	tolerancePct, err := parseTolerance(rec.AmountTolerancePct, "amount_tolerance_pct")
	if err != nil {
		return nil, err
	}

	switch model.RuleType(rec.Type) {
	case model.RuleTypeOrder:
		if rec.NameSimilarityThreshold != nil {
			return nil, fmt.Errorf("name_similarity_threshold is not valid for order rules")
		}
		if rec.DateToleranceDays != nil {
			return nil, fmt.Errorf("date_tolerance_days is not valid for order rules")
		}
		return model.OrderRule{
			RuleBase:           base,
			AmountTolerance:    tolerance,
			AmountTolerancePct: tolerancePct,
		}, nil

	case model.RuleTypeCustomer:
		if rec.DateToleranceDays != nil {
			return nil, fmt.Errorf("date_tolerance_days is not valid for customer rules")
		}
		if rec.NameSimilarityThreshold == nil {
			return nil, fmt.Errorf("customer rules require name_similarity_threshold")
		}
		return model.CustomerRule{
			RuleBase:                base,
			AmountTolerance:         tolerance,
			AmountTolerancePct:      tolerancePct,
			NameSimilarityThreshold: *rec.NameSimilarityThreshold,
		}, nil

	case model.RuleTypeTimeRange:
		if rec.NameSimilarityThreshold != nil {
			return nil, fmt.Errorf("name_similarity_threshold is not valid for time_range rules")
		}
		if rec.DateToleranceDays == nil {
			return nil, fmt.Errorf("time_range rules require date_tolerance_days")
		}
		return model.TimeRangeRule{
			RuleBase:           base,
			AmountTolerance:    tolerance,
			AmountTolerancePct: tolerancePct,
			DateToleranceDays:  *rec.DateToleranceDays,
		}, nil

	default:
		return nil, fmt.Errorf("unknown rule type %q", rec.Type)
	}
}

func parseTolerance(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}
