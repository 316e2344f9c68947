package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slideboard-dev/reconcile/internal/model"
)

// SettlementParser parses a counterparty settlement CSV export.
type SettlementParser struct{}

const (
	settlementDateFormat = "2006-01-02"
	settlementNumFields  = 8
	setColID             = 0
	setColOrderNo        = 1
	setColCustName       = 2
	setColAmount         = 3
	setColDate           = 4
	setColStatus         = 5
	setColPayMethod      = 6
	setColReferenceNo    = 7
)

// Format returns the parser name.
func (p *SettlementParser) Format() string { return "settlement" }

// Source returns the ledger this parser feeds.
func (p *SettlementParser) Source() model.Source { return model.SourceExternal }

// Parse reads a settlement export and returns items plus per-row rejects.
func (p *SettlementParser) Parse(r io.Reader) ([]model.Item, []RejectedRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = settlementNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading settlement CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil, nil
	}

	var items []model.Item
	var rejects []RejectedRow
	for i, rec := range records[1:] {
		line := i + 2
		item, err := parseSettlementRow(rec)
		if err != nil {
			rejects = append(rejects, RejectedRow{Line: line, Reason: err.Error()})
			continue
		}
		items = append(items, item)
	}
	return items, rejects, nil
}

func parseSettlementRow(rec []string) (model.Item, error) {
	amount, err := decimal.NewFromString(rec[setColAmount])
	if err != nil {
		return model.Item{}, fmt.Errorf("parsing amount %q: %w", rec[setColAmount], err)
	}

	date, err := time.Parse(settlementDateFormat, rec[setColDate])
	if err != nil {
		return model.Item{}, fmt.Errorf("parsing date %q: %w", rec[setColDate], err)
	}

	item := model.Item{
		ID:           rec[setColID],
		Source:       model.SourceExternal,
		OrderNo:      rec[setColOrderNo],
		CustomerName: rec[setColCustName],
		Amount:       amount,
		Date:         date,
		Status:       rec[setColStatus],
	}

	meta := make(map[string]string)
	if rec[setColPayMethod] != "" {
		meta["paymentMethod"] = rec[setColPayMethod]
	}
	if rec[setColReferenceNo] != "" {
		meta["referenceNo"] = rec[setColReferenceNo]
	}
	if len(meta) > 0 {
		item.Metadata = meta
	}
	return item, nil
}
