package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slideboard-dev/reconcile/internal/model"
)

// SystemParser parses the system order/payment CSV export.
type SystemParser struct{}

const (
	systemDateFormat = "2006-01-02"
	systemNumFields  = 8
	sysColID         = 0
	sysColOrderNo    = 1
	sysColCustID     = 2
	sysColCustName   = 3
	sysColAmount     = 4
	sysColDate       = 5
	sysColStatus     = 6
	sysColPayMethod  = 7
)

// Format returns the parser name.
func (p *SystemParser) Format() string { return "system" }

// Source returns the ledger this parser feeds.
func (p *SystemParser) Source() model.Source { return model.SourceSystem }

// Parse reads the system export and returns items plus per-row rejects.
func (p *SystemParser) Parse(r io.Reader) ([]model.Item, []RejectedRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = systemNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading system CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil, nil
	}

	var items []model.Item
	var rejects []RejectedRow
	for i, rec := range records[1:] {
		line := i + 2
		item, err := parseSystemRow(rec)
		if err != nil {
			rejects = append(rejects, RejectedRow{Line: line, Reason: err.Error()})
			continue
		}
		items = append(items, item)
	}
	return items, rejects, nil
}

func parseSystemRow(rec []string) (model.Item, error) {
	amount, err := decimal.NewFromString(rec[sysColAmount])
	if err != nil {
		return model.Item{}, fmt.Errorf("parsing amount %q: %w", rec[sysColAmount], err)
	}

	date, err := time.Parse(systemDateFormat, rec[sysColDate])
	if err != nil {
		return model.Item{}, fmt.Errorf("parsing date %q: %w", rec[sysColDate], err)
	}

	item := model.Item{
		ID:           rec[sysColID],
		Source:       model.SourceSystem,
		OrderNo:      rec[sysColOrderNo],
		CustomerID:   rec[sysColCustID],
		CustomerName: rec[sysColCustName],
		Amount:       amount,
		Date:         date,
		Status:       rec[sysColStatus],
	}
	if rec[sysColPayMethod] != "" {
		item.Metadata = map[string]string{"paymentMethod": rec[sysColPayMethod]}
	}
	return item, nil
}
