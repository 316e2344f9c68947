package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which ledger an item came from.
type Source string

const (
	SourceSystem   Source = "system"
	SourceExternal Source = "external"
)

// Item is one normalized transaction from either ledger.
type Item struct {
	ID           string            `json:"id"`
	Source       Source            `json:"source"`
	OrderNo      string            `json:"orderNo,omitempty"` // empty when no order is referenced
	CustomerID   string            `json:"customerId,omitempty"`
	CustomerName string            `json:"customerName"`
	Amount       decimal.Decimal   `json:"amount"` // non-negative, single implied currency
	Date         time.Time         `json:"date"`
	Status       string            `json:"status"` // ledger-specific label, never interpreted
	Metadata     map[string]string `json:"metadata,omitempty"`
}
