// Package ledger parses the two CSV exports fed into a reconciliation
// run: the system's own order/payment export and the counterparty's
// settlement export. Rows that cannot be parsed are collected with a
// reason instead of failing the file.
package ledger

import (
	"io"
	"strings"

	"github.com/slideboard-dev/reconcile/internal/model"
)

// RejectedRow is an input row that could not be parsed into an item.
type RejectedRow struct {
	Line   int
	Reason string
}

// Parser converts one ledger CSV export into reconciliation items.
type Parser interface {
	Parse(r io.Reader) ([]model.Item, []RejectedRow, error)
	Format() string
	Source() model.Source
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&SystemParser{})
	r.Register(&SettlementParser{})
	return r
}
