// Package lesson supplies paragraphs of practice text.
package lesson

import (
	"context"

	"github.com/verte-zerg/typemaster/internal/model"
)

// Fallback is served whenever a source cannot produce text.
const Fallback = "The swift, brown fox jumped over the lazy dog; meanwhile, the 'sleeping' cat didn't move: a classic example of apathy. \"Why bother?\" she thought, curling up tighter."

// Source yields the paragraph for a tier at a position in the run.
// Next never fails; sources substitute Fallback on error.
type Source interface {
	Next(ctx context.Context, tier model.Tier, index int) string
	// Blocking reports whether Next may take long enough to need a
	// loading state.
	Blocking() bool
}

// Static serves fixed paragraph tables, wrapping around at the end.
type Static struct {
	tables map[model.Tier][]string
}

// NewStatic returns a Static source over the built-in tables.
func NewStatic() *Static {
	return &Static{tables: paragraphs}
}

// NewStaticTables returns a Static source over custom tables.
func NewStaticTables(tables map[model.Tier][]string) *Static {
	return &Static{tables: tables}
}

func (s *Static) Next(_ context.Context, tier model.Tier, index int) string {
	table := s.tables[tier]
	if len(table) == 0 {
		return Fallback
	}
	i := index % len(table)
	if i < 0 {
		i += len(table)
	}
	return table[i]
}

func (s *Static) Blocking() bool { return false }

// Len returns the number of paragraphs for tier.
func (s *Static) Len(tier model.Tier) int {
	return len(s.tables[tier])
}
