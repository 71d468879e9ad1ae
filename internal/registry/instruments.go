// Package registry holds the static payment-instrument catalog and the
// user-extensible category set.
package registry

import "github.com/qmcao/spending-tracker/internal/core"

// Instruments is the read-only catalog of payment instruments, defined at
// process start.
type Instruments struct {
	byID  map[string]core.Instrument
	order []core.Instrument
}

func NewInstruments(list []core.Instrument) *Instruments {
	r := &Instruments{byID: make(map[string]core.Instrument, len(list))}
	for _, inst := range list {
		if _, ok := r.byID[inst.ID]; ok {
			continue
		}
		r.byID[inst.ID] = inst
		r.order = append(r.order, inst)
	}
	return r
}

// DefaultInstruments returns the built-in card catalog.
func DefaultInstruments() *Instruments {
	return NewInstruments([]core.Instrument{
		{ID: "sapphire", DisplayName: "Sapphire Card", Settlement: core.Credit, Color: "#1e3a8a"},
		{ID: "gold", DisplayName: "Gold Card", Settlement: core.Credit, Color: "#b45309"},
		{ID: "everyday-debit", DisplayName: "Everyday Debit", Settlement: core.Debit, Color: "#065f46"},
		{ID: "cash", DisplayName: "Cash", Settlement: core.Debit, Color: "#374151"},
	})
}

// Resolve returns the instrument for id. Unresolvable references degrade to a
// credit-typed placeholder so legacy or imported data never crashes display.
func (r *Instruments) Resolve(id string) core.Instrument {
	if inst, ok := r.byID[id]; ok {
		return inst
	}
	return core.Instrument{
		ID:          id,
		DisplayName: "Unknown card",
		Settlement:  core.Credit,
		Color:       "#9ca3af",
	}
}

// Known reports whether id resolves to a catalog entry.
func (r *Instruments) Known(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// All returns the catalog in definition order.
func (r *Instruments) All() []core.Instrument {
	return append([]core.Instrument(nil), r.order...)
}
