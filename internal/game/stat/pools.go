package stat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
)

// Pools is the type-unique, ordered set of a character's energy pools.
type Pools struct {
	items []*Pool
}

// NewPools creates an empty set.
func NewPools() *Pools {
	return &Pools{}
}

// Add inserts p.
//
// Precondition: p must not be nil.
// Postcondition: returns ErrDuplicatePool if a pool of p.Type() is present.
func (ps *Pools) Add(p *Pool) error {
	if p == nil {
		return fmt.Errorf("pools: nil pool")
	}
	if _, ok := ps.Get(p.typ); ok {
		return fmt.Errorf("pools: %w: %s", ErrDuplicatePool, p.typ)
	}
	ps.items = append(ps.items, p)
	return nil
}

// Get returns the pool of type t.
func (ps *Pools) Get(t EnergyType) (*Pool, bool) {
	for _, p := range ps.items {
		if p.typ == t {
			return p, true
		}
	}
	return nil, false
}

// Has reports whether a pool of type t is present.
func (ps *Pools) Has(t EnergyType) bool {
	_, ok := ps.Get(t)
	return ok
}

// All returns a snapshot in insertion order.
func (ps *Pools) All() []*Pool {
	return append([]*Pool(nil), ps.items...)
}

// ChangeType replaces the pool of type from with a pool of type to carrying
// the same base, fill, regeneration rate and modifiers, at the same position.
//
// Postcondition: returns ErrPoolNotFound if from is absent, ErrDuplicatePool
// if to is already present; the set is unchanged on error.
func (ps *Pools) ChangeType(from, to EnergyType) error {
	if from == to {
		return nil
	}
	if ps.Has(to) {
		return fmt.Errorf("pools: %w: %s", ErrDuplicatePool, to)
	}
	for i, p := range ps.items {
		if p.typ != from {
			continue
		}
		repl := &Pool{typ: to, capacity: &Stat{}, regenRate: p.regenRate}
		repl.capacity.rebase(string(to), p.capacity)
		repl.current = min(p.current, repl.Capacity())
		ps.items[i] = repl
		return nil
	}
	return fmt.Errorf("pools: %w: %s", ErrPoolNotFound, from)
}

// RegenerateAll regenerates every pool.
func (ps *Pools) RegenerateAll() {
	for _, p := range ps.items {
		p.Regenerate()
	}
}

// EndRound ticks every pool's modifiers.
func (ps *Pools) EndRound() []*alteration.Alteration {
	var expired []*alteration.Alteration
	for _, p := range ps.items {
		expired = append(expired, p.EndRound()...)
	}
	return expired
}
