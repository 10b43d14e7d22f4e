package stat

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
)

var (
	// ErrInsufficient is returned when a pool cannot cover a cost.
	ErrInsufficient = errors.New("insufficient energy")
	// ErrDuplicatePool is returned when a second pool of the same type is added.
	ErrDuplicatePool = errors.New("energy type already present")
	// ErrPoolNotFound is returned when a pool of the requested type is absent.
	ErrPoolNotFound = errors.New("energy type not present")
)

// EnergyType identifies a resource pool.
type EnergyType string

const (
	Mana  EnergyType = "mana"
	Aura  EnergyType = "aura"
	Ki    EnergyType = "ki"
	Faith EnergyType = "faith"
)

var defaultRegen = map[EnergyType]float64{
	Mana:  0.15,
	Aura:  0.1,
	Ki:    0.2,
	Faith: 0.05,
}

// ParseEnergyType maps a content name to an EnergyType.
func ParseEnergyType(s string) (EnergyType, error) {
	t := EnergyType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := defaultRegen[t]; !ok {
		return "", fmt.Errorf("unknown energy type %q", s)
	}
	return t, nil
}

// DefaultRegenRate returns the regeneration rate used when content omits one.
func DefaultRegenRate(t EnergyType) float64 {
	return defaultRegen[t]
}

// Pool is a typed, regenerating energy resource.
//
// Invariant: 0 <= Current() <= Capacity().
type Pool struct {
	typ       EnergyType
	capacity  *Stat
	current   int
	regenRate float64
}

// NewPool creates a full pool.
//
// Precondition: base >= 0; 0 <= regenRate <= 1.
func NewPool(t EnergyType, base int, regenRate float64) (*Pool, error) {
	if regenRate < 0 || regenRate > 1 {
		return nil, fmt.Errorf("pool %s: regen rate %g outside [0, 1]", t, regenRate)
	}
	s, err := New(string(t), base)
	if err != nil {
		return nil, err
	}
	return &Pool{typ: t, capacity: s, current: base, regenRate: regenRate}, nil
}

func (p *Pool) Type() EnergyType { return p.typ }
func (p *Pool) Current() int { return p.current }
func (p *Pool) Capacity() int { return p.capacity.Current() }
func (p *Pool) Base() int { return p.capacity.Base() }
func (p *Pool) RegenRate() float64 { return p.regenRate }
func (p *Pool) Stat() *Stat { return p.capacity }

// CanAfford reports whether amount can be consumed.
func (p *Pool) CanAfford(amount int) bool {
	return amount >= 0 && p.current >= amount
}

// Consume removes amount from the pool, failing closed.
//
// Precondition: amount >= 0.
// Postcondition: on error the pool is unchanged; Current() never goes negative.
func (p *Pool) Consume(amount int) error {
	if amount < 0 {
		return fmt.Errorf("pool %s: %w: %d", p.typ, ErrNegativeAmount, amount)
	}
	if p.current < amount {
		return fmt.Errorf("pool %s: %w: have %d, need %d", p.typ, ErrInsufficient, p.current, amount)
	}
	p.current -= amount
	return nil
}

// Refund returns amount to the pool, clamped to Capacity().
//
// Precondition: amount >= 0.
func (p *Pool) Refund(amount int) error {
	if amount < 0 {
		return fmt.Errorf("pool %s: %w: %d", p.typ, ErrNegativeAmount, amount)
	}
	p.current = min(p.current+amount, p.Capacity())
	return nil
}

// Regenerate adds floor(Base() * RegenRate()) clamped to Capacity() and
// returns the amount gained.
func (p *Pool) Regenerate() int {
	before := p.current
	gain := int(math.Floor(float64(p.Base()) * p.regenRate))
	p.current = min(p.current+gain, p.Capacity())
	return p.current - before
}

// Fill sets Current() to Capacity().
func (p *Pool) Fill() {
	p.current = p.Capacity()
}

// ApplyBuff raises the capacity.
func (p *Pool) ApplyBuff(a *alteration.Alteration) error {
	return p.capacity.ApplyBuff(a)
}

// ApplyDebuff lowers the capacity; the fill is clamped to it.
func (p *Pool) ApplyDebuff(a *alteration.Alteration) error {
	if err := p.capacity.ApplyDebuff(a); err != nil {
		return err
	}
	p.current = min(p.current, p.Capacity())
	return nil
}

// EndRound ticks the capacity's modifiers and clamps the fill.
func (p *Pool) EndRound() []*alteration.Alteration {
	expired := p.capacity.EndRound()
	p.current = min(p.current, p.Capacity())
	return expired
}

// Upgrade raises base capacity and the fill by delta.
//
// Precondition: delta >= 0.
func (p *Pool) Upgrade(delta int) error {
	if err := p.capacity.Upgrade(delta); err != nil {
		return err
	}
	p.current = min(p.current+delta, p.Capacity())
	return nil
}
