package stat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
)

// Vital is the HP resource: a Stat giving the maximum plus the current fill.
//
// Invariant: 0 <= Current() <= Max().
type Vital struct {
	max     *Stat
	current int
}

// NewVital creates a full Vital with the given maximum.
//
// Precondition: base >= 0.
func NewVital(base int) (*Vital, error) {
	s, err := New(string(HP), base)
	if err != nil {
		return nil, err
	}
	return &Vital{max: s, current: base}, nil
}

func (v *Vital) Current() int { return v.current }
func (v *Vital) Max() int { return v.max.Current() }
func (v *Vital) Stat() *Stat { return v.max }

// Lose removes up to amount and returns what was actually removed.
//
// Precondition: amount >= 0.
// Postcondition: Current() >= 0.
func (v *Vital) Lose(amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("hp: %w: %d", ErrNegativeAmount, amount)
	}
	lost := min(amount, v.current)
	v.current -= lost
	return lost, nil
}

// Gain restores up to amount and returns what was actually restored.
//
// Precondition: amount >= 0.
// Postcondition: Current() <= Max().
func (v *Vital) Gain(amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("hp: %w: %d", ErrNegativeAmount, amount)
	}
	gained := min(amount, v.Max()-v.current)
	gained = max(gained, 0)
	v.current += gained
	return gained, nil
}

// Set assigns the fill, clamped to [0, Max()].
func (v *Vital) Set(value int) {
	v.current = min(max(value, 0), v.Max())
}

// ApplyBuff raises the maximum and, unless the vital is empty, the fill by
// the buff's magnitude.
func (v *Vital) ApplyBuff(a *alteration.Alteration) error {
	if err := v.max.ApplyBuff(a); err != nil {
		return err
	}
	if v.current == 0 {
		return nil
	}
	v.Set(v.current + a.Magnitude())
	return nil
}

// ApplyDebuff lowers the maximum; the fill is clamped to it.
func (v *Vital) ApplyDebuff(a *alteration.Alteration) error {
	if err := v.max.ApplyDebuff(a); err != nil {
		return err
	}
	v.clamp()
	return nil
}

// EndRound ticks the maximum's modifiers and clamps the fill.
func (v *Vital) EndRound() []*alteration.Alteration {
	expired := v.max.EndRound()
	v.clamp()
	return expired
}

// Upgrade raises the maximum and the fill by delta. An empty vital stays
// empty; only Set revives it.
//
// Precondition: delta >= 0.
func (v *Vital) Upgrade(delta int) error {
	if err := v.max.Upgrade(delta); err != nil {
		return err
	}
	if v.current == 0 {
		return nil
	}
	v.Set(v.current + delta)
	return nil
}

func (v *Vital) clamp() {
	if v.current > v.Max() {
		v.current = v.Max()
	}
}
