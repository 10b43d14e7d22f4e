// Package stat implements character attributes, the HP vital and typed
// energy pools. Every derived value is recomputed from its base and the live
// set of buff/debuff alterations.
package stat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
)

// ErrNegativeAmount is returned when an operation receives a negative amount.
var ErrNegativeAmount = errors.New("negative amount")

// ErrWrongTarget is returned when an alteration is attached to a stat it does not name.
var ErrWrongTarget = errors.New("alteration targets another stat")

// Name identifies a stat.
type Name string

const (
	HP           Name = "hp"
	Force        Name = "force"
	Endurance    Name = "endurance"
	Intelligence Name = "intelligence"
	Wisdom       Name = "wisdom"
)

// Attributes lists the non-vital stats every character carries, in display order.
var Attributes = []Name{Force, Endurance, Intelligence, Wisdom}

// ParseName maps a content name to a stat Name.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if n == HP {
		return n, nil
	}
	for _, a := range Attributes {
		if a == n {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown stat %q", s)
}

// Stat is a base value plus the buff/debuff alterations modifying it.
//
// Invariant: Current() == max(floor, Base() + Σbuffs − Σdebuffs) where floor is
// 1 when any debuff is attached and 0 otherwise.
type Stat struct {
	name    string
	base    int
	current int
	buffs   []*alteration.Alteration
	debuffs []*alteration.Alteration
}

// New creates a Stat with no modifiers.
//
// Precondition: base >= 0.
// Postcondition: Current() == base.
func New(name string, base int) (*Stat, error) {
	if base < 0 {
		return nil, fmt.Errorf("stat %s: %w: base %d", name, ErrNegativeAmount, base)
	}
	return &Stat{name: name, base: base, current: base}, nil
}

func (s *Stat) Name() string { return s.name }
func (s *Stat) Base() int { return s.base }
func (s *Stat) Current() int { return s.current }

// Buffs returns a snapshot of the attached buffs.
func (s *Stat) Buffs() []*alteration.Alteration {
	return append([]*alteration.Alteration(nil), s.buffs...)
}

// Debuffs returns a snapshot of the attached debuffs.
func (s *Stat) Debuffs() []*alteration.Alteration {
	return append([]*alteration.Alteration(nil), s.debuffs...)
}

// ApplyBuff attaches a buff and recalculates.
//
// Precondition: a.Kind() == alteration.Buff and a.Stat() names this stat.
func (s *Stat) ApplyBuff(a *alteration.Alteration) error {
	if err := s.accepts(a, alteration.Buff); err != nil {
		return err
	}
	s.buffs = append(s.buffs, a)
	s.Recalculate()
	return nil
}

// ApplyDebuff attaches a debuff and recalculates.
//
// Precondition: a.Kind() == alteration.Debuff and a.Stat() names this stat.
func (s *Stat) ApplyDebuff(a *alteration.Alteration) error {
	if err := s.accepts(a, alteration.Debuff); err != nil {
		return err
	}
	s.debuffs = append(s.debuffs, a)
	s.Recalculate()
	return nil
}

func (s *Stat) accepts(a *alteration.Alteration, kind alteration.Kind) error {
	if a == nil || a.Kind() != kind {
		return fmt.Errorf("stat %s: expected a %s alteration", s.name, kind)
	}
	if a.Stat() != s.name {
		return fmt.Errorf("stat %s: %w %q", s.name, ErrWrongTarget, a.Stat())
	}
	return nil
}

// Remove detaches a from either modifier list.
//
// Postcondition: Returns true if a was attached; Current() is recalculated.
func (s *Stat) Remove(a *alteration.Alteration) bool {
	removed := false
	s.buffs, removed = without(s.buffs, a)
	if !removed {
		s.debuffs, removed = without(s.debuffs, a)
	}
	if removed {
		s.Recalculate()
	}
	return removed
}

func without(list []*alteration.Alteration, a *alteration.Alteration) ([]*alteration.Alteration, bool) {
	for i, x := range list {
		if x == a {
			out := make([]*alteration.Alteration, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), true
		}
	}
	return list, false
}

// Recalculate re-derives Current() from Base() and the attached modifiers.
func (s *Stat) Recalculate() {
	total := s.base
	for _, b := range s.buffs {
		total += b.Magnitude()
	}
	if len(s.debuffs) == 0 {
		s.current = max(0, total)
		return
	}
	for _, d := range s.debuffs {
		total -= d.Magnitude()
	}
	s.current = max(1, total)
}

// EndRound decrements every attached modifier, prunes the expired ones and
// recalculates.
//
// Postcondition: no returned alteration remains attached.
func (s *Stat) EndRound() []*alteration.Alteration {
	var expired, gone []*alteration.Alteration
	s.buffs, gone = alteration.Tick(s.buffs)
	expired = append(expired, gone...)
	s.debuffs, gone = alteration.Tick(s.debuffs)
	expired = append(expired, gone...)
	s.Recalculate()
	return expired
}

// ClearModifiers detaches every buff and debuff.
func (s *Stat) ClearModifiers() {
	s.buffs, s.debuffs = nil, nil
	s.Recalculate()
}

// Upgrade raises the base value while keeping the active modifier deltas.
//
// Precondition: delta >= 0.
func (s *Stat) Upgrade(delta int) error {
	if delta < 0 {
		return fmt.Errorf("stat %s: %w: upgrade %d", s.name, ErrNegativeAmount, delta)
	}
	s.base += delta
	s.Recalculate()
	return nil
}

// rebase copies base and modifiers from other under a new name.
func (s *Stat) rebase(name string, other *Stat) {
	s.name = name
	s.base = other.base
	s.buffs = retarget(name, other.buffs)
	s.debuffs = retarget(name, other.debuffs)
	s.Recalculate()
}

func retarget(name string, mods []*alteration.Alteration) []*alteration.Alteration {
	out := make([]*alteration.Alteration, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.Retarget(name))
	}
	return out
}
