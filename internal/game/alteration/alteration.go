// Package alteration models timed effects (buffs, debuffs, stuns,
// damage-over-time, invulnerability and resistances) that decay once per
// round.
package alteration

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every construction failure.
var ErrInvalid = errors.New("invalid alteration")

// ErrExpired is returned when decrementing an alteration that already reached zero.
var ErrExpired = errors.New("alteration already expired")

// Kind is the closed set of alteration variants.
type Kind int

const (
	Buff Kind = iota + 1
	Debuff
	Stun
	DamageOverTime
	Invulnerability
	Resistance
)

var kindNames = map[Kind]string{
	Buff:            "buff",
	Debuff:          "debuff",
	Stun:            "stun",
	DamageOverTime:  "dot",
	Invulnerability: "invulnerability",
	Resistance:      "resistance",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a content name ("buff", "dot", ...) to a Kind.
//
// Postcondition: Returns a valid Kind or an error wrapping ErrInvalid.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == want {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalid, s)
}

// AffectsStat reports whether alterations of this kind attach to a stat.
func (k Kind) AffectsStat() bool { return k == Buff || k == Debuff }

// Magnitudeless reports whether the kind carries no numeric magnitude.
func (k Kind) Magnitudeless() bool { return k == Stun || k == Invulnerability }

// Layer selects how a Resistance alteration alters incoming damage.
type Layer int

const (
	// Weakness adds its magnitude to incoming damage.
	Weakness Layer = iota + 1
	// Flat subtracts its magnitude from incoming damage.
	Flat
	// Percent multiplies incoming damage by magnitude/100.
	Percent
)

var layerNames = map[Layer]string{Weakness: "weakness", Flat: "flat", Percent: "percent"}

func (l Layer) String() string {
	if s, ok := layerNames[l]; ok {
		return s
	}
	return fmt.Sprintf("layer(%d)", int(l))
}

// ParseLayer maps a content name to a Layer.
func ParseLayer(s string) (Layer, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for l, name := range layerNames {
		if name == want {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown resistance layer %q", ErrInvalid, s)
}

// Caster is the non-owning reference to whoever applied an alteration.
type Caster interface {
	Name() string
}

// Params carries the construction parameters of an Alteration.
type Params struct {
	Name      string
	Kind      Kind
	Magnitude int
	Duration  int
	// Stat names the targeted stat; required for Buff and Debuff.
	Stat string
	// Layer is required for Resistance.
	Layer  Layer
	Caster Caster
}

// Alteration is one active timed effect.
//
// Invariant: Remaining() > 0 while the alteration is attached to anything.
type Alteration struct {
	name      string
	kind      Kind
	magnitude int
	stat      string
	layer     Layer
	remaining int
	caster    Caster
}

// New validates params and builds an Alteration.
//
// Precondition: params.Kind is one of the declared kinds.
// Postcondition: Returns an alteration with Remaining() == params.Duration, or an
// error wrapping ErrInvalid.
func New(params Params) (*Alteration, error) {
	if _, ok := kindNames[params.Kind]; !ok {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalid, int(params.Kind))
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalid)
	}
	if !params.Kind.Magnitudeless() && params.Magnitude <= 0 {
		return nil, fmt.Errorf("%w: %s %q needs a positive magnitude, got %d", ErrInvalid, params.Kind, params.Name, params.Magnitude)
	}
	if params.Duration <= 0 {
		return nil, fmt.Errorf("%w: %s %q needs a positive duration, got %d", ErrInvalid, params.Kind, params.Name, params.Duration)
	}
	if params.Kind.AffectsStat() && params.Stat == "" {
		return nil, fmt.Errorf("%w: %s %q needs a stat target", ErrInvalid, params.Kind, params.Name)
	}
	if params.Kind == Resistance {
		if _, ok := layerNames[params.Layer]; !ok {
			return nil, fmt.Errorf("%w: resistance %q needs a layer", ErrInvalid, params.Name)
		}
	}
	if params.Caster == nil {
		return nil, fmt.Errorf("%w: %q has no caster", ErrInvalid, params.Name)
	}
	a := &Alteration{
		name:      params.Name,
		kind:      params.Kind,
		magnitude: params.Magnitude,
		remaining: params.Duration,
		caster:    params.Caster,
	}
	if params.Kind.AffectsStat() {
		a.stat = params.Stat
	}
	if params.Kind == Resistance {
		a.layer = params.Layer
	}
	if params.Kind.Magnitudeless() {
		a.magnitude = 0
	}
	return a, nil
}

func (a *Alteration) Name() string { return a.name }
func (a *Alteration) Kind() Kind { return a.kind }
func (a *Alteration) Magnitude() int { return a.magnitude }
func (a *Alteration) Stat() string { return a.stat }
func (a *Alteration) Layer() Layer { return a.layer }
func (a *Alteration) Remaining() int { return a.remaining }
func (a *Alteration) Caster() Caster { return a.caster }

// Retarget returns a copy of a aimed at another stat, keeping the remaining
// duration. Alterations that do not affect a stat are returned unchanged.
func (a *Alteration) Retarget(stat string) *Alteration {
	if !a.kind.AffectsStat() {
		return a
	}
	cp := *a
	cp.stat = stat
	return &cp
}

// Expired reports whether the duration has run out.
func (a *Alteration) Expired() bool { return a.remaining <= 0 }

// Decrease consumes one round of duration.
//
// Precondition: !a.Expired().
// Postcondition: Remaining() is one less; returns ErrExpired otherwise.
func (a *Alteration) Decrease() error {
	if a.remaining <= 0 {
		return fmt.Errorf("%w: %q", ErrExpired, a.name)
	}
	a.remaining--
	return nil
}

// Describe renders the alteration for transcripts, e.g. "force +10".
func (a *Alteration) Describe() string {
	switch a.kind {
	case Buff:
		return fmt.Sprintf("%s +%d", a.stat, a.magnitude)
	case Debuff:
		return fmt.Sprintf("%s -%d", a.stat, a.magnitude)
	case DamageOverTime:
		return fmt.Sprintf("%s (%d per round)", a.name, a.magnitude)
	case Resistance:
		return fmt.Sprintf("%s (%s %d)", a.name, a.layer, a.magnitude)
	default:
		return a.name
	}
}

// Expiry reports one alteration removed during a round-end tick.
type Expiry struct {
	Message    string
	Alteration *Alteration
}

// ExpiryFor builds the transcript entry for alteration a expiring on holder.
func ExpiryFor(holder string, a *Alteration) Expiry {
	return Expiry{
		Message:    fmt.Sprintf("%s on %s expired", a.Describe(), holder),
		Alteration: a,
	}
}

// Tick decrements every alteration in list once and partitions the result.
// The input slice is not modified.
//
// Postcondition: every alteration in kept has Remaining() > 0; every one in
// expired has Remaining() == 0.
func Tick(list []*Alteration) (kept, expired []*Alteration) {
	kept = make([]*Alteration, 0, len(list))
	for _, a := range list {
		if a.remaining > 0 {
			a.remaining--
		}
		if a.remaining == 0 {
			expired = append(expired, a)
			continue
		}
		kept = append(kept, a)
	}
	return kept, expired
}
