package skill

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

// Payload effect names read by the built-in handlers.
const (
	EffectDamage     = "damage"
	EffectHeal       = "heal"
	EffectResurrect  = "resurrect"
	EffectInvocation = "invocation"
)

// Summon names the class and skill tier of an invoked character.
type Summon struct {
	Class string
	Tier  string
}

// Effect describes one component of a skill.
type Effect struct {
	Name     string
	Value    int
	Duration int
	// Stat is the targeted stat or energy type for Buff/Debuff alterations.
	Stat string
	// Kind is zero for payload effects (damage, heal, ...).
	Kind  alteration.Kind
	Layer alteration.Layer
	// Scaling multiplies the caster's damage attribute; the product is added to Value.
	Scaling float64
	Summon  *Summon
}

// IsAlteration reports whether applying the effect attaches an alteration.
func (e Effect) IsAlteration() bool { return e.Kind != 0 }

// AlterationParams converts the effect into alteration construction parameters.
func (e Effect) AlterationParams(caster alteration.Caster) alteration.Params {
	return alteration.Params{
		Name:      e.Name,
		Kind:      e.Kind,
		Magnitude: e.Value,
		Duration:  e.Duration,
		Stat:      e.Stat,
		Layer:     e.Layer,
		Caster:    caster,
	}
}

// validate reports the problems of an alteration effect.
func (e Effect) validate() []string {
	if !e.IsAlteration() {
		return nil
	}
	var out []string
	if e.Name == "" {
		out = append(out, "alteration effect needs a name")
	}
	if e.Kind.AffectsStat() {
		if e.Stat == "" {
			out = append(out, fmt.Sprintf("effect %q: %s needs a stat target", e.Name, e.Kind))
		} else if !isStatTarget(e.Stat) {
			out = append(out, fmt.Sprintf("effect %q: unknown stat target %q", e.Name, e.Stat))
		}
	}
	if !e.Kind.Magnitudeless() && e.Value <= 0 {
		out = append(out, fmt.Sprintf("effect %q: %s needs a positive value", e.Name, e.Kind))
	}
	if e.Duration <= 0 {
		out = append(out, fmt.Sprintf("effect %q: %s needs a positive duration", e.Name, e.Kind))
	}
	if e.Kind == alteration.Resistance && e.Layer == 0 {
		out = append(out, fmt.Sprintf("effect %q: resistance needs a layer", e.Name))
	}
	return out
}

func isStatTarget(s string) bool {
	if _, err := stat.ParseName(s); err == nil {
		return true
	}
	_, err := stat.ParseEnergyType(s)
	return err == nil
}

// sortedEffects returns the effects ordered by name.
func sortedEffects(effects map[string]Effect) []Effect {
	names := make([]string, 0, len(effects))
	for n := range effects {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Effect, 0, len(names))
	for _, n := range names {
		out = append(out, effects[n])
	}
	return out
}
