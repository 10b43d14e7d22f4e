// Package skill implements named combat actions: their cost, cooldown and
// target rules, and the pipeline resolving their effects.
package skill

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

// ErrNotReady is returned when executing a skill that is on cooldown.
var ErrNotReady = errors.New("skill is not ready")

// Params are the construction parameters of a Skill.
type Params struct {
	Name        string
	Description string
	Type        Type
	DamageType  DamageType
	Effects     map[string]Effect
	EnergyCost  int
	EnergyType  stat.EnergyType
	Cooldown    int
	// RequiresTarget defaults to true when nil.
	RequiresTarget  *bool
	CanTargetOthers bool
	// ResolverName is reported by ResolverName; Resolver overrides the built-in handler.
	ResolverName string
	Resolver     Resolver
	// WeaknessMultiplier and ResilienceMultiplier scale damage against
	// targets weak or resilient to DamageType. Zero means 1.
	WeaknessMultiplier   float64
	ResilienceMultiplier float64
}

// Skill is one character's instance of an action.
//
// Invariant: 0 <= CurrentCooldown() <= Cooldown().
type Skill struct {
	name            string
	description     string
	typ             Type
	damageType      DamageType
	effects         map[string]Effect
	energyCost      int
	energyType      stat.EnergyType
	cooldown        int
	currentCooldown int
	requiresTarget  bool
	canTargetOthers bool
	resolverName    string
	resolver        Resolver
	weakMult        float64
	resilientMult   float64
}

// New validates p and builds a ready Skill.
//
// Postcondition: Returns a Skill with CurrentCooldown() == 0, or a
// *ruleset.ConfigurationError.
func New(p Params) (*Skill, error) {
	var problems []string
	addf := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if strings.TrimSpace(p.Name) == "" {
		addf("name must not be empty")
	}
	if _, ok := typeNames[p.Type]; !ok {
		addf("unknown type %d", int(p.Type))
	}
	if p.EnergyCost < 0 {
		addf("energy cost must be >= 0, got %d", p.EnergyCost)
	}
	if p.Cooldown < 0 {
		addf("cooldown must be >= 0, got %d", p.Cooldown)
	}
	if p.EnergyCost > 0 && p.EnergyType == "" {
		addf("energy cost %d without an energy type", p.EnergyCost)
	}

	effects := make(map[string]Effect, len(p.Effects))
	for key, e := range p.Effects {
		if e.Name == "" {
			e.Name = key
		}
		if p.Type == Buff && e.Kind == 0 {
			e.Kind = alteration.Buff
		}
		if p.Type == Debuff && e.Kind == 0 {
			e.Kind = alteration.Debuff
		}
		problems = append(problems, e.validate()...)
		effects[key] = e
	}

	custom := p.Resolver != nil
	switch p.Type {
	case Damage:
		if _, err := ParseDamageType(string(p.DamageType)); err != nil {
			addf("damage skill needs a damage type: %v", err)
		}
		if e, ok := effects[EffectDamage]; !custom && (!ok || e.Value <= 0) {
			addf("damage skill needs a %q effect with a positive value", EffectDamage)
		}
	case Heal:
		if e, ok := effects[EffectHeal]; !custom && (!ok || e.Value <= 0) {
			addf("heal skill needs a %q effect with a positive value", EffectHeal)
		}
	case Invocation:
		if _, ok := summonEffect(effects); !custom && !ok {
			addf("invocation skill needs an effect naming a summon class")
		}
	case Buff, Debuff:
		if len(effects) == 0 && !custom {
			addf("%s skill needs at least one effect", p.Type)
		}
	case Custom:
		if !custom {
			addf("custom skill needs a resolver")
		}
	}

	if len(problems) > 0 {
		return nil, ruleset.NewConfigurationError("skill "+strings.TrimSpace(p.Name), problems...)
	}

	requiresTarget := true
	if p.RequiresTarget != nil {
		requiresTarget = *p.RequiresTarget
	}
	weak, resilient := p.WeaknessMultiplier, p.ResilienceMultiplier
	if weak == 0 {
		weak = 1
	}
	if resilient == 0 {
		resilient = 1
	}
	return &Skill{
		name:            p.Name,
		description:     p.Description,
		typ:             p.Type,
		damageType:      p.DamageType,
		effects:         effects,
		energyCost:      p.EnergyCost,
		energyType:      p.EnergyType,
		cooldown:        p.Cooldown,
		requiresTarget:  requiresTarget,
		canTargetOthers: p.CanTargetOthers,
		resolverName:    p.ResolverName,
		resolver:        p.Resolver,
		weakMult:        weak,
		resilientMult:   resilient,
	}, nil
}

// FromDef builds a Skill from its class-table definition, resolving a named
// resolver through resolvers.
//
// Precondition: resolvers must be non-nil when def.Resolver is set.
// Postcondition: Returns a Skill or an error wrapping ruleset.ErrConfiguration.
func FromDef(def ruleset.SkillDef, resolvers *Resolvers, balance ruleset.Balance) (*Skill, error) {
	source := "skill " + def.Name
	typ, err := ParseType(def.Type)
	if err != nil {
		return nil, ruleset.NewConfigurationError(source, err.Error())
	}
	p := Params{
		Name:                 def.Name,
		Description:          def.Description,
		Type:                 typ,
		DamageType:           DamageType(strings.ToLower(def.DamageType)),
		EnergyCost:           def.EnergyCost,
		Cooldown:             def.Cooldown,
		RequiresTarget:       def.RequiresTarget,
		CanTargetOthers:      def.CanTargetOthers,
		ResolverName:         def.Resolver,
		WeaknessMultiplier:   balance.WeaknessMultiplier,
		ResilienceMultiplier: balance.ResilienceMultiplier,
		Effects:              make(map[string]Effect, len(def.Effects)),
	}
	if def.EnergyType != "" {
		et, err := stat.ParseEnergyType(def.EnergyType)
		if err != nil {
			return nil, ruleset.NewConfigurationError(source, err.Error())
		}
		p.EnergyType = et
	}
	for name, ed := range def.Effects {
		e := Effect{Name: name, Value: ed.Value, Duration: ed.Duration, Stat: strings.ToLower(ed.Stat), Scaling: ed.Scaling}
		if ed.Kind != "" {
			if e.Kind, err = alteration.ParseKind(ed.Kind); err != nil {
				return nil, ruleset.NewConfigurationError(source, err.Error())
			}
		}
		if ed.Layer != "" {
			if e.Layer, err = alteration.ParseLayer(ed.Layer); err != nil {
				return nil, ruleset.NewConfigurationError(source, err.Error())
			}
		}
		if ed.Summon != nil {
			e.Summon = &Summon{Class: ed.Summon.Class, Tier: ed.Summon.Tier}
		}
		p.Effects[name] = e
	}
	if def.Resolver != "" {
		if resolvers == nil {
			return nil, ruleset.NewConfigurationError(source, "resolver "+def.Resolver+" requested without a resolver registry")
		}
		res, err := resolvers.Lookup(def.Resolver)
		if err != nil {
			return nil, ruleset.NewConfigurationError(source, err.Error())
		}
		p.Resolver = res
	}
	return New(p)
}

func (s *Skill) Name() string { return s.name }
func (s *Skill) Description() string { return s.description }
func (s *Skill) Type() Type { return s.typ }
func (s *Skill) DamageType() DamageType { return s.damageType }
func (s *Skill) EnergyCost() int { return s.energyCost }
func (s *Skill) EnergyType() stat.EnergyType { return s.energyType }
func (s *Skill) Cooldown() int { return s.cooldown }
func (s *Skill) CurrentCooldown() int { return s.currentCooldown }
func (s *Skill) RequiresTarget() bool { return s.requiresTarget }
func (s *Skill) CanTargetOthers() bool { return s.canTargetOthers }
func (s *Skill) ResolverName() string { return s.resolverName }

// HasCustomResolver reports whether a resolver replaces the built-in handler.
func (s *Skill) HasCustomResolver() bool { return s.resolver != nil }

// Effect returns the effect registered under name.
func (s *Skill) Effect(name string) (Effect, bool) {
	e, ok := s.effects[name]
	return e, ok
}

// Effects returns the effects ordered by name.
func (s *Skill) Effects() []Effect {
	return sortedEffects(s.effects)
}

// Ready reports whether the skill may execute.
func (s *Skill) Ready() bool { return s.currentCooldown <= 0 }

// UpdateCooldown decrements the remaining cooldown by one, floor 0. Called
// once per rest.
func (s *Skill) UpdateCooldown() {
	if s.currentCooldown > 0 {
		s.currentCooldown--
	}
}

// Clone returns an independent ready copy sharing the immutable definition.
func (s *Skill) Clone() *Skill {
	c := *s
	c.currentCooldown = 0
	c.effects = make(map[string]Effect, len(s.effects))
	for k, v := range s.effects {
		c.effects[k] = v
	}
	return &c
}

func summonEffect(effects map[string]Effect) (Effect, bool) {
	for _, e := range sortedEffects(effects) {
		if e.Summon != nil && e.Summon.Class != "" {
			return e, true
		}
	}
	return Effect{}, false
}
