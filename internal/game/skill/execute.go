package skill

import (
	"errors"
	"fmt"
	"strings"
)

// Execute runs the skill from caster against target.
//
// The cost is committed together with the effect: when the handler or the
// custom resolver reports failure, the energy is refunded and the cooldown
// reset before returning. Effects a resolver applied before failing stay applied.
//
// Precondition: caster must be non-nil; target may be nil for skills that do
// not require one.
// Postcondition: returns ErrNotReady without side effects when !Ready();
// returns an unsuccessful Outcome with ReasonInsufficientResource when the
// caster cannot afford the cost; otherwise the Outcome of the handler.
func (s *Skill) Execute(caster, target Actor) (Outcome, error) {
	if !s.Ready() {
		return Outcome{}, fmt.Errorf("%w: %s (%d rounds remaining)", ErrNotReady, s.name, s.currentCooldown)
	}
	if !s.CanAfford(caster) {
		return Fail(ReasonInsufficientResource, "Not enough energy to use %s", s.name), nil
	}
	if err := s.consume(caster); err != nil {
		return Outcome{}, err
	}
	s.currentCooldown = s.cooldown

	var (
		out Outcome
		err error
	)
	if s.resolver != nil {
		out, err = s.resolver.Resolve(caster, target, s)
		if err != nil {
			s.rollback(caster)
			return Fail(ReasonResolverFailed, "%s failed: %v", s.name, err), nil
		}
	} else {
		out, err = s.dispatch(caster, target)
		if err != nil {
			s.rollback(caster)
			return Outcome{}, fmt.Errorf("executing %s: %w", s.name, err)
		}
	}
	if !out.Success {
		s.rollback(caster)
		if out.Reason == ReasonNone {
			out.Reason = ReasonNoEffect
		}
	}
	return out, nil
}

// CanAfford reports whether caster holds enough energy of the skill's type.
func (s *Skill) CanAfford(caster Actor) bool {
	if s.energyType == "" {
		return s.energyCost == 0
	}
	p, ok := caster.Pool(s.energyType)
	return ok && p.CanAfford(s.energyCost)
}

func (s *Skill) consume(caster Actor) error {
	if s.energyType == "" {
		return nil
	}
	p, _ := caster.Pool(s.energyType)
	return p.Consume(s.energyCost)
}

func (s *Skill) rollback(caster Actor) {
	s.currentCooldown = 0
	if s.energyType == "" {
		return
	}
	if p, ok := caster.Pool(s.energyType); ok {
		_ = p.Refund(s.energyCost)
	}
}

func (s *Skill) dispatch(caster, target Actor) (Outcome, error) {
	switch s.typ {
	case Damage:
		return s.damage(caster, target, s.effects[EffectDamage])
	case Heal:
		return s.heal(caster, target)
	case Resurrect:
		return s.resurrect(caster, target)
	case Invocation:
		return s.invoke(caster)
	case Buff, Debuff:
		return s.alter(caster, target, s.Effects()), nil
	}
	return Outcome{}, fmt.Errorf("%s skill %q has no built-in handler", s.typ, s.name)
}

// DamageAmount computes the raw damage of e cast by caster against target,
// before the target's own reductions.
func (s *Skill) DamageAmount(caster, target Actor, e Effect) int {
	attr := caster.Attribute(s.damageType.Attribute())
	base := e.Value + int(e.Scaling*float64(attr))
	dmg := Scale(base, attr)
	return ApplyAffinity(dmg, target.Affinity(s.damageType), s.weakMult, s.resilientMult)
}

func (s *Skill) damage(caster, target Actor, e Effect) (Outcome, error) {
	if target == nil {
		return Fail(ReasonMissingTarget, "%s needs a target", s.name), nil
	}
	before, _ := target.HP()
	msg, err := target.LoseHP(caster, s.DamageAmount(caster, target, e))
	if err != nil {
		return Outcome{}, err
	}
	after, _ := target.HP()
	out := Succeed("%s", msg)
	out.Damage = before - after
	return out, nil
}

func (s *Skill) heal(caster, target Actor) (Outcome, error) {
	if target == nil {
		target = caster
	}
	healed, msg, err := target.GainHP(s.effects[EffectHeal].Value)
	if err != nil {
		return Outcome{}, err
	}
	if healed == 0 {
		return Fail(ReasonNoEffect, "%s", msg), nil
	}
	out := Succeed("%s uses %s: %s", caster.Name(), s.name, msg)
	out.Healed = healed
	return out, nil
}

func (s *Skill) resurrect(caster, target Actor) (Outcome, error) {
	if target == nil {
		return Fail(ReasonMissingTarget, "%s needs a target", s.name), nil
	}
	if target.IsAlive() {
		return Fail(ReasonInvalidTarget, "%s is not defeated", target.Name()), nil
	}
	msg, err := target.Resurrect(caster)
	if err != nil {
		return Outcome{}, err
	}
	cur, _ := target.HP()
	out := Succeed("%s", msg)
	out.Healed = cur
	return out, nil
}

func (s *Skill) invoke(caster Actor) (Outcome, error) {
	e, _ := summonEffect(s.effects)
	name, err := caster.Summon(e.Summon.Class, e.Summon.Tier)
	if errors.Is(err, ErrPocketFull) {
		return Fail(ReasonPocketFull, "%s cannot summon more creatures", caster.Name()), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	out := Succeed("%s summons %s", caster.Name(), name)
	out.Summoned = name
	return out, nil
}

// alter attaches every alteration effect to target (the caster when nil) and
// summarises per-effect success.
func (s *Skill) alter(caster, target Actor, effects []Effect) Outcome {
	if target == nil {
		target = caster
	}
	var (
		applied  int
		total    int
		messages []string
	)
	for _, e := range effects {
		if !e.IsAlteration() {
			continue
		}
		total++
		ok, msg := target.Alter(caster, e)
		if ok {
			applied++
		}
		messages = append(messages, msg)
	}
	summary := fmt.Sprintf("%s uses %s on %s: %d/%d applied", caster.Name(), s.name, target.Name(), applied, total)
	if len(messages) > 0 {
		summary += " (" + strings.Join(messages, ", ") + ")"
	}
	if applied == 0 {
		return Fail(ReasonNoEffect, "%s", summary)
	}
	return Succeed("%s", summary)
}
