package character

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/skill"
)

// UseSkill resolves the skill called name against target, pre-checking every
// user-facing gate before anything is consumed.
//
// Precondition: target may be nil for skills that do not require one.
// Postcondition: user errors are unsuccessful Outcomes; a non-nil error means
// an invariant violation.
func (c *Character) UseSkill(name string, target *Character) (skill.Outcome, error) {
	s, ok := c.Skill(name)
	if !ok {
		return skill.Fail(skill.ReasonUnknownSkill, "Unknown skill: %s", name), nil
	}
	if !s.CanAfford(c) {
		return skill.Fail(skill.ReasonInsufficientResource, "Not enough energy to use %s", s.Name()), nil
	}
	if !s.Ready() {
		return skill.Fail(skill.ReasonOnCooldown, "%s is on cooldown (%d rounds remaining)", s.Name(), s.CurrentCooldown()), nil
	}
	if s.RequiresTarget() && target == nil {
		return skill.Fail(skill.ReasonMissingTarget, "%s requires a target", s.Name()), nil
	}
	if target != nil {
		if s.Type() == skill.Resurrect {
			if target.IsAlive() {
				return skill.Fail(skill.ReasonInvalidTarget, "%s is not defeated", target.name), nil
			}
		} else if !target.IsAlive() {
			return skill.Fail(skill.ReasonInvalidTarget, "Cannot target defeated %s", target.name), nil
		}
		if s.Type() == skill.Damage && target == c {
			return skill.Fail(skill.ReasonSelfTarget, "Cannot damage yourself"), nil
		}
		if (s.Type() == skill.Heal || s.Type() == skill.Buff || s.Type() == skill.Resurrect) && target != c && !s.CanTargetOthers() {
			return skill.Fail(skill.ReasonTargetRestricted, "%s can only target self", s.Name()), nil
		}
	}

	var actor skill.Actor
	if target != nil {
		actor = target
	}
	out, err := s.Execute(c, actor)
	if err != nil {
		return skill.Outcome{}, fmt.Errorf("%s: %w", c.name, err)
	}
	return out, nil
}

// UseFirst tries every known skill of type t against target, latest learned
// first, and returns the first success or the last failure.
func (c *Character) UseFirst(t skill.Type, target *Character) (skill.Outcome, error) {
	out := skill.Fail(skill.ReasonUnknownSkill, "No valid %s skill available", t)
	for i := len(c.skills) - 1; i >= 0; i-- {
		s := c.skills[i]
		if s.Type() != t {
			continue
		}
		next, err := c.UseSkill(s.Name(), target)
		if err != nil {
			return next, err
		}
		if next.Success {
			return next, nil
		}
		out = next
	}
	return out, nil
}

// Attack uses skillName against target, or when empty the first damage skill
// that succeeds.
func (c *Character) Attack(target *Character, skillName string) (skill.Outcome, error) {
	if skillName != "" {
		return c.UseSkill(skillName, target)
	}
	return c.UseFirst(skill.Damage, target)
}

// Heal uses skillName on target, or when empty the first heal skill that
// succeeds. A target at full HP is refused before any skill is tried.
func (c *Character) Heal(target *Character, skillName string) (skill.Outcome, error) {
	if target == nil {
		return skill.Fail(skill.ReasonMissingTarget, "%s needs a target to heal", c.name), nil
	}
	if cur, maxHP := target.HP(); cur == maxHP {
		return skill.Fail(skill.ReasonNoEffect, "%s is already at full HP", target.name), nil
	}
	if skillName != "" {
		return c.UseSkill(skillName, target)
	}
	return c.UseFirst(skill.Heal, target)
}

// Invoke uses the first invocation skill that succeeds, refusing up front when
// the pocket is full.
func (c *Character) Invoke() (skill.Outcome, error) {
	if c.pocket.Full() {
		return skill.Fail(skill.ReasonPocketFull, "%s cannot summon more creatures", c.name), nil
	}
	return c.UseFirst(skill.Invocation, nil)
}

// Summon creates a character of class at tier through the registry and binds
// it to the pocket.
//
// Postcondition: returns skill.ErrPocketFull when no slot is free.
func (c *Character) Summon(class, tier string) (string, error) {
	if c.pocket.Full() {
		return "", skill.ErrPocketFull
	}
	if c.registry == nil {
		return "", fmt.Errorf("%s: summoning %s without a registry", c.name, class)
	}
	s, err := c.registry.Summon(c, class, tier)
	if err != nil {
		return "", err
	}
	if err := c.pocket.Add(s); err != nil {
		return "", err
	}
	return s.name, nil
}
