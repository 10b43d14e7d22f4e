package character

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

// Alter attaches the alteration described by e, cast by caster, routing it by
// kind: buffs and debuffs to the named stat or pool, everything else to the
// character-level set.
//
// Postcondition: returns false with a message when nothing was attached.
func (c *Character) Alter(caster skill.Actor, e skill.Effect) (bool, string) {
	if !c.IsAlive() {
		return false, fmt.Sprintf("Cannot alter defeated %s", c.name)
	}
	a, err := alteration.New(e.AlterationParams(caster))
	if err != nil {
		return false, fmt.Sprintf("%s: %v", e.Name, err)
	}
	switch a.Kind() {
	case alteration.Buff, alteration.Debuff:
		if err := c.attachToStat(a); err != nil {
			return false, fmt.Sprintf("%s: %v", e.Name, err)
		}
		verb, sign := "buffed", "+"
		if a.Kind() == alteration.Debuff {
			verb, sign = "debuffed", "-"
		}
		return true, fmt.Sprintf("%s was %s with %s, %s %s%d for %d rounds", c.name, verb, a.Name(), a.Stat(), sign, a.Magnitude(), a.Remaining())
	case alteration.Stun:
		c.alterations.Add(a)
		return true, fmt.Sprintf("%s was stunned by %s for %d rounds", c.name, caster.Name(), a.Remaining())
	case alteration.Invulnerability:
		c.alterations.Add(a)
		return true, fmt.Sprintf("%s is invulnerable for %d rounds", c.name, a.Remaining())
	case alteration.DamageOverTime:
		c.alterations.Add(a)
		return true, fmt.Sprintf("%s suffers %s for %d rounds", c.name, a.Describe(), a.Remaining())
	case alteration.Resistance:
		c.alterations.Add(a)
		return true, fmt.Sprintf("%s gains %s for %d rounds", c.name, a.Describe(), a.Remaining())
	}
	return false, fmt.Sprintf("%s: unsupported alteration %s", e.Name, a.Kind())
}

func (c *Character) attachToStat(a *alteration.Alteration) error {
	buff := a.Kind() == alteration.Buff
	if name, err := stat.ParseName(a.Stat()); err == nil {
		if name == stat.HP {
			if buff {
				return c.hp.ApplyBuff(a)
			}
			return c.hp.ApplyDebuff(a)
		}
		s := c.attrs[name]
		if buff {
			return s.ApplyBuff(a)
		}
		return s.ApplyDebuff(a)
	}
	t, err := stat.ParseEnergyType(a.Stat())
	if err != nil {
		return err
	}
	p, ok := c.pools.Get(t)
	if !ok {
		return fmt.Errorf("%s has no %s pool", c.name, t)
	}
	if buff {
		return p.ApplyBuff(a)
	}
	return p.ApplyDebuff(a)
}

// TickReport is the outcome of one round-end tick.
type TickReport struct {
	// Damage holds one message per damage-over-time hit.
	Damage []string
	// Expired lists the alterations removed by the tick.
	Expired []alteration.Expiry
}

// EndRound runs the round-end tick: stat modifiers, then stun and
// invulnerability, then damage-over-time hits followed by their decay, then
// resistances.
//
// Postcondition: no alteration with zero remaining duration stays attached.
func (c *Character) EndRound() TickReport {
	var report TickReport
	expire := func(list []*alteration.Alteration) {
		for _, a := range list {
			report.Expired = append(report.Expired, alteration.ExpiryFor(c.name, a))
		}
	}

	expire(c.hp.EndRound())
	for _, name := range stat.Attributes {
		expire(c.attrs[name].EndRound())
	}
	expire(c.pools.EndRound())

	expire(c.alterations.Tick(alteration.Stun, alteration.Invulnerability))

	for _, dot := range c.alterations.OfKind(alteration.DamageOverTime) {
		if !c.IsAlive() {
			break
		}
		msg, err := c.loseHP(dot.Caster(), dot.Magnitude())
		if err == nil {
			report.Damage = append(report.Damage, fmt.Sprintf("%s: %s", dot.Name(), msg))
		}
	}
	expire(c.alterations.Tick(alteration.DamageOverTime))

	expire(c.alterations.Tick(alteration.Resistance))
	return report
}
