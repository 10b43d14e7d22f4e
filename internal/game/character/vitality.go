package character

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

var _ skill.Actor = (*Character)(nil)

// LoseHP applies amount damage from source after the resistance layers and the
// endurance curve.
//
// Precondition: amount > 0.
// Postcondition: HP() >= 0. When the hit is fatal the killer gains experience,
// the level penalty applies and the pocket is emptied.
func (c *Character) LoseHP(source skill.Actor, amount int) (string, error) {
	return c.loseHP(source, amount)
}

func (c *Character) loseHP(source alteration.Caster, amount int) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("%s: hp loss %d: %w", c.name, amount, ErrNonPositiveAmount)
	}
	if !c.IsAlive() {
		return fmt.Sprintf("%s is already defeated.", c.name), nil
	}
	if c.IsInvulnerable() {
		return fmt.Sprintf("%s is invulnerable, %s can't hit them", c.name, source.Name()), nil
	}

	var shield string
	if amount, shield = c.shareWithPocket(source, amount); amount == 0 {
		return shield, nil
	}
	amount = c.reduce(amount)
	amount = int(float64(amount) * (1 - float64(c.balance.EnduranceReduction(c.Attribute(stat.Endurance)))/100))

	lost, err := c.hp.Lose(amount)
	if err != nil {
		return "", err
	}
	msg := fmt.Sprintf("%s dealt %d damage to %s.", source.Name(), lost, c.name)
	if shield != "" {
		msg = shield + " " + msg
	}
	if !c.IsAlive() {
		msg += " " + c.die(source)
	}
	return msg, nil
}

// reduce applies the resistance layers: weakness adds, flat subtracts, then
// every percent layer multiplies by magnitude/100. The result is floored at 0.
func (c *Character) reduce(amount int) int {
	resistances := c.alterations.OfKind(alteration.Resistance)
	if len(resistances) == 0 {
		return amount
	}
	total := float64(amount)
	multiplier := 1.0
	for _, r := range resistances {
		switch r.Layer() {
		case alteration.Weakness:
			total += float64(r.Magnitude())
		case alteration.Flat:
			total -= float64(r.Magnitude())
		case alteration.Percent:
			multiplier *= float64(r.Magnitude()) / 100
		}
	}
	return max(0, int(total*multiplier))
}

// shareWithPocket lets a summoner deflect half of a hit onto its living
// summons, split evenly. It returns the damage left for the summoner.
func (c *Character) shareWithPocket(source alteration.Caster, amount int) (int, string) {
	if c.table == nil || c.table.ClassType != ruleset.ClassTypeSummoner {
		return amount, ""
	}
	guards := c.pocket.Living()
	share := amount / 2
	if len(guards) == 0 || share/len(guards) == 0 {
		return amount, ""
	}
	each := share / len(guards)
	for _, g := range guards {
		if _, err := g.loseHP(source, each); err != nil {
			return amount, ""
		}
	}
	return amount - share, fmt.Sprintf("%d damage was taken by %d summons of %s.", each*len(guards), len(guards), c.name)
}

// die transfers experience to the killer, applies the level penalty and
// releases the pocket. A dead summon leaves its master's pocket.
func (c *Character) die(killer alteration.Caster) string {
	msg := c.dropXP(killer)
	c.alterations.Clear()
	for _, s := range c.pocket.Clear() {
		s.hp.Set(0)
		s.master = nil
	}
	if c.master != nil {
		c.master.pocket.Remove(c)
		c.master = nil
	}
	return msg
}

func (c *Character) dropXP(killer alteration.Caster) string {
	xp := c.level*c.balance.XPDropPerLevel + c.exp
	c.exp = 0
	c.level = max(1, c.level-c.balance.DeathLevelPenalty)
	k, ok := killer.(*Character)
	if !ok || k == c || xp <= 0 {
		return fmt.Sprintf("%s was defeated.", c.name)
	}
	if _, err := k.GainExp(xp); err != nil {
		return fmt.Sprintf("%s was defeated.", c.name)
	}
	return fmt.Sprintf("%s gained %d XP from defeating %s.", k.name, xp, c.name)
}

// GainHP restores up to amount and reports the HP actually restored.
//
// Precondition: amount > 0.
// Postcondition: HP() <= MaxHP(); a defeated character is not healed.
func (c *Character) GainHP(amount int) (int, string, error) {
	if amount <= 0 {
		return 0, "", fmt.Errorf("%s: hp gain %d: %w", c.name, amount, ErrNonPositiveAmount)
	}
	if !c.IsAlive() {
		return 0, fmt.Sprintf("Cannot heal defeated %s", c.name), nil
	}
	healed, err := c.hp.Gain(amount)
	if err != nil {
		return 0, "", err
	}
	return healed, fmt.Sprintf("%s healed for %d HP.", c.name, healed), nil
}

// Resurrect revives a defeated character with the configured fraction of its
// maximum HP, at least 1.
//
// Postcondition: returns ErrAlive when the character is not defeated.
func (c *Character) Resurrect(reviver skill.Actor) (string, error) {
	if c.IsAlive() {
		return "", fmt.Errorf("%s: %w", c.name, ErrAlive)
	}
	c.hp.Set(max(1, int(float64(c.hp.Max())*c.balance.ResurrectFraction)))
	return fmt.Sprintf("%s has been resurrected by %s.", c.name, reviver.Name()), nil
}
