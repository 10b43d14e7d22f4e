package character

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

// GainExp adds amount experience, levelling up while it suffices.
//
// Precondition: amount > 0.
func (c *Character) GainExp(amount int) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("%s: xp gain %d: %w", c.name, amount, ErrNonPositiveAmount)
	}
	c.exp += amount
	msg := fmt.Sprintf("%s gained %d XP.", c.name, amount)
	if c.canLevelUp && c.exp >= c.balance.XPToLevel(c.level) {
		up, err := c.LevelUp()
		if err != nil {
			return msg, err
		}
		msg += " " + up
	}
	return msg, nil
}

// levelGains accumulates the upgrades of one LevelUp call for its summary.
type levelGains struct {
	stats     map[string]int
	energy    map[string]int
	newEnergy []string
	skills    []string
}

// LevelUp consumes experience one level at a time for as long as it suffices.
// Each step grants the skills listed under the new level and applies every
// upgrade threshold at or below it. One summary covers all levels gained.
func (c *Character) LevelUp() (string, error) {
	if !c.canLevelUp {
		return fmt.Sprintf("%s can't level up", c.name), nil
	}
	start := c.level
	gains := levelGains{stats: map[string]int{}, energy: map[string]int{}}
	for c.exp >= c.balance.XPToLevel(c.level) {
		c.exp -= c.balance.XPToLevel(c.level)
		c.level++
		if err := c.advance(&gains); err != nil {
			return "", err
		}
	}
	if c.level == start {
		return fmt.Sprintf("%s needs %d more XP to level up.", c.name, c.balance.XPToLevel(c.level)-c.exp), nil
	}
	return gains.summary(c.name, start, c.level), nil
}

// advance applies the rewards of reaching c.level.
func (c *Character) advance(gains *levelGains) error {
	if c.registry != nil {
		for _, def := range c.table.SkillsAt(ruleset.LevelKey(c.level)) {
			s, err := c.registry.buildSkill(def)
			if err != nil {
				return err
			}
			if c.learn(s) {
				gains.skills = append(gains.skills, s.Name())
			}
		}
	}
	return c.applyUpgrades(c.level, gains)
}

// applyUpgrades applies every threshold at or below level.
func (c *Character) applyUpgrades(level int, gains *levelGains) error {
	for _, threshold := range c.table.Thresholds() {
		if threshold > level {
			break
		}
		up := c.table.UpgradeStats[threshold]
		for _, key := range sortedKeys(up.Stats) {
			name, err := stat.ParseName(key)
			if err != nil {
				return err
			}
			delta := up.Stats[key]
			if name == stat.HP {
				err = c.hp.Upgrade(delta)
			} else {
				err = c.attrs[name].Upgrade(delta)
			}
			if err != nil {
				return fmt.Errorf("%s: upgrading %s: %w", c.name, key, err)
			}
			gains.stats[key] += delta
		}
		for _, key := range sortedKeys(up.Energy) {
			t, err := stat.ParseEnergyType(key)
			if err != nil {
				return err
			}
			// pools granted by a later threshold are skipped until they exist
			p, ok := c.pools.Get(t)
			if !ok {
				continue
			}
			if err := p.Upgrade(up.Energy[key]); err != nil {
				return fmt.Errorf("%s: upgrading %s: %w", c.name, key, err)
			}
			gains.energy[key] += up.Energy[key]
		}
		if len(up.NewEnergy) > 0 && !c.newEnergy[threshold] {
			c.newEnergy[threshold] = true
			for _, def := range up.NewEnergy {
				p, err := newPool(def)
				if err != nil {
					return err
				}
				if err := c.pools.Add(p); err != nil {
					return fmt.Errorf("%s: %w", c.name, err)
				}
				gains.newEnergy = append(gains.newEnergy, def.Type)
			}
		}
	}
	return nil
}

func (g levelGains) summary(name string, from, to int) string {
	var parts []string
	for _, k := range sortedKeys(g.stats) {
		parts = append(parts, fmt.Sprintf("%s +%d", k, g.stats[k]))
	}
	for _, k := range sortedKeys(g.energy) {
		parts = append(parts, fmt.Sprintf("%s capacity +%d", k, g.energy[k]))
	}
	for _, e := range g.newEnergy {
		parts = append(parts, "new energy "+e)
	}
	for _, s := range g.skills {
		parts = append(parts, "learned "+s)
	}
	msg := fmt.Sprintf("%s advanced from Lv%d to Lv%d", name, from, to)
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	return msg
}

func newPool(def ruleset.EnergyDef) (*stat.Pool, error) {
	t, err := stat.ParseEnergyType(def.Type)
	if err != nil {
		return nil, err
	}
	rate := stat.DefaultRegenRate(t)
	if def.RegenRate != nil {
		rate = *def.RegenRate
	}
	return stat.NewPool(t, def.Value, rate)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
