// Package character implements the combatant aggregate: stats, energy pools,
// skills, alterations, progression and the summon pocket.
package character

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

var (
	// ErrNonPositiveAmount is returned when HP or XP changes receive amount <= 0.
	ErrNonPositiveAmount = errors.New("amount must be positive")
	// ErrAlive is returned when resurrecting a character that is not defeated.
	ErrAlive = errors.New("character is alive")
	// ErrDuplicateSkill is returned when learning a skill whose name is already known.
	ErrDuplicateSkill = errors.New("skill already known")
)

// Affiliation is the persistent team a character belongs to.
type Affiliation interface {
	Name() string
}

// Character is one combatant. It is not safe for concurrent use; a fight
// mutates its characters from a single goroutine.
//
// Invariant: IsAlive() == (HP() > 0); skill names are unique ignoring case.
type Character struct {
	id            uuid.UUID
	owner         string
	name          string
	class         string
	explicitClass string
	table         *ruleset.ClassTable

	level      int
	exp        int
	canLevelUp bool

	hp          *stat.Vital
	attrs       map[stat.Name]*stat.Stat
	pools       *stat.Pools
	skills      []*skill.Skill
	alterations *alteration.Set

	pocket *Pocket
	master *Character
	// summoned counts invocations per class for naming.
	summoned map[string]int
	// newEnergy records thresholds whose new_energy pools were added.
	newEnergy map[int]bool

	team     Affiliation
	balance  ruleset.Balance
	registry *Registry
}

func (c *Character) ID() string { return c.id.String() }
func (c *Character) Owner() string { return c.owner }
func (c *Character) Name() string { return c.name }
func (c *Character) ClassName() string { return c.class }
func (c *Character) Table() *ruleset.ClassTable { return c.table }
func (c *Character) Level() int { return c.level }
func (c *Character) Exp() int { return c.exp }
func (c *Character) CanLevelUp() bool { return c.canLevelUp }
func (c *Character) Master() *Character { return c.master }
func (c *Character) Pocket() *Pocket { return c.pocket }
func (c *Character) Team() Affiliation { return c.team }
func (c *Character) Pools() *stat.Pools { return c.pools }
func (c *Character) Vital() *stat.Vital { return c.hp }

// ExplicitClass returns the display class override, or "" when unset.
func (c *Character) ExplicitClass() string { return c.explicitClass }

// DisplayClass returns the explicit class when set, otherwise the class table name.
func (c *Character) DisplayClass() string {
	if c.explicitClass != "" {
		return c.explicitClass
	}
	if c.table != nil && c.table.Name != "" {
		return c.table.Name
	}
	return c.class
}

// SetTeam records the team affiliation. Pass nil to clear it.
func (c *Character) SetTeam(a Affiliation) { c.team = a }

func (c *Character) IsAlive() bool { return c.hp.Current() > 0 }

// HP returns the current and maximum hit points.
func (c *Character) HP() (int, int) { return c.hp.Current(), c.hp.Max() }

func (c *Character) MaxHP() int { return c.hp.Max() }

// IsStunned reports whether a stun alteration is active.
func (c *Character) IsStunned() bool { return c.alterations.Has(alteration.Stun) }

// IsInvulnerable reports whether an invulnerability alteration is active.
func (c *Character) IsInvulnerable() bool { return c.alterations.Has(alteration.Invulnerability) }

// Alterations returns a snapshot of the character-level alterations.
func (c *Character) Alterations() []*alteration.Alteration { return c.alterations.All() }

// Stat returns the attribute stat called name, or the HP maximum for stat.HP.
func (c *Character) Stat(name stat.Name) (*stat.Stat, bool) {
	if name == stat.HP {
		return c.hp.Stat(), true
	}
	s, ok := c.attrs[name]
	return s, ok
}

// Attribute returns the current value of the named stat, 0 when unknown.
func (c *Character) Attribute(name stat.Name) int {
	if name == stat.HP {
		return c.hp.Current()
	}
	if s, ok := c.attrs[name]; ok {
		return s.Current()
	}
	return 0
}

// Pool returns the energy pool of type t.
func (c *Character) Pool(t stat.EnergyType) (*stat.Pool, bool) { return c.pools.Get(t) }

// Affinity reports the class advantage against dt.
func (c *Character) Affinity(dt skill.DamageType) skill.Affinity {
	if c.table == nil || c.table.Advantage == nil {
		return skill.Neutral
	}
	switch {
	case c.table.Advantage.IsWeakTo(string(dt)):
		return skill.Weak
	case c.table.Advantage.IsResilientTo(string(dt)):
		return skill.Resilient
	}
	return skill.Neutral
}

// Skill returns the skill called name, ignoring case.
func (c *Character) Skill(name string) (*skill.Skill, bool) {
	for _, s := range c.skills {
		if strings.EqualFold(s.Name(), name) {
			return s, true
		}
	}
	return nil, false
}

// Skills returns the known skills in learn order.
func (c *Character) Skills() []*skill.Skill {
	return append([]*skill.Skill(nil), c.skills...)
}

// SkillNames returns the known skill names in learn order.
func (c *Character) SkillNames() []string {
	out := make([]string, len(c.skills))
	for i, s := range c.skills {
		out[i] = s.Name()
	}
	return out
}

// AddSkill learns s.
//
// Precondition: s must not be nil.
// Postcondition: returns ErrDuplicateSkill when a skill of the same name is known.
func (c *Character) AddSkill(s *skill.Skill) error {
	if _, ok := c.Skill(s.Name()); ok {
		return fmt.Errorf("%s: %w: %s", c.name, ErrDuplicateSkill, s.Name())
	}
	c.skills = append(c.skills, s)
	return nil
}

// RemoveSkill forgets the skill called name and reports whether it was known.
func (c *Character) RemoveSkill(name string) bool {
	for i, s := range c.skills {
		if strings.EqualFold(s.Name(), name) {
			c.skills = append(c.skills[:i:i], c.skills[i+1:]...)
			return true
		}
	}
	return false
}

// learn adds s unless a skill of that name is already known.
func (c *Character) learn(s *skill.Skill) bool {
	if _, ok := c.Skill(s.Name()); ok {
		return false
	}
	c.skills = append(c.skills, s)
	return true
}

// Rest regenerates every energy pool and advances every skill cooldown by one.
func (c *Character) Rest() {
	c.pools.RegenerateAll()
	for _, s := range c.skills {
		s.UpdateCooldown()
	}
}

func (c *Character) String() string {
	cur, maxHP := c.HP()
	return fmt.Sprintf("%s lvl %d (%s) %d/%d HP", c.name, c.level, c.DisplayClass(), cur, maxHP)
}
