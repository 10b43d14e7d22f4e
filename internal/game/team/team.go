// Package team implements persistent teams of characters, their ally and
// enemy relations, and the disposable alliances used for one encounter.
package team

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/character"
)

var (
	// ErrDuplicateName is returned when a team name is already taken.
	ErrDuplicateName = errors.New("team name already in use")
	// ErrAlreadyInTeam is returned when a character already belongs to a team.
	ErrAlreadyInTeam = errors.New("character already belongs to a team")
	// ErrNotMember is returned when a character is not a member of the team.
	ErrNotMember = errors.New("character is not a member")
	// ErrAlreadyLeader is returned when the character already leads the team.
	ErrAlreadyLeader = errors.New("character already leads the team")
	// ErrNoLeader is returned when removing the leader of a leaderless team.
	ErrNoLeader = errors.New("team has no leader")
)

// Team is a persistent named group. A character belongs to at most one team.
type Team struct {
	name    string
	dir     *Directory
	leader  *character.Character
	members []*character.Character
	rel     relations[*Team]
}

func (t *Team) Name() string { return t.name }
func (t *Team) edges() *relations[*Team] { return &t.rel }

// Leader returns the leader, or nil.
func (t *Team) Leader() *character.Character { return t.leader }

// Members returns a snapshot of the members in join order.
func (t *Team) Members() []*character.Character { return slices.Clone(t.members) }

func (t *Team) Allies() []*Team { return slices.Clone(t.rel.allies) }
func (t *Team) Enemies() []*Team { return slices.Clone(t.rel.enemies) }

// Contains reports whether c is a member.
func (t *Team) Contains(c *character.Character) bool { return slices.Contains(t.members, c) }

// AddMember adds c and records the affiliation on it.
//
// Postcondition: returns ErrAlreadyInTeam when c belongs to any team.
func (t *Team) AddMember(c *character.Character) error {
	if c.Team() != nil {
		return fmt.Errorf("%s belongs to %s: %w", c.Name(), c.Team().Name(), ErrAlreadyInTeam)
	}
	t.members = append(t.members, c)
	c.SetTeam(t)
	return nil
}

// RemoveMember removes c, clearing the leader when c led the team.
func (t *Team) RemoveMember(c *character.Character) error {
	if !t.Contains(c) {
		return fmt.Errorf("%s in %s: %w", c.Name(), t.name, ErrNotMember)
	}
	if t.leader == c {
		t.leader = nil
	}
	t.members = remove(t.members, c)
	c.SetTeam(nil)
	return nil
}

// SetLeader makes c the leader, adding it first when it has no team.
func (t *Team) SetLeader(c *character.Character) error {
	if t.leader == c {
		return fmt.Errorf("%s of %s: %w", c.Name(), t.name, ErrAlreadyLeader)
	}
	if c.Team() == nil {
		if err := t.AddMember(c); err != nil {
			return err
		}
	} else if !t.Contains(c) {
		return fmt.Errorf("%s cannot lead %s: %w", c.Name(), t.name, ErrAlreadyInTeam)
	}
	t.leader = c
	return nil
}

// RemoveLeader clears the leader; the former leader stays a member.
func (t *Team) RemoveLeader() error {
	if t.leader == nil {
		return fmt.Errorf("%s: %w", t.name, ErrNoLeader)
	}
	t.leader = nil
	return nil
}

// AddAlly allies t with other; mutual adds the reverse edge.
func (t *Team) AddAlly(other *Team, mutual bool) error { return addAlly(t, other, mutual) }

// RemoveAlly ends an alliance.
func (t *Team) RemoveAlly(other *Team, mutual bool) error { return removeAlly(t, other, mutual) }

// AddEnemy declares other an enemy; already-enemies is a no-op.
func (t *Team) AddEnemy(other *Team, mutual bool) error { return addEnemy(t, other, mutual) }

// RemoveEnemy ends an enmity.
func (t *Team) RemoveEnemy(other *Team, mutual bool) error { return removeEnemy(t, other, mutual) }

// IsAllyTeam reports whether other is an ally of t.
func (t *Team) IsAllyTeam(other *Team) bool { return t.rel.isAlly(other) }

// IsEnemyTeam reports whether other is an enemy of t.
func (t *Team) IsEnemyTeam(other *Team) bool { return t.rel.isEnemy(other) }

// IsAlly reports whether c is a member of t or of an allied team.
func (t *Team) IsAlly(c *character.Character) bool {
	o, ok := c.Team().(*Team)
	return ok && (o == t || t.rel.isAlly(o))
}

// IsEnemy reports whether c belongs to an enemy team.
func (t *Team) IsEnemy(c *character.Character) bool {
	o, ok := c.Team().(*Team)
	return ok && t.rel.isEnemy(o)
}

// IsTeammate reports whether c belongs to t.
func (t *Team) IsTeammate(c *character.Character) bool {
	o, ok := c.Team().(*Team)
	return ok && o == t
}

// AnyAlive reports whether a member is alive.
func (t *Team) AnyAlive() bool {
	return slices.ContainsFunc(t.members, (*character.Character).IsAlive)
}

// Merge moves other's members and relations into t, then destroys other.
func (t *Team) Merge(other *Team) error {
	if other == t {
		return fmt.Errorf("%s: %w", t.name, ErrSelfRelation)
	}
	if err := t.mergeConflict(other); err != nil {
		return err
	}
	for _, m := range other.Members() {
		m.SetTeam(nil)
		if err := t.AddMember(m); err != nil {
			return err
		}
	}
	other.members = nil
	other.leader = nil
	for _, ally := range other.Allies() {
		if ally != t && !t.rel.isAlly(ally) {
			if err := t.AddAlly(ally, true); err != nil {
				return err
			}
		}
	}
	for _, enemy := range other.Enemies() {
		if enemy != t {
			if err := t.AddEnemy(enemy, true); err != nil {
				return err
			}
		}
	}
	other.Destroy()
	return nil
}

// mergeConflict reports a relation of other that t cannot take over. Both
// directions are checked since t inherits other's edges mutually.
func (t *Team) mergeConflict(other *Team) error {
	for _, ally := range other.rel.allies {
		if ally != t && (t.rel.isEnemy(ally) || ally.rel.isEnemy(t)) {
			return fmt.Errorf("merging %s into %s: %s: %w", other.name, t.name, ally.name, ErrRelationConflict)
		}
	}
	for _, enemy := range other.rel.enemies {
		if enemy != t && (t.rel.isAlly(enemy) || enemy.rel.isAlly(t)) {
			return fmt.Errorf("merging %s into %s: %s: %w", other.name, t.name, enemy.name, ErrRelationConflict)
		}
	}
	return nil
}

// Destroy unregisters t, drops every relation to it and clears its members'
// affiliation.
func (t *Team) Destroy() {
	if t.dir != nil {
		t.dir.Remove(t)
	}
	for _, o := range append(t.rel.allies, t.rel.enemies...) {
		o.rel.forget(t)
	}
	for _, m := range t.members {
		m.SetTeam(nil)
	}
	t.members, t.leader = nil, nil
	t.rel = relations[*Team]{}
}

func (t *Team) String() string {
	names := make([]string, len(t.members))
	for i, m := range t.members {
		names[i] = m.Name()
	}
	return fmt.Sprintf("Team %q [%s]: %d allies, %d enemies", t.name, strings.Join(names, ", "), len(t.rel.allies), len(t.rel.enemies))
}
