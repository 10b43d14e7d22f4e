package team

import (
	"fmt"
	"slices"

	"github.com/cory-johannsen/skirmish/internal/game/character"
)

// Alliance is a disposable grouping of fighters for one encounter. Membership
// is non-exclusive and never touches a character's team affiliation.
type Alliance struct {
	name    string
	members []*character.Character
	teams   []*Team
	rel     relations[*Alliance]
}

// NewAlliance creates an empty alliance.
func NewAlliance(name string, members ...*character.Character) *Alliance {
	a := &Alliance{name: name}
	for _, m := range members {
		a.AddMember(m)
	}
	return a
}

func (a *Alliance) Name() string { return a.name }
func (a *Alliance) edges() *relations[*Alliance] { return &a.rel }

// AddMember adds c when not already present.
func (a *Alliance) AddMember(c *character.Character) {
	if !a.Contains(c) {
		a.members = append(a.members, c)
	}
}

// AddTeam records t and adds all of its members.
func (a *Alliance) AddTeam(t *Team) {
	if !slices.Contains(a.teams, t) {
		a.teams = append(a.teams, t)
	}
	for _, m := range t.Members() {
		a.AddMember(m)
	}
}

// RemoveMember removes c.
func (a *Alliance) RemoveMember(c *character.Character) error {
	if !a.Contains(c) {
		return fmt.Errorf("%s in alliance %s: %w", c.Name(), a.name, ErrNotMember)
	}
	a.members = remove(a.members, c)
	return nil
}

// Contains reports whether c fights for the alliance.
func (a *Alliance) Contains(c *character.Character) bool { return slices.Contains(a.members, c) }

// Members returns a snapshot in join order.
func (a *Alliance) Members() []*character.Character { return slices.Clone(a.members) }

// Living returns the members currently alive.
func (a *Alliance) Living() []*character.Character {
	var out []*character.Character
	for _, m := range a.members {
		if m.IsAlive() {
			out = append(out, m)
		}
	}
	return out
}

// Teams returns the teams folded into the alliance.
func (a *Alliance) Teams() []*Team { return slices.Clone(a.teams) }

// AnyAlive reports whether a member is alive.
func (a *Alliance) AnyAlive() bool {
	return slices.ContainsFunc(a.members, (*character.Character).IsAlive)
}

func (a *Alliance) AddAlly(other *Alliance, mutual bool) error { return addAlly(a, other, mutual) }
func (a *Alliance) RemoveAlly(other *Alliance, mutual bool) error {
	return removeAlly(a, other, mutual)
}
func (a *Alliance) AddEnemy(other *Alliance, mutual bool) error { return addEnemy(a, other, mutual) }
func (a *Alliance) RemoveEnemy(other *Alliance, mutual bool) error {
	return removeEnemy(a, other, mutual)
}

func (a *Alliance) IsAlly(other *Alliance) bool { return a.rel.isAlly(other) }
func (a *Alliance) IsEnemy(other *Alliance) bool { return a.rel.isEnemy(other) }
func (a *Alliance) Allies() []*Alliance { return slices.Clone(a.rel.allies) }
func (a *Alliance) Enemies() []*Alliance { return slices.Clone(a.rel.enemies) }

// Clear drops members, teams and relations. Persistent team state is left
// untouched.
func (a *Alliance) Clear() {
	for _, o := range a.rel.allies {
		o.rel.forget(a)
	}
	for _, o := range a.rel.enemies {
		o.rel.forget(a)
	}
	a.members, a.teams = nil, nil
	a.rel = relations[*Alliance]{}
}

func (a *Alliance) String() string {
	return fmt.Sprintf("Alliance %q: %d members, %d teams", a.name, len(a.members), len(a.teams))
}
