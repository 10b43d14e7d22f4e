package team

import (
	"fmt"
	"slices"
	"sync"

	"github.com/cory-johannsen/skirmish/internal/game/character"
)

// Directory is the process-scoped registry enforcing unique team names.
type Directory struct {
	mu      sync.Mutex
	teams   []*Team
	created int
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{}
}

// New registers a team called name, or "Team N" when name is empty, and adds
// members to it.
//
// Postcondition: returns ErrDuplicateName when name is taken; the directory is
// unchanged on error.
func (d *Directory) New(name string, members ...*character.Character) (*Team, error) {
	d.mu.Lock()
	if name == "" {
		name = d.nextName()
	}
	if d.find(name) != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	t := &Team{name: name, dir: d}
	d.teams = append(d.teams, t)
	d.created++
	d.mu.Unlock()

	for _, m := range members {
		if err := t.AddMember(m); err != nil {
			t.Destroy()
			return nil, err
		}
	}
	return t, nil
}

// nextName returns the first free "Team N" with N above the teams created so
// far.
//
// Precondition: d.mu is held.
func (d *Directory) nextName() string {
	for n := d.created + 1; ; n++ {
		name := fmt.Sprintf("Team %d", n)
		if d.find(name) == nil {
			return name
		}
	}
}

// Get returns the team called name.
func (d *Directory) Get(name string) (*Team, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.find(name)
	return t, t != nil
}

func (d *Directory) find(name string) *Team {
	for _, t := range d.teams {
		if t.name == name {
			return t
		}
	}
	return nil
}

// Teams returns the registered teams in creation order.
func (d *Directory) Teams() []*Team {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.teams)
}

// Rename changes t's name.
//
// Postcondition: returns ErrDuplicateName when another team holds name.
func (d *Directory) Rename(t *Team, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if other := d.find(name); other != nil && other != t {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	t.name = name
	return nil
}

// Remove unregisters t and drops every relation pointing at it.
func (d *Directory) Remove(t *Team) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teams = remove(d.teams, t)
	for _, other := range d.teams {
		other.rel.forget(t)
	}
}
