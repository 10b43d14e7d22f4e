package character

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/skill"
)

// Pocket is the bounded list of summons owned by one character.
//
// Invariant: Len() <= Capacity().
type Pocket struct {
	capacity int
	items    []*Character
}

// NewPocket creates an empty pocket.
//
// Precondition: capacity >= 0.
func NewPocket(capacity int) *Pocket {
	return &Pocket{capacity: max(0, capacity)}
}

func (p *Pocket) Capacity() int { return p.capacity }
func (p *Pocket) Len() int { return len(p.items) }
func (p *Pocket) Full() bool { return len(p.items) >= p.capacity }

// Add binds c to the pocket.
//
// Postcondition: returns skill.ErrPocketFull when Full().
func (p *Pocket) Add(c *Character) error {
	if p.Full() {
		return fmt.Errorf("%w: %d/%d", skill.ErrPocketFull, len(p.items), p.capacity)
	}
	p.items = append(p.items, c)
	return nil
}

// Remove unbinds c and reports whether it was present.
func (p *Pocket) Remove(c *Character) bool {
	for i, x := range p.items {
		if x == c {
			p.items = append(p.items[:i:i], p.items[i+1:]...)
			return true
		}
	}
	return false
}

// All returns a snapshot of the summons.
func (p *Pocket) All() []*Character {
	return append([]*Character(nil), p.items...)
}

// Living returns a snapshot of the summons still alive.
func (p *Pocket) Living() []*Character {
	var out []*Character
	for _, c := range p.items {
		if c.IsAlive() {
			out = append(out, c)
		}
	}
	return out
}

// Clear empties the pocket and returns what it held.
func (p *Pocket) Clear() []*Character {
	out := p.items
	p.items = nil
	return out
}
