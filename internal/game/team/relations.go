package team

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrSelfRelation is returned when a group is related to itself.
	ErrSelfRelation = errors.New("cannot relate a group to itself")
	// ErrAlreadyAllied is returned when adding an existing ally.
	ErrAlreadyAllied = errors.New("already allied")
	// ErrRelationConflict is returned when a pair would be both allied and enemies.
	ErrRelationConflict = errors.New("allies and enemies are mutually exclusive")
	// ErrNotRelated is returned when removing a relation that does not exist.
	ErrNotRelated = errors.New("not related")
)

// relations holds the ally and enemy edges of one group. Team and Alliance
// share it through the node constraint.
type relations[T comparable] struct {
	allies  []T
	enemies []T
}

type node[T comparable] interface {
	comparable
	Name() string
	edges() *relations[T]
}

func (r *relations[T]) isAlly(t T) bool { return slices.Contains(r.allies, t) }
func (r *relations[T]) isEnemy(t T) bool { return slices.Contains(r.enemies, t) }

func remove[T comparable](list []T, t T) []T {
	i := slices.Index(list, t)
	if i < 0 {
		return list
	}
	return slices.Delete(slices.Clone(list), i, i+1)
}

// addAlly links self and other as allies; with mutual the edge is added on
// both sides. Nothing changes on error.
func addAlly[T node[T]](self, other T, mutual bool) error {
	if self == other {
		return fmt.Errorf("%s: %w", self.Name(), ErrSelfRelation)
	}
	if self.edges().isAlly(other) {
		return fmt.Errorf("%s and %s: %w", self.Name(), other.Name(), ErrAlreadyAllied)
	}
	if self.edges().isEnemy(other) || (mutual && other.edges().isEnemy(self)) {
		return fmt.Errorf("cannot ally %s with enemy %s: %w", self.Name(), other.Name(), ErrRelationConflict)
	}
	self.edges().allies = append(self.edges().allies, other)
	if mutual && !other.edges().isAlly(self) {
		other.edges().allies = append(other.edges().allies, self)
	}
	return nil
}

// removeAlly unlinks an existing alliance.
func removeAlly[T node[T]](self, other T, mutual bool) error {
	if !self.edges().isAlly(other) {
		return fmt.Errorf("%s and %s: %w", self.Name(), other.Name(), ErrNotRelated)
	}
	self.edges().allies = remove(self.edges().allies, other)
	if mutual {
		other.edges().allies = remove(other.edges().allies, self)
	}
	return nil
}

// addEnemy marks other as an enemy of self. Adding an existing enemy is a
// no-op; declaring an ally an enemy fails.
func addEnemy[T node[T]](self, other T, mutual bool) error {
	if self == other {
		return fmt.Errorf("%s: %w", self.Name(), ErrSelfRelation)
	}
	if self.edges().isAlly(other) || (mutual && other.edges().isAlly(self)) {
		return fmt.Errorf("cannot declare ally %s an enemy of %s: %w", other.Name(), self.Name(), ErrRelationConflict)
	}
	if !self.edges().isEnemy(other) {
		self.edges().enemies = append(self.edges().enemies, other)
	}
	if mutual && !other.edges().isEnemy(self) {
		other.edges().enemies = append(other.edges().enemies, self)
	}
	return nil
}

// removeEnemy ends an existing enmity.
func removeEnemy[T node[T]](self, other T, mutual bool) error {
	if !self.edges().isEnemy(other) {
		return fmt.Errorf("%s and %s: %w", self.Name(), other.Name(), ErrNotRelated)
	}
	self.edges().enemies = remove(self.edges().enemies, other)
	if mutual {
		other.edges().enemies = remove(other.edges().enemies, self)
	}
	return nil
}

// forget drops every edge pointing at t.
func (r *relations[T]) forget(t T) {
	r.allies = remove(r.allies, t)
	r.enemies = remove(r.enemies, t)
}
