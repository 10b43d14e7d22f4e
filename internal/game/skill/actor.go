package skill

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

// ErrPocketFull is returned by Actor.Summon when no summon slot is free.
var ErrPocketFull = errors.New("summon pocket full")

// Actor is the subset of a character used by skill resolution. Using a local
// interface avoids a circular import with the character package.
type Actor interface {
	alteration.Caster
	ID() string
	IsAlive() bool
	HP() (current, max int)
	Attribute(name stat.Name) int
	Pool(t stat.EnergyType) (*stat.Pool, bool)
	Affinity(dt DamageType) Affinity
	// LoseHP applies damage from source.
	//
	// Precondition: amount > 0.
	LoseHP(source Actor, amount int) (string, error)
	// GainHP restores up to amount and reports the HP actually restored.
	GainHP(amount int) (int, string, error)
	// Resurrect revives a defeated actor.
	Resurrect(reviver Actor) (string, error)
	// Alter attaches the alteration described by e, cast by caster.
	Alter(caster Actor, e Effect) (bool, string)
	// Summon creates a character of class at tier in the actor's pocket and
	// returns its name, or ErrPocketFull.
	Summon(class, tier string) (string, error)
}

// Resolver replaces the built-in handler of a skill.
type Resolver interface {
	Resolve(caster, target Actor, s *Skill) (Outcome, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(caster, target Actor, s *Skill) (Outcome, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(caster, target Actor, s *Skill) (Outcome, error) {
	return f(caster, target, s)
}

// ResolverSource supplies resolvers that are not registered by name up front,
// such as scripted ones.
type ResolverSource interface {
	Resolver(name string) (Resolver, bool)
}

// Resolvers is a process-scoped registry of custom resolvers. Construct one
// per simulation and pass it to skill construction.
type Resolvers struct {
	mu      sync.RWMutex
	byName  map[string]Resolver
	sources []ResolverSource
}

// NewResolvers returns a registry holding the built-in resolvers.
//
// Postcondition: Lookup("multi_action") succeeds.
func NewResolvers() *Resolvers {
	r := &Resolvers{byName: make(map[string]Resolver)}
	r.Register(MultiActionName, ResolverFunc(MultiAction))
	return r
}

// Register adds resolver under name, replacing any previous registration.
//
// Precondition: name must be non-empty and resolver non-nil.
func (r *Resolvers) Register(name string, resolver Resolver) {
	if name == "" || resolver == nil {
		panic("skill: Resolvers.Register requires a name and a resolver")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[strings.ToLower(name)] = resolver
}

// AddSource appends a fallback source consulted after named registrations.
func (r *Resolvers) AddSource(src ResolverSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, src)
}

// Lookup finds the resolver called name.
func (r *Resolvers) Lookup(name string) (Resolver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if res, ok := r.byName[strings.ToLower(name)]; ok {
		return res, nil
	}
	for _, src := range r.sources {
		if res, ok := src.Resolver(name); ok {
			return res, nil
		}
	}
	return nil, fmt.Errorf("no resolver named %q", name)
}
