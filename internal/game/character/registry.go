package character

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

// ErrUnknownClass is returned when no constructor is registered for a class.
var ErrUnknownClass = errors.New("unknown class")

// Params are the identity fields passed to a Constructor.
type Params struct {
	Owner string
	Name  string
	// ExplicitClass overrides the displayed class name.
	ExplicitClass string
	// Skills, when non-nil, replaces the skills granted by the class table.
	Skills []string
	Level  int
	Exp    int
	// Master and Tier are set for summons.
	Master *Character
	Tier   string
}

// Constructor builds a character of one class.
type Constructor func(r *Registry, table *ruleset.ClassTable, p Params) (*Character, error)

type entry struct {
	table *ruleset.ClassTable
	ctor  Constructor
}

// Registry maps class names to constructors. It is a process-scoped service:
// build one per simulation and pass it where characters are created.
type Registry struct {
	mu        sync.RWMutex
	classes   map[string]entry
	balance   ruleset.Balance
	resolvers *skill.Resolvers
}

// NewRegistry creates an empty registry.
//
// Precondition: resolvers must not be nil.
func NewRegistry(balance ruleset.Balance, resolvers *skill.Resolvers) *Registry {
	if resolvers == nil {
		panic("character.NewRegistry: resolvers must not be nil")
	}
	return &Registry{classes: make(map[string]entry), balance: balance, resolvers: resolvers}
}

// Balance returns the constants characters are built with.
func (r *Registry) Balance() ruleset.Balance { return r.balance }

// Register installs ctor for the class described by table.
//
// Precondition: table and ctor must not be nil.
func (r *Registry) Register(table *ruleset.ClassTable, ctor Constructor) error {
	if table == nil || ctor == nil {
		return fmt.Errorf("registering class: table and constructor are required")
	}
	if err := table.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[strings.ToLower(table.ID)] = entry{table: table, ctor: ctor}
	return nil
}

// RegisterTable installs the table-driven constructor for table.
func (r *Registry) RegisterTable(table *ruleset.ClassTable) error {
	return r.Register(table, Build)
}

// Classes returns the registered class names in ascending order.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.classes))
	for k := range r.classes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Table returns the class table registered under class.
func (r *Registry) Table(class string) (*ruleset.ClassTable, bool) {
	e, ok := r.lookup(class)
	return e.table, ok
}

func (r *Registry) lookup(class string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.classes[strings.ToLower(class)]
	return e, ok
}

// Create builds a level-1 character of class.
//
// Postcondition: returns ErrUnknownClass when class is not registered.
func (r *Registry) Create(class, owner, name string) (*Character, error) {
	e, ok := r.lookup(class)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	return e.ctor(r, e.table, Params{Owner: owner, Name: name, Level: 1})
}

// State is the saved form of a character.
type State struct {
	ClassName     string
	Owner         string
	Name          string
	Table         *ruleset.ClassTable
	Skills        []string
	ExplicitClass string
	Level         int
	Exp           int
}

// Recreate rebuilds a saved character with exactly the given field values.
// Upgrades up to Level are re-applied without granting experience. A nil
// Table uses the registered one.
func (r *Registry) Recreate(s State) (*Character, error) {
	e, ok := r.lookup(s.ClassName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, s.ClassName)
	}
	table := e.table
	if s.Table != nil {
		table = s.Table
	}
	return e.ctor(r, table, Params{
		Owner:         s.Owner,
		Name:          s.Name,
		ExplicitClass: s.ExplicitClass,
		Skills:        s.Skills,
		Level:         max(1, s.Level),
		Exp:           s.Exp,
	})
}

// Summon builds a summon of class at tier bound to master. It does not touch
// master's pocket.
func (r *Registry) Summon(master *Character, class, tier string) (*Character, error) {
	e, ok := r.lookup(class)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	master.summoned[strings.ToLower(class)]++
	label := e.table.Name
	if label == "" {
		label = class
	}
	name := fmt.Sprintf("%s of %s #%d", label, master.name, master.summoned[strings.ToLower(class)])
	return e.ctor(r, e.table, Params{Owner: master.owner, Name: name, Level: 1, Master: master, Tier: tier})
}

func (r *Registry) buildSkill(def ruleset.SkillDef) (*skill.Skill, error) {
	return skill.FromDef(def, r.resolvers, r.balance)
}

// Build is the table-driven Constructor.
//
// Precondition: table must be valid; p.Owner and p.Name must be non-empty.
// Postcondition: returns a full-HP character at p.Level with p.Exp experience.
func Build(r *Registry, table *ruleset.ClassTable, p Params) (*Character, error) {
	if strings.TrimSpace(p.Owner) == "" {
		return nil, fmt.Errorf("character owner must not be empty")
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("character name must not be empty")
	}
	if table == nil || table.BaseStats == nil {
		return nil, ruleset.NewConfigurationError("character "+p.Name, "class table with base_stats is required")
	}

	hp, err := stat.NewVital(table.BaseStats.HP)
	if err != nil {
		return nil, err
	}
	c := &Character{
		id:            uuid.New(),
		owner:         p.Owner,
		name:          p.Name,
		class:         table.ID,
		explicitClass: p.ExplicitClass,
		table:         table,
		level:         1,
		canLevelUp:    !table.IsInvocation() && p.Master == nil,
		hp:            hp,
		attrs:         make(map[stat.Name]*stat.Stat, len(stat.Attributes)),
		pools:         stat.NewPools(),
		alterations:   alteration.NewSet(),
		pocket:        NewPocket(r.balance.PocketCapacity),
		master:        p.Master,
		summoned:      make(map[string]int),
		newEnergy:     make(map[int]bool),
		balance:       r.balance,
		registry:      r,
	}
	for _, name := range stat.Attributes {
		s, err := stat.New(string(name), table.BaseStats.Attribute(string(name)))
		if err != nil {
			return nil, err
		}
		c.attrs[name] = s
	}
	for _, def := range table.BaseStats.Energy {
		pool, err := newPool(def)
		if err != nil {
			return nil, err
		}
		if err := c.pools.Add(pool); err != nil {
			return nil, err
		}
	}

	if err := c.grantSkills(p); err != nil {
		return nil, err
	}
	gains := levelGains{stats: map[string]int{}, energy: map[string]int{}}
	for lvl := 2; lvl <= p.Level; lvl++ {
		c.level = lvl
		if err := c.applyUpgrades(lvl, &gains); err != nil {
			return nil, err
		}
	}
	c.exp = max(0, p.Exp)
	return c, nil
}

// grantSkills installs the explicit skill list, a summon tier, or every
// level key up to p.Level.
func (c *Character) grantSkills(p Params) error {
	var defs []ruleset.SkillDef
	switch {
	case p.Skills != nil:
		for _, name := range p.Skills {
			def, ok := c.table.FindSkill(name)
			if !ok {
				return ruleset.NewConfigurationError("character "+c.name, fmt.Sprintf("class %s has no skill %q", c.class, name))
			}
			defs = append(defs, def)
		}
	case c.table.IsInvocation() || p.Tier != "":
		defs = c.table.SkillsAt(p.Tier)
	default:
		for lvl := 1; lvl <= max(1, p.Level); lvl++ {
			defs = append(defs, c.table.SkillsAt(ruleset.LevelKey(lvl))...)
		}
	}
	for _, def := range defs {
		s, err := c.registry.buildSkill(def)
		if err != nil {
			return err
		}
		c.learn(s)
	}
	return nil
}
