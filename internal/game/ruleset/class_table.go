// Package ruleset loads the static class tables that parameterise characters
// and holds the balancing constants of the combat core.
package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Class types recognised in class tables.
const (
	ClassTypeDefault    = "default"
	ClassTypeDamage     = "damage"
	ClassTypeDot        = "dot"
	ClassTypeHeal       = "heal"
	ClassTypeBuff       = "buff"
	ClassTypeShield     = "shield"
	ClassTypeInvocation = "invocation"
	ClassTypeSummoner   = "summoner"
)

var classTypes = map[string]bool{
	ClassTypeDefault: true, ClassTypeDamage: true, ClassTypeDot: true, ClassTypeHeal: true,
	ClassTypeBuff: true, ClassTypeShield: true, ClassTypeInvocation: true, ClassTypeSummoner: true,
}

var attributeKeys = map[string]bool{"hp": true, "force": true, "endurance": true, "intelligence": true, "wisdom": true}

var energyKeys = map[string]bool{"mana": true, "aura": true, "ki": true, "faith": true}

// EnergyDef describes one energy pool.
type EnergyDef struct {
	Type  string `yaml:"type"`
	Value int    `yaml:"value"`
	// RegenRate is nil when the table relies on the type's default rate.
	RegenRate *float64 `yaml:"regen_rate"`
}

// BaseStats holds the level-1 values of a class.
type BaseStats struct {
	HP           int         `yaml:"hp"`
	Force        int         `yaml:"force"`
	Endurance    int         `yaml:"endurance"`
	Intelligence int         `yaml:"intelligence"`
	Wisdom       int         `yaml:"wisdom"`
	Energy       []EnergyDef `yaml:"energy"`
}

// Attribute returns the base value of the named stat.
func (b BaseStats) Attribute(name string) int {
	switch name {
	case "hp":
		return b.HP
	case "force":
		return b.Force
	case "endurance":
		return b.Endurance
	case "intelligence":
		return b.Intelligence
	case "wisdom":
		return b.Wisdom
	}
	return 0
}

// Upgrade is the set of deltas granted at every level at or above its threshold.
type Upgrade struct {
	Stats     map[string]int `yaml:"stats"`
	Energy    map[string]int `yaml:"energy"`
	NewEnergy []EnergyDef    `yaml:"new_energy"`
}

// Advantage is the damage-type profile of a class.
type Advantage struct {
	Weak      []string `yaml:"weak"`
	Resilient []string `yaml:"resilient"`
}

// IsWeakTo reports whether damageType appears in Weak.
func (a Advantage) IsWeakTo(damageType string) bool {
	return contains(a.Weak, damageType)
}

// IsResilientTo reports whether damageType appears in Resilient.
func (a Advantage) IsResilientTo(damageType string) bool {
	return contains(a.Resilient, damageType)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}

// SummonDef names the class and skill tier of an invoked character.
type SummonDef struct {
	Class string `yaml:"class"`
	Tier  string `yaml:"tier"`
}

// EffectDef is the authoring form of one skill effect.
type EffectDef struct {
	Value    int    `yaml:"value"`
	Duration int    `yaml:"duration"`
	Stat     string `yaml:"stat"`
	Kind     string `yaml:"kind"`
	Layer    string `yaml:"layer"`
	// Scaling multiplies the caster's damage attribute and adds it to Value.
	Scaling float64    `yaml:"scaling"`
	Summon  *SummonDef `yaml:"summon"`
}

// SkillDef is the authoring form of a skill.
type SkillDef struct {
	Name            string               `yaml:"name"`
	Type            string               `yaml:"type"`
	DamageType      string               `yaml:"damage_type"`
	EnergyCost      int                  `yaml:"energy_cost"`
	EnergyType      string               `yaml:"energy_type"`
	Cooldown        int                  `yaml:"cooldown"`
	RequiresTarget  *bool                `yaml:"requires_target"`
	CanTargetOthers bool                 `yaml:"can_target_others"`
	Resolver        string               `yaml:"resolver"`
	Description     string               `yaml:"description"`
	Effects         map[string]EffectDef `yaml:"effects"`
}

// ClassTable is the static definition of a character class.
type ClassTable struct {
	ID           string                `yaml:"id"`
	Name         string                `yaml:"name"`
	ClassType    string                `yaml:"class_type"`
	BaseStats    *BaseStats            `yaml:"base_stats"`
	UpgradeStats map[int]Upgrade       `yaml:"upgrade_stats"`
	Skills       map[string][]SkillDef `yaml:"class_skills_dict"`
	Advantage    *Advantage            `yaml:"advantage"`
}

// LevelKey returns the class_skills_dict key of skills unlocked at level.
func LevelKey(level int) string {
	return "level " + strconv.Itoa(level)
}

// SkillsAt returns the skills listed under key ("level 5", "BL", ...).
func (c *ClassTable) SkillsAt(key string) []SkillDef {
	return c.Skills[key]
}

// FindSkill searches every tier for a skill named name (case-insensitive).
func (c *ClassTable) FindSkill(name string) (SkillDef, bool) {
	for _, key := range c.SkillKeys() {
		for _, s := range c.Skills[key] {
			if strings.EqualFold(s.Name, name) {
				return s, true
			}
		}
	}
	return SkillDef{}, false
}

// SkillKeys returns the class_skills_dict keys in a stable order: level keys
// by ascending level, then the remaining tiers alphabetically.
func (c *ClassTable) SkillKeys() []string {
	keys := make([]string, 0, len(c.Skills))
	for k := range c.Skills {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		li, iok := parseLevelKey(keys[i])
		lj, jok := parseLevelKey(keys[j])
		switch {
		case iok && jok:
			return li < lj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func parseLevelKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "level ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	return n, err == nil
}

// Thresholds returns the upgrade thresholds in ascending order.
func (c *ClassTable) Thresholds() []int {
	out := make([]int, 0, len(c.UpgradeStats))
	for k := range c.UpgradeStats {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// IsInvocation reports whether the class describes a summoned character.
func (c *ClassTable) IsInvocation() bool {
	return c.ClassType == ClassTypeInvocation
}

// Validate checks the required keys and the shape of the values the core reads.
//
// Postcondition: Returns nil or a *ConfigurationError listing every problem.
func (c *ClassTable) Validate() error {
	p := problems{source: "class table " + strconv.Quote(c.ID)}
	if c.ID == "" {
		p.addf("id must not be empty")
	}
	if c.BaseStats == nil {
		p.addf("missing required key base_stats")
	}
	if c.UpgradeStats == nil {
		p.addf("missing required key upgrade_stats")
	}
	if c.Skills == nil {
		p.addf("missing required key class_skills_dict")
	}
	if c.ClassType == "" {
		p.addf("missing required key class_type")
	} else if !classTypes[c.ClassType] {
		p.addf("unknown class_type %q", c.ClassType)
	}
	if c.Advantage == nil {
		p.addf("missing required key advantage")
	}
	if c.BaseStats != nil {
		validateBaseStats(&p, c.BaseStats)
	}
	for _, lvl := range c.Thresholds() {
		validateUpgrade(&p, lvl, c.UpgradeStats[lvl])
	}
	if c.Advantage != nil {
		for _, dt := range append(append([]string(nil), c.Advantage.Weak...), c.Advantage.Resilient...) {
			if !damageTypes[strings.ToLower(dt)] {
				p.addf("advantage: unknown damage type %q", dt)
			}
		}
	}
	for key, defs := range c.Skills {
		for i, s := range defs {
			if strings.TrimSpace(s.Name) == "" {
				p.addf("class_skills_dict[%q][%d]: skill name must not be empty", key, i)
			}
		}
	}
	return p.err()
}

var damageTypes = map[string]bool{"physical": true, "magic": true, "sacred": true}

func validateBaseStats(p *problems, b *BaseStats) {
	for _, name := range []string{"hp", "force", "endurance", "intelligence", "wisdom"} {
		if b.Attribute(name) < 0 {
			p.addf("base_stats.%s must be >= 0", name)
		}
	}
	if b.HP < 1 {
		p.addf("base_stats.hp must be >= 1")
	}
	seen := map[string]bool{}
	for _, e := range b.Energy {
		validateEnergy(p, "base_stats.energy", e)
		if seen[e.Type] {
			p.addf("base_stats.energy: duplicate type %q", e.Type)
		}
		seen[e.Type] = true
	}
}

func validateEnergy(p *problems, where string, e EnergyDef) {
	if !energyKeys[e.Type] {
		p.addf("%s: unknown energy type %q", where, e.Type)
	}
	if e.Value < 0 {
		p.addf("%s: %s value must be >= 0", where, e.Type)
	}
	if e.RegenRate != nil && (*e.RegenRate < 0 || *e.RegenRate > 1) {
		p.addf("%s: %s regen_rate must be in [0, 1]", where, e.Type)
	}
}

func validateUpgrade(p *problems, lvl int, u Upgrade) {
	if lvl < 1 {
		p.addf("upgrade_stats: threshold %d must be >= 1", lvl)
	}
	for name, delta := range u.Stats {
		if !attributeKeys[name] {
			p.addf("upgrade_stats[%d]: unknown stat %q", lvl, name)
		}
		if delta < 0 {
			p.addf("upgrade_stats[%d]: %s delta must be >= 0", lvl, name)
		}
	}
	for name, delta := range u.Energy {
		if !energyKeys[name] {
			p.addf("upgrade_stats[%d]: unknown energy type %q", lvl, name)
		}
		if delta < 0 {
			p.addf("upgrade_stats[%d]: %s delta must be >= 0", lvl, name)
		}
	}
	for _, e := range u.NewEnergy {
		validateEnergy(p, fmt.Sprintf("upgrade_stats[%d].new_energy", lvl), e)
	}
}

// DecodeClassTable strictly decodes one class table and validates it.
//
// Postcondition: Returns a valid table, or an error wrapping ErrConfiguration
// for unknown keys and missing required keys.
func DecodeClassTable(source string, r io.Reader) (*ClassTable, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c ClassTable
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, NewConfigurationError(source, "empty class table")
		}
		return nil, NewConfigurationError(source, err.Error())
	}
	if c.ID == "" {
		c.ID = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	if c.Name == "" {
		c.Name = c.ID
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadClassTable reads and validates the class table at path.
//
// Precondition: path must be a readable YAML file.
func LoadClassTable(path string) (*ClassTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return DecodeClassTable(path, bytes.NewReader(data))
}

// LoadClassTables reads every .yaml/.yml file in dir as a class table.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all tables sorted by ID, or the first error; IDs are unique.
func LoadClassTables(dir string) ([]*ClassTable, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	tables := make([]*ClassTable, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, path := range files {
		t, err := LoadClassTable(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[t.ID]; dup {
			return nil, NewConfigurationError(path, fmt.Sprintf("class id %q already defined in %s", t.ID, prev))
		}
		seen[t.ID] = path
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	return tables, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
