package skill

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

// Type selects the built-in handler of a skill.
type Type int

const (
	Damage Type = iota + 1
	Heal
	Buff
	Debuff
	Resurrect
	Invocation
	Custom
)

var typeNames = map[Type]string{
	Damage:     "damage",
	Heal:       "heal",
	Buff:       "buff",
	Debuff:     "debuff",
	Resurrect:  "resurrect",
	Invocation: "invocation",
	Custom:     "custom",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType maps a content name to a Type.
func ParseType(s string) (Type, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == want {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown skill type %q", s)
}

// DamageType selects the attribute that scales a damaging skill.
type DamageType string

const (
	Physical DamageType = "physical"
	Magic    DamageType = "magic"
	Sacred   DamageType = "sacred"
)

// ParseDamageType maps a content name to a DamageType.
func ParseDamageType(s string) (DamageType, error) {
	dt := DamageType(strings.ToLower(strings.TrimSpace(s)))
	switch dt {
	case Physical, Magic, Sacred:
		return dt, nil
	}
	return "", fmt.Errorf("unknown damage type %q", s)
}

// Attribute returns the stat scaling damage of this type.
func (d DamageType) Attribute() stat.Name {
	switch d {
	case Magic:
		return stat.Intelligence
	case Sacred:
		return stat.Wisdom
	default:
		return stat.Force
	}
}

// Affinity is a target's relation to a damage type.
type Affinity int

const (
	Neutral Affinity = iota
	Weak
	Resilient
)
