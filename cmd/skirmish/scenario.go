package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/team"
)

// Scenario describes the teams of one battle.
type Scenario struct {
	Name  string         `yaml:"name"`
	Owner string         `yaml:"owner"`
	Teams []ScenarioTeam `yaml:"teams"`
}

// ScenarioTeam is one team and the names of the teams it is allied with.
type ScenarioTeam struct {
	Name    string           `yaml:"name"`
	Allies  []string         `yaml:"allies"`
	Members []ScenarioMember `yaml:"members"`
}

// ScenarioMember is one fighter. Restore asks for the saved character of the
// same owner and name when persistence is enabled.
type ScenarioMember struct {
	Class         string `yaml:"class"`
	Name          string `yaml:"name"`
	Owner         string `yaml:"owner"`
	ExplicitClass string `yaml:"explicit_class"`
	Level         int    `yaml:"level"`
	Leader        bool   `yaml:"leader"`
	Restore       bool   `yaml:"restore"`
}

// LoadScenario reads and validates the scenario at path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return DecodeScenario(path, bytes.NewReader(data))
}

// DecodeScenario parses a scenario with unknown fields rejected.
//
// Postcondition: Returns a scenario with at least two teams, every member
// named and classed, and every ally naming a team of the scenario.
func DecodeScenario(source string, r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty scenario", source)
		}
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if s.Owner == "" {
		s.Owner = "scenario"
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if len(s.Teams) < 2 {
		return fmt.Errorf("scenario needs at least 2 teams, got %d", len(s.Teams))
	}
	names := make(map[string]bool, len(s.Teams))
	for _, t := range s.Teams {
		if t.Name == "" {
			return fmt.Errorf("every team needs a name")
		}
		if names[t.Name] {
			return fmt.Errorf("team %q listed twice", t.Name)
		}
		names[t.Name] = true
		if len(t.Members) == 0 {
			return fmt.Errorf("team %q has no members", t.Name)
		}
		for _, m := range t.Members {
			if m.Class == "" || m.Name == "" {
				return fmt.Errorf("team %q: every member needs a class and a name", t.Name)
			}
			if m.Level < 0 {
				return fmt.Errorf("team %q: member %q has negative level %d", t.Name, m.Name, m.Level)
			}
		}
	}
	for _, t := range s.Teams {
		for _, a := range t.Allies {
			if !names[a] {
				return fmt.Errorf("team %q allies unknown team %q", t.Name, a)
			}
		}
	}
	return nil
}

// memberSource builds a scenario member. A nil character with a nil error
// means the source has nothing for that member.
type memberSource func(ctx context.Context, reg *character.Registry, owner string, m ScenarioMember) (*character.Character, error)

// Build creates the characters and teams of s in dir. restore may be nil.
//
// Postcondition: every team exists in dir with its members and mutual
// alliances; characters share the scenario owner unless overridden.
func (s *Scenario) Build(ctx context.Context, reg *character.Registry, dir *team.Directory, restore memberSource) ([]*team.Team, error) {
	teams := make([]*team.Team, 0, len(s.Teams))
	byName := make(map[string]*team.Team, len(s.Teams))
	for _, st := range s.Teams {
		t, err := dir.New(st.Name)
		if err != nil {
			return nil, err
		}
		for _, m := range st.Members {
			c, err := s.member(ctx, reg, m, restore)
			if err != nil {
				return nil, fmt.Errorf("team %s: %w", st.Name, err)
			}
			if err := t.AddMember(c); err != nil {
				return nil, err
			}
			if m.Leader {
				if err := t.SetLeader(c); err != nil {
					return nil, err
				}
			}
		}
		teams = append(teams, t)
		byName[st.Name] = t
	}
	for _, st := range s.Teams {
		for _, ally := range st.Allies {
			t, other := byName[st.Name], byName[ally]
			if t.IsAllyTeam(other) {
				continue
			}
			if err := t.AddAlly(other, true); err != nil {
				return nil, err
			}
		}
	}
	return teams, nil
}

func (s *Scenario) member(ctx context.Context, reg *character.Registry, m ScenarioMember, restore memberSource) (*character.Character, error) {
	owner := m.Owner
	if owner == "" {
		owner = s.Owner
	}
	if m.Restore && restore != nil {
		c, err := restore(ctx, reg, owner, m)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	return reg.Recreate(character.State{
		ClassName:     m.Class,
		Owner:         owner,
		Name:          m.Name,
		ExplicitClass: m.ExplicitClass,
		Level:         max(1, m.Level),
	})
}
