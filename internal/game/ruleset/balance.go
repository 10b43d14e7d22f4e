package ruleset

import (
	"fmt"
	"math"
)

// Balance holds the tunable constants of the combat core.
type Balance struct {
	// EnduranceCeiling, EnduranceSteepness and EnduranceMidpoint shape the
	// logistic damage reduction L / (1 + e^(-k*(endurance-x0))).
	EnduranceCeiling   float64
	EnduranceSteepness float64
	EnduranceMidpoint  float64
	// XPPerLevel times the current level is the experience needed to level up.
	XPPerLevel int
	// XPDropPerLevel times the loser's level is added to its experience on death.
	XPDropPerLevel int
	// DeathLevelPenalty is the number of levels lost on death, floored at 1.
	DeathLevelPenalty int
	// PocketCapacity bounds the number of simultaneous summons.
	PocketCapacity int
	// ResurrectFraction of max HP is restored by a resurrection.
	ResurrectFraction float64
	// WeaknessMultiplier and ResilienceMultiplier scale damage of a type the
	// target is weak or resilient to.
	WeaknessMultiplier   float64
	ResilienceMultiplier float64
	// MaxRounds bounds an automatic battle.
	MaxRounds int
}

// DefaultBalance returns the stock constants.
func DefaultBalance() Balance {
	return Balance{
		EnduranceCeiling:     0.9,
		EnduranceSteepness:   0.02,
		EnduranceMidpoint:    150,
		XPPerLevel:           100,
		XPDropPerLevel:       50,
		DeathLevelPenalty:    5,
		PocketCapacity:       2,
		ResurrectFraction:    0.5,
		WeaknessMultiplier:   1.5,
		ResilienceMultiplier: 0.5,
		MaxRounds:            500,
	}
}

// EnduranceReduction returns the whole-percent damage reduction granted by endurance.
//
// Postcondition: 0 <= result < 100.
func (b Balance) EnduranceReduction(endurance int) int {
	r := b.EnduranceCeiling / (1 + math.Exp(-b.EnduranceSteepness*(float64(endurance)-b.EnduranceMidpoint)))
	return int(r * 100)
}

// XPToLevel returns the experience required to leave level.
func (b Balance) XPToLevel(level int) int {
	return level * b.XPPerLevel
}

// Validate checks the constants for values the core cannot operate with.
func (b Balance) Validate() error {
	p := problems{source: "balance"}
	if b.EnduranceCeiling < 0 || b.EnduranceCeiling >= 1 {
		p.addf("endurance ceiling %g outside [0, 1)", b.EnduranceCeiling)
	}
	if b.XPPerLevel < 1 {
		p.addf("xp per level must be >= 1, got %d", b.XPPerLevel)
	}
	if b.PocketCapacity < 0 {
		p.addf("pocket capacity must be >= 0, got %d", b.PocketCapacity)
	}
	if b.ResurrectFraction <= 0 || b.ResurrectFraction > 1 {
		p.addf("resurrect fraction %g outside (0, 1]", b.ResurrectFraction)
	}
	if b.MaxRounds < 1 {
		p.addf("max rounds must be >= 1, got %d", b.MaxRounds)
	}
	if err := p.err(); err != nil {
		return fmt.Errorf("ruleset: %w", err)
	}
	return nil
}
