package combat

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/team"
)

var (
	// ErrTooFewTeams is returned when a battle is built from fewer than two teams.
	ErrTooFewTeams = errors.New("a battle needs at least two teams")
	// ErrRoundLimit is returned when AutoBattle exhausts the configured rounds.
	ErrRoundLimit = errors.New("round limit reached")
)

// TeamBattle folds teams into alliances by transitive ally closure and runs
// one Fight per pair of alliances.
type TeamBattle struct {
	id         uuid.UUID
	teams      []*team.Team
	alliances  []*team.Alliance
	fights     []*Fight
	src        dice.Source
	balance    ruleset.Balance
	logger     *zap.Logger
	passes     int
	transcript []Event
	ended      bool
}

// NewTeamBattle derives the alliances and fights for teams.
//
// Precondition: src must be non-nil.
// Postcondition: returns ErrTooFewTeams for fewer than two teams; each pair
// of derived alliances is marked as mutual enemies with one Fight.
func NewTeamBattle(teams []*team.Team, src dice.Source, balance ruleset.Balance, logger *zap.Logger) (*TeamBattle, error) {
	if len(teams) < 2 {
		return nil, fmt.Errorf("%d teams: %w", len(teams), ErrTooFewTeams)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &TeamBattle{
		id:      uuid.New(),
		teams:   slices.Clone(teams),
		src:     src,
		balance: balance,
	}
	b.logger = logger.With(zap.String("battle_id", b.id.String()))
	b.alliances = mergeAllies(b.teams)

	for i, a := range b.alliances {
		for _, d := range b.alliances[i+1:] {
			f, err := NewFight(a, d, src, balance, b.logger)
			if err != nil {
				b.End()
				return nil, err
			}
			b.fights = append(b.fights, f)
		}
	}
	b.logger.Info("battle started",
		zap.Int("teams", len(b.teams)),
		zap.Int("alliances", len(b.alliances)),
		zap.Int("fights", len(b.fights)),
	)
	return b, nil
}

// mergeAllies groups teams connected through ally edges in either direction.
func mergeAllies(teams []*team.Team) []*team.Alliance {
	parent := make([]int, len(teams))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for i := range teams {
		for j := i + 1; j < len(teams); j++ {
			if teams[i].IsAllyTeam(teams[j]) || teams[j].IsAllyTeam(teams[i]) {
				parent[find(j)] = find(i)
			}
		}
	}

	byRoot := make(map[int]*team.Alliance)
	var out []*team.Alliance
	for i, t := range teams {
		root := find(i)
		a, ok := byRoot[root]
		if !ok {
			a = team.NewAlliance(fmt.Sprintf("Alliance-%d", len(out)+1))
			byRoot[root] = a
			out = append(out, a)
		}
		a.AddTeam(t)
	}
	return out
}

func (b *TeamBattle) ID() string { return b.id.String() }
func (b *TeamBattle) Alliances() []*team.Alliance { return slices.Clone(b.alliances) }
func (b *TeamBattle) Fights() []*Fight { return slices.Clone(b.fights) }

// Transcript returns the entries of every pass in order.
func (b *TeamBattle) Transcript() []Event { return slices.Clone(b.transcript) }

// IsOver reports whether no two living fighters belong to enemy alliances.
func (b *TeamBattle) IsOver() bool {
	for _, f := range b.fights {
		if !f.IsOver() {
			return false
		}
	}
	return true
}

// Pass plays one no-rest round of every unfinished fight in random order,
// ticks every living fighter once, then rests them all.
//
// Postcondition: returns the entries of the pass.
func (b *TeamBattle) Pass() ([]Event, error) {
	if b.ended {
		return nil, ErrEnded
	}
	b.passes++
	var events []Event
	for _, f := range dice.Shuffled(b.src, b.fights) {
		if f.IsOver() {
			continue
		}
		played, err := f.playRound()
		events = append(events, played...)
		if err != nil {
			return events, err
		}
	}
	everyone := b.fighters()
	events = append(events, tick(b.passes, everyone)...)
	restAll(everyone)
	b.transcript = append(b.transcript, events...)
	return events, nil
}

// fighters returns every fighter of every alliance once.
func (b *TeamBattle) fighters() []*character.Character {
	var out []*character.Character
	for _, a := range b.alliances {
		out = append(out, fighters(a)...)
	}
	return out
}

// AutoBattle plays passes until the battle is over.
//
// Postcondition: returns ErrRoundLimit after balance.MaxRounds passes, or the
// context error when ctx is done between passes.
func (b *TeamBattle) AutoBattle(ctx context.Context) error {
	for !b.IsOver() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.passes >= b.balance.MaxRounds {
			b.logger.Warn("battle stopped at round limit", zap.Int("rounds", b.passes))
			return fmt.Errorf("after %d rounds: %w", b.passes, ErrRoundLimit)
		}
		if _, err := b.Pass(); err != nil {
			return err
		}
	}
	b.logger.Info("battle over", zap.Int("rounds", b.passes), zap.Int("winners", len(b.Winners())))
	return nil
}

// Winners returns the alliances with a living fighter once the battle is
// over, nil before.
func (b *TeamBattle) Winners() []*team.Alliance {
	if !b.IsOver() {
		return nil
	}
	var out []*team.Alliance
	for _, a := range b.alliances {
		if len(living(fighters(a))) > 0 {
			out = append(out, a)
		}
	}
	return out
}

// Rounds returns the number of passes played.
func (b *TeamBattle) Rounds() int { return b.passes }

// End tears down every fight and alliance. Teams keep their members.
func (b *TeamBattle) End() {
	if b.ended {
		return
	}
	b.ended = true
	for _, f := range b.fights {
		f.End()
	}
	for _, a := range b.alliances {
		a.Clear()
	}
}
