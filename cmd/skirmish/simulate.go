package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/team"
	"github.com/cory-johannsen/skirmish/internal/observability"
)

// Draw labels a run that ended with no winner or at the round limit.
const Draw = "draw"

// Simulator runs scenario battles against one set of loaded content.
type Simulator struct {
	Scenario *Scenario
	Balance  ruleset.Balance
	// NewRegistry returns a fresh registry; each run gets its own.
	NewRegistry func() *character.Registry
	Logger      *zap.Logger
	// Restore and Save are optional persistence hooks.
	Restore memberSource
	Save    func(ctx context.Context, survivors []*character.Character) error
}

// RunResult summarises one battle.
type RunResult struct {
	Run        int
	Seed       int64
	Rounds     int
	Winner     string
	Transcript []combat.Event
	Survivors  []*character.Character
}

// Run plays one battle with a source seeded by seed.
//
// Postcondition: Winner is the "+"-joined team names of the surviving
// alliance, or Draw.
func (s *Simulator) Run(ctx context.Context, run int, seed int64) (RunResult, error) {
	logger := observability.ForRun(s.Logger, run, seed)
	reg := s.NewRegistry()
	dir := team.NewDirectory()
	teams, err := s.Scenario.Build(ctx, reg, dir, s.Restore)
	if err != nil {
		return RunResult{}, fmt.Errorf("building scenario: %w", err)
	}

	seeded := dice.NewSeededSource(seed)
	battle, err := combat.NewTeamBattle(teams, dice.NewLoggedSource(seeded, logger), s.Balance, logger)
	if err != nil {
		return RunResult{}, err
	}
	defer battle.End()

	res := RunResult{Run: run, Seed: seed, Winner: Draw}
	err = battle.AutoBattle(ctx)
	res.Rounds = battle.Rounds()
	res.Transcript = battle.Transcript()
	if err != nil && !errors.Is(err, combat.ErrRoundLimit) {
		return res, err
	}
	if winners := battle.Winners(); len(winners) == 1 {
		res.Winner = allianceLabel(winners[0])
	}
	logger.Debug("run finished",
		zap.Int("rounds", res.Rounds),
		zap.String("winner", res.Winner),
		zap.Int64("draws", seeded.Draws()),
	)
	for _, t := range teams {
		for _, c := range t.Members() {
			if c.IsAlive() {
				res.Survivors = append(res.Survivors, c)
			}
		}
	}
	if s.Save != nil && len(res.Survivors) > 0 {
		if err := s.Save(ctx, res.Survivors); err != nil {
			return res, fmt.Errorf("saving survivors: %w", err)
		}
	}
	return res, nil
}

func allianceLabel(a *team.Alliance) string {
	var names []string
	for _, t := range a.Teams() {
		names = append(names, t.Name())
	}
	if len(names) == 0 {
		return a.Name()
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}

// Tally counts wins per label.
type Tally struct {
	mu     sync.Mutex
	wins   map[string]int
	rounds int
	runs   int
}

// NewTally returns an empty tally.
func NewTally() *Tally { return &Tally{wins: make(map[string]int)} }

// Record adds one result.
func (t *Tally) Record(r RunResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.wins[r.Winner]++
	t.rounds += r.Rounds
	t.runs++
}

// Wins returns the number of runs won by label.
func (t *Tally) Wins(label string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wins[label]
}

// Write prints the tally sorted by wins, then label.
func (t *Tally) Write(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	labels := make([]string, 0, len(t.wins))
	for l := range t.wins {
		labels = append(labels, l)
	}
	slices.SortFunc(labels, func(a, b string) int {
		if d := t.wins[b] - t.wins[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	fmt.Fprintf(w, "%d runs\n", t.runs)
	for _, l := range labels {
		fmt.Fprintf(w, "  %-30s %5d (%.1f%%)\n", l, t.wins[l], 100*float64(t.wins[l])/float64(t.runs))
	}
	if t.runs > 0 {
		fmt.Fprintf(w, "average rounds: %.1f\n", float64(t.rounds)/float64(t.runs))
	}
}

// RunMany plays runs battles with seeds base, base+1, ... at most
// concurrency at a time. Each run owns its object graph.
func (s *Simulator) RunMany(ctx context.Context, runs, concurrency int, base int64) (*Tally, error) {
	tally := NewTally()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < runs; i++ {
		g.Go(func() error {
			res, err := s.Run(ctx, i+1, base+int64(i))
			if err != nil {
				return fmt.Errorf("run %d: %w", i+1, err)
			}
			tally.Record(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tally, nil
}
