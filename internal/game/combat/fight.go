package combat

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/team"
)

var (
	// ErrDualSide is returned when a character would fight on both sides.
	ErrDualSide = errors.New("character on both sides of a fight")
	// ErrEnded is returned when driving a fight or battle after End.
	ErrEnded = errors.New("encounter has ended")
)

// Fight resolves one encounter between an attacking and a defending alliance.
// A Fight is not safe for concurrent use.
type Fight struct {
	id         uuid.UUID
	attackers  *team.Alliance
	defenders  *team.Alliance
	src        dice.Source
	balance    ruleset.Balance
	logger     *zap.Logger
	round      int
	transcript []Event
	ended      bool
}

// NewFight creates a fight and marks the two alliances as mutual enemies.
//
// Precondition: attackers, defenders and src must be non-nil.
// Postcondition: returns ErrDualSide when a character is on both sides, or a
// relation error when the alliances are allied. Nothing is changed on error.
func NewFight(attackers, defenders *team.Alliance, src dice.Source, balance ruleset.Balance, logger *zap.Logger) (*Fight, error) {
	if attackers == nil || defenders == nil || src == nil {
		panic("combat.NewFight: alliances and source must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, c := range attackers.Members() {
		if defenders.Contains(c) {
			return nil, fmt.Errorf("%s: %w", c.Name(), ErrDualSide)
		}
	}
	if err := attackers.AddEnemy(defenders, true); err != nil {
		return nil, fmt.Errorf("new fight: %w", err)
	}
	f := &Fight{
		id:        uuid.New(),
		attackers: attackers,
		defenders: defenders,
		src:       src,
		balance:   balance,
		logger:    logger,
	}
	f.logger = logger.With(zap.String("fight_id", f.id.String()))
	f.logger.Info("fight started",
		zap.String("attackers", attackers.Name()),
		zap.String("defenders", defenders.Name()),
		zap.Int("attacker_count", len(attackers.Members())),
		zap.Int("defender_count", len(defenders.Members())),
	)
	return f, nil
}

func (f *Fight) ID() string { return f.id.String() }
func (f *Fight) Round() int { return f.round }
func (f *Fight) Attackers() *team.Alliance { return f.attackers }
func (f *Fight) Defenders() *team.Alliance { return f.defenders }

// Transcript returns every entry recorded so far in order.
func (f *Fight) Transcript() []Event { return slices.Clone(f.transcript) }

// AddAttacker enlists c on the attacking side.
func (f *Fight) AddAttacker(c *character.Character) error {
	return f.enlist(f.attackers, f.defenders, c)
}

// AddDefender enlists c on the defending side.
func (f *Fight) AddDefender(c *character.Character) error {
	return f.enlist(f.defenders, f.attackers, c)
}

func (f *Fight) enlist(side, other *team.Alliance, c *character.Character) error {
	if other.Contains(c) {
		return fmt.Errorf("%s: %w", c.Name(), ErrDualSide)
	}
	side.AddMember(c)
	return nil
}

// fighters returns the members of a plus the summons they command.
func fighters(a *team.Alliance) []*character.Character {
	var out []*character.Character
	for _, m := range a.Members() {
		out = append(out, m)
		out = append(out, m.Pocket().All()...)
	}
	return out
}

func living(cs []*character.Character) []*character.Character {
	var out []*character.Character
	for _, c := range cs {
		if c.IsAlive() {
			out = append(out, c)
		}
	}
	return out
}

// Participants returns every fighter on both sides, summons included.
func (f *Fight) Participants() []*character.Character {
	return append(fighters(f.attackers), fighters(f.defenders)...)
}

// sides returns the alliance c fights for and the opposing one. Summons fight
// for their master.
func (f *Fight) sides(c *character.Character) (own, foe *team.Alliance) {
	for owner := c; owner != nil; owner = owner.Master() {
		switch {
		case f.attackers.Contains(owner):
			return f.attackers, f.defenders
		case f.defenders.Contains(owner):
			return f.defenders, f.attackers
		}
	}
	return nil, nil
}

// IsOver reports whether one side has no living fighter.
func (f *Fight) IsOver() bool {
	return len(living(fighters(f.attackers))) == 0 || len(living(fighters(f.defenders))) == 0
}

// Winner returns the surviving alliance once the fight is over. It is nil
// while fighting continues or when nobody survived.
func (f *Fight) Winner() *team.Alliance {
	a, d := len(living(fighters(f.attackers))) > 0, len(living(fighters(f.defenders))) > 0
	switch {
	case a && !d:
		return f.attackers
	case d && !a:
		return f.defenders
	}
	return nil
}

// StartRound plays one round: every fighter alive at the start acts once in
// random order, then every living participant ticks its alterations, then
// with rest every living participant rests.
//
// Postcondition: returns the round's entries, which are also appended to the
// transcript. A non-nil error is an invariant violation.
func (f *Fight) StartRound(rest bool) ([]Event, error) {
	events, err := f.playRound()
	if err != nil {
		return events, err
	}
	ticks := tick(f.round, f.Participants())
	f.record(ticks...)
	events = append(events, ticks...)
	if rest {
		restAll(f.Participants())
	}
	return events, nil
}

// playRound runs the action phase only. Entries are recorded as they happen.
func (f *Fight) playRound() ([]Event, error) {
	if f.ended {
		return nil, ErrEnded
	}
	f.round++
	actors := dice.Shuffled(f.src, living(f.Participants()))
	f.logger.Debug("round started", zap.Int("round", f.round), zap.Int("actors", len(actors)))

	events := make([]Event, 0, len(actors))
	for _, actor := range actors {
		e, err := f.act(actor)
		if err != nil {
			return events, fmt.Errorf("round %d: %w", f.round, err)
		}
		f.record(e)
		events = append(events, e)
	}
	return events, nil
}

func (f *Fight) record(events ...Event) {
	f.transcript = append(f.transcript, events...)
}

func (f *Fight) event(actor *character.Character, kind Kind, msg string) Event {
	return newEvent(f.round, actor, kind, msg)
}

func newEvent(round int, actor *character.Character, kind Kind, msg string) Event {
	return Event{Round: round, ActorID: actor.ID(), Actor: actor.Name(), Kind: kind, Message: msg}
}

// act resolves one turn: attack, support, debuff, summon, else pass.
func (f *Fight) act(actor *character.Character) (Event, error) {
	if !actor.IsAlive() {
		return f.event(actor, KindSkip, fmt.Sprintf("%s was defeated before acting", actor.Name())), nil
	}
	if actor.IsStunned() {
		return f.event(actor, KindStunned, fmt.Sprintf("%s is stunned and loses the turn", actor.Name())), nil
	}
	own, foe := f.sides(actor)
	if own == nil {
		return f.event(actor, KindSkip, fmt.Sprintf("%s no longer fights here", actor.Name())), nil
	}
	enemies := dice.Shuffled(f.src, living(fighters(foe)))
	allies := dice.Shuffled(f.src, fighters(own))

	steps := []struct {
		kind Kind
		try  func() (skill.Outcome, error)
	}{
		{KindAttack, func() (skill.Outcome, error) { return f.attack(actor, enemies) }},
		{KindSupport, func() (skill.Outcome, error) { return f.support(actor, allies) }},
		{KindDebuff, func() (skill.Outcome, error) { return f.first(actor, skill.Debuff, enemies) }},
		{KindSummon, func() (skill.Outcome, error) { return f.summon(actor) }},
	}
	for _, s := range steps {
		out, err := s.try()
		if err != nil {
			return Event{}, err
		}
		if out.Success {
			return f.event(actor, s.kind, out.Message), nil
		}
	}
	return f.event(actor, KindPass, fmt.Sprintf("%s passes.", actor.Name())), nil
}

// attack tries every damage skill, then every custom skill, against each
// enemy in turn.
func (f *Fight) attack(actor *character.Character, enemies []*character.Character) (skill.Outcome, error) {
	var last skill.Outcome
	for _, e := range enemies {
		for _, t := range []skill.Type{skill.Damage, skill.Custom} {
			if !hasSkill(actor, t) {
				continue
			}
			out, err := actor.UseFirst(t, e)
			if err != nil || out.Success {
				return out, err
			}
			f.failed(actor, out)
			last = out
		}
	}
	return last, nil
}

// support resurrects a defeated ally first, then heals or buffs a living one.
func (f *Fight) support(actor *character.Character, allies []*character.Character) (skill.Outcome, error) {
	var last skill.Outcome
	if hasSkill(actor, skill.Resurrect) {
		for _, a := range allies {
			if a.IsAlive() {
				continue
			}
			out, err := actor.UseFirst(skill.Resurrect, a)
			if err != nil || out.Success {
				return out, err
			}
			f.failed(actor, out)
			last = out
		}
	}
	for _, a := range living(allies) {
		if hasSkill(actor, skill.Heal) {
			if cur, maxHP := a.HP(); cur < maxHP {
				out, err := actor.Heal(a, "")
				if err != nil || out.Success {
					return out, err
				}
				f.failed(actor, out)
				last = out
			}
		}
		if hasSkill(actor, skill.Buff) {
			out, err := actor.UseFirst(skill.Buff, a)
			if err != nil || out.Success {
				return out, err
			}
			f.failed(actor, out)
			last = out
		}
	}
	return last, nil
}

func (f *Fight) first(actor *character.Character, t skill.Type, targets []*character.Character) (skill.Outcome, error) {
	var last skill.Outcome
	if !hasSkill(actor, t) {
		return last, nil
	}
	for _, target := range targets {
		out, err := actor.UseFirst(t, target)
		if err != nil || out.Success {
			return out, err
		}
		f.failed(actor, out)
		last = out
	}
	return last, nil
}

func (f *Fight) summon(actor *character.Character) (skill.Outcome, error) {
	if !hasSkill(actor, skill.Invocation) || actor.Pocket().Full() {
		return skill.Outcome{}, nil
	}
	out, err := actor.Invoke()
	if err == nil && !out.Success {
		f.failed(actor, out)
	}
	return out, err
}

func (f *Fight) failed(actor *character.Character, out skill.Outcome) {
	f.logger.Debug("action failed",
		zap.Int("round", f.round),
		zap.String("actor", actor.Name()),
		zap.Stringer("reason", out.Reason),
		zap.String("message", out.Message),
	)
}

func hasSkill(c *character.Character, t skill.Type) bool {
	return slices.ContainsFunc(c.Skills(), func(s *skill.Skill) bool { return s.Type() == t })
}

// tick runs the round-end tick of every living participant once.
func tick(round int, participants []*character.Character) []Event {
	var events []Event
	for _, c := range participants {
		if !c.IsAlive() {
			continue
		}
		report := c.EndRound()
		for _, msg := range report.Damage {
			events = append(events, newEvent(round, c, KindTick, msg))
		}
		for _, exp := range report.Expired {
			events = append(events, newEvent(round, c, KindExpire, exp.Message))
		}
	}
	return events
}

func restAll(cs []*character.Character) {
	for _, c := range cs {
		if c.IsAlive() {
			c.Rest()
		}
	}
}

// End tears the fight down and clears both alliances. Persistent team state
// is untouched.
func (f *Fight) End() {
	if f.ended {
		return
	}
	f.ended = true
	var winner string
	if w := f.Winner(); w != nil {
		winner = w.Name()
	}
	f.logger.Info("fight ended", zap.Int("rounds", f.round), zap.String("winner", winner))
	f.attackers.Clear()
	f.defenders.Clear()
}
