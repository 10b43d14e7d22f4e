// Package combat drives encounters: a Fight between two alliances and a
// TeamBattle that derives alliances and fights from a set of teams.
package combat

import "fmt"

// Kind classifies a transcript entry.
type Kind int

const (
	KindAttack Kind = iota + 1
	KindSupport
	KindDebuff
	KindSummon
	KindPass
	KindSkip
	KindStunned
	KindTick
	KindExpire
)

var kindNames = map[Kind]string{
	KindAttack:  "attack",
	KindSupport: "support",
	KindDebuff:  "debuff",
	KindSummon:  "summon",
	KindPass:    "pass",
	KindSkip:    "skip",
	KindStunned: "stunned",
	KindTick:    "tick",
	KindExpire:  "expire",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsAction reports whether the entry records an actor's turn rather than a
// round-end effect.
func (k Kind) IsAction() bool {
	return k != KindTick && k != KindExpire
}

// Event records one resolved action or round-end effect.
type Event struct {
	Round   int
	ActorID string
	Actor   string
	Kind    Kind
	Message string
}

func (e Event) String() string {
	return fmt.Sprintf("[round %d] %s (%s): %s", e.Round, e.Actor, e.Kind, e.Message)
}
