package skill

import "fmt"

// Reason classifies an unsuccessful Outcome.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnknownSkill
	ReasonInsufficientResource
	ReasonOnCooldown
	ReasonMissingTarget
	ReasonInvalidTarget
	ReasonSelfTarget
	ReasonTargetRestricted
	ReasonPocketFull
	ReasonNoEffect
	ReasonResolverFailed
)

var reasonNames = map[Reason]string{
	ReasonNone:                 "none",
	ReasonUnknownSkill:         "unknown skill",
	ReasonInsufficientResource: "insufficient resource",
	ReasonOnCooldown:           "on cooldown",
	ReasonMissingTarget:        "missing target",
	ReasonInvalidTarget:        "invalid target",
	ReasonSelfTarget:           "self target",
	ReasonTargetRestricted:     "target restricted",
	ReasonPocketFull:           "pocket full",
	ReasonNoEffect:             "no effect",
	ReasonResolverFailed:       "resolver failed",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Outcome is the result of a user-shaped action. Unsuccessful outcomes are
// recoverable and carry a Reason.
type Outcome struct {
	Success bool
	Reason  Reason
	Message string
	// Damage is the HP actually removed from the target.
	Damage int
	// Healed is the HP actually restored.
	Healed int
	// Summoned names the character created by an invocation.
	Summoned string
}

// Fail builds an unsuccessful Outcome.
func Fail(reason Reason, format string, args ...any) Outcome {
	return Outcome{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Succeed builds a successful Outcome.
func Succeed(format string, args ...any) Outcome {
	return Outcome{Success: true, Message: fmt.Sprintf(format, args...)}
}
