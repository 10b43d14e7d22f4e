package skill

import "strings"

// MultiActionName is the registry name of MultiAction.
const MultiActionName = "multi_action"

// MultiAction deals the skill's "damage" effect, adding Scaling times the
// caster's damage attribute to its value without the logarithmic curve, then
// applies every alteration effect to the target.
func MultiAction(caster, target Actor, s *Skill) (Outcome, error) {
	if target == nil {
		return Fail(ReasonMissingTarget, "%s needs a target", s.name), nil
	}
	var (
		out      Outcome
		messages []string
	)
	if e, ok := s.effects[EffectDamage]; ok {
		attr := caster.Attribute(s.damageType.Attribute())
		amount := ApplyAffinity(e.Value+int(e.Scaling*float64(attr)), target.Affinity(s.damageType), s.weakMult, s.resilientMult)
		before, _ := target.HP()
		msg, err := target.LoseHP(caster, max(1, amount))
		if err != nil {
			return Outcome{}, err
		}
		after, _ := target.HP()
		out.Damage = before - after
		out.Success = true
		messages = append(messages, msg)
	}
	for _, e := range s.Effects() {
		if !e.IsAlteration() || !target.IsAlive() {
			continue
		}
		ok, msg := target.Alter(caster, e)
		out.Success = out.Success || ok
		messages = append(messages, caster.Name()+" uses "+e.Name+": "+msg)
	}
	out.Message = strings.Join(messages, " ")
	if !out.Success {
		out.Reason = ReasonNoEffect
	}
	return out, nil
}
