package skill_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

// fakeActor is a minimal skill.Actor: HP arithmetic without reductions.
type fakeActor struct {
	name     string
	hp, max  int
	attrs    map[stat.Name]int
	pools    *stat.Pools
	weak     []skill.DamageType
	altered  []skill.Effect
	summons  []string
	capacity int
}

func newFake(t require.TestingT, name string, hp int) *fakeActor {
	pools := stat.NewPools()
	mana, err := stat.NewPool(stat.Mana, 50, 0.1)
	require.NoError(t, err)
	require.NoError(t, pools.Add(mana))
	return &fakeActor{name: name, hp: hp, max: hp, attrs: map[stat.Name]int{}, pools: pools, capacity: 1}
}

func (f *fakeActor) Name() string { return f.name }
func (f *fakeActor) ID() string { return f.name }
func (f *fakeActor) IsAlive() bool { return f.hp > 0 }
func (f *fakeActor) HP() (int, int) { return f.hp, f.max }
func (f *fakeActor) Attribute(n stat.Name) int { return f.attrs[n] }
func (f *fakeActor) Pool(t stat.EnergyType) (*stat.Pool, bool) { return f.pools.Get(t) }

func (f *fakeActor) Affinity(dt skill.DamageType) skill.Affinity {
	for _, w := range f.weak {
		if w == dt {
			return skill.Weak
		}
	}
	return skill.Neutral
}

func (f *fakeActor) LoseHP(source skill.Actor, amount int) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("amount %d", amount)
	}
	f.hp = max(0, f.hp-amount)
	return fmt.Sprintf("%s dealt %d damage to %s.", source.Name(), amount, f.name), nil
}

func (f *fakeActor) GainHP(amount int) (int, string, error) {
	healed := min(amount, f.max-f.hp)
	f.hp += healed
	return healed, fmt.Sprintf("%s healed %d HP", f.name, healed), nil
}

func (f *fakeActor) Resurrect(skill.Actor) (string, error) {
	f.hp = f.max / 2
	return f.name + " is back", nil
}

func (f *fakeActor) Alter(_ skill.Actor, e skill.Effect) (bool, string) {
	f.altered = append(f.altered, e)
	return true, e.Name
}

func (f *fakeActor) Summon(class, tier string) (string, error) {
	if len(f.summons) >= f.capacity {
		return "", skill.ErrPocketFull
	}
	name := fmt.Sprintf("%s of %s #%d", class, f.name, len(f.summons)+1)
	f.summons = append(f.summons, name)
	return name, nil
}

func mustSkill(t require.TestingT, p skill.Params) *skill.Skill {
	s, err := skill.New(p)
	require.NoError(t, err)
	return s
}

func slash(cooldown int) skill.Params {
	return skill.Params{
		Name:       "Slash",
		Type:       skill.Damage,
		DamageType: skill.Physical,
		Effects:    map[string]skill.Effect{skill.EffectDamage: {Value: 20}},
		EnergyCost: 5,
		EnergyType: stat.Mana,
		Cooldown:   cooldown,
	}
}

func TestScale_FloorsAtBase(t *testing.T) {
	want := int(math.Floor(20 * math.Max(1, math.Log(1+math.Pow(12, 0.2)/2))))
	assert.Equal(t, want, skill.Scale(20, 12))
	assert.GreaterOrEqual(t, skill.Scale(20, 12), 20)
	assert.Equal(t, 1, skill.Scale(0, 0))
}

func TestPropertyScaleNeverBelowBase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.IntRange(1, 500).Draw(t, "base")
		attr := rapid.IntRange(0, 100000).Draw(t, "attr")
		if got := skill.Scale(base, attr); got < base {
			t.Fatalf("Scale(%d, %d) = %d below base", base, attr, got)
		}
	})
}

func TestApplyAffinity(t *testing.T) {
	assert.Equal(t, 30, skill.ApplyAffinity(20, skill.Weak, 1.5, 0.5))
	assert.Equal(t, 10, skill.ApplyAffinity(20, skill.Resilient, 1.5, 0.5))
	assert.Equal(t, 20, skill.ApplyAffinity(20, skill.Neutral, 1.5, 0.5))
	assert.Equal(t, 1, skill.ApplyAffinity(1, skill.Resilient, 1.5, 0.1))
}

func TestNew_Validation(t *testing.T) {
	cases := map[string]skill.Params{
		"empty name":        {Type: skill.Heal, Effects: map[string]skill.Effect{skill.EffectHeal: {Value: 5}}},
		"damage no effect":  {Name: "x", Type: skill.Damage, DamageType: skill.Physical},
		"damage no type":    {Name: "x", Type: skill.Damage, Effects: map[string]skill.Effect{skill.EffectDamage: {Value: 5}}},
		"heal no effect":    {Name: "x", Type: skill.Heal},
		"cost without type": {Name: "x", Type: skill.Heal, EnergyCost: 3, Effects: map[string]skill.Effect{skill.EffectHeal: {Value: 5}}},
		"negative cooldown": {Name: "x", Type: skill.Heal, Cooldown: -1, Effects: map[string]skill.Effect{skill.EffectHeal: {Value: 5}}},
		"custom no resolver": {Name: "x", Type: skill.Custom},
		"invocation no class": {Name: "x", Type: skill.Invocation,
			Effects: map[string]skill.Effect{"summon": {Summon: &skill.Summon{}}}},
		"buff without stat": {Name: "x", Type: skill.Buff, Effects: map[string]skill.Effect{"rage": {Value: 3, Duration: 2}}},
		"resistance without layer": {Name: "x", Type: skill.Debuff,
			Effects: map[string]skill.Effect{"rot": {Kind: alteration.Resistance, Value: 3, Duration: 2}}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := skill.New(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ruleset.ErrConfiguration))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	s := mustSkill(t, skill.Params{
		Name: "Rage", Type: skill.Buff,
		Effects: map[string]skill.Effect{"rage": {Value: 3, Duration: 2, Stat: "force"}},
	})
	assert.True(t, s.RequiresTarget())
	assert.True(t, s.Ready())
	e, ok := s.Effect("rage")
	require.True(t, ok)
	assert.Equal(t, alteration.Buff, e.Kind)
	assert.Equal(t, "rage", e.Name)

	inv := mustSkill(t, skill.Params{
		Name: "Raise", Type: skill.Invocation,
		Effects: map[string]skill.Effect{"summon": {Summon: &skill.Summon{Class: "skeleton", Tier: "BL"}}},
	})
	e, _ = inv.Effect("summon")
	require.NotNil(t, e.Summon)
	assert.Equal(t, "skeleton", e.Summon.Class)
	assert.Zero(t, e.Value)
	assert.Zero(t, e.Duration)
}

func TestExecute_DamageScenario(t *testing.T) {
	a := newFake(t, "A", 100)
	a.attrs[stat.Force] = 12
	b := newFake(t, "B", 250)
	s := mustSkill(t, slash(0))

	out, err := s.Execute(a, b)
	require.NoError(t, err)
	require.True(t, out.Success)
	want := skill.Scale(20, 12)
	assert.GreaterOrEqual(t, want, 20)
	assert.Equal(t, 250-want, b.hp)
	assert.Equal(t, want, out.Damage)
	assert.Equal(t, "A dealt 20 damage to B.", out.Message)

	pool, _ := a.Pool(stat.Mana)
	assert.Equal(t, 45, pool.Current())
}

func TestExecute_WeakTargetTakesMore(t *testing.T) {
	a := newFake(t, "A", 100)
	b := newFake(t, "B", 250)
	b.weak = []skill.DamageType{skill.Physical}
	p := slash(0)
	p.WeaknessMultiplier = 1.5
	out, err := mustSkill(t, p).Execute(a, b)
	require.NoError(t, err)
	assert.Equal(t, 30, out.Damage)
}

func TestExecute_CooldownCycle(t *testing.T) {
	a := newFake(t, "A", 100)
	b := newFake(t, "B", 250)
	s := mustSkill(t, slash(2))

	out, err := s.Execute(a, b)
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, 2, s.CurrentCooldown())
	assert.False(t, s.Ready())

	s.UpdateCooldown()
	_, err = s.Execute(a, b)
	assert.ErrorIs(t, err, skill.ErrNotReady)

	s.UpdateCooldown()
	assert.True(t, s.Ready())
	s.UpdateCooldown()
	assert.Equal(t, 0, s.CurrentCooldown())
}

func TestExecute_InsufficientEnergyIsSoft(t *testing.T) {
	a := newFake(t, "A", 100)
	b := newFake(t, "B", 250)
	p := slash(3)
	p.EnergyCost = 60
	s := mustSkill(t, p)

	out, err := s.Execute(a, b)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, skill.ReasonInsufficientResource, out.Reason)
	assert.Equal(t, "Not enough energy to use Slash", out.Message)
	assert.True(t, s.Ready())
	assert.Equal(t, 250, b.hp)
}

func TestExecute_MissingPoolIsSoft(t *testing.T) {
	a := newFake(t, "A", 100)
	p := slash(0)
	p.EnergyType = stat.Ki
	out, err := mustSkill(t, p).Execute(a, newFake(t, "B", 10))
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonInsufficientResource, out.Reason)
}

func TestExecute_ResolverFailureRollsBack(t *testing.T) {
	a := newFake(t, "A", 100)
	b := newFake(t, "B", 100)
	calls := 0
	p := skill.Params{
		Name: "Gamble", Type: skill.Custom, EnergyCost: 10, EnergyType: stat.Mana, Cooldown: 3,
		Resolver: skill.ResolverFunc(func(caster, target skill.Actor, s *skill.Skill) (skill.Outcome, error) {
			calls++
			if calls == 1 {
				return skill.Outcome{}, errors.New("boom")
			}
			return skill.Fail(skill.ReasonNone, "nothing happened"), nil
		}),
	}
	s := mustSkill(t, p)
	pool, _ := a.Pool(stat.Mana)

	out, err := s.Execute(a, b)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonResolverFailed, out.Reason)
	assert.Equal(t, 50, pool.Current())
	assert.True(t, s.Ready())

	out, err = s.Execute(a, b)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, skill.ReasonNoEffect, out.Reason)
	assert.Equal(t, 50, pool.Current())
	assert.True(t, s.Ready())
}

func TestExecute_Heal(t *testing.T) {
	a := newFake(t, "A", 100)
	a.hp = 70
	s := mustSkill(t, skill.Params{Name: "Heal", Type: skill.Heal, Cooldown: 1,
		Effects: map[string]skill.Effect{skill.EffectHeal: {Value: 50}}})

	out, err := s.Execute(a, nil)
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, 30, out.Healed)
	assert.Equal(t, 100, a.hp)

	s.UpdateCooldown()
	out, err = s.Execute(a, a)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, skill.ReasonNoEffect, out.Reason)
	assert.True(t, s.Ready())
}

func TestExecute_Resurrect(t *testing.T) {
	a := newFake(t, "A", 100)
	b := newFake(t, "B", 80)
	s := mustSkill(t, skill.Params{Name: "Raise", Type: skill.Resurrect})

	out, err := s.Execute(a, b)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonInvalidTarget, out.Reason)

	b.hp = 0
	out, err = s.Execute(a, b)
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, 40, b.hp)
	assert.Equal(t, 40, out.Healed)
}

func TestExecute_InvocationPocketFull(t *testing.T) {
	a := newFake(t, "Alice", 100)
	s := mustSkill(t, skill.Params{Name: "Raise", Type: skill.Invocation, RequiresTarget: new(bool),
		Effects: map[string]skill.Effect{"summon": {Summon: &skill.Summon{Class: "Skeleton", Tier: "BL"}}}})

	out, err := s.Execute(a, nil)
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, "Skeleton of Alice #1", out.Summoned)

	out, err = s.Execute(a, nil)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonPocketFull, out.Reason)
}

func TestExecute_BuffAppliesEffectsInNameOrder(t *testing.T) {
	a := newFake(t, "A", 100)
	s := mustSkill(t, skill.Params{Name: "Charge", Type: skill.Buff, Effects: map[string]skill.Effect{
		"zeal":  {Value: 2, Duration: 2, Stat: "wisdom"},
		"might": {Value: 5, Duration: 2, Stat: "force"},
	}})

	out, err := s.Execute(a, nil)
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Len(t, a.altered, 2)
	assert.Equal(t, "might", a.altered[0].Name)
	assert.Equal(t, "zeal", a.altered[1].Name)
	assert.Contains(t, out.Message, "2/2 applied")
}

func TestMultiAction(t *testing.T) {
	a := newFake(t, "A", 100)
	a.attrs[stat.Force] = 10
	b := newFake(t, "B", 100)
	res, err := skill.NewResolvers().Lookup("Multi_Action")
	require.NoError(t, err)
	s := mustSkill(t, skill.Params{
		Name: "Shield Bash", Type: skill.Damage, DamageType: skill.Physical,
		ResolverName: skill.MultiActionName, Resolver: res,
		Effects: map[string]skill.Effect{
			skill.EffectDamage: {Value: 4, Scaling: 0.5},
			"daze":             {Kind: alteration.Stun, Duration: 1},
		},
	})

	out, err := s.Execute(a, b)
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, 9, out.Damage)
	assert.Equal(t, 91, b.hp)
	require.Len(t, b.altered, 1)
	assert.Equal(t, "daze", b.altered[0].Name)
}

func TestResolvers_UnknownAndSource(t *testing.T) {
	r := skill.NewResolvers()
	_, err := r.Lookup("nope")
	assert.Error(t, err)

	r.AddSource(sourceFunc(func(name string) (skill.Resolver, bool) {
		if name != "scripted" {
			return nil, false
		}
		return skill.ResolverFunc(skill.MultiAction), true
	}))
	_, err = r.Lookup("scripted")
	assert.NoError(t, err)
}

type sourceFunc func(name string) (skill.Resolver, bool)

func (f sourceFunc) Resolver(name string) (skill.Resolver, bool) { return f(name) }

func TestFromDef(t *testing.T) {
	def := ruleset.SkillDef{
		Name: "Grave Rot", Type: "debuff", EnergyCost: 8, EnergyType: "mana", Cooldown: 2,
		Effects: map[string]ruleset.EffectDef{
			"rot":     {Value: 3, Duration: 3, Kind: "dot"},
			"brittle": {Value: 2, Duration: 3, Kind: "resistance", Layer: "weakness"},
		},
	}
	s, err := skill.FromDef(def, skill.NewResolvers(), ruleset.DefaultBalance())
	require.NoError(t, err)
	assert.Equal(t, skill.Debuff, s.Type())
	assert.Equal(t, stat.Mana, s.EnergyType())
	e, ok := s.Effect("brittle")
	require.True(t, ok)
	assert.Equal(t, alteration.Resistance, e.Kind)
	assert.Equal(t, alteration.Weakness, e.Layer)

	def.Resolver = "missing"
	_, err = skill.FromDef(def, skill.NewResolvers(), ruleset.DefaultBalance())
	assert.ErrorIs(t, err, ruleset.ErrConfiguration)
}

func TestClone_IsIndependent(t *testing.T) {
	a := newFake(t, "A", 100)
	s := mustSkill(t, slash(2))
	_, err := s.Execute(a, newFake(t, "B", 100))
	require.NoError(t, err)
	c := s.Clone()
	assert.True(t, c.Ready())
	assert.False(t, s.Ready())
}

func TestPropertyCooldownNeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cd := rapid.IntRange(0, 10).Draw(t, "cooldown")
		rests := rapid.IntRange(0, 20).Draw(t, "rests")
		s := mustSkill(t, slash(cd))
		a := newFake(t, "A", 100)
		_, err := s.Execute(a, newFake(t, "B", 1000))
		if err != nil {
			t.Fatal(err)
		}
		for range rests {
			s.UpdateCooldown()
		}
		want := max(0, cd-rests)
		if s.CurrentCooldown() != want {
			t.Fatalf("cooldown %d after %d rests, want %d", s.CurrentCooldown(), rests, want)
		}
	})
}
