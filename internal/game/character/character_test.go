package character_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

const bruteYAML = `
id: brute
name: Brute
class_type: damage
base_stats:
  hp: 100
  force: 12
  endurance: 0
  intelligence: 1
  wisdom: 1
  energy:
    - type: aura
      value: 20
      regen_rate: 0.5
upgrade_stats:
  1:
    stats: {hp: 10, force: 1}
    energy: {aura: 2}
  3:
    new_energy:
      - type: ki
        value: 5
advantage:
  weak: [magic]
  resilient: [sacred]
class_skills_dict:
  level 1:
    - name: Punch
      type: damage
      damage_type: physical
      effects:
        damage: {value: 20}
    - name: Haymaker
      type: damage
      damage_type: physical
      energy_cost: 15
      energy_type: aura
      cooldown: 2
      effects:
        damage: {value: 30}
    - name: Second Wind
      type: heal
      energy_cost: 5
      energy_type: aura
      effects:
        heal: {value: 15}
  level 2:
    - name: Rally
      type: buff
      requires_target: false
      can_target_others: true
      effects:
        rally: {stat: force, value: 5, duration: 2}
    - name: Venom
      type: debuff
      effects:
        venom: {kind: dot, value: 4, duration: 2}
        daze: {kind: stun, duration: 1}
`

const warlockYAML = `
id: warlock
name: Warlock
class_type: summoner
base_stats:
  hp: 60
  force: 1
  endurance: 0
  intelligence: 10
  wisdom: 1
  energy:
    - type: mana
      value: 100
      regen_rate: 0.1
upgrade_stats: {}
advantage: {weak: [], resilient: []}
class_skills_dict:
  level 1:
    - name: Raise
      type: invocation
      requires_target: false
      energy_cost: 10
      energy_type: mana
      effects:
        invocation:
          summon: {class: imp, tier: BL}
    - name: Mend
      type: heal
      can_target_others: true
      effects:
        heal: {value: 25}
    - name: Revive
      type: resurrect
      can_target_others: true
      effects:
        resurrect: {value: 1}
`

const impYAML = `
id: imp
name: Imp
class_type: invocation
base_stats: {hp: 20, force: 4, endurance: 0, intelligence: 1, wisdom: 1, energy: []}
upgrade_stats: {}
advantage: {weak: [], resilient: []}
class_skills_dict:
  BL:
    - name: Claw
      type: damage
      damage_type: physical
      effects:
        damage: {value: 5}
`

// exactBalance disables the endurance curve so damage arithmetic is exact.
func exactBalance() ruleset.Balance {
	b := ruleset.DefaultBalance()
	b.EnduranceCeiling = 0
	return b
}

func newRegistry(t *testing.T, b ruleset.Balance) *character.Registry {
	t.Helper()
	r := character.NewRegistry(b, skill.NewResolvers())
	for name, src := range map[string]string{"brute": bruteYAML, "warlock": warlockYAML, "imp": impYAML} {
		table, err := ruleset.DecodeClassTable(name, strings.NewReader(src))
		require.NoError(t, err)
		require.NoError(t, r.RegisterTable(table))
	}
	return r
}

func create(t *testing.T, r *character.Registry, class, name string) *character.Character {
	t.Helper()
	c, err := r.Create(class, "owner-1", name)
	require.NoError(t, err)
	return c
}

func recreate(t *testing.T, r *character.Registry, class, name string, level int) *character.Character {
	t.Helper()
	c, err := r.Recreate(character.State{ClassName: class, Owner: "owner-1", Name: name, Level: level})
	require.NoError(t, err)
	return c
}

func TestCreate(t *testing.T) {
	r := newRegistry(t, exactBalance())
	c := create(t, r, "Brute", "Alice")

	assert.Equal(t, 1, c.Level())
	assert.Equal(t, 0, c.Exp())
	assert.Equal(t, "brute", c.ClassName())
	assert.Equal(t, "Brute", c.DisplayClass())
	assert.NotEmpty(t, c.ID())
	assert.True(t, c.CanLevelUp())
	cur, maxHP := c.HP()
	assert.Equal(t, 100, cur)
	assert.Equal(t, 100, maxHP)
	assert.Equal(t, 12, c.Attribute(stat.Force))
	assert.Equal(t, []string{"Punch", "Haymaker", "Second Wind"}, c.SkillNames())
	aura, ok := c.Pool(stat.Aura)
	require.True(t, ok)
	assert.Equal(t, 20, aura.Current())
	assert.Equal(t, []string{"brute", "imp", "warlock"}, r.Classes())

	_, err := r.Create("dragon", "owner-1", "Smaug")
	assert.ErrorIs(t, err, character.ErrUnknownClass)
	_, err = r.Create("brute", "", "NoOwner")
	assert.Error(t, err)
}

func TestUseSkill_DamageScenario(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")
	b := create(t, r, "brute", "Bob")
	require.NoError(t, b.Vital().Upgrade(150))

	out, err := a.UseSkill("Punch", b)
	require.NoError(t, err)
	require.True(t, out.Success)
	want := skill.Scale(20, 12)
	assert.GreaterOrEqual(t, want, 20)
	cur, _ := b.HP()
	assert.Equal(t, 250-want, cur)
	assert.Equal(t, "Alice dealt 20 damage to Bob.", out.Message)
}

func TestLoseHP_DeathTransfersExperience(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")
	b, err := r.Recreate(character.State{ClassName: "brute", Owner: "owner-2", Name: "Bob", Level: 3, Exp: 10})
	require.NoError(t, err)
	_, err = b.Summon("imp", "BL")
	require.NoError(t, err)
	imp := b.Pocket().All()[0]
	b.Vital().Set(5)

	out, err := a.UseSkill("Punch", b)
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Contains(t, out.Message, "Alice gained 160 XP from defeating Bob.")

	assert.False(t, b.IsAlive())
	assert.Equal(t, 1, b.Level())
	assert.Equal(t, 0, b.Exp())
	assert.Equal(t, 0, b.Pocket().Len())
	assert.False(t, imp.IsAlive())

	assert.Equal(t, 2, a.Level())
	assert.Equal(t, 60, a.Exp())
}

func TestLoseHP_Invulnerable(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")
	b := create(t, r, "brute", "Bob")
	ok, _ := b.Alter(a, skill.Effect{Name: "aegis", Kind: alteration.Invulnerability, Duration: 1})
	require.True(t, ok)
	require.True(t, b.IsInvulnerable())

	msg, err := b.LoseHP(a, 50)
	require.NoError(t, err)
	assert.Equal(t, "Bob is invulnerable, Alice can't hit them", msg)
	cur, _ := b.HP()
	assert.Equal(t, 100, cur)

	_, err = b.LoseHP(a, 0)
	assert.ErrorIs(t, err, character.ErrNonPositiveAmount)
}

func TestLoseHP_ResistanceLayers(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")
	b := create(t, r, "brute", "Bob")
	for _, e := range []skill.Effect{
		{Name: "brittle", Kind: alteration.Resistance, Layer: alteration.Weakness, Value: 3, Duration: 2},
		{Name: "plate", Kind: alteration.Resistance, Layer: alteration.Flat, Value: 5, Duration: 2},
		{Name: "ward", Kind: alteration.Resistance, Layer: alteration.Percent, Value: 50, Duration: 2},
	} {
		ok, msg := b.Alter(a, e)
		require.True(t, ok, msg)
	}

	_, err := b.LoseHP(a, 20)
	require.NoError(t, err)
	cur, _ := b.HP()
	assert.Equal(t, 100-9, cur)
}

func TestLoseHP_EnduranceCurve(t *testing.T) {
	r := newRegistry(t, ruleset.DefaultBalance())
	a := create(t, r, "brute", "Alice")
	b := create(t, r, "brute", "Bob")

	msg, err := b.LoseHP(a, 20)
	require.NoError(t, err)
	assert.Equal(t, "Alice dealt 19 damage to Bob.", msg)
}

func TestLoseHP_SummonerSharesWithPocket(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")
	w := create(t, r, "warlock", "Wendy")
	_, err := w.Summon("imp", "BL")
	require.NoError(t, err)
	_, err = w.Summon("imp", "BL")
	require.NoError(t, err)

	msg, err := w.LoseHP(a, 20)
	require.NoError(t, err)
	assert.Contains(t, msg, "10 damage was taken by 2 summons of Wendy.")
	cur, _ := w.HP()
	assert.Equal(t, 50, cur)
	for _, imp := range w.Pocket().All() {
		hp, _ := imp.HP()
		assert.Equal(t, 15, hp)
	}
}

func TestGainHP(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")
	a.Vital().Set(90)

	healed, msg, err := a.GainHP(25)
	require.NoError(t, err)
	assert.Equal(t, 10, healed)
	assert.Equal(t, "Alice healed for 10 HP.", msg)

	_, _, err = a.GainHP(-1)
	assert.ErrorIs(t, err, character.ErrNonPositiveAmount)

	a.Vital().Set(0)
	healed, _, err = a.GainHP(10)
	require.NoError(t, err)
	assert.Zero(t, healed)
	assert.False(t, a.IsAlive())
}

func TestResurrect(t *testing.T) {
	r := newRegistry(t, exactBalance())
	w := create(t, r, "warlock", "Wendy")
	b := create(t, r, "brute", "Bob")

	out, err := w.UseSkill("Revive", b)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonInvalidTarget, out.Reason)
	_, err = b.Resurrect(w)
	assert.ErrorIs(t, err, character.ErrAlive)

	b.Vital().Set(0)
	out, err = w.UseSkill("Revive", b)
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, "Bob has been resurrected by Wendy.", out.Message)
	cur, maxHP := b.HP()
	assert.Equal(t, maxHP/2, cur)
}

func TestUseSkill_Gates(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")
	b := create(t, r, "brute", "Bob")

	out, err := a.UseSkill("Fly", b)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonUnknownSkill, out.Reason)
	assert.Equal(t, "Unknown skill: Fly", out.Message)

	out, err = a.UseSkill("haymaker", b)
	require.NoError(t, err)
	require.True(t, out.Success)

	out, err = a.UseSkill("Haymaker", b)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonInsufficientResource, out.Reason)
	assert.Equal(t, "Not enough energy to use Haymaker", out.Message)

	a.Rest()
	out, err = a.UseSkill("Haymaker", b)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonOnCooldown, out.Reason)
	assert.Equal(t, "Haymaker is on cooldown (1 rounds remaining)", out.Message)

	out, err = a.UseSkill("Punch", nil)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonMissingTarget, out.Reason)

	out, err = a.UseSkill("Punch", a)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonSelfTarget, out.Reason)
	assert.Equal(t, "Cannot damage yourself", out.Message)

	out, err = a.UseSkill("Second Wind", b)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonTargetRestricted, out.Reason)
	assert.Equal(t, "Second Wind can only target self", out.Message)

	b.Vital().Set(0)
	out, err = a.UseSkill("Punch", b)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonInvalidTarget, out.Reason)
	assert.Equal(t, "Cannot target defeated Bob", out.Message)
}

func TestAttack_UsesLatestDamageSkillFirst(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")
	b := create(t, r, "brute", "Bob")
	require.NoError(t, b.Vital().Upgrade(100))

	out, err := a.Attack(b, "")
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, 30, out.Damage)

	out, err = a.Attack(b, "")
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, 20, out.Damage)
}

func TestHeal(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")

	out, err := a.Heal(a, "")
	require.NoError(t, err)
	assert.Equal(t, "Alice is already at full HP", out.Message)

	a.Vital().Set(70)
	out, err = a.Heal(a, "")
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, 15, out.Healed)

	out, err = a.Heal(nil, "")
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, skill.ReasonMissingTarget, out.Reason)
}

func TestLevelUp(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")

	msg, err := a.GainExp(50)
	require.NoError(t, err)
	assert.Equal(t, "Alice gained 50 XP.", msg)
	assert.Equal(t, 1, a.Level())
	up, err := a.LevelUp()
	require.NoError(t, err)
	assert.Equal(t, "Alice needs 50 more XP to level up.", up)

	msg, err = a.GainExp(250)
	require.NoError(t, err)
	assert.Contains(t, msg, "Alice advanced from Lv1 to Lv3")
	assert.Contains(t, msg, "new energy ki")
	assert.Equal(t, 3, a.Level())
	assert.Equal(t, 0, a.Exp())
	assert.Equal(t, 120, a.MaxHP())
	assert.Equal(t, 14, a.Attribute(stat.Force))
	assert.True(t, a.Pools().Has(stat.Ki))
	assert.Contains(t, a.SkillNames(), "Rally")
	assert.Contains(t, a.SkillNames(), "Venom")

	_, err = a.GainExp(0)
	assert.ErrorIs(t, err, character.ErrNonPositiveAmount)
}

func TestRecreate_ExactFields(t *testing.T) {
	r := newRegistry(t, exactBalance())
	c, err := r.Recreate(character.State{
		ClassName: "brute", Owner: "u1", Name: "Bob", Skills: []string{"punch"},
		ExplicitClass: "Champion", Level: 4, Exp: 33,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Owner())
	assert.Equal(t, "Bob", c.Name())
	assert.Equal(t, 4, c.Level())
	assert.Equal(t, 33, c.Exp())
	assert.Equal(t, []string{"Punch"}, c.SkillNames())
	assert.Equal(t, "Champion", c.ExplicitClass())
	assert.Equal(t, "Champion", c.DisplayClass())
	assert.Equal(t, 130, c.MaxHP())

	_, err = r.Recreate(character.State{ClassName: "brute", Owner: "u1", Name: "Bob", Skills: []string{"Fireball"}})
	assert.ErrorIs(t, err, ruleset.ErrConfiguration)
}

func TestSummon(t *testing.T) {
	r := newRegistry(t, exactBalance())
	w := create(t, r, "warlock", "Wendy")
	a := create(t, r, "brute", "Alice")

	out, err := w.Invoke()
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, "Imp of Wendy #1", out.Summoned)
	out, err = w.Invoke()
	require.NoError(t, err)
	assert.Equal(t, "Imp of Wendy #2", out.Summoned)

	out, err = w.Invoke()
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonPocketFull, out.Reason)
	mana, _ := w.Pool(stat.Mana)
	assert.Equal(t, 80, mana.Current())

	imp := w.Pocket().All()[0]
	assert.False(t, imp.CanLevelUp())
	assert.Equal(t, w, imp.Master())
	assert.Equal(t, "owner-1", imp.Owner())
	assert.Equal(t, []string{"Claw"}, imp.SkillNames())
	up, err := imp.LevelUp()
	require.NoError(t, err)
	assert.Equal(t, "Imp of Wendy #1 can't level up", up)

	_, err = imp.LoseHP(a, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Pocket().Len())
	assert.Nil(t, imp.Master())
}

func TestEndRound_TickOrder(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := recreate(t, r, "brute", "Alice", 2)
	b := recreate(t, r, "brute", "Bob", 2)

	out, err := a.UseSkill("Venom", b)
	require.NoError(t, err)
	require.True(t, out.Success, out.Message)
	assert.True(t, b.IsStunned())
	out, err = a.UseSkill("Rally", nil)
	require.NoError(t, err)
	require.True(t, out.Success, out.Message)
	assert.Equal(t, 18, a.Attribute(stat.Force))

	report := b.EndRound()
	require.Len(t, report.Damage, 1)
	assert.Equal(t, "venom: Alice dealt 4 damage to Bob.", report.Damage[0])
	require.Len(t, report.Expired, 1)
	assert.Equal(t, "daze on Bob expired", report.Expired[0].Message)
	assert.False(t, b.IsStunned())
	cur, _ := b.HP()
	assert.Equal(t, 106, cur)

	report = b.EndRound()
	require.Len(t, report.Expired, 1)
	assert.Equal(t, "venom (4 per round) on Bob expired", report.Expired[0].Message)
	assert.Empty(t, b.Alterations())
	cur, _ = b.HP()
	assert.Equal(t, 102, cur)

	a.EndRound()
	report = a.EndRound()
	require.Len(t, report.Expired, 1)
	assert.Equal(t, "force +5 on Alice expired", report.Expired[0].Message)
	assert.Equal(t, 13, a.Attribute(stat.Force))
}

func TestEndRound_DoTKillDoesNotReviveDeadCaster(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := recreate(t, r, "brute", "Alice", 2)
	b := recreate(t, r, "brute", "Bob", 3)
	c := create(t, r, "brute", "Carol")

	out, err := a.UseSkill("Venom", b)
	require.NoError(t, err)
	require.True(t, out.Success, out.Message)

	a.Vital().Set(1)
	_, err = a.LoseHP(c, 5)
	require.NoError(t, err)
	require.False(t, a.IsAlive())
	levelAfterDeath := a.Level()

	b.Vital().Set(1)
	report := b.EndRound()
	require.Len(t, report.Damage, 1)
	assert.Contains(t, report.Damage[0], "Alice gained 150 XP from defeating Bob.")
	assert.False(t, b.IsAlive())

	assert.Equal(t, levelAfterDeath+1, a.Level())
	assert.False(t, a.IsAlive())
	cur, maxHP := a.HP()
	assert.Equal(t, 0, cur)
	assert.Greater(t, maxHP, 0)
}

func TestRest(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")
	b := create(t, r, "brute", "Bob")
	_, err := a.UseSkill("Haymaker", b)
	require.NoError(t, err)
	h, _ := a.Skill("Haymaker")
	aura, _ := a.Pool(stat.Aura)
	assert.Equal(t, 5, aura.Current())

	a.Rest()
	assert.Equal(t, 15, aura.Current())
	assert.Equal(t, 1, h.CurrentCooldown())
	a.Rest()
	assert.Equal(t, 20, aura.Current())
	assert.True(t, h.Ready())
}

func TestSkills_UniqueIgnoringCase(t *testing.T) {
	r := newRegistry(t, exactBalance())
	a := create(t, r, "brute", "Alice")
	p, _ := a.Skill("PUNCH")
	require.NotNil(t, p)
	assert.ErrorIs(t, a.AddSkill(p.Clone()), character.ErrDuplicateSkill)
	assert.True(t, a.RemoveSkill("punch"))
	assert.NoError(t, a.AddSkill(p.Clone()))
	assert.Equal(t, "Punch", a.SkillNames()[2])
}

func TestContentClasses(t *testing.T) {
	tables, err := ruleset.LoadClassTables("../../../content/classes")
	require.NoError(t, err)
	r := character.NewRegistry(ruleset.DefaultBalance(), skill.NewResolvers())
	for _, table := range tables {
		require.NoError(t, r.RegisterTable(table))
	}

	k, err := r.Recreate(character.State{ClassName: "knight", Owner: "u", Name: "Kay", Level: 20})
	require.NoError(t, err)
	assert.True(t, k.Pools().Has(stat.Faith))
	assert.Contains(t, k.SkillNames(), "Holy Strike")
	bash, ok := k.Skill("Shield Bash")
	require.True(t, ok)
	assert.True(t, bash.HasCustomResolver())

	n := create(t, r, "necromancer", "Nix")
	out, err := n.Invoke()
	require.NoError(t, err)
	require.True(t, out.Success, out.Message)
	assert.Equal(t, "Skeleton of Nix #1", out.Summoned)
}

func TestPropertyHPStaysInBounds(t *testing.T) {
	r := newRegistry(t, ruleset.DefaultBalance())
	rapid.Check(t, func(rt *rapid.T) {
		a := create(t, r, "brute", "Alice")
		b := create(t, r, "brute", "Bob")
		steps := rapid.SliceOfN(rapid.IntRange(-60, 60), 1, 30).Draw(rt, "steps")
		for _, n := range steps {
			switch {
			case n > 0:
				if _, err := b.LoseHP(a, n); err != nil {
					rt.Fatal(err)
				}
			case n < 0:
				if _, _, err := b.GainHP(-n); err != nil {
					rt.Fatal(err)
				}
			}
			cur, maxHP := b.HP()
			if cur < 0 || cur > maxHP {
				rt.Fatalf("hp %d outside [0, %d]", cur, maxHP)
			}
		}
	})
}
