package scripting_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/ruleset"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

const casterYAML = `
id: adept
name: Adept
class_type: damage
base_stats:
  hp: 80
  force: 5
  endurance: 0
  intelligence: 19
  wisdom: 6
  energy:
    - type: mana
      value: 50
      regen_rate: 0.1
upgrade_stats: {}
advantage: {weak: [], resilient: []}
class_skills_dict:
  level 1:
    - name: Arcane Surge
      type: damage
      damage_type: magic
      resolver: arcane_surge
      energy_cost: 8
      energy_type: mana
      cooldown: 2
      effects:
        damage: {value: 6, scaling: 0.5}
        burn: {kind: dot, value: 2, duration: 2}
    - name: Backfire
      type: custom
      resolver: broken
      energy_cost: 5
      energy_type: mana
      cooldown: 1
    - name: Fizzle
      type: custom
      resolver: fizzle
    - name: Spin
      type: custom
      resolver: spin
`

const dummyYAML = `
id: dummy
name: Dummy
class_type: damage
base_stats: {hp: 200, force: 1, endurance: 0, intelligence: 1, wisdom: 1, energy: []}
upgrade_stats: {}
advantage: {weak: [], resilient: []}
class_skills_dict:
  level 1: []
`

const extraLua = `
function broken(caster, target, skill)
  error("boom")
end

function fizzle(caster, target, skill)
  engine.message("The spell sputters.")
  return false
end

function spin(caster, target, skill)
  while true do end
end
`

func newTestManager(t *testing.T, limit int) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	m := scripting.NewManager(limit, zap.New(core))
	t.Cleanup(m.Close)
	return m, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

// loadAll loads the shipped scripts and the test fixtures.
func loadAll(t *testing.T, m *scripting.Manager) {
	t.Helper()
	require.NoError(t, m.Load(filepath.Join("..", "..", "content", "scripts")))
	require.NoError(t, m.Load(writeTempLua(t, "extra.lua", extraLua)))
}

func newRegistry(t *testing.T, m *scripting.Manager) *character.Registry {
	t.Helper()
	resolvers := skill.NewResolvers()
	resolvers.AddSource(m)
	b := ruleset.DefaultBalance()
	b.EnduranceCeiling = 0
	r := character.NewRegistry(b, resolvers)
	for name, src := range map[string]string{"adept": casterYAML, "dummy": dummyYAML} {
		table, err := ruleset.DecodeClassTable(name, strings.NewReader(src))
		require.NoError(t, err)
		require.NoError(t, r.RegisterTable(table))
	}
	return r
}

func pair(t *testing.T, r *character.Registry) (*character.Character, *character.Character) {
	t.Helper()
	a, err := r.Create("adept", "owner", "Ada")
	require.NoError(t, err)
	d, err := r.Create("dummy", "owner", "Dummy")
	require.NoError(t, err)
	return a, d
}

func TestManager_LoadDefinesResolvers(t *testing.T) {
	m, logs := newTestManager(t, 0)
	loadAll(t, m)
	assert.Equal(t, []string{"arcane_surge", "broken", "fizzle", "spin"}, m.Names())

	_, ok := m.Resolver("arcane_surge")
	assert.True(t, ok)
	_, ok = m.Resolver("print")
	assert.False(t, ok, "library functions are not resolvers")
	_, ok = m.Resolver("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, logs.FilterMessage("scripting: loaded scripts").Len())
}

func TestManager_LoadErrors(t *testing.T) {
	m, _ := newTestManager(t, 0)
	assert.Error(t, m.Load("/nonexistent/scripts"))
	assert.Error(t, m.Load(writeTempLua(t, "bad.lua", `function (`)))
	assert.Error(t, m.Load(writeTempLua(t, "eager.lua", `engine.damage("target", 5)`)))
}

func TestManager_ArcaneSurge(t *testing.T) {
	m, _ := newTestManager(t, 0)
	loadAll(t, m)
	ada, dummy := pair(t, newRegistry(t, m))

	out, err := ada.UseSkill("Arcane Surge", dummy)
	require.NoError(t, err)
	require.True(t, out.Success, out.Message)
	// 6 + floor(0.5 * 19)
	assert.Equal(t, 15, out.Damage)
	assert.Contains(t, out.Message, "Ada dealt 15 damage to Dummy.")
	assert.Contains(t, out.Message, "suffers")
	cur, _ := dummy.HP()
	assert.Equal(t, 185, cur)
	require.Len(t, dummy.Alterations(), 1)
	assert.Equal(t, "burn", dummy.Alterations()[0].Name())

	mana, _ := ada.Pool(stat.Mana)
	assert.Equal(t, 42, mana.Current())
}

func TestManager_RuntimeErrorRefundsCost(t *testing.T) {
	m, logs := newTestManager(t, 0)
	loadAll(t, m)
	ada, dummy := pair(t, newRegistry(t, m))

	out, err := ada.UseSkill("Backfire", dummy)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, skill.ReasonResolverFailed, out.Reason)
	assert.Contains(t, out.Message, "boom")

	mana, _ := ada.Pool(stat.Mana)
	assert.Equal(t, 50, mana.Current())
	backfire, _ := ada.Skill("Backfire")
	assert.True(t, backfire.Ready())
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestManager_ScriptReportsNoEffect(t *testing.T) {
	m, _ := newTestManager(t, 0)
	loadAll(t, m)
	ada, dummy := pair(t, newRegistry(t, m))

	out, err := ada.UseSkill("Fizzle", dummy)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, skill.ReasonNoEffect, out.Reason)
	assert.Equal(t, "The spell sputters.", out.Message)
}

func TestManager_InstructionLimitPerCall(t *testing.T) {
	m, _ := newTestManager(t, 5_000)
	loadAll(t, m)
	ada, dummy := pair(t, newRegistry(t, m))

	out, err := ada.UseSkill("Spin", dummy)
	require.NoError(t, err)
	assert.Equal(t, skill.ReasonResolverFailed, out.Reason)

	out, err = ada.UseSkill("Arcane Surge", dummy)
	require.NoError(t, err)
	assert.True(t, out.Success, out.Message)
}

func TestManager_ConcurrentResolves(t *testing.T) {
	m, _ := newTestManager(t, 0)
	loadAll(t, m)
	r := newRegistry(t, m)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		ada, err := r.Create("adept", "owner", fmt.Sprintf("Ada%d", i))
		require.NoError(t, err)
		dummy, err := r.Create("dummy", "owner", fmt.Sprintf("Dummy%d", i))
		require.NoError(t, err)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := ada.UseSkill("Arcane Surge", dummy)
			if err == nil && out.Damage != 15 {
				err = fmt.Errorf("damage %d", out.Damage)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
