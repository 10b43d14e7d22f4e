package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/skirmish/internal/game/alteration"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stat"
)

const (
	roleCaster = "caster"
	roleTarget = "target"
)

// RegisterModules registers the engine.* Lua table into L. Every function
// takes the acting role ("caster" or "target", or the table passed to the
// resolver) as its first argument.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"damage":    m.luaDamage,
		"heal":      m.luaHeal,
		"alter":     m.luaAlter,
		"attribute": m.luaAttribute,
		"hp":        m.luaHP,
		"alive":     m.luaAlive,
		"message":   m.luaMessage,
	})
	L.SetGlobal("engine", engine)
}

// actorTable snapshots a for the resolver arguments; a nil actor is nil.
func actorTable(L *lua.LState, a skill.Actor, role string) lua.LValue {
	if a == nil {
		return lua.LNil
	}
	cur, maxHP := a.HP()
	t := L.NewTable()
	t.RawSetString("role", lua.LString(role))
	t.RawSetString("id", lua.LString(a.ID()))
	t.RawSetString("name", lua.LString(a.Name()))
	t.RawSetString("hp", lua.LNumber(cur))
	t.RawSetString("max_hp", lua.LNumber(maxHP))
	t.RawSetString("alive", lua.LBool(a.IsAlive()))
	return t
}

// skillTable exposes the skill's name and effects keyed by effect name.
func skillTable(L *lua.LState, s *skill.Skill) lua.LValue {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(s.Name()))
	effects := L.NewTable()
	for _, e := range s.Effects() {
		et := L.NewTable()
		et.RawSetString("value", lua.LNumber(e.Value))
		et.RawSetString("duration", lua.LNumber(e.Duration))
		et.RawSetString("scaling", lua.LNumber(e.Scaling))
		if e.Stat != "" {
			et.RawSetString("stat", lua.LString(e.Stat))
		}
		if e.IsAlteration() {
			et.RawSetString("kind", lua.LString(e.Kind.String()))
		}
		if e.Layer != 0 {
			et.RawSetString("layer", lua.LString(e.Layer.String()))
		}
		effects.RawSetString(e.Name, et)
	}
	t.RawSetString("effects", effects)
	return t
}

// actor resolves argument n to the caster or target of the running call.
func (m *Manager) actor(L *lua.LState, n int) skill.Actor {
	if m.call == nil {
		L.RaiseError("engine functions are only available inside a resolver")
		return nil
	}
	var role string
	switch v := L.CheckAny(n).(type) {
	case lua.LString:
		role = string(v)
	case *lua.LTable:
		role = lua.LVAsString(v.RawGetString("role"))
	}
	switch role {
	case roleCaster:
		return m.call.caster
	case roleTarget:
		if m.call.target == nil {
			L.RaiseError("resolver has no target")
		}
		return m.call.target
	}
	L.ArgError(n, `expected "caster" or "target"`)
	return nil
}

func (m *Manager) say(msg string) {
	if msg != "" {
		m.call.messages = append(m.call.messages, msg)
	}
}

// engine.damage(who, amount) -> hp lost
func (m *Manager) luaDamage(L *lua.LState) int {
	a := m.actor(L, 1)
	amount := L.CheckInt(2)
	if amount <= 0 {
		L.ArgError(2, "damage must be positive")
	}
	before, _ := a.HP()
	msg, err := a.LoseHP(m.call.caster, amount)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	after, _ := a.HP()
	m.call.out.Damage += before - after
	m.say(msg)
	L.Push(lua.LNumber(before - after))
	return 1
}

// engine.heal(who, amount) -> hp restored
func (m *Manager) luaHeal(L *lua.LState) int {
	a := m.actor(L, 1)
	amount := L.CheckInt(2)
	if amount <= 0 {
		L.ArgError(2, "heal must be positive")
	}
	healed, msg, err := a.GainHP(amount)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	m.call.out.Healed += healed
	m.say(msg)
	L.Push(lua.LNumber(healed))
	return 1
}

// engine.alter(who, {name, kind, value, duration, stat, layer}) -> applied, message
func (m *Manager) luaAlter(L *lua.LState) int {
	a := m.actor(L, 1)
	args := L.CheckTable(2)
	kind, err := alteration.ParseKind(lua.LVAsString(args.RawGetString("kind")))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	e := skill.Effect{
		Name:     lua.LVAsString(args.RawGetString("name")),
		Kind:     kind,
		Value:    int(lua.LVAsNumber(args.RawGetString("value"))),
		Duration: int(lua.LVAsNumber(args.RawGetString("duration"))),
		Stat:     lua.LVAsString(args.RawGetString("stat")),
	}
	if layer := lua.LVAsString(args.RawGetString("layer")); layer != "" {
		if e.Layer, err = alteration.ParseLayer(layer); err != nil {
			L.ArgError(2, err.Error())
		}
	}
	ok, msg := a.Alter(m.call.caster, e)
	m.say(msg)
	L.Push(lua.LBool(ok))
	L.Push(lua.LString(msg))
	return 2
}

// engine.attribute(who, name) -> current value
func (m *Manager) luaAttribute(L *lua.LState) int {
	a := m.actor(L, 1)
	name, err := stat.ParseName(L.CheckString(2))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	L.Push(lua.LNumber(a.Attribute(name)))
	return 1
}

// engine.hp(who) -> current, max
func (m *Manager) luaHP(L *lua.LState) int {
	cur, maxHP := m.actor(L, 1).HP()
	L.Push(lua.LNumber(cur))
	L.Push(lua.LNumber(maxHP))
	return 2
}

// engine.alive(who) -> bool
func (m *Manager) luaAlive(L *lua.LState) int {
	L.Push(lua.LBool(m.actor(L, 1).IsAlive()))
	return 1
}

// engine.message(text)
func (m *Manager) luaMessage(L *lua.LState) int {
	if m.call == nil {
		L.RaiseError("engine functions are only available inside a resolver")
		return 0
	}
	m.say(L.CheckString(1))
	return 0
}
