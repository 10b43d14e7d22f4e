package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/skill"
)

var _ skill.ResolverSource = (*Manager)(nil)

// Manager owns one sandboxed LState holding every scripted resolver. A
// resolver is a global Lua function called as fn(caster, target, skill) that
// acts through the engine.* module and returns (success, message).
//
// Manager is safe for concurrent use; calls into the VM are serialized.
type Manager struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	logger *zap.Logger
	call   *call

	namesMu sync.RWMutex
	names   map[string]bool
}

// call is the state of the resolver currently running in the VM.
type call struct {
	caster   skill.Actor
	target   skill.Actor
	out      skill.Outcome
	messages []string
}

// NewManager creates a Manager with an empty VM.
//
// Precondition: logger must be non-nil.
// Postcondition: instLimit <= 0 selects DefaultInstructionLimit per call.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	m := &Manager{
		L:      NewSandboxedState(),
		limit:  instLimit,
		logger: logger,
		names:  make(map[string]bool),
	}
	m.RegisterModules(m.L)
	return m
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.L.Close()
}

// Load executes every *.lua file in scriptDir in lexicographic order. Global
// functions defined by the files become resolvers.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: returns an error naming the first file that fails; files
// loaded before it stay loaded.
func (m *Manager) Load(scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.functions()
	for _, path := range luaFiles {
		if err := RunLimited(m.L, m.limit, func() error { return m.L.DoFile(path) }); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	var added []string
	m.namesMu.Lock()
	for name := range m.functions() {
		if !before[name] {
			m.names[name] = true
			added = append(added, name)
		}
	}
	m.namesMu.Unlock()
	sort.Strings(added)
	m.logger.Info("scripting: loaded scripts",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
		zap.Strings("resolvers", added),
	)
	return nil
}

// functions returns the names of global Lua functions.
//
// Precondition: m.mu is held.
func (m *Manager) functions() map[string]bool {
	out := make(map[string]bool)
	m.L.G.Global.ForEach(func(k, v lua.LValue) {
		if _, ok := v.(*lua.LFunction); ok {
			if name, ok := k.(lua.LString); ok {
				out[string(name)] = true
			}
		}
	})
	return out
}

// Names returns the resolver names defined by loaded scripts, sorted.
func (m *Manager) Names() []string {
	m.namesMu.RLock()
	defer m.namesMu.RUnlock()
	out := make([]string, 0, len(m.names))
	for n := range m.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Resolver returns the scripted resolver called name.
//
// Postcondition: ok is false when no loaded script defines name.
func (m *Manager) Resolver(name string) (skill.Resolver, bool) {
	m.namesMu.RLock()
	defer m.namesMu.RUnlock()
	if !m.names[name] {
		return nil, false
	}
	return skill.ResolverFunc(func(caster, target skill.Actor, s *skill.Skill) (skill.Outcome, error) {
		return m.resolve(name, caster, target, s)
	}), true
}

// resolve calls the Lua function name. Runtime errors are logged at Warn and
// returned so the skill refunds its cost.
func (m *Manager) resolve(name string, caster, target skill.Actor, s *skill.Skill) (skill.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn, ok := m.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return skill.Outcome{}, fmt.Errorf("scripting: resolver %q is not a function", name)
	}
	m.call = &call{caster: caster, target: target}
	defer func() { m.call = nil }()

	args := []lua.LValue{
		actorTable(m.L, caster, roleCaster),
		actorTable(m.L, target, roleTarget),
		skillTable(m.L, s),
	}
	err := RunLimited(m.L, m.limit, func() error {
		return m.L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, args...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("resolver", name),
			zap.String("skill", s.Name()),
			zap.String("caster", caster.Name()),
			zap.Error(err),
		)
		return skill.Outcome{}, fmt.Errorf("scripting: %s: %w", name, err)
	}
	success, msg := m.L.Get(-2), m.L.Get(-1)
	m.L.Pop(2)

	out := m.call.out
	out.Success = len(m.call.messages) > 0
	if b, ok := success.(lua.LBool); ok {
		out.Success = bool(b)
	}
	messages := m.call.messages
	if str, ok := msg.(lua.LString); ok && str != "" {
		messages = append(messages, string(str))
	}
	out.Message = strings.Join(messages, " ")
	if !out.Success && out.Message == "" {
		out.Message = fmt.Sprintf("%s had no effect", s.Name())
	}
	return out, nil
}
