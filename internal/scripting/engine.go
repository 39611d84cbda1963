package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maze-engine/world/internal/component"
	"github.com/maze-engine/world/internal/core/ecs"
	coresys "github.com/maze-engine/world/internal/core/system"
	"github.com/maze-engine/world/internal/scene"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM bound to one World.
// Single-goroutine access only (the simulation loop).
//
// Scripts never hold entity pointers: every call into the world module
// takes an entity id and resolves it again, so staged destruction cannot
// leave a script with a dangling reference.
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	world    *ecs.World
	registry *scene.Registry

	// Entities created from Lua this tick, reachable before they go live.
	fresh map[ecs.EntityID]*ecs.Entity
}

// NewEngine creates a Lua engine and loads all scripts from scriptsDir,
// then from scriptsDir/systems.
func NewEngine(w *ecs.World, reg *scene.Registry, scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(w, reg, log)
	for _, dir := range []string{scriptsDir, filepath.Join(scriptsDir, "systems")} {
		if err := e.loadDir(dir); err != nil {
			e.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func newEngine(w *ecs.World, reg *scene.Registry, log *zap.Logger) *Engine {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("scripts", vm.NewTable())

	e := &Engine{
		vm:       vm,
		log:      log,
		world:    w,
		registry: reg,
		fresh:    make(map[ecs.EntityID]*ecs.Entity, 16),
	}
	e.openWorldModule()
	return e
}

func (e *Engine) Close() {
	e.vm.Close()
}

// DoString runs a chunk of Lua source.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// RegisterScriptSystem runs scripts[<Script.Name>].update(dt, id) for every
// entity carrying a Script component.
func (e *Engine) RegisterScriptSystem(order coresys.Order) *ecs.ComponentSystem {
	return ecs.AddSystem1(e.world, "Script", order,
		func(dt time.Duration, ent *ecs.Entity, s *component.Script) {
			scripts, ok := e.vm.GetGlobal("scripts").(*lua.LTable)
			if !ok {
				return
			}
			tbl, ok := scripts.RawGetString(s.Name).(*lua.LTable)
			if !ok {
				return
			}
			fn, ok := tbl.RawGetString("update").(*lua.LFunction)
			if !ok {
				return
			}
			e.call(fn, "scripts."+s.Name, lua.LNumber(dt.Seconds()), lua.LNumber(ent.ID()))
		})
}

func (e *Engine) call(fn *lua.LFunction, name string, args ...lua.LValue) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua call failed", zap.String("fn", name), zap.Error(err))
	}
}

// resolve maps an id to a live entity, or to one created from Lua that is
// still waiting for the add drain.
func (e *Engine) resolve(id ecs.EntityID) *ecs.Entity {
	if ent := e.world.EntityByID(id); ent != nil {
		delete(e.fresh, id)
		return ent
	}
	if ent, ok := e.fresh[id]; ok {
		if ent.Lifecycle() == ecs.PendingAdd {
			return ent
		}
		delete(e.fresh, id)
	}
	return nil
}

func (e *Engine) pruneFresh() {
	for id, ent := range e.fresh {
		if ent.Lifecycle() != ecs.PendingAdd {
			delete(e.fresh, id)
		}
	}
}
