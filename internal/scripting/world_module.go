package scripting

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/maze-engine/world/internal/component"
	"github.com/maze-engine/world/internal/core/ecs"
	coresys "github.com/maze-engine/world/internal/core/system"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// openWorldModule installs the global "world" table.
func (e *Engine) openWorldModule() {
	mod := e.vm.SetFuncs(e.vm.NewTable(), map[string]lua.LGFunction{
		"create":     e.luaCreate,
		"remove":     e.luaRemove,
		"exists":     e.luaExists,
		"set_active": e.luaSetActive,
		"active":     e.luaActive,
		"has":        e.luaHas,
		"get":        e.luaGet,
		"set":        e.luaSet,
		"detach":     e.luaDetach,
		"damage":     e.luaDamage,
		"heal":       e.luaHeal,
		"add_system": e.luaAddSystem,
		"tick":       e.luaTick,
		"log":        e.luaLog,
	})
	e.vm.SetGlobal("world", mod)
}

func checkID(L *lua.LState, n int) ecs.EntityID {
	return ecs.EntityID(L.CheckInt(n))
}

// world.create() -> id
func (e *Engine) luaCreate(L *lua.LState) int {
	if len(e.fresh) > 256 {
		e.pruneFresh()
	}
	ent := e.world.CreateEntity()
	e.fresh[ent.ID()] = ent
	L.Push(lua.LNumber(ent.ID()))
	return 1
}

// world.remove(id) -> bool
func (e *Engine) luaRemove(L *lua.LState) int {
	ent := e.resolve(checkID(L, 1))
	L.Push(lua.LBool(ent != nil && ent.RemoveFromWorld()))
	return 1
}

// world.exists(id) -> bool
func (e *Engine) luaExists(L *lua.LState) int {
	L.Push(lua.LBool(e.resolve(checkID(L, 1)) != nil))
	return 1
}

// world.set_active(id, bool) -> bool
func (e *Engine) luaSetActive(L *lua.LState) int {
	ent := e.resolve(checkID(L, 1))
	if ent == nil {
		L.Push(lua.LFalse)
		return 1
	}
	ent.SetActiveSelf(L.CheckBool(2))
	L.Push(lua.LTrue)
	return 1
}

// world.active(id) -> bool, active in hierarchy
func (e *Engine) luaActive(L *lua.LState) int {
	ent := e.resolve(checkID(L, 1))
	L.Push(lua.LBool(ent != nil && ent.ActiveInHierarchy()))
	return 1
}

// world.has(id, component) -> bool
func (e *Engine) luaHas(L *lua.LState) int {
	ent := e.resolve(checkID(L, 1))
	codec, ok := e.registry.Lookup(L.CheckString(2))
	L.Push(lua.LBool(ok && ent != nil && ent.HasComponent(codec.Class)))
	return 1
}

// world.get(id, component) -> table | nil
func (e *Engine) luaGet(L *lua.LState) int {
	ent := e.resolve(checkID(L, 1))
	codec, ok := e.registry.Lookup(L.CheckString(2))
	if ent == nil || !ok {
		L.Push(lua.LNil)
		return 1
	}
	c := ent.ComponentByClass(codec.Class)
	if c == nil {
		L.Push(lua.LNil)
		return 1
	}
	doc, _, err := e.registry.Encode(c)
	if err != nil {
		L.RaiseError("world.get: %v", err)
		return 0
	}
	var v any
	if err := doc.Data.Decode(&v); err != nil {
		L.RaiseError("world.get: %v", err)
		return 0
	}
	L.Push(toLua(L, v))
	return 1
}

// world.set(id, component, table) -> bool
// Attaches the component if missing, then overwrites the given fields.
func (e *Engine) luaSet(L *lua.LState) int {
	ent := e.resolve(checkID(L, 1))
	name := L.CheckString(2)
	fields := L.CheckTable(3)
	codec, ok := e.registry.Lookup(name)
	if !ok {
		L.ArgError(2, "unknown component "+name)
		return 0
	}
	if ent == nil {
		L.Push(lua.LFalse)
		return 1
	}
	c := ent.ComponentByClass(codec.Class)
	if c == nil {
		c = codec.New()
		if !ent.AddComponent(c) {
			L.Push(lua.LFalse)
			return 1
		}
	}
	var node yaml.Node
	if err := node.Encode(fromLua(fields)); err != nil {
		L.RaiseError("world.set: %v", err)
		return 0
	}
	if err := e.registry.DecodeInto(c, &node); err != nil {
		L.RaiseError("world.set: %v", err)
		return 0
	}
	L.Push(lua.LTrue)
	return 1
}

// world.detach(id, component) -> count
func (e *Engine) luaDetach(L *lua.LState) int {
	ent := e.resolve(checkID(L, 1))
	codec, ok := e.registry.Lookup(L.CheckString(2))
	if ent == nil || !ok {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(ent.RemoveComponentsByClass(codec.Class)))
	return 1
}

// world.damage(id, amount [, source])
func (e *Engine) luaDamage(L *lua.LState) int {
	id := checkID(L, 1)
	ev := component.DamageEvent{
		Amount: L.CheckInt(2),
		Source: ecs.EntityID(L.OptInt(3, 0)),
	}
	ecs.SendEventImmediateTo(e.world, id, ev)
	return 0
}

// world.heal(id, amount)
func (e *Engine) luaHeal(L *lua.LState) int {
	id := checkID(L, 1)
	ecs.SendEventImmediateTo(e.world, id, component.HealEvent{Amount: L.CheckInt(2)})
	return 0
}

// world.add_system(name, order, {components...}, fn(dt, id))
func (e *Engine) luaAddSystem(L *lua.LState) int {
	name := L.CheckString(1)
	order := coresys.Order(L.CheckInt(2))
	names := L.CheckTable(3)
	fn := L.CheckFunction(4)

	var ids []ecs.ClassID
	var bad string
	names.ForEach(func(_, v lua.LValue) {
		codec, ok := e.registry.Lookup(lua.LVAsString(v))
		if !ok {
			bad = lua.LVAsString(v)
			return
		}
		ids = append(ids, codec.Class)
	})
	if bad != "" {
		L.ArgError(3, "unknown component "+bad)
		return 0
	}
	if len(ids) == 0 {
		L.ArgError(3, "at least one component is required")
		return 0
	}
	slices.Sort(ids)

	sample := e.world.RequestInclusiveSample(ids...)
	e.world.AddSystem(name, order, sample, func(dt time.Duration, ent *ecs.Entity) {
		e.call(fn, name, lua.LNumber(dt.Seconds()), lua.LNumber(ent.ID()))
	})
	e.log.Debug("lua system registered", zap.String("system", name), zap.Int("order", int(order)))
	return 0
}

// world.tick() -> completed ticks
func (e *Engine) luaTick(L *lua.LState) int {
	L.Push(lua.LNumber(e.world.Tick()))
	return 1
}

// world.log(msg)
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

// toLua converts a decoded YAML value to a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case map[string]any:
		t := L.NewTable()
		for k, val := range x {
			t.RawSetString(k, toLua(L, val))
		}
		return t
	case []any:
		t := L.NewTable()
		for _, val := range x {
			t.Append(toLua(L, val))
		}
		return t
	}
	return lua.LString(fmt.Sprint(v))
}

// fromLua converts a Lua value to plain Go values suitable for YAML
// encoding. Tables with a non-empty array part become slices.
func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		f := float64(x)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(x)
	case *lua.LTable:
		if n := x.MaxN(); n > 0 {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, fromLua(x.RawGetInt(i)))
			}
			return out
		}
		out := make(map[string]any)
		x.ForEach(func(k, val lua.LValue) {
			out[lua.LVAsString(k)] = fromLua(val)
		})
		return out
	}
	return nil
}
