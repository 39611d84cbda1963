package scripting

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/maze-engine/world/internal/component"
	"github.com/maze-engine/world/internal/core/ecs"
	coresys "github.com/maze-engine/world/internal/core/system"
	"github.com/maze-engine/world/internal/scene"
	"github.com/maze-engine/world/internal/system"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zaptest"
)

const step = 100 * time.Millisecond

func newTestEngine(t *testing.T) (*Engine, *ecs.World) {
	t.Helper()
	log := zaptest.NewLogger(t)
	w := ecs.NewWorld(ecs.WithLogger(log))
	e := newEngine(w, scene.NewDefaultRegistry(), log)
	t.Cleanup(e.Close)
	return e, w
}

func mustRun(t *testing.T, e *Engine, src string) {
	t.Helper()
	if err := e.DoString(src); err != nil {
		t.Fatalf("lua: %v", err)
	}
}

func global(e *Engine, name string) lua.LValue { return e.vm.GetGlobal(name) }

func TestCreateAndSetBeforeLive(t *testing.T) {
	e, w := newTestEngine(t)
	mustRun(t, e, `
		id = world.create()
		ok = world.set(id, "name", {value = "probe"})
		pending_exists = world.exists(id)
	`)
	if global(e, "ok") != lua.LTrue || global(e, "pending_exists") != lua.LTrue {
		t.Fatal("pending entity not reachable from Lua")
	}
	id := ecs.EntityID(lua.LVAsNumber(global(e, "id")))
	if w.EntityByID(id) != nil {
		t.Fatal("entity live before update")
	}

	w.Update(step)
	ent := w.EntityByID(id)
	if ent == nil {
		t.Fatal("entity not live after update")
	}
	if n := ecs.GetComponent[component.Name](ent); n == nil || n.Value != "probe" {
		t.Errorf("name not set: %+v", n)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	e, w := newTestEngine(t)
	ent := w.CreateEntity()
	tr := ecs.CreateComponent[component.Transform3D](ent)
	tr.Position = component.Vec3{X: 1.5, Y: 2}
	w.Update(step)

	mustRun(t, e, `
		local t = world.get(`+itoa(ent.ID())+`, "Transform3D")
		x = t.position.x
		world.set(`+itoa(ent.ID())+`, "Transform3D", {position = {z = 4}})
		missing = world.get(`+itoa(ent.ID())+`, "Health")
		has_health = world.has(`+itoa(ent.ID())+`, "Health")
	`)
	if lua.LVAsNumber(global(e, "x")) != 1.5 {
		t.Errorf("x = %v", global(e, "x"))
	}
	if global(e, "missing") != lua.LNil || global(e, "has_health") != lua.LFalse {
		t.Error("absent component reported")
	}
	if tr.Position.Z != 4 {
		t.Errorf("z = %v", tr.Position.Z)
	}
	// Fields absent from the table are kept; nested mappings are merged.
	if tr.Position.X != 1.5 {
		t.Errorf("partial set clobbered x: %+v", tr.Position)
	}
}

func TestSetUnknownComponentRaises(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.DoString(`world.set(world.create(), "Nope", {})`); err == nil {
		t.Error("expected Lua error")
	}
}

func TestRemoveAndStaleIDs(t *testing.T) {
	e, w := newTestEngine(t)
	ent := w.CreateEntity()
	w.Update(step)

	src := `removed = world.remove(` + itoa(ent.ID()) + `)`
	mustRun(t, e, src)
	if global(e, "removed") != lua.LTrue {
		t.Fatal("remove failed")
	}
	w.Update(step)

	mustRun(t, e, src+`
		alive = world.exists(`+itoa(ent.ID())+`)
		set = world.set(`+itoa(ent.ID())+`, "Name", {value = "ghost"})
	`)
	if global(e, "removed") != lua.LFalse || global(e, "alive") != lua.LFalse || global(e, "set") != lua.LFalse {
		t.Error("destroyed entity still reachable from Lua")
	}
}

func TestLuaSystem(t *testing.T) {
	e, w := newTestEngine(t)
	mustRun(t, e, `
		id = world.create()
		world.set(id, "Transform3D", {})
		world.add_system("drift", 100, {"Transform3D"}, function(dt, ent)
			local t = world.get(ent, "Transform3D")
			world.set(ent, "Transform3D", {position = {x = t.position.x + 1}})
		end)
	`)
	if got := w.Systems(); len(got) != 1 || got[0] != "drift" {
		t.Fatalf("systems = %v", got)
	}
	w.Update(step)
	w.Update(step)

	id := ecs.EntityID(lua.LVAsNumber(global(e, "id")))
	tr := ecs.GetComponent[component.Transform3D](w.EntityByID(id))
	if tr.Position.X != 2 {
		t.Errorf("x = %v after two ticks", tr.Position.X)
	}
}

func TestAddSystemRejectsUnknownComponent(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.DoString(`world.add_system("bad", 0, {"Nope"}, function() end)`); err == nil {
		t.Error("expected error for unknown component")
	}
	if err := e.DoString(`world.add_system("empty", 0, {}, function() end)`); err == nil {
		t.Error("expected error for empty component list")
	}
}

func TestDamageReachesHealthSystem(t *testing.T) {
	e, w := newTestEngine(t)
	system.NewHealthSystem(w, zaptest.NewLogger(t))

	ent := w.CreateEntity()
	h := ecs.CreateComponent[component.Health](ent)
	h.Current, h.Max = 10, 10
	w.Update(step)

	mustRun(t, e, `
		world.damage(`+itoa(ent.ID())+`, 4)
		world.heal(`+itoa(ent.ID())+`, 1)
	`)
	if h.Current != 7 {
		t.Fatalf("current = %d", h.Current)
	}
	mustRun(t, e, `world.damage(`+itoa(ent.ID())+`, 50, 3)`)
	if ent.Lifecycle() != ecs.PendingRemove {
		t.Errorf("dead entity not removed: %v", ent.Lifecycle())
	}
}

func TestScriptComponentSystem(t *testing.T) {
	dir := t.TempDir()
	src := `
scripts.counter = { calls = 0 }
function scripts.counter.update(dt, id)
	scripts.counter.calls = scripts.counter.calls + 1
	if scripts.counter.calls == 2 then error("boom") end
end
`
	if err := os.WriteFile(filepath.Join(dir, "counter.lua"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "systems"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "systems", "late.lua"), []byte(`late_loaded = true`), 0o644); err != nil {
		t.Fatal(err)
	}

	log := zaptest.NewLogger(t)
	w := ecs.NewWorld(ecs.WithLogger(log))
	e, err := NewEngine(w, scene.NewDefaultRegistry(), dir, log)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()
	if global(e, "late_loaded") != lua.LTrue {
		t.Error("systems directory not loaded")
	}

	e.RegisterScriptSystem(coresys.OrderUpdate)
	ent := w.CreateEntity()
	ecs.CreateComponent[component.Script](ent).Name = "counter"
	other := w.CreateEntity()
	ecs.CreateComponent[component.Script](other).Name = "undefined"

	// A failing script call is logged and does not stop the tick.
	for i := 0; i < 3; i++ {
		w.Update(step)
	}
	mustRun(t, e, `calls = scripts.counter.calls`)
	if lua.LVAsNumber(global(e, "calls")) != 3 {
		t.Errorf("calls = %v", global(e, "calls"))
	}
}

func TestNewEngineLoadError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.lua"), []byte(`this is not lua`), 0o644); err != nil {
		t.Fatal(err)
	}
	w := ecs.NewWorld()
	if _, err := NewEngine(w, scene.NewDefaultRegistry(), dir, zaptest.NewLogger(t)); err == nil {
		t.Error("expected load error")
	}
	// A missing directory is not an error.
	e, err := NewEngine(w, scene.NewDefaultRegistry(), filepath.Join(dir, "absent"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("missing dir: %v", err)
	}
	e.Close()
}

func itoa(id ecs.EntityID) string { return strconv.Itoa(int(id)) }
