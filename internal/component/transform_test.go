package component

import (
	"slices"
	"testing"
	"time"

	"github.com/maze-engine/world/internal/core/ecs"
	"go.uber.org/zap/zaptest"
)

func TestSetParent(t *testing.T) {
	w := ecs.NewWorld(ecs.WithLogger(zaptest.NewLogger(t)))
	a := w.CreateEntity()
	b := w.CreateEntity()
	child := w.CreateEntity()
	w.Update(time.Millisecond)

	if !SetParent(w, child, a) {
		t.Fatal("SetParent failed")
	}
	w.Update(time.Millisecond)

	at := ecs.GetComponent[Transform3D](a)
	ct := ecs.GetComponent[Transform3D](child)
	if at == nil || ct == nil {
		t.Fatal("transforms not ensured")
	}
	if ct.Parent != a.ID() || !slices.Equal(at.ChildEntities(), []ecs.EntityID{child.ID()}) {
		t.Fatalf("link not recorded: parent=%d children=%v", ct.Parent, at.ChildEntities())
	}

	a.SetActiveSelf(false)
	w.Update(time.Millisecond)
	if child.ActiveInHierarchy() {
		t.Error("child of inactive parent still active")
	}

	// Re-parenting moves the child and recomputes its active state.
	if !SetParent(w, child, b) {
		t.Fatal("re-parent failed")
	}
	w.Update(time.Millisecond)
	if len(at.ChildEntities()) != 0 {
		t.Errorf("old parent kept child: %v", at.ChildEntities())
	}
	if !child.ActiveInHierarchy() {
		t.Error("child under active parent still inactive")
	}

	if !SetParent(w, child, nil) || ct.Parent.Valid() {
		t.Error("detach from parent failed")
	}
}

func TestSetParentRejectsCycles(t *testing.T) {
	w := ecs.NewWorld(ecs.WithLogger(zaptest.NewLogger(t)))
	root := w.CreateEntity()
	mid := w.CreateEntity()
	leaf := w.CreateEntity()
	w.Update(time.Millisecond)

	SetParent(w, mid, root)
	SetParent(w, leaf, mid)
	if SetParent(w, root, leaf) {
		t.Error("cycle accepted")
	}
	if SetParent(w, root, root) {
		t.Error("self parent accepted")
	}
	if ecs.GetComponent[Transform3D](root).Parent.Valid() {
		t.Error("rejected link left a parent behind")
	}
}

func TestRebuildHierarchy(t *testing.T) {
	parent := ecs.NewEntityWithID(1)
	ecs.CreateComponent[Transform3D](parent)
	var kids []*ecs.Entity
	for id := ecs.EntityID(2); id <= 3; id++ {
		e := ecs.NewEntityWithID(id)
		ecs.CreateComponent[Transform3D](e).Parent = 1
		kids = append(kids, e)
	}
	orphan := ecs.NewEntityWithID(4)
	ecs.CreateComponent[Transform3D](orphan).Parent = 99

	RebuildHierarchy(append([]*ecs.Entity{parent, orphan}, kids...))
	got := ecs.GetComponent[Transform3D](parent).ChildEntities()
	if !slices.Equal(got, []ecs.EntityID{2, 3}) {
		t.Errorf("children = %v", got)
	}
}
