package ecs

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// --- Test Components ---
type Foo struct {
	ComponentBase
	N int
}

type Bar struct{ ComponentBase }

type Baz struct{ ComponentBase }

type Multi struct {
	ComponentBase
	V int
}

func (*Multi) Repeatable() {}

// node is a minimal hierarchy component.
type node struct {
	ComponentBase
	parent   EntityID
	children []EntityID
}

func (n *node) ParentEntity() EntityID    { return n.parent }
func (n *node) ChildEntities() []EntityID { return n.children }

type hooks struct {
	ComponentBase
	awake     *int
	destroyed *int
}

func (h *hooks) OnAwake(*World, *Entity)   { *h.awake++ }
func (h *hooks) OnDestroy(*World, *Entity) { *h.destroyed++ }

const tick = 16 * time.Millisecond

func newTestWorld(t *testing.T, opts ...Option) *World {
	t.Helper()
	return NewWorld(append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
}

// spawn creates an entity carrying fresh instances of the given components.
func spawn(w *World, comps ...Component) *Entity {
	e := w.CreateEntity()
	for _, c := range comps {
		e.AddComponent(c)
	}
	return e
}

// link makes child a child of parent through node components.
func link(parent, child *Entity) {
	pn := EnsureComponent[node](parent)
	cn := EnsureComponent[node](child)
	cn.parent = parent.ID()
	pn.children = append(pn.children, child.ID())
}
