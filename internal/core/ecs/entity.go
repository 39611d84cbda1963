package ecs

import (
	"math"
	"slices"
)

// EntityID identifies an entity within one World. Ids are assigned in
// increasing order starting at 1 and are never reused.
type EntityID int32

// InvalidEntityID is the "no entity" sentinel.
const InvalidEntityID EntityID = 0

// MaxEntityID is the last id a World can hand out.
const MaxEntityID EntityID = math.MaxInt32

func (id EntityID) Valid() bool { return id > InvalidEntityID }

// Lifecycle is an entity's engine-visible state.
type Lifecycle uint8

const (
	Detached      Lifecycle = iota // not staged in any world
	PendingAdd                     // staged, invisible to samples
	Live                           // in the id map and in matching samples
	PendingRemove                  // still live until the next removal drain
	Destroyed                      // removed; never comes back
)

func (l Lifecycle) String() string {
	switch l {
	case Detached:
		return "detached"
	case PendingAdd:
		return "pending-add"
	case Live:
		return "live"
	case PendingRemove:
		return "pending-remove"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// Entity is an id plus an ordered list of components.
type Entity struct {
	id                EntityID
	world             *World
	state             Lifecycle
	activeSelf        bool
	activeInHierarchy bool
	awakened          bool
	changeQueued      bool
	activeQueued      bool
	components        []Component
	mask              classMask
}

// NewEntity returns a detached, active entity without an id. The World
// assigns one when the entity is added.
func NewEntity() *Entity {
	return NewEntityWithID(InvalidEntityID)
}

// NewEntityWithID returns a detached entity that asks for a specific id,
// used when restoring a saved id space.
func NewEntityWithID(id EntityID) *Entity {
	return &Entity{
		id:                id,
		activeSelf:        true,
		activeInHierarchy: true,
		components:        make([]Component, 0, 4),
	}
}

func (e *Entity) ID() EntityID         { return e.id }
func (e *Entity) World() *World        { return e.world }
func (e *Entity) Lifecycle() Lifecycle { return e.state }
func (e *Entity) ActiveSelf() bool     { return e.activeSelf }

// ActiveInHierarchy is ActiveSelf combined with every ancestor's flag. It is
// brought up to date during the World's active-change drain.
func (e *Entity) ActiveInHierarchy() bool { return e.activeInHierarchy }

// Components returns a copy of the attached components in attach order.
func (e *Entity) Components() []Component {
	return slices.Clone(e.components)
}

// ComponentCount returns the number of attached components.
func (e *Entity) ComponentCount() int { return len(e.components) }

// HasComponent reports whether a component of class id is attached.
func (e *Entity) HasComponent(id ClassID) bool {
	return e.mask.has(id)
}

// ComponentByClass returns the first component of class id, or nil.
func (e *Entity) ComponentByClass(id ClassID) Component {
	if !e.mask.has(id) {
		return nil
	}
	for _, c := range e.components {
		if c.componentBase().class == id {
			return c
		}
	}
	return nil
}

// ComponentsByClass returns every component of class id in attach order.
func (e *Entity) ComponentsByClass(id ClassID) []Component {
	if !e.mask.has(id) {
		return nil
	}
	var out []Component
	for _, c := range e.components {
		if c.componentBase().class == id {
			out = append(out, c)
		}
	}
	return out
}

// AddComponent attaches c. It fails if c is nil, already attached anywhere,
// or singular and e already has one of its class.
func (e *Entity) AddComponent(c Component) bool {
	if c == nil {
		return false
	}
	base := c.componentBase()
	if base.class != InvalidClassID {
		if e.world != nil {
			e.world.log.DPanic("component already attached")
		}
		return false
	}
	class := ClassOfValue(c)
	if _, repeatable := c.(Repeatable); !repeatable && e.mask.has(class) {
		return false
	}
	base.class = class
	base.owner = e.id
	e.components = append(e.components, c)
	e.mask.set(class)
	e.componentsChanged()
	return true
}

// RemoveComponent detaches c from e. The order of the remaining components
// is preserved.
func (e *Entity) RemoveComponent(c Component) bool {
	if c == nil {
		return false
	}
	i := slices.IndexFunc(e.components, func(o Component) bool { return o == c })
	if i < 0 {
		return false
	}
	e.detachAt(i)
	e.componentsChanged()
	return true
}

// RemoveComponentsByClass detaches every component of class id.
func (e *Entity) RemoveComponentsByClass(id ClassID) int {
	if !e.mask.has(id) {
		return 0
	}
	n := 0
	for i := len(e.components) - 1; i >= 0; i-- {
		if e.components[i].componentBase().class == id {
			e.detachAt(i)
			n++
		}
	}
	e.componentsChanged()
	return n
}

func (e *Entity) detachAt(i int) {
	c := e.components[i]
	base := c.componentBase()
	class := base.class
	base.owner = InvalidEntityID
	base.class = InvalidClassID
	e.components = slices.Delete(e.components, i, i+1)
	for _, o := range e.components {
		if o.componentBase().class == class {
			return
		}
	}
	e.mask.unset(class)
}

// Hierarchy returns the component linking e to its parent, if any.
func (e *Entity) Hierarchy() HierarchyNode {
	for _, c := range e.components {
		if h, ok := c.(HierarchyNode); ok {
			return h
		}
	}
	return nil
}

// SetActiveSelf sets the local active flag. Inside a World the derived
// ActiveInHierarchy of e and its descendants is updated at the next drain.
func (e *Entity) SetActiveSelf(active bool) {
	if e.activeSelf == active {
		return
	}
	e.activeSelf = active
	if e.world == nil {
		e.activeInHierarchy = active
		return
	}
	e.world.stageActiveChanged(e)
}

// RemoveFromWorld stages e for removal from its World.
func (e *Entity) RemoveFromWorld() bool {
	if e.world == nil {
		return false
	}
	return e.world.RemoveEntity(e)
}

func (e *Entity) componentsChanged() {
	if e.world != nil && (e.state == Live || e.state == PendingRemove) {
		e.world.stageComponentsChanged(e)
	}
}

// assignID rewrites the owner handle of every attached component.
func (e *Entity) assignID(id EntityID) {
	e.id = id
	for _, c := range e.components {
		c.componentBase().owner = id
	}
}
