package ecs

// Component is a unit of data or behaviour attached to exactly one Entity.
// Implementations embed ComponentBase and are used through pointers.
type Component interface {
	componentBase() *ComponentBase
}

// ComponentBase carries the bookkeeping every component needs. The owner is
// a handle, not a pointer: resolve it through World.EntityByID.
type ComponentBase struct {
	owner EntityID
	class ClassID
}

func (b *ComponentBase) componentBase() *ComponentBase { return b }

// Owner returns the id of the entity this component is attached to, or
// InvalidEntityID while detached.
func (b *ComponentBase) Owner() EntityID { return b.owner }

// Class returns the component's ClassID once attached.
func (b *ComponentBase) Class() ClassID { return b.class }

// ComponentPtr constrains P to be *T and a Component.
type ComponentPtr[T any] interface {
	*T
	Component
}

// Repeatable marks component types that may be attached more than once to
// the same entity. Everything else is singular.
type Repeatable interface {
	Component
	Repeatable()
}

// Awaker is notified once, when its entity first becomes live.
type Awaker interface {
	OnAwake(w *World, e *Entity)
}

// Destroyer is notified when its entity is destroyed at the removal drain.
type Destroyer interface {
	OnDestroy(w *World, e *Entity)
}

// HierarchyNode is implemented by the component that links an entity to its
// parent and children. Active state propagates along these links.
type HierarchyNode interface {
	Component
	ParentEntity() EntityID
	ChildEntities() []EntityID
}

// CreateComponent constructs a zero T and attaches it to e. It returns nil
// if T is singular and e already has one.
func CreateComponent[T any, P ComponentPtr[T]](e *Entity) P {
	c := P(new(T))
	if !e.AddComponent(c) {
		return nil
	}
	return c
}

// EnsureComponent returns e's T, creating it if absent.
func EnsureComponent[T any, P ComponentPtr[T]](e *Entity) P {
	if c := GetComponent[T, P](e); c != nil {
		return c
	}
	return CreateComponent[T, P](e)
}

// GetComponent returns the first T attached to e, or nil.
func GetComponent[T any, P ComponentPtr[T]](e *Entity) P {
	c := e.ComponentByClass(ClassOf[T]())
	if c == nil {
		return nil
	}
	return c.(P)
}

// RemoveComponents detaches every T from e and returns how many were removed.
func RemoveComponents[T any](e *Entity) int {
	return e.RemoveComponentsByClass(ClassOf[T]())
}
