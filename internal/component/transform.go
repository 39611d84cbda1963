package component

import (
	"slices"

	"github.com/maze-engine/world/internal/core/ecs"
)

// Vec3 is a plain 3D vector.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

// Transform3D places an entity in space and links it into the scene
// hierarchy. Active state propagates from Parent to children.
type Transform3D struct {
	ecs.ComponentBase `yaml:"-"`

	Position Vec3         `yaml:"position"`
	Rotation Vec3         `yaml:"rotation"` // euler angles, radians
	Scale    Vec3         `yaml:"scale"`
	Parent   ecs.EntityID `yaml:"parent,omitempty"`

	children []ecs.EntityID
}

func (t *Transform3D) ParentEntity() ecs.EntityID    { return t.Parent }
func (t *Transform3D) ChildEntities() []ecs.EntityID { return t.children }

func (t *Transform3D) addChild(id ecs.EntityID) {
	if !slices.Contains(t.children, id) {
		t.children = append(t.children, id)
	}
}

func (t *Transform3D) removeChild(id ecs.EntityID) {
	if i := slices.Index(t.children, id); i >= 0 {
		t.children = slices.Delete(t.children, i, i+1)
	}
}

// SetParent links child under parent (nil parent detaches). Both entities
// get a Transform3D if they lack one. The old parent is resolved through w,
// so it must be live; a pending parent is only reachable as the argument.
func SetParent(w *ecs.World, child, parent *ecs.Entity) bool {
	if child == nil || child == parent {
		return false
	}
	ct := ecs.EnsureComponent[Transform3D](child)
	if ct == nil {
		return false
	}
	newParent := ecs.InvalidEntityID
	if parent != nil {
		newParent = parent.ID()
		if isAncestor(w, child.ID(), parent) {
			return false
		}
	}
	if ct.Parent == newParent {
		return true
	}
	if old := w.EntityByID(ct.Parent); old != nil {
		if ot := ecs.GetComponent[Transform3D](old); ot != nil {
			ot.removeChild(child.ID())
		}
	}
	ct.Parent = newParent
	if parent != nil {
		ecs.EnsureComponent[Transform3D](parent).addChild(child.ID())
	}
	w.NotifyHierarchyChanged(child)
	return true
}

// isAncestor reports whether id appears on the parent chain of e.
func isAncestor(w *ecs.World, id ecs.EntityID, e *ecs.Entity) bool {
	for depth := 0; e != nil && depth < 1<<12; depth++ {
		if e.ID() == id {
			return true
		}
		t := ecs.GetComponent[Transform3D](e)
		if t == nil || !t.Parent.Valid() {
			return false
		}
		e = w.EntityByID(t.Parent)
	}
	return false
}

// RebuildHierarchy derives every Transform3D's child list from the Parent
// fields of the given entities, as after loading a scene.
func RebuildHierarchy(entities []*ecs.Entity) {
	byID := make(map[ecs.EntityID]*Transform3D, len(entities))
	for _, e := range entities {
		if t := ecs.GetComponent[Transform3D](e); t != nil {
			t.children = t.children[:0]
			byID[e.ID()] = t
		}
	}
	for _, e := range entities {
		t := byID[e.ID()]
		if t == nil || !t.Parent.Valid() {
			continue
		}
		if p := byID[t.Parent]; p != nil {
			p.addChild(e.ID())
		}
	}
}
