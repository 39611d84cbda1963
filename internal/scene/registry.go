package scene

import (
	"fmt"
	"slices"

	"github.com/maze-engine/world/internal/component"
	"github.com/maze-engine/world/internal/core/ecs"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Codec knows how to build and (de)serialize one component type.
type Codec struct {
	Name  string
	Class ecs.ClassID
	New   func() ecs.Component
}

// Registry maps component type names, matched case-insensitively, to
// codecs. It is not safe for concurrent use.
type Registry struct {
	byName  map[string]*Codec
	byClass map[ecs.ClassID]*Codec
	fold    cases.Caser
}

func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]*Codec, 16),
		byClass: make(map[ecs.ClassID]*Codec, 16),
		fold:    cases.Fold(),
	}
}

// NewDefaultRegistry returns a registry holding every engine component.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	Register[component.Name](r, "Name")
	Register[component.Tag](r, "Tag")
	Register[component.Transform3D](r, "Transform3D")
	Register[component.LinearMovement3D](r, "LinearMovement3D")
	Register[component.Rotor3D](r, "Rotor3D")
	Register[component.Lifetime](r, "Lifetime")
	Register[component.Health](r, "Health")
	Register[component.Script](r, "Script")
	return r
}

// Register adds T under name. Re-registering a name replaces the codec.
func Register[T any, P ecs.ComponentPtr[T]](r *Registry, name string) {
	c := &Codec{
		Name:  name,
		Class: ecs.ClassOf[T](),
		New:   func() ecs.Component { return P(new(T)) },
	}
	r.byName[r.fold.String(name)] = c
	r.byClass[c.Class] = c
}

func (r *Registry) Lookup(name string) (*Codec, bool) {
	c, ok := r.byName[r.fold.String(name)]
	return c, ok
}

func (r *Registry) ByClass(id ecs.ClassID) (*Codec, bool) {
	c, ok := r.byClass[id]
	return c, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byClass))
	for _, c := range r.byClass {
		out = append(out, c.Name)
	}
	slices.Sort(out)
	return out
}

// Decode builds a detached component from doc.
func (r *Registry) Decode(doc ComponentDoc) (ecs.Component, error) {
	codec, ok := r.Lookup(doc.Type)
	if !ok {
		return nil, fmt.Errorf("unknown component type %q", doc.Type)
	}
	c := codec.New()
	if doc.Data.Kind != 0 {
		if err := doc.Data.Decode(c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", codec.Name, err)
		}
	}
	return c, nil
}

// DecodeInto overwrites the fields of an attached component that appear in
// node. Fields absent from node are left alone.
func (r *Registry) DecodeInto(c ecs.Component, node *yaml.Node) error {
	if err := node.Decode(c); err != nil {
		return fmt.Errorf("decode %s: %w", ecs.ClassName(ecs.ClassOfValue(c)), err)
	}
	return nil
}

// Encode serializes c. ok is false for component types not registered,
// which are treated as runtime-only.
func (r *Registry) Encode(c ecs.Component) (doc ComponentDoc, ok bool, err error) {
	codec, ok := r.byClass[ecs.ClassOfValue(c)]
	if !ok {
		return ComponentDoc{}, false, nil
	}
	doc.Type = codec.Name
	if err := doc.Data.Encode(c); err != nil {
		return ComponentDoc{}, true, fmt.Errorf("encode %s: %w", codec.Name, err)
	}
	return doc, true, nil
}
