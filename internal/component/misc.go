package component

import "github.com/maze-engine/world/internal/core/ecs"

// Name is a human readable label for tooling.
type Name struct {
	ecs.ComponentBase `yaml:"-"`

	Value string `yaml:"value"`
}

// Tag is a free-form label. An entity may carry several.
type Tag struct {
	ecs.ComponentBase `yaml:"-"`

	Value string `yaml:"value"`
}

func (*Tag) Repeatable() {}

// Health tracks hit points. Handled by the health system through
// DamageEvent and HealEvent.
type Health struct {
	ecs.ComponentBase `yaml:"-"`

	Current int `yaml:"current"`
	Max     int `yaml:"max"`
}

// Script binds an entity to a named Lua system table.
type Script struct {
	ecs.ComponentBase `yaml:"-"`

	Name string `yaml:"name"`
}
