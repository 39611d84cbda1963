package component

import (
	"time"

	"github.com/maze-engine/world/internal/core/ecs"
)

// LinearMovement3D moves a Transform3D at a constant velocity (units/s).
type LinearMovement3D struct {
	ecs.ComponentBase `yaml:"-"`

	Velocity Vec3 `yaml:"velocity"`
}

// Rotor3D spins a Transform3D at a constant angular velocity (rad/s).
type Rotor3D struct {
	ecs.ComponentBase `yaml:"-"`

	AngularVelocity Vec3 `yaml:"angular_velocity"`
}

// Lifetime removes its entity once Remaining runs out.
type Lifetime struct {
	ecs.ComponentBase `yaml:"-"`

	Remaining time.Duration `yaml:"remaining"`
}
