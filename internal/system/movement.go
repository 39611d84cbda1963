package system

import (
	"time"

	"github.com/maze-engine/world/internal/component"
	"github.com/maze-engine/world/internal/core/ecs"
	coresys "github.com/maze-engine/world/internal/core/system"
)

// RegisterLinearMovement integrates LinearMovement3D velocity into
// Transform3D position. PostUpdate band.
func RegisterLinearMovement(w *ecs.World) *ecs.ComponentSystem {
	return ecs.AddSystem2(w, "LinearMovement3D", coresys.OrderPostUpdate,
		func(dt time.Duration, _ *ecs.Entity, t *component.Transform3D, m *component.LinearMovement3D) {
			t.Position = t.Position.Add(m.Velocity.Scale(dt.Seconds()))
		})
}

// RegisterRotor integrates Rotor3D angular velocity into Transform3D
// rotation, wrapping each axis into [-pi, pi). PostUpdate band.
func RegisterRotor(w *ecs.World) *ecs.ComponentSystem {
	return ecs.AddSystem2(w, "Rotor3D", coresys.OrderPostUpdate,
		func(dt time.Duration, _ *ecs.Entity, t *component.Transform3D, r *component.Rotor3D) {
			rot := t.Rotation.Add(r.AngularVelocity.Scale(dt.Seconds()))
			t.Rotation = component.Vec3{X: wrapAngle(rot.X), Y: wrapAngle(rot.Y), Z: wrapAngle(rot.Z)}
		})
}
