package system

import (
	"time"

	"github.com/maze-engine/world/internal/component"
	"github.com/maze-engine/world/internal/core/ecs"
	coresys "github.com/maze-engine/world/internal/core/system"
	"go.uber.org/zap"
)

// RegisterLifetime counts Lifetime down and removes entities whose time ran
// out. Removal is staged, so they leave samples at the next tick. Cleanup
// band.
func RegisterLifetime(w *ecs.World, log *zap.Logger) *ecs.ComponentSystem {
	return ecs.AddSystem1(w, "Lifetime", coresys.OrderCleanup,
		func(dt time.Duration, e *ecs.Entity, l *component.Lifetime) {
			if l.Remaining <= 0 {
				return // already expired, waiting for the drain
			}
			l.Remaining -= dt
			if l.Remaining > 0 {
				return
			}
			l.Remaining = 0
			if e.RemoveFromWorld() {
				log.Debug("lifetime expired", zap.Int32("entity", int32(e.ID())))
			}
		})
}
