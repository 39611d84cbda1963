package system

import (
	"github.com/maze-engine/world/internal/component"
	"github.com/maze-engine/world/internal/core/ecs"
	coresys "github.com/maze-engine/world/internal/core/system"
	"go.uber.org/zap"
)

// HealthSystem applies DamageEvent and HealEvent to Health. Entities that
// reach zero receive a DiedEvent and are removed.
type HealthSystem struct {
	world  *ecs.World
	log    *zap.Logger
	damage *ecs.EventHandler
	heal   *ecs.EventHandler
}

func NewHealthSystem(w *ecs.World, log *zap.Logger) *HealthSystem {
	s := &HealthSystem{world: w, log: log}
	s.damage = ecs.AddEventHandler1(w, "Health.Damage", coresys.OrderUpdate, s.onDamage)
	s.heal = ecs.AddEventHandler1(w, "Health.Heal", coresys.OrderUpdate, s.onHeal)
	return s
}

func (s *HealthSystem) onDamage(ev *component.DamageEvent, e *ecs.Entity, h *component.Health) {
	if h.Current <= 0 || ev.Amount <= 0 {
		return
	}
	h.Current -= ev.Amount
	if h.Current > 0 {
		return
	}
	h.Current = 0
	ecs.SendEventImmediateTo(s.world, e.ID(), component.DiedEvent{Killer: ev.Source})
	if e.RemoveFromWorld() {
		s.log.Debug("entity died",
			zap.Int32("entity", int32(e.ID())),
			zap.Int32("killer", int32(ev.Source)),
		)
	}
}

func (s *HealthSystem) onHeal(ev *component.HealEvent, _ *ecs.Entity, h *component.Health) {
	if h.Current <= 0 || ev.Amount <= 0 {
		return
	}
	h.Current = min(h.Current+ev.Amount, h.Max)
}

// Close unregisters both handlers.
func (s *HealthSystem) Close() {
	s.world.RemoveEventHandler(s.damage)
	s.world.RemoveEventHandler(s.heal)
}
