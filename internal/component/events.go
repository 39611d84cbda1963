package component

import "github.com/maze-engine/world/internal/core/ecs"

// DamageEvent reduces Health.Current by Amount.
type DamageEvent struct {
	Amount int
	Source ecs.EntityID
}

// HealEvent raises Health.Current by Amount, capped at Max.
type HealEvent struct {
	Amount int
}

// DiedEvent is sent to an entity whose health reached zero, before it is
// removed.
type DiedEvent struct {
	Killer ecs.EntityID
}
