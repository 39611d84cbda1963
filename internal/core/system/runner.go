package system

import (
	"slices"
	"time"
)

// Runner executes systems in ascending Order each tick. Registering or
// removing a system during Tick takes effect from the next Tick.
type Runner struct {
	systems []System
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

// Register inserts s after every system whose Order is <= s.Order().
func (r *Runner) Register(s System) {
	i, _ := slices.BinarySearchFunc(r.systems, s.Order(), func(e System, o Order) int {
		if e.Order() <= o {
			return -1
		}
		return 1
	})
	r.systems = slices.Insert(slices.Clip(r.systems), i, s)
}

// Remove unregisters s and reports whether it was present.
func (r *Runner) Remove(s System) bool {
	i := slices.Index(r.systems, s)
	if i < 0 {
		return false
	}
	r.systems = slices.Delete(slices.Clone(r.systems), i, i+1)
	return true
}

func (r *Runner) Tick(dt time.Duration) {
	for _, s := range r.systems {
		s.Update(dt)
	}
}

// TickOrder runs only the systems registered with exactly order.
func (r *Runner) TickOrder(order Order, dt time.Duration) {
	for _, s := range r.systems {
		if s.Order() == order {
			s.Update(dt)
		}
	}
}

func (r *Runner) Len() int { return len(r.systems) }

// Each visits the systems in execution order.
func (r *Runner) Each(fn func(System)) {
	for _, s := range r.systems {
		fn(s)
	}
}
