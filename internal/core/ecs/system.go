package ecs

import (
	"time"

	"github.com/maze-engine/world/internal/core/system"
	"go.uber.org/zap"
)

// SystemFunc is called once per sample member per tick.
type SystemFunc func(dt time.Duration, e *Entity)

// ComponentSystem runs a SystemFunc over a Sample every tick.
type ComponentSystem struct {
	name    string
	order   system.Order
	sample  *Sample
	fn      SystemFunc
	enabled bool
}

func (s *ComponentSystem) Name() string        { return s.name }
func (s *ComponentSystem) Order() system.Order { return s.order }
func (s *ComponentSystem) Sample() *Sample     { return s.sample }
func (s *ComponentSystem) Enabled() bool       { return s.enabled }
func (s *ComponentSystem) SetEnabled(on bool)  { s.enabled = on }

func (s *ComponentSystem) Update(dt time.Duration) {
	if !s.enabled {
		return
	}
	s.sample.Each(func(e *Entity) {
		s.fn(dt, e)
	})
}

// AddSystem registers fn to run over sample at the given order.
func (w *World) AddSystem(name string, order system.Order, sample *Sample, fn SystemFunc) *ComponentSystem {
	if sample == nil || fn == nil {
		w.log.DPanic("system needs a sample and a callback", zap.String("system", name))
		return nil
	}
	s := &ComponentSystem{
		name:    name,
		order:   order,
		sample:  sample,
		fn:      fn,
		enabled: true,
	}
	w.runner.Register(s)
	w.log.Debug("system registered",
		zap.String("system", name),
		zap.Int("order", int(order)),
		zap.Stringer("aspect", sample.aspect),
	)
	return s
}

// AddGlobalSystem registers a system that runs once per tick with no sample.
func (w *World) AddGlobalSystem(s system.System) {
	w.runner.Register(s)
}

// RemoveSystem unregisters s. The change applies from the next tick.
func (w *World) RemoveSystem(s system.System) bool {
	return w.runner.Remove(s)
}

// Systems returns the names of sample systems in execution order.
func (w *World) Systems() []string {
	names := make([]string, 0, w.runner.Len())
	w.runner.Each(func(s system.System) {
		if cs, ok := s.(*ComponentSystem); ok {
			names = append(names, cs.name)
		}
	})
	return names
}

func AddSystem1[A any, PA ComponentPtr[A]](w *World, name string, order system.Order, fn func(time.Duration, *Entity, PA)) *ComponentSystem {
	sample := RequestInclusiveSample1[A](w)
	return w.AddSystem(name, order, sample, func(dt time.Duration, e *Entity) {
		if a := GetComponent[A, PA](e); a != nil {
			fn(dt, e, a)
		}
	})
}

func AddSystem2[A, B any, PA ComponentPtr[A], PB ComponentPtr[B]](w *World, name string, order system.Order, fn func(time.Duration, *Entity, PA, PB)) *ComponentSystem {
	sample := RequestInclusiveSample2[A, B](w)
	return w.AddSystem(name, order, sample, func(dt time.Duration, e *Entity) {
		a := GetComponent[A, PA](e)
		b := GetComponent[B, PB](e)
		if a != nil && b != nil {
			fn(dt, e, a, b)
		}
	})
}

func AddSystem3[A, B, C any, PA ComponentPtr[A], PB ComponentPtr[B], PC ComponentPtr[C]](w *World, name string, order system.Order, fn func(time.Duration, *Entity, PA, PB, PC)) *ComponentSystem {
	sample := RequestInclusiveSample3[A, B, C](w)
	return w.AddSystem(name, order, sample, func(dt time.Duration, e *Entity) {
		a := GetComponent[A, PA](e)
		b := GetComponent[B, PB](e)
		c := GetComponent[C, PC](e)
		if a != nil && b != nil && c != nil {
			fn(dt, e, a, b, c)
		}
	})
}
