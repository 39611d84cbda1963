package ecs

import (
	"slices"

	"github.com/maze-engine/world/internal/core/event"
	"github.com/maze-engine/world/internal/core/system"
	"go.uber.org/zap"
)

// EventHandler is invoked for members of its sample when an event of its
// class is processed.
type EventHandler struct {
	name    string
	order   system.Order
	class   ClassID
	sample  *Sample
	fn      func(ev any, e *Entity)
	enabled bool
}

func (h *EventHandler) Name() string        { return h.name }
func (h *EventHandler) Order() system.Order { return h.order }
func (h *EventHandler) EventClass() ClassID { return h.class }
func (h *EventHandler) Sample() *Sample     { return h.sample }
func (h *EventHandler) SetEnabled(on bool)  { h.enabled = on }

// AddEventHandler registers fn for events of type E over sample. Handlers
// for one event type run in ascending order, ties in registration order.
func AddEventHandler[E any](w *World, name string, order system.Order, sample *Sample, fn func(*E, *Entity)) *EventHandler {
	if sample == nil || fn == nil {
		w.log.DPanic("event handler needs a sample and a callback", zap.String("handler", name))
		return nil
	}
	h := &EventHandler{
		name:    name,
		order:   order,
		class:   ClassOf[E](),
		sample:  sample,
		fn:      func(ev any, e *Entity) { fn(ev.(*E), e) },
		enabled: true,
	}
	w.registerHandler(h)
	return h
}

func AddEventHandler1[E, A any, PA ComponentPtr[A]](w *World, name string, order system.Order, fn func(*E, *Entity, PA)) *EventHandler {
	return AddEventHandler(w, name, order, RequestInclusiveSample1[A](w), func(ev *E, e *Entity) {
		if a := GetComponent[A, PA](e); a != nil {
			fn(ev, e, a)
		}
	})
}

func AddEventHandler2[E, A, B any, PA ComponentPtr[A], PB ComponentPtr[B]](w *World, name string, order system.Order, fn func(*E, *Entity, PA, PB)) *EventHandler {
	return AddEventHandler(w, name, order, RequestInclusiveSample2[A, B](w), func(ev *E, e *Entity) {
		a := GetComponent[A, PA](e)
		b := GetComponent[B, PB](e)
		if a != nil && b != nil {
			fn(ev, e, a, b)
		}
	})
}

// RemoveEventHandler unregisters h. A dispatch already in progress still
// reaches it.
func (w *World) RemoveEventHandler(h *EventHandler) bool {
	if h == nil {
		return false
	}
	hs := w.handlers[h.class]
	i := slices.Index(hs, h)
	if i < 0 {
		return false
	}
	w.handlers[h.class] = slices.Delete(slices.Clone(hs), i, i+1)
	return true
}

func (w *World) registerHandler(h *EventHandler) {
	hs := w.handlers[h.class]
	i, _ := slices.BinarySearchFunc(hs, h.order, func(o *EventHandler, order system.Order) int {
		if o.order <= order {
			return -1
		}
		return 1
	})
	w.handlers[h.class] = slices.Insert(slices.Clip(hs), i, h)
	w.log.Debug("event handler registered",
		zap.String("handler", h.name),
		zap.String("event", ClassName(h.class)),
		zap.Int("order", int(h.order)),
	)
}

// ProcessEvent delivers ev synchronously to every handler of its type, each
// iterating its own sample.
func ProcessEvent[E any](w *World, ev *E) {
	w.dispatch(ClassOf[E](), InvalidEntityID, ev)
}

// ProcessEventFor delivers ev only to entity id, and only through handlers
// whose sample contains it.
func ProcessEventFor[E any](w *World, id EntityID, ev *E) {
	if !id.Valid() {
		return
	}
	w.dispatch(ClassOf[E](), id, ev)
}

// SendEventImmediate is ProcessEvent for a value built by the caller.
func SendEventImmediate[E any](w *World, ev E) {
	ProcessEvent(w, &ev)
}

// SendEventImmediateTo is ProcessEventFor for a value built by the caller.
func SendEventImmediateTo[E any](w *World, id EntityID, ev E) {
	ProcessEventFor(w, id, &ev)
}

type envelope[E any] struct {
	target EntityID
	ev     E
}

// SendEvent queues ev for broadcast during the next Update, after the
// drains and before the systems.
func SendEvent[E any](w *World, ev E) {
	ensureRelay[E](w)
	event.Emit(w.bus, envelope[E]{ev: ev})
}

// SendEventTo queues ev for entity id.
func SendEventTo[E any](w *World, id EntityID, ev E) {
	if !id.Valid() {
		return
	}
	ensureRelay[E](w)
	event.Emit(w.bus, envelope[E]{target: id, ev: ev})
}

func ensureRelay[E any](w *World) {
	class := ClassOf[E]()
	if _, ok := w.relays[class]; ok {
		return
	}
	w.relays[class] = struct{}{}
	event.Subscribe(w.bus, func(env envelope[E]) {
		w.dispatch(class, env.target, &env.ev)
	})
}

func (w *World) dispatch(class ClassID, target EntityID, ev any) {
	if w.eventDepth >= w.maxEventDepth {
		w.log.Error("event dispatch too deep, dropped",
			zap.String("event", ClassName(class)),
			zap.Int("depth", w.eventDepth),
		)
		return
	}
	w.eventDepth++
	defer func() { w.eventDepth-- }()

	handlers := w.handlers[class]
	if target.Valid() {
		e := w.entities[target]
		if e == nil {
			return
		}
		for _, h := range handlers {
			if h.enabled && h.sample.Contains(e) {
				h.fn(ev, e)
			}
		}
		return
	}
	for _, h := range handlers {
		if !h.enabled {
			continue
		}
		h.sample.Each(func(e *Entity) {
			h.fn(ev, e)
		})
	}
}
