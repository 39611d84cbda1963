package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted in tick N are readable
// in tick N+1. SwapBuffers() is called once per tick before DispatchAll().
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []pending
	back     []pending
	handlers map[reflect.Type][]func(any)
}

type pending struct {
	t  reflect.Type
	ev any
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]pending, 0, 64),
		back:     make([]pending, 0, 64),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit queues an event into the back buffer (will be readable next tick).
func Emit[T any](b *Bus, event T) {
	b.back = append(b.back, pending{t: reflect.TypeOf((*T)(nil)).Elem(), ev: event})
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// HasSubscribers reports whether any handler is registered for T.
func HasSubscribers[T any](b *Bus) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[reflect.TypeOf((*T)(nil)).Elem()]) > 0
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	clear(b.front)
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers all front-buffer events, in emission order, to their
// subscribed handlers and returns how many events were delivered. Events
// with no subscriber are dropped.
func (b *Bus) DispatchAll() int {
	delivered := 0
	for _, p := range b.front {
		b.mu.Lock()
		handlers := b.handlers[p.t]
		b.mu.Unlock()
		if len(handlers) == 0 {
			continue
		}
		for _, h := range handlers {
			h(p.ev)
		}
		delivered++
	}
	return delivered
}

// Pending returns the number of events waiting for the next swap.
func (b *Bus) Pending() int { return len(b.back) }
