package ecs

// SubscriptionID identifies a handler registered on a Signal.
type SubscriptionID uint32

type signalSlot[T any] struct {
	id SubscriptionID
	fn func(T)
}

// Signal is a synchronous multicast callback list. Handlers run in
// subscription order. Subscribing or unsubscribing from inside a handler
// affects the next Emit, not the current one.
type Signal[T any] struct {
	slots  []signalSlot[T]
	nextID SubscriptionID
}

func (s *Signal[T]) Subscribe(fn func(T)) SubscriptionID {
	s.nextID++
	// Copy on write so an Emit in progress keeps its own slice.
	slots := make([]signalSlot[T], len(s.slots), len(s.slots)+1)
	copy(slots, s.slots)
	s.slots = append(slots, signalSlot[T]{id: s.nextID, fn: fn})
	return s.nextID
}

func (s *Signal[T]) Unsubscribe(id SubscriptionID) bool {
	for i, slot := range s.slots {
		if slot.id != id {
			continue
		}
		slots := make([]signalSlot[T], 0, len(s.slots)-1)
		slots = append(slots, s.slots[:i]...)
		s.slots = append(slots, s.slots[i+1:]...)
		return true
	}
	return false
}

func (s *Signal[T]) Emit(v T) {
	for _, slot := range s.slots {
		slot.fn(v)
	}
}

func (s *Signal[T]) Len() int { return len(s.slots) }
