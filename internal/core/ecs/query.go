package ecs

// Sample is the live set of entities matching an Aspect. The World keeps it
// current at every drain; between drains it does not change.
//
// Membership is a dense slice with swap-remove, so iteration order is not
// stable across ticks.
type Sample struct {
	world    *World
	aspect   Aspect
	key      string
	entities []*Entity
	index    map[*Entity]int

	// OnEntityAdded and OnEntityRemoved fire only on actual membership
	// changes.
	OnEntityAdded   Signal[*Entity]
	OnEntityRemoved Signal[*Entity]
}

func newSample(w *World, aspect Aspect) *Sample {
	return &Sample{
		world:    w,
		aspect:   aspect,
		key:      aspect.Key(),
		entities: make([]*Entity, 0, 64),
		index:    make(map[*Entity]int, 64),
	}
}

func (s *Sample) Aspect() Aspect { return s.aspect }
func (s *Sample) Len() int       { return len(s.entities) }

// ProcessEntity re-evaluates e against the aspect and updates membership.
// It returns whether e is a member afterwards. Repeating the call without
// an intervening change is a no-op.
func (s *Sample) ProcessEntity(e *Entity) bool {
	want := e.world == s.world &&
		(e.state == Live || e.state == PendingRemove) &&
		s.aspect.Matches(e)
	_, have := s.index[e]
	switch {
	case want && !have:
		s.add(e)
	case !want && have:
		s.remove(e)
	}
	return want
}

// Contains reports whether e is currently a member.
func (s *Sample) Contains(e *Entity) bool {
	_, ok := s.index[e]
	return ok
}

// ContainsID reports whether the live entity with id is a member.
func (s *Sample) ContainsID(id EntityID) bool {
	e := s.world.EntityByID(id)
	return e != nil && s.Contains(e)
}

// Entities returns a copy of the current membership.
func (s *Sample) Entities() []*Entity {
	out := make([]*Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Each calls fn for every member. Membership seen by the loop is fixed at
// entry.
func (s *Sample) Each(fn func(*Entity)) {
	ents := s.entities
	n := len(ents)
	for i := 0; i < n && i < len(s.entities); i++ {
		fn(ents[i])
	}
}

func (s *Sample) add(e *Entity) {
	s.index[e] = len(s.entities)
	s.entities = append(s.entities, e)
	s.OnEntityAdded.Emit(e)
}

func (s *Sample) remove(e *Entity) bool {
	i, ok := s.index[e]
	if !ok {
		return false
	}
	last := len(s.entities) - 1
	if i != last {
		moved := s.entities[last]
		s.entities[i] = moved
		s.index[moved] = i
	}
	s.entities[last] = nil
	s.entities = s.entities[:last]
	delete(s.index, e)
	s.OnEntityRemoved.Emit(e)
	return true
}

// Each1 iterates the members of s that carry an A.
func Each1[A any, PA ComponentPtr[A]](s *Sample, fn func(*Entity, PA)) {
	s.Each(func(e *Entity) {
		if a := GetComponent[A, PA](e); a != nil {
			fn(e, a)
		}
	})
}

// Each2 iterates the members of s that carry both an A and a B.
func Each2[A, B any, PA ComponentPtr[A], PB ComponentPtr[B]](s *Sample, fn func(*Entity, PA, PB)) {
	s.Each(func(e *Entity) {
		a := GetComponent[A, PA](e)
		if a == nil {
			return
		}
		if b := GetComponent[B, PB](e); b != nil {
			fn(e, a, b)
		}
	})
}

// Each3 iterates the members of s that carry an A, a B and a C.
func Each3[A, B, C any, PA ComponentPtr[A], PB ComponentPtr[B], PC ComponentPtr[C]](s *Sample, fn func(*Entity, PA, PB, PC)) {
	s.Each(func(e *Entity) {
		a := GetComponent[A, PA](e)
		if a == nil {
			return
		}
		b := GetComponent[B, PB](e)
		if b == nil {
			return
		}
		if c := GetComponent[C, PC](e); c != nil {
			fn(e, a, b, c)
		}
	})
}
