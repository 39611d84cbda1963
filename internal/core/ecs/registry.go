package ecs

import (
	"reflect"
	"sync"
)

// ClassID is a stable per-type identifier used for component and event
// dispatch. Ids are assigned on first use and never reused in a process.
type ClassID uint32

// InvalidClassID is never assigned to a type.
const InvalidClassID ClassID = 0

// classRegistry tracks every type that has been given a ClassID.
// The table is process-wide so ids compare across worlds.
type classRegistry struct {
	mu     sync.RWMutex
	ids    map[reflect.Type]ClassID
	types  []reflect.Type // index = ClassID
	byName map[string]ClassID
}

var classes = &classRegistry{
	ids:    make(map[reflect.Type]ClassID, 64),
	types:  make([]reflect.Type, 1, 64),
	byName: make(map[string]ClassID, 64),
}

func (r *classRegistry) lookup(t reflect.Type) ClassID {
	r.mu.RLock()
	id, ok := r.ids[t]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[t]; ok {
		return id
	}
	id = ClassID(len(r.types))
	r.ids[t] = id
	r.types = append(r.types, t)
	// First registration wins a short name; later clashes stay reachable by id.
	if _, taken := r.byName[t.Name()]; !taken && t.Name() != "" {
		r.byName[t.Name()] = id
	}
	return id
}

// ClassOf returns the ClassID of T. T is the struct type, not its pointer.
func ClassOf[T any]() ClassID {
	return classes.lookup(reflect.TypeOf((*T)(nil)).Elem())
}

// ClassOfValue returns the ClassID for the dynamic type of v, dereferencing
// one level of pointer so that ClassOfValue(&T{}) == ClassOf[T]().
func ClassOfValue(v any) ClassID {
	if v == nil {
		return InvalidClassID
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return classes.lookup(t)
}

// ClassByName resolves a ClassID from a type's short name. Only types that
// have already been seen by the registry are found.
func ClassByName(name string) (ClassID, bool) {
	classes.mu.RLock()
	defer classes.mu.RUnlock()
	id, ok := classes.byName[name]
	return id, ok
}

// ClassName returns the short type name for id, or "" if id is unknown.
func ClassName(id ClassID) string {
	classes.mu.RLock()
	defer classes.mu.RUnlock()
	if id == InvalidClassID || int(id) >= len(classes.types) {
		return ""
	}
	return classes.types[id].Name()
}
