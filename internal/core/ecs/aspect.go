package ecs

import (
	"slices"
	"strconv"
	"strings"
)

// Aspect is a predicate over an entity's component classes: it must have all
// of AllOf, at least one of AnyOf (when non-empty) and none of NoneOf.
// Unless IncludeInactive is set, only entities active in hierarchy match.
//
// Aspects are values. Two aspects built from the same sets compare equal
// through Key regardless of the order the ids were given in.
type Aspect struct {
	all             classMask
	any             classMask
	none            classMask
	includeInactive bool
}

// HaveAll returns an aspect matching entities that carry every class in ids.
func HaveAll(ids ...ClassID) Aspect {
	return Aspect{}.WithAll(ids...)
}

// HaveAny returns an aspect matching entities that carry at least one class.
func HaveAny(ids ...ClassID) Aspect {
	return Aspect{}.WithAny(ids...)
}

func (a Aspect) WithAll(ids ...ClassID) Aspect {
	a.all = withBits(a.all, ids)
	return a
}

func (a Aspect) WithAny(ids ...ClassID) Aspect {
	a.any = withBits(a.any, ids)
	return a
}

func (a Aspect) WithNone(ids ...ClassID) Aspect {
	a.none = withBits(a.none, ids)
	return a
}

// WithInactive makes the aspect match regardless of active state.
func (a Aspect) WithInactive() Aspect {
	a.includeInactive = true
	return a
}

func (a Aspect) AllOf() []ClassID       { return a.all.ids() }
func (a Aspect) AnyOf() []ClassID       { return a.any.ids() }
func (a Aspect) NoneOf() []ClassID      { return a.none.ids() }
func (a Aspect) IncludesInactive() bool { return a.includeInactive }

// Matches evaluates the aspect against e's current components and active
// state.
func (a Aspect) Matches(e *Entity) bool {
	if !a.includeInactive && !e.activeInHierarchy {
		return false
	}
	if !e.mask.containsAll(a.all) {
		return false
	}
	if !a.any.empty() && !e.mask.intersects(a.any) {
		return false
	}
	return !e.mask.intersects(a.none)
}

// Key is a canonical encoding of the aspect used for sample dedup.
func (a Aspect) Key() string {
	var b strings.Builder
	writeIDs(&b, "all", a.all)
	writeIDs(&b, "any", a.any)
	writeIDs(&b, "none", a.none)
	if a.includeInactive {
		b.WriteString("|inactive")
	}
	return b.String()
}

func (a Aspect) Equal(o Aspect) bool { return a.Key() == o.Key() }

func (a Aspect) String() string {
	var parts []string
	add := func(label string, m classMask) {
		ids := m.ids()
		if len(ids) == 0 {
			return
		}
		names := make([]string, len(ids))
		for i, id := range ids {
			if names[i] = ClassName(id); names[i] == "" {
				names[i] = "#" + strconv.Itoa(int(id))
			}
		}
		parts = append(parts, label+"("+strings.Join(names, ",")+")")
	}
	add("all", a.all)
	add("any", a.any)
	add("none", a.none)
	if a.includeInactive {
		parts = append(parts, "inactive")
	}
	if len(parts) == 0 {
		return "any-entity"
	}
	return strings.Join(parts, " ")
}

func withBits(m classMask, ids []ClassID) classMask {
	m = slices.Clone(m)
	for _, id := range ids {
		if id != InvalidClassID {
			m.set(id)
		}
	}
	return m
}

func writeIDs(b *strings.Builder, label string, m classMask) {
	if b.Len() > 0 {
		b.WriteByte('|')
	}
	b.WriteString(label)
	b.WriteByte(':')
	for i, id := range m.ids() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
}
