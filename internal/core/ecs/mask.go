package ecs

import "math/bits"

// classMask is a growable bit set over ClassIDs. Word i holds ids
// [64*i, 64*i+63].
type classMask []uint64

func (m *classMask) set(id ClassID) {
	i := int(id >> 6)
	for len(*m) <= i {
		*m = append(*m, 0)
	}
	(*m)[i] |= 1 << (id & 63)
}

func (m *classMask) unset(id ClassID) {
	i := int(id >> 6)
	if i >= len(*m) {
		return
	}
	(*m)[i] &^= 1 << (id & 63)
}

func (m classMask) has(id ClassID) bool {
	i := int(id >> 6)
	if i >= len(m) {
		return false
	}
	return m[i]&(1<<(id&63)) != 0
}

// containsAll reports whether every bit of sub is set in m.
func (m classMask) containsAll(sub classMask) bool {
	for i, w := range sub {
		if w == 0 {
			continue
		}
		if i >= len(m) || m[i]&w != w {
			return false
		}
	}
	return true
}

// intersects reports whether m and o share at least one bit.
func (m classMask) intersects(o classMask) bool {
	n := min(len(m), len(o))
	for i := 0; i < n; i++ {
		if m[i]&o[i] != 0 {
			return true
		}
	}
	return false
}

func (m classMask) empty() bool {
	for _, w := range m {
		if w != 0 {
			return false
		}
	}
	return true
}

// ids returns the set bits in ascending order.
func (m classMask) ids() []ClassID {
	out := make([]ClassID, 0, 4)
	for i, w := range m {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, ClassID(i*64+b))
			w &^= 1 << b
		}
	}
	return out
}
