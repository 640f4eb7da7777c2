package tabula

import "math/bits"

// bitmask256 represents a set of up to 256 component IDs. Schemas use it to
// describe which columns they depend on and Notify uses it to collapse the
// changed types of one mutation into a single set.
type bitmask256 [4]uint64

// set enables the bit corresponding to the given component ID.
func (m *bitmask256) set(id ComponentID) {
	i := id >> 6 // (id / 64) to find the uint64 index
	o := id & 63 // (id % 64) to find the bit offset
	m[i] |= uint64(1) << uint64(o)
}

func (m bitmask256) empty() bool {
	return m[0]|m[1]|m[2]|m[3] == 0
}

// ids returns the set bits in ascending order, which is also the global lock
// order.
func (m bitmask256) ids() []ComponentID {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	out := make([]ComponentID, 0, n)
	for i, w := range m {
		for w != 0 {
			o := bits.TrailingZeros64(w)
			out = append(out, ComponentID(i*64+o))
			w &= w - 1
		}
	}
	return out
}
