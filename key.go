package tabula

import (
	"strconv"
	"sync/atomic"
)

// Key identifies one logical row of a Table. Keys are handed out by a
// monotonically increasing counter and are never reused, even after every
// component of the row has been removed.
type Key uint64

// String implements fmt.Stringer.
func (k Key) String() string {
	return strconv.FormatUint(uint64(k), 10)
}

// keyAllocator hands out fresh keys.
type keyAllocator struct {
	next atomic.Uint64
}

// allocate returns the counter value before the increment.
func (a *keyAllocator) allocate() Key {
	return Key(a.next.Add(1) - 1)
}

// allocateN reserves n consecutive keys and returns the first one.
func (a *keyAllocator) allocateN(n int) Key {
	if n <= 0 {
		return Key(a.next.Load())
	}
	return Key(a.next.Add(uint64(n)) - uint64(n))
}
