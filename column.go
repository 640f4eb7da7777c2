package tabula

import (
	"slices"
	"sync"
)

// cell is one (type, key) slot. Its lock guards only value; reaching the cell
// at all requires holding the owning column's structural lock.
type cell[T any] struct {
	mu    sync.RWMutex
	value T
}

// Column stores the values of one component type, keyed by row.
//
// Two levels of locking are involved. mu is the structural lock: it is held
// shared for lookups and for any access to existing cells, and exclusively to
// add or remove cells. Each cell then carries its own lock, so accessors of
// different keys never contend with each other; only same-key access and
// structural change serialize.
//
// Cells are stored by pointer so that a guard's reference stays valid while
// the map grows.
type Column[T any] struct {
	mu    sync.RWMutex
	cells map[Key]*cell[T]
	id    ComponentID
}

func newColumn[T any](id ComponentID) *Column[T] {
	return &Column[T]{
		cells: make(map[Key]*cell[T]),
		id:    id,
	}
}

// ID returns the component ID of the column's type.
func (c *Column[T]) ID() ComponentID {
	return c.id
}

// storage is the type-erased view of a Column used by schemas, views and the
// Table when they only need key membership.
type storage interface {
	rlock()
	runlock()
	// The methods below require the structural lock to be held.
	hasLocked(key Key) bool
	lenLocked() int
	keysLocked(dst []Key) []Key
	// removeKeys takes the structural lock exclusively.
	removeKeys(keys []Key) int
}

func (c *Column[T]) rlock()   { c.mu.RLock() }
func (c *Column[T]) runlock() { c.mu.RUnlock() }

func (c *Column[T]) hasLocked(key Key) bool {
	_, ok := c.cells[key]
	return ok
}

func (c *Column[T]) lenLocked() int {
	return len(c.cells)
}

// keysLocked appends the column's keys to dst in map order.
func (c *Column[T]) keysLocked(dst []Key) []Key {
	for k := range c.cells {
		dst = append(dst, k)
	}
	return dst
}

// sortedKeysLocked returns the column's keys in ascending order.
func (c *Column[T]) sortedKeysLocked() []Key {
	keys := c.keysLocked(make([]Key, 0, len(c.cells)))
	slices.Sort(keys)
	return keys
}

func (c *Column[T]) insertLocked(key Key, value T) {
	c.cells[key] = &cell[T]{value: value}
}

func (c *Column[T]) removeLocked(key Key) bool {
	if _, ok := c.cells[key]; !ok {
		return false
	}
	delete(c.cells, key)
	return true
}

func (c *Column[T]) insert(key Key, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertLocked(key, value)
}

func (c *Column[T]) removeKey(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(key)
}

func (c *Column[T]) removeKeys(keys []Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, k := range keys {
		if c.removeLocked(k) {
			n++
		}
	}
	return n
}
