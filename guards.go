package tabula

import (
	"fmt"
	"reflect"
)

// slot is what a Row holds for each of its fields.
type slot interface {
	Release()
	anyValue() any
}

// ReadColumn holds a column's structural lock in shared mode. While it is
// held no cell can be added or removed, but values of existing cells can still
// be read and written through their own locks.
type ReadColumn[T any] struct {
	column   *Column[T]
	released bool
}

// NewReadColumn acquires the structural lock of T's column in shared mode.
// It blocks while a WriteColumn for the same type is held.
func NewReadColumn[T any](t *Table) *ReadColumn[T] {
	col := columnOf[T](t)
	col.mu.RLock()
	return &ReadColumn[T]{column: col}
}

// Contains reports whether key has a cell in the column.
func (g *ReadColumn[T]) Contains(key Key) bool {
	return g.column.hasLocked(key)
}

// Len returns the number of cells.
func (g *ReadColumn[T]) Len() int {
	return g.column.lenLocked()
}

// Keys returns the column's keys in ascending order.
func (g *ReadColumn[T]) Keys() []Key {
	return g.column.sortedKeysLocked()
}

// Read copies the value stored under key while holding the cell's lock in
// shared mode.
func (g *ReadColumn[T]) Read(key Key) (T, bool) {
	c, ok := g.column.cells[key]
	if !ok {
		var zero T
		return zero, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, true
}

// Update runs fn on the value stored under key while holding the cell's lock
// exclusively. Only the single cell is blocked; the structural lock stays
// shared. It returns false when key has no cell.
func (g *ReadColumn[T]) Update(key Key, fn func(*T)) bool {
	c, ok := g.column.cells[key]
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.value)
	return true
}

// Release unlocks the column. Calling it more than once is a no-op.
func (g *ReadColumn[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.column.mu.RUnlock()
}

// WriteColumn holds a column's structural lock exclusively, which is required
// to add or remove cells. Mutations made through it do not notify views; the
// caller is expected to call Table.Notify once the guard has been released.
type WriteColumn[T any] struct {
	column   *Column[T]
	released bool
}

// NewWriteColumn acquires the structural lock of T's column exclusively.
func NewWriteColumn[T any](t *Table) *WriteColumn[T] {
	col := columnOf[T](t)
	col.mu.Lock()
	return &WriteColumn[T]{column: col}
}

// Insert stores value under key, replacing any existing cell.
func (g *WriteColumn[T]) Insert(key Key, value T) {
	g.column.insertLocked(key, value)
}

// Remove deletes the cell stored under key, reporting whether there was one.
func (g *WriteColumn[T]) Remove(key Key) bool {
	return g.column.removeLocked(key)
}

// Get returns a pointer to the value stored under key. No cell lock is taken:
// the exclusive structural lock already excludes every other accessor.
func (g *WriteColumn[T]) Get(key Key) (*T, bool) {
	c, ok := g.column.cells[key]
	if !ok {
		return nil, false
	}
	return &c.value, true
}

// Contains reports whether key has a cell in the column.
func (g *WriteColumn[T]) Contains(key Key) bool {
	return g.column.hasLocked(key)
}

// Len returns the number of cells.
func (g *WriteColumn[T]) Len() int {
	return g.column.lenLocked()
}

// Keys returns the column's keys in ascending order.
func (g *WriteColumn[T]) Keys() []Key {
	return g.column.sortedKeysLocked()
}

// Release unlocks the column. Calling it more than once is a no-op.
func (g *WriteColumn[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.column.mu.Unlock()
}

// ReadCell is a shared handle on one cell's value. It holds the column's
// structural lock in shared mode together with the cell's own lock in shared
// mode, so the cell can neither disappear nor change while the guard lives.
// Other cells of the column remain fully accessible.
type ReadCell[T any] struct {
	column   *Column[T]
	cell     *cell[T]
	key      Key
	released bool
}

// NewReadCell acquires a read guard on the cell of type T stored under key.
// It returns false, holding nothing, when the row has no such component.
func NewReadCell[T any](t *Table, key Key) (*ReadCell[T], bool) {
	col := columnOf[T](t)
	c, ok := acquireCell(col, key, false)
	if !ok {
		return nil, false
	}
	return &ReadCell[T]{column: col, cell: c, key: key}, true
}

// Key returns the row the cell belongs to.
func (g *ReadCell[T]) Key() Key { return g.key }

// Value returns a copy of the cell's value.
func (g *ReadCell[T]) Value() T { return g.cell.value }

// Ptr returns a pointer to the cell's value. It must not be written through
// and must not be retained past Release.
func (g *ReadCell[T]) Ptr() *T { return &g.cell.value }

func (g *ReadCell[T]) anyValue() any { return g.cell.value }

// Release unlocks the cell, then the column. Calling it more than once is a
// no-op.
func (g *ReadCell[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.cell.mu.RUnlock()
	g.column.mu.RUnlock()
}

// WriteCell is an exclusive handle on one cell's value. Like ReadCell it keeps
// the column's structural lock shared; only the cell itself is exclusive.
type WriteCell[T any] struct {
	column   *Column[T]
	cell     *cell[T]
	key      Key
	released bool
}

// NewWriteCell acquires a write guard on the cell of type T stored under key.
// It returns false, holding nothing, when the row has no such component.
func NewWriteCell[T any](t *Table, key Key) (*WriteCell[T], bool) {
	col := columnOf[T](t)
	c, ok := acquireCell(col, key, true)
	if !ok {
		return nil, false
	}
	return &WriteCell[T]{column: col, cell: c, key: key}, true
}

// Key returns the row the cell belongs to.
func (g *WriteCell[T]) Key() Key { return g.key }

// Value returns a copy of the cell's value.
func (g *WriteCell[T]) Value() T { return g.cell.value }

// Ptr returns a pointer to the cell's value, valid until Release.
func (g *WriteCell[T]) Ptr() *T { return &g.cell.value }

// Set replaces the cell's value.
func (g *WriteCell[T]) Set(value T) { g.cell.value = value }

func (g *WriteCell[T]) anyValue() any { return g.cell.value }

// Release unlocks the cell, then the column. Calling it more than once is a
// no-op.
func (g *WriteCell[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.cell.mu.Unlock()
	g.column.mu.RUnlock()
}

// acquireCell takes col's structural lock shared, then the cell lock in the
// requested mode. On a miss nothing stays locked.
func acquireCell[T any](col *Column[T], key Key, exclusive bool) (*cell[T], bool) {
	col.mu.RLock()
	c, ok := col.cells[key]
	if !ok {
		col.mu.RUnlock()
		return nil, false
	}
	if exclusive {
		c.mu.Lock()
	} else {
		c.mu.RLock()
	}
	return c, true
}

// columnOf resolves T's column, panicking if the Table was built without it.
func columnOf[T any](t *Table) *Column[T] {
	id := t.components.mustLookup(reflect.TypeFor[T](), kindColumn)
	col, ok := t.columns[id].(*Column[T])
	if !ok {
		panic(fmt.Sprintf("tabula: column %d does not hold %s", id, reflect.TypeFor[T]()))
	}
	return col
}
