package tabula

import (
	"fmt"
	"reflect"
	"sync"
)

// Singleton is the single, always-present value of a global type, such as a
// clock, a device handle or an event queue shared by every row.
type Singleton[T any] struct {
	mu    sync.RWMutex
	value T
	id    ComponentID
}

// ID returns the component ID of the singleton's type.
func (s *Singleton[T]) ID() ComponentID {
	return s.id
}

// ReadSingleton holds a singleton's lock in shared mode.
type ReadSingleton[T any] struct {
	singleton *Singleton[T]
	released  bool
}

// NewReadSingleton acquires a read guard on the singleton of type T. A
// singleton always exists, so acquisition cannot fail; it only blocks while a
// writer holds it.
func NewReadSingleton[T any](t *Table) *ReadSingleton[T] {
	s := singletonOf[T](t)
	s.mu.RLock()
	return &ReadSingleton[T]{singleton: s}
}

// Value returns a copy of the singleton's value.
func (g *ReadSingleton[T]) Value() T { return g.singleton.value }

// Ptr returns a pointer to the value. It must not be written through.
func (g *ReadSingleton[T]) Ptr() *T { return &g.singleton.value }

func (g *ReadSingleton[T]) anyValue() any { return g.singleton.value }

// Release unlocks the singleton. Calling it more than once is a no-op.
func (g *ReadSingleton[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.singleton.mu.RUnlock()
}

// WriteSingleton holds a singleton's lock exclusively.
type WriteSingleton[T any] struct {
	singleton *Singleton[T]
	released  bool
}

// NewWriteSingleton acquires a write guard on the singleton of type T.
func NewWriteSingleton[T any](t *Table) *WriteSingleton[T] {
	s := singletonOf[T](t)
	s.mu.Lock()
	return &WriteSingleton[T]{singleton: s}
}

// Value returns a copy of the singleton's value.
func (g *WriteSingleton[T]) Value() T { return g.singleton.value }

// Ptr returns a pointer to the value, valid until Release.
func (g *WriteSingleton[T]) Ptr() *T { return &g.singleton.value }

// Set replaces the singleton's value.
func (g *WriteSingleton[T]) Set(value T) { g.singleton.value = value }

func (g *WriteSingleton[T]) anyValue() any { return g.singleton.value }

// Release unlocks the singleton. Calling it more than once is a no-op.
func (g *WriteSingleton[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.singleton.mu.Unlock()
}

func singletonOf[T any](t *Table) *Singleton[T] {
	id := t.components.mustLookup(reflect.TypeFor[T](), kindSingleton)
	s, ok := t.singletons[id].(*Singleton[T])
	if !ok {
		panic(fmt.Sprintf("tabula: singleton %d does not hold %s", id, reflect.TypeFor[T]()))
	}
	return s
}
