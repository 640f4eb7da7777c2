package tabula

import (
	"fmt"
	"reflect"
)

// ComponentID is the identifier a Table assigns to each registered column or
// singleton type. IDs follow registration order and double as the global lock
// order: any operation that holds more than one structural lock acquires them
// in ascending ComponentID.
type ComponentID uint8

// MaxComponentTypes is the number of column and singleton types a single Table
// can hold.
const MaxComponentTypes = 256

type componentKind uint8

const (
	kindColumn componentKind = iota + 1
	kindSingleton
)

func (k componentKind) String() string {
	switch k {
	case kindColumn:
		return "column"
	case kindSingleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// componentRegistry maps Go types to component IDs. It is filled while the
// Table is being built and is read-only afterwards, so lookups take no lock.
type componentRegistry struct {
	columnIDs    map[reflect.Type]ComponentID
	singletonIDs map[reflect.Type]ComponentID
	idToType     [MaxComponentTypes]reflect.Type
	next         uint16
}

func newComponentRegistry() componentRegistry {
	return componentRegistry{
		columnIDs:    make(map[reflect.Type]ComponentID, 16),
		singletonIDs: make(map[reflect.Type]ComponentID, 4),
	}
}

// register returns the ID for t, assigning a new one on first sight.
func (r *componentRegistry) register(t reflect.Type, kind componentKind) ComponentID {
	ids := r.idsFor(kind)
	if id, ok := ids[t]; ok {
		return id
	}
	if r.next >= MaxComponentTypes {
		panic(fmt.Sprintf("tabula: cannot register %s %s: maximum number of component types (%d) reached", kind, t, MaxComponentTypes))
	}
	id := ComponentID(r.next)
	ids[t] = id
	r.idToType[id] = t
	r.next++
	return id
}

func (r *componentRegistry) lookup(t reflect.Type, kind componentKind) (ComponentID, bool) {
	id, ok := r.idsFor(kind)[t]
	return id, ok
}

// mustLookup panics when t was never registered; reaching for an undeclared
// type is a programming error, not a runtime condition.
func (r *componentRegistry) mustLookup(t reflect.Type, kind componentKind) ComponentID {
	id, ok := r.lookup(t, kind)
	if !ok {
		panic(fmt.Sprintf("tabula: %s type %s not registered", kind, t))
	}
	return id
}

func (r *componentRegistry) idsFor(kind componentKind) map[reflect.Type]ComponentID {
	if kind == kindSingleton {
		return r.singletonIDs
	}
	return r.columnIDs
}

func (r *componentRegistry) count() int {
	return int(r.next)
}

// typeOf returns the Go type registered under id.
func (r *componentRegistry) typeOf(id ComponentID) reflect.Type {
	return r.idToType[id]
}
