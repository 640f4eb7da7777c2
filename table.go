// Package tabula implements a concurrent, columnar entity/component store.
//
// A Table holds one Column per component type and one Singleton per global
// type, all declared when the Table is built. Rows are identified by Keys and
// exist only implicitly: a row has a component when the component's column
// holds a cell for its key.
//
// Features:
//   - Two-level locking: a structural lock per column and a value lock per
//     cell, so accessors of different keys never block each other.
//   - Guards that flatten both locks into one handle (ReadCell, WriteCell).
//   - Schemas: named, statically declared joins across columns and
//     singletons, with construction, common keys, insert, remove and
//     projection derived from one description.
//   - Views: cached key sets of a schema, invalidated when one of the
//     schema's membership types changes structurally and recomputed lazily
//     on the next read.
//
// Locks are always acquired in ascending ComponentID. Go mutexes are not
// reentrant, and a reader queued behind a waiting writer blocks, so a
// goroutine holding a guard on a column must not take that column's
// structural lock again until the guard is released. That rules out:
//   - inserting into or removing from the same column;
//   - reading a View (Keys, Len, Contains, Update) or calling CommonKeys for
//     a schema whose membership includes that column, since a stale view
//     rescans its membership columns.
//
// Structural changes to other columns and Notify are always safe: they only
// mark views stale and never scan.
package tabula

import (
	"iter"
	"log/slog"
	"reflect"
	"slices"
	"sync"
)

// Table is the root aggregate of the store. Build it once with New and share
// the pointer; every method is safe for concurrent use.
type Table struct {
	components componentRegistry
	columns    [MaxComponentTypes]storage
	singletons [MaxComponentTypes]any

	views      []*View
	viewBy     map[*Schema]*View
	dependents [MaxComponentTypes][]int // ComponentID -> indices into views
	plans      sync.Map                 // *Schema -> *plan

	events EventBus
	keys   keyAllocator
	log    *slog.Logger

	pendingViews []*Schema
}

// Option configures a Table under construction.
type Option func(*Table)

// WithColumn declares a column of type T.
func WithColumn[T any]() Option {
	return func(t *Table) {
		id := t.components.register(reflect.TypeFor[T](), kindColumn)
		if t.columns[id] == nil {
			t.columns[id] = newColumn[T](id)
		}
	}
}

// WithSingleton declares the singleton of type T with its initial value.
func WithSingleton[T any](initial T) Option {
	return func(t *Table) {
		id := t.components.register(reflect.TypeFor[T](), kindSingleton)
		t.singletons[id] = &Singleton[T]{value: initial, id: id}
	}
}

// WithView declares a cached view of s. Every type s refers to must also be
// declared, in any order.
func WithView(s *Schema) Option {
	return func(t *Table) {
		t.pendingViews = append(t.pendingViews, s)
	}
}

// WithLogger sets the logger used for debug and warning records. By default
// nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.log = l
		}
	}
}

// New builds a Table from opts. The set of columns, singletons and views is
// fixed afterwards. It panics if a view refers to an undeclared type.
//
// Example:
//
//	moving := tabula.MustDefine("moving",
//	    tabula.Required[Position]("position", tabula.AccessWrite),
//	    tabula.Required[Velocity]("velocity", tabula.AccessRead),
//	)
//	t := tabula.New(
//	    tabula.WithColumn[Position](),
//	    tabula.WithColumn[Velocity](),
//	    tabula.WithView(moving),
//	)
func New(opts ...Option) *Table {
	t := &Table{
		components: newComponentRegistry(),
		viewBy:     make(map[*Schema]*View),
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, s := range t.pendingViews {
		if _, ok := t.viewBy[s]; ok {
			continue
		}
		p := t.plan(s)
		v := &View{table: t, schema: s, plan: p}
		idx := len(t.views)
		t.views = append(t.views, v)
		t.viewBy[s] = v
		for _, id := range p.dependencies().ids() {
			t.dependents[id] = append(t.dependents[id], idx)
		}
	}
	t.pendingViews = nil
	t.log.Debug("table built", "components", t.components.count(), "views", len(t.views))
	return t
}

// plan returns s resolved against t, caching the result.
func (t *Table) plan(s *Schema) *plan {
	if p, ok := t.plans.Load(s); ok {
		return p.(*plan)
	}
	p, _ := t.plans.LoadOrStore(s, newPlan(t, s))
	return p.(*plan)
}

// NextKey allocates a fresh key. Keys are strictly increasing and never
// reused.
func (t *Table) NextKey() Key {
	return t.keys.allocate()
}

// View returns the view declared for s. It panics if s was not passed to
// WithView.
func (t *Table) View(s *Schema) *View {
	v, ok := t.viewBy[s]
	if !ok {
		panic("tabula: no view declared for schema " + s.name)
	}
	return v
}

// Views returns every declared view in declaration order.
func (t *Table) Views() []*View {
	return slices.Clone(t.views)
}

// Events returns the bus on which the Table publishes Changed and
// ViewUpdated.
func (t *Table) Events() *EventBus {
	return &t.events
}

// ID returns the ComponentID of column type T.
func ID[T any](t *Table) ComponentID {
	return t.components.mustLookup(reflect.TypeFor[T](), kindColumn)
}

// SingletonID returns the ComponentID of singleton type T.
func SingletonID[T any](t *Table) ComponentID {
	return t.components.mustLookup(reflect.TypeFor[T](), kindSingleton)
}

// Notify tells the Table that the key membership of the given component
// types changed. Every view depending on at least one of them is marked
// stale and rescans on its next read, then a Changed event is published.
// Notify itself takes no column lock. All structural mutators in this package
// call it; code mutating through a WriteColumn must call it after releasing
// the guard. In-place value changes need no notification.
func (t *Table) Notify(ids ...ComponentID) {
	var m bitmask256
	for _, id := range ids {
		m.set(id)
	}
	t.notifyMask(m)
}

func (t *Table) notifyMask(m bitmask256) {
	if m.empty() {
		return
	}
	ids := m.ids()
	for _, id := range ids {
		for _, idx := range t.dependents[id] {
			t.views[idx].invalidate()
		}
	}
	types := make([]reflect.Type, len(ids))
	for i, id := range ids {
		types[i] = t.components.typeOf(id)
	}
	t.log.Debug("notify", "types", types)
	Publish(&t.events, Changed{IDs: ids, Types: types})
}

// Insert stores value as the T component of key, replacing any previous
// value, and notifies.
func Insert[T any](t *Table, key Key, value T) {
	col := columnOf[T](t)
	col.insert(key, value)
	t.Notify(col.id)
}

// InsertAuto allocates a fresh key, stores value under it and notifies.
func InsertAuto[T any](t *Table, value T) Key {
	key := t.NextKey()
	Insert(t, key, value)
	return key
}

// InsertMulti stores every (key, value) pair under a single structural lock,
// then notifies once.
func InsertMulti[T any](t *Table, values iter.Seq2[Key, T]) {
	col := columnOf[T](t)
	col.mu.Lock()
	for k, v := range values {
		col.insertLocked(k, v)
	}
	col.mu.Unlock()
	t.Notify(col.id)
}

// InsertAutoMulti allocates one fresh key per value, stores the values and
// returns the keys in order.
func InsertAutoMulti[T any](t *Table, values []T) []Key {
	if len(values) == 0 {
		return nil
	}
	col := columnOf[T](t)
	first := t.keys.allocateN(len(values))
	keys := make([]Key, len(values))
	col.mu.Lock()
	for i, v := range values {
		keys[i] = first + Key(i)
		col.insertLocked(keys[i], v)
	}
	col.mu.Unlock()
	t.Notify(col.id)
	return keys
}

// Remove deletes the T component of key and reports whether there was one.
// Only an actual removal notifies.
func Remove[T any](t *Table, key Key) bool {
	col := columnOf[T](t)
	ok := col.removeKey(key)
	if ok {
		t.Notify(col.id)
	}
	return ok
}

// RemoveMulti deletes the T component of every key under a single structural
// lock and returns how many existed.
func RemoveMulti[T any](t *Table, keys iter.Seq[Key]) int {
	col := columnOf[T](t)
	n := col.removeKeys(slices.Collect(keys))
	if n > 0 {
		t.Notify(col.id)
	}
	return n
}

// Get acquires a read guard on the T component of key. An absent component
// is an ordinary outcome and reported as false.
func Get[T any](t *Table, key Key) (*ReadCell[T], bool) {
	return NewReadCell[T](t, key)
}

// GetMut acquires a write guard on the T component of key.
func GetMut[T any](t *Table, key Key) (*WriteCell[T], bool) {
	return NewWriteCell[T](t, key)
}

// Contains reports whether key has a T component.
func Contains[T any](t *Table, key Key) bool {
	g := NewReadColumn[T](t)
	defer g.Release()
	return g.Contains(key)
}

// Len returns the number of T components.
func Len[T any](t *Table) int {
	g := NewReadColumn[T](t)
	defer g.Release()
	return g.Len()
}

// Keys returns, in ascending order, every key that currently holds a T
// component. Unlike a View it is computed on each call from the column
// itself.
func Keys[T any](t *Table) iter.Seq[Key] {
	g := NewReadColumn[T](t)
	keys := g.Keys()
	g.Release()
	return slices.Values(keys)
}
