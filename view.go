package tabula

import (
	"iter"
	"slices"
	"sync"
	"sync/atomic"
)

// View caches the qualifying keys of a schema. The cache starts empty.
// Notify only marks a view stale; the recomputation runs on the next Keys,
// Len or Contains call, or on an explicit Update. A mutator therefore never
// scans other columns, and several notifications between two reads cost one
// scan. Between a structural change and the matching Notify the view may
// lag behind the columns.
type View struct {
	table  *Table
	schema *Schema
	plan   *plan

	// updateMu serializes recomputation so that an older scan can never
	// overwrite a newer one. It is always taken before any column lock.
	updateMu sync.Mutex
	stale    atomic.Bool
	mu       sync.RWMutex
	keys     []Key
	updates  atomic.Uint64
}

// Schema returns the schema the view materializes.
func (v *View) Schema() *Schema { return v.schema }

// Update recomputes the schema's common keys and replaces the cached set
// wholesale, whether or not the view is stale.
func (v *View) Update() {
	v.updateMu.Lock()
	defer v.updateMu.Unlock()
	v.recomputeLocked()
}

// invalidate marks the view for recomputation on its next read.
func (v *View) invalidate() {
	v.stale.Store(true)
}

// refresh recomputes the view if a notification arrived since the last scan.
func (v *View) refresh() {
	if !v.stale.Load() {
		return
	}
	v.updateMu.Lock()
	defer v.updateMu.Unlock()
	// Another reader may have refreshed while we waited.
	if v.stale.Load() {
		v.recomputeLocked()
	}
}

// recomputeLocked requires updateMu. The stale flag is cleared before the
// scan, so a notification racing with it leaves the view stale again.
func (v *View) recomputeLocked() {
	v.stale.Store(false)
	keys := v.plan.commonKeys()
	v.mu.Lock()
	v.keys = keys
	v.mu.Unlock()
	n := v.updates.Add(1)
	v.table.log.Debug("view updated", "schema", v.schema.name, "keys", len(keys), "generation", n)
	Publish(&v.table.events, ViewUpdated{Schema: v.schema.name, Keys: len(keys), Generation: n})
}

// Keys returns a sequence over a snapshot of the cached keys, in ascending
// order, refreshing a stale view first. The snapshot is taken when Keys is
// called; ranging over the result
// more than once replays the same snapshot and is never affected by later
// updates.
func (v *View) Keys() iter.Seq[Key] {
	v.refresh()
	v.mu.RLock()
	snapshot := slices.Clone(v.keys)
	v.mu.RUnlock()
	return slices.Values(snapshot)
}

// Len returns the number of cached keys.
func (v *View) Len() int {
	v.refresh()
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.keys)
}

// Contains reports whether key is in the cached set.
func (v *View) Contains(key Key) bool {
	v.refresh()
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := slices.BinarySearch(v.keys, key)
	return ok
}

// Generation returns how many times the view has been recomputed. It does
// not refresh a stale view.
func (v *View) Generation() uint64 {
	return v.updates.Load()
}
