package tabula

import (
	"fmt"
	"reflect"
)

// Row is a schema's guards for one key, acquired together. Required and
// global fields are always populated; optional fields are empty when the key
// lacks the component. A Row must be released, usually with defer.
type Row struct {
	schema   *Schema
	key      Key
	slots    []slot // declared order, nil for absent optional fields
	order    []int  // acquisition order
	released bool
}

// Open acquires the declared guard of every field for key, in ascending
// ComponentID. Optional fields whose cell is missing are left empty. If a
// required field has no cell, every guard acquired so far is released and a
// *SchemaViolation is returned.
func (s *Schema) Open(t *Table, key Key) (*Row, error) {
	p := t.plan(s)
	r := &Row{
		schema: s,
		key:    key,
		slots:  make([]slot, len(s.fields)),
		order:  p.order,
	}
	for n, i := range p.order {
		f := s.fields[i]
		g, ok := f.open(t, key)
		if ok {
			r.slots[i] = g
			continue
		}
		if f.presence == PresenceRequired {
			r.releaseFirst(n)
			err := &SchemaViolation{Schema: s.name, Field: f.name, Type: f.typ, Key: key}
			t.log.Warn("schema violation", "schema", s.name, "field", f.name, "key", uint64(key))
			return nil, err
		}
	}
	return r, nil
}

// MustOpen is like Open but panics with the *SchemaViolation. Use it for keys
// taken from CommonKeys or a View, where a missing required cell means the
// store's invariants are broken.
func (s *Schema) MustOpen(t *Table, key Key) *Row {
	r, err := s.Open(t, key)
	if err != nil {
		panic(err)
	}
	return r
}

// Key returns the row's key.
func (r *Row) Key() Key { return r.key }

// Schema returns the schema the row was opened with.
func (r *Row) Schema() *Schema { return r.schema }

// Has reports whether the named field is populated.
func (r *Row) Has(name string) bool {
	i, _ := r.schema.field(name)
	return r.slots[i] != nil
}

// Release releases every guard in reverse acquisition order. Calling it more
// than once is a no-op.
func (r *Row) Release() {
	if r.released {
		return
	}
	r.released = true
	r.releaseFirst(len(r.order))
}

// releaseFirst releases the guards taken by the first n acquisition steps.
func (r *Row) releaseFirst(n int) {
	for j := n - 1; j >= 0; j-- {
		if g := r.slots[r.order[j]]; g != nil {
			g.Release()
		}
	}
}

// Read returns a copy of the named field's value. It reports false when the
// field is optional and absent. It panics if the field does not exist or
// does not hold a T.
func Read[T any](r *Row, name string) (T, bool) {
	i, f := r.schema.field(name)
	g := r.slots[i]
	if g == nil {
		var zero T
		return zero, false
	}
	v, ok := g.(interface{ Value() T })
	if !ok {
		panic(fmt.Sprintf("tabula: field %q holds %s, not %s", name, f.typ, reflect.TypeFor[T]()))
	}
	return v.Value(), true
}

// Write returns a pointer to the named field's value, valid until the row is
// released. It reports false when the field is optional and absent. It panics
// if the field does not exist, does not hold a T or was declared AccessRead.
func Write[T any](r *Row, name string) (*T, bool) {
	i, f := r.schema.field(name)
	if f.access != AccessWrite {
		panic(fmt.Sprintf("tabula: field %q of schema %q is read-only", name, r.schema.name))
	}
	g := r.slots[i]
	if g == nil {
		return nil, false
	}
	p, ok := g.(interface{ Ptr() *T })
	if !ok {
		panic(fmt.Sprintf("tabula: field %q holds %s, not %s", name, f.typ, reflect.TypeFor[T]()))
	}
	return p.Ptr(), true
}
