package tabula

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/pkg/errors"
)

// Access selects the guard a row acquires for a field.
type Access uint8

const (
	// AccessRead acquires the field's value in shared mode.
	AccessRead Access = iota
	// AccessWrite acquires the field's value exclusively.
	AccessWrite
)

func (a Access) String() string {
	if a == AccessWrite {
		return "write"
	}
	return "read"
}

// Presence tells how a field takes part in row membership.
type Presence uint8

const (
	// PresenceRequired fields must hold a cell for every row of the schema and
	// together define which keys qualify.
	PresenceRequired Presence = iota
	// PresenceOptional fields are attached when present and never restrict
	// membership.
	PresenceOptional
	// PresenceGlobal fields bind a singleton, which is always present.
	PresenceGlobal
)

func (p Presence) String() string {
	switch p {
	case PresenceRequired:
		return "required"
	case PresenceOptional:
		return "optional"
	case PresenceGlobal:
		return "global"
	default:
		return fmt.Sprintf("Presence(%d)", uint8(p))
	}
}

// Field is one named member of a Schema. Fields are built with Required,
// Optional and Global, which capture the Go type so that the schema can later
// acquire typed guards and write typed values without reflection on the hot
// path.
type Field struct {
	name     string
	typ      reflect.Type
	kind     componentKind
	presence Presence
	access   Access

	open  func(t *Table, key Key) (slot, bool)
	check func(v any) bool
	write func(t *Table, keys []Key, values []any)
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Type returns the Go type the field binds.
func (f Field) Type() reflect.Type { return f.typ }

// Presence returns whether the field is required, optional or global.
func (f Field) Presence() Presence { return f.presence }

// Access returns whether the field is acquired for reading or writing.
func (f Field) Access() Access { return f.access }

// Required declares a field that every row of the schema must have in the
// column of type T.
func Required[T any](name string, access Access) Field {
	return columnField[T](name, PresenceRequired, access)
}

// Optional declares a field in the column of type T that rows may lack.
func Optional[T any](name string, access Access) Field {
	return columnField[T](name, PresenceOptional, access)
}

// Global declares a field bound to the singleton of type T.
func Global[T any](name string, access Access) Field {
	f := Field{
		name:     name,
		typ:      reflect.TypeFor[T](),
		kind:     kindSingleton,
		presence: PresenceGlobal,
		access:   access,
	}
	if access == AccessWrite {
		f.open = func(t *Table, _ Key) (slot, bool) {
			return NewWriteSingleton[T](t), true
		}
	} else {
		f.open = func(t *Table, _ Key) (slot, bool) {
			return NewReadSingleton[T](t), true
		}
	}
	return f
}

func columnField[T any](name string, presence Presence, access Access) Field {
	f := Field{
		name:     name,
		typ:      reflect.TypeFor[T](),
		kind:     kindColumn,
		presence: presence,
		access:   access,
		check: func(v any) bool {
			_, ok := v.(T)
			return ok
		},
		write: func(t *Table, keys []Key, values []any) {
			col := columnOf[T](t)
			col.mu.Lock()
			defer col.mu.Unlock()
			for i, k := range keys {
				col.insertLocked(k, values[i].(T))
			}
		},
	}
	// A typed nil pointer must not leak into the slot interface on a miss.
	if access == AccessWrite {
		f.open = func(t *Table, key Key) (slot, bool) {
			g, ok := NewWriteCell[T](t, key)
			if !ok {
				return nil, false
			}
			return g, true
		}
	} else {
		f.open = func(t *Table, key Key) (slot, bool) {
			g, ok := NewReadCell[T](t, key)
			if !ok {
				return nil, false
			}
			return g, true
		}
	}
	return f
}

// Schema is a named, ordered set of fields describing a join across columns
// and singletons for a single key. Schemas are declared once, typically as
// package-level variables, and are independent of any particular Table.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// Define validates fields and returns the schema. A schema needs at least
// one field; field names must be unique and no component type may be bound
// twice.
func Define(name string, fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, errors.Wrapf(ErrEmptySchema, "schema %q", name)
	}
	s := &Schema{
		name:   name,
		fields: slices.Clone(fields),
		index:  make(map[string]int, len(fields)),
	}
	type binding struct {
		typ  reflect.Type
		kind componentKind
	}
	bound := make(map[binding]string, len(fields))
	for i, f := range fields {
		if f.open == nil {
			return nil, errors.Errorf("tabula: schema %q: field %d was not built with Required, Optional or Global", name, i)
		}
		if _, ok := s.index[f.name]; ok {
			return nil, errors.Wrapf(ErrDuplicateField, "schema %q: name %q", name, f.name)
		}
		b := binding{typ: f.typ, kind: f.kind}
		if other, ok := bound[b]; ok {
			return nil, errors.Wrapf(ErrDuplicateField, "schema %q: fields %q and %q both bind %s %s", name, other, f.name, f.kind, f.typ)
		}
		bound[b] = f.name
		s.index[f.name] = i
	}
	return s, nil
}

// MustDefine is like Define but panics on error. It is meant for
// package-level schema declarations.
func MustDefine(name string, fields ...Field) *Schema {
	s, err := Define(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns a copy of the schema's fields in declared order.
func (s *Schema) Fields() []Field { return slices.Clone(s.fields) }

// Header returns the field names in declared order, as used for tabular
// display of projected rows.
func (s *Schema) Header() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.name
	}
	return out
}

func (s *Schema) field(name string) (int, Field) {
	i, ok := s.index[name]
	if !ok {
		panic(fmt.Sprintf("tabula: schema %q has no field %q", s.name, name))
	}
	return i, s.fields[i]
}

// plan is a schema resolved against one Table.
type plan struct {
	ids      []ComponentID // per field, declared order
	order    []int         // field indices in ascending ComponentID
	columns  bitmask256    // every column field
	required bitmask256    // required column fields
	// members are the columns that define membership: the required ones, or
	// the optional ones when the schema has no required column field.
	members []storage
	union   bool
}

func newPlan(t *Table, s *Schema) *plan {
	p := &plan{ids: make([]ComponentID, len(s.fields))}
	var optional bitmask256
	for i, f := range s.fields {
		id := t.components.mustLookup(f.typ, f.kind)
		p.ids[i] = id
		if f.kind != kindColumn {
			continue
		}
		p.columns.set(id)
		if f.presence == PresenceRequired {
			p.required.set(id)
		} else {
			optional.set(id)
		}
	}
	p.order = make([]int, len(s.fields))
	for i := range p.order {
		p.order[i] = i
	}
	slices.SortFunc(p.order, func(a, b int) int {
		return int(p.ids[a]) - int(p.ids[b])
	})
	membership := p.required
	if membership.empty() {
		membership = optional
		p.union = true
	}
	for _, id := range membership.ids() {
		p.members = append(p.members, t.columns[id])
	}
	return p
}

// dependencies returns the component types whose structural change can alter
// the schema's qualifying key set.
func (p *plan) dependencies() bitmask256 {
	if p.union {
		return p.columns
	}
	return p.required
}
