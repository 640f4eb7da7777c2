package tabula

import (
	"iter"
	"maps"
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Values holds one row's data for Insert, keyed by field name. Optional
// fields may be left out, in which case the row simply lacks that component.
type Values map[string]any

// Insert writes row under key into every column field of the schema and
// notifies the Table of all of the schema's column types. Values are
// validated before anything is written.
//
// The write is not atomic across columns: a concurrent reader may observe
// some fields of the row before others.
func (s *Schema) Insert(t *Table, key Key, row Values) error {
	return s.insertRows(t, []Key{key}, []Values{row})
}

// InsertAuto allocates a fresh key and inserts row under it.
func (s *Schema) InsertAuto(t *Table, row Values) (Key, error) {
	if err := s.validate(row); err != nil {
		return 0, err
	}
	key := t.NextKey()
	s.writeRows(t, []Key{key}, []Values{row})
	return key, nil
}

// InsertMulti inserts every (key, row) pair, taking each column's structural
// lock once for the whole batch. Nothing is written if any row is invalid.
func (s *Schema) InsertMulti(t *Table, rows iter.Seq2[Key, Values]) error {
	var keys []Key
	var values []Values
	for k, v := range rows {
		keys = append(keys, k)
		values = append(values, v)
	}
	return s.insertRows(t, keys, values)
}

// InsertAutoMulti allocates one fresh key per row, inserts the rows and
// returns the keys in the order of rows.
func (s *Schema) InsertAutoMulti(t *Table, rows []Values) ([]Key, error) {
	for _, row := range rows {
		if err := s.validate(row); err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	first := t.keys.allocateN(len(rows))
	keys := make([]Key, len(rows))
	for i := range keys {
		keys[i] = first + Key(i)
	}
	s.writeRows(t, keys, rows)
	return keys, nil
}

// Remove deletes key from every column field of the schema, required and
// optional alike, then notifies.
func (s *Schema) Remove(t *Table, key Key) {
	s.removeKeys(t, []Key{key})
}

// RemoveMulti deletes every key from every column field of the schema.
func (s *Schema) RemoveMulti(t *Table, keys iter.Seq[Key]) {
	s.removeKeys(t, slices.Collect(keys))
}

func (s *Schema) insertRows(t *Table, keys []Key, rows []Values) error {
	for _, row := range rows {
		if err := s.validate(row); err != nil {
			return err
		}
	}
	if len(keys) == 0 {
		return nil
	}
	s.writeRows(t, keys, rows)
	return nil
}

func (s *Schema) validate(row Values) error {
	for _, name := range slices.Sorted(maps.Keys(row)) {
		i, ok := s.index[name]
		if !ok || s.fields[i].kind != kindColumn {
			return errors.Wrapf(ErrUnknownField, "schema %q: %q", s.name, name)
		}
		f := s.fields[i]
		if !f.check(row[name]) {
			return errors.Wrapf(ErrTypeMismatch, "schema %q: field %q wants %s, got %T", s.name, name, f.typ, row[name])
		}
	}
	for _, f := range s.fields {
		if f.presence != PresenceRequired {
			continue
		}
		if _, ok := row[f.name]; !ok {
			return errors.Wrapf(ErrMissingRequired, "schema %q: %q", s.name, f.name)
		}
	}
	return nil
}

// writeRows writes validated rows. Each column is written by its own
// goroutine holding only that column's structural lock, so no goroutine ever
// waits for a lock while holding another.
func (s *Schema) writeRows(t *Table, keys []Key, rows []Values) {
	var g errgroup.Group
	for _, f := range s.fields {
		if f.kind != kindColumn {
			continue
		}
		var fk []Key
		var fv []any
		for i, row := range rows {
			if v, ok := row[f.name]; ok {
				fk = append(fk, keys[i])
				fv = append(fv, v)
			}
		}
		if len(fk) == 0 {
			continue
		}
		g.Go(func() error {
			f.write(t, fk, fv)
			return nil
		})
	}
	_ = g.Wait()
	t.notifyMask(t.plan(s).columns)
}

func (s *Schema) removeKeys(t *Table, keys []Key) {
	if len(keys) == 0 {
		return
	}
	p := t.plan(s)
	var g errgroup.Group
	for _, id := range p.columns.ids() {
		col := t.columns[id]
		g.Go(func() error {
			col.removeKeys(keys)
			return nil
		})
	}
	_ = g.Wait()
	t.notifyMask(p.columns)
}
