package tabula

import "slices"

// CommonKeys returns, in ascending order, every key that holds a cell in each
// of the schema's required columns. Optional and global fields do not take
// part. A schema without required column fields yields the union of its
// optional columns instead.
//
// The structural locks of the membership columns are held shared for the
// duration of the scan, acquired in ascending ComponentID.
func (s *Schema) CommonKeys(t *Table) []Key {
	return t.plan(s).commonKeys()
}

func (p *plan) commonKeys() []Key {
	if len(p.members) == 0 {
		return nil
	}
	for _, col := range p.members {
		col.rlock()
	}
	defer func() {
		for i := len(p.members) - 1; i >= 0; i-- {
			p.members[i].runlock()
		}
	}()

	if p.union {
		n := 0
		for _, col := range p.members {
			n += col.lenLocked()
		}
		keys := make([]Key, 0, n)
		for _, col := range p.members {
			keys = col.keysLocked(keys)
		}
		slices.Sort(keys)
		return slices.Compact(keys)
	}

	// Scan the smallest column and probe the others.
	pivot := 0
	for i, col := range p.members {
		if col.lenLocked() < p.members[pivot].lenLocked() {
			pivot = i
		}
	}
	candidates := p.members[pivot].keysLocked(make([]Key, 0, p.members[pivot].lenLocked()))
	keys := candidates[:0]
outer:
	for _, k := range candidates {
		for i, col := range p.members {
			if i != pivot && !col.hasLocked(k) {
				continue outer
			}
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
