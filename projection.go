package tabula

import "fmt"

// Mapper turns a field value into display text.
type Mapper func(v any) string

// Stringify formats values with fmt, so fmt.Stringer implementations are
// honored.
func Stringify(v any) string {
	return fmt.Sprint(v)
}

// Projection is one field of a projected row.
type Projection struct {
	Text    string
	Present bool
}

// Project applies m to every populated field in declared order. Absent
// optional fields yield a Projection with Present unset, so the result always
// has one entry per field and lines up with Schema.Header.
func (r *Row) Project(m Mapper) []Projection {
	if m == nil {
		m = Stringify
	}
	out := make([]Projection, len(r.slots))
	for i, g := range r.slots {
		if g == nil {
			continue
		}
		out[i] = Projection{Text: m(g.anyValue()), Present: true}
	}
	return out
}
