package debugview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwinsyarief/tabula"
)

type name string

type point struct{ X, Y int }

var people = tabula.MustDefine("people",
	tabula.Required[name]("name", tabula.AccessRead),
	tabula.Optional[point]("point", tabula.AccessRead),
)

func newTable(t *testing.T) *tabula.Table {
	t.Helper()
	return tabula.New(
		tabula.WithColumn[name](),
		tabula.WithColumn[point](),
		tabula.WithView(people),
	)
}

func render(t *testing.T, tbl *tabula.Table, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tbl, tbl.View(people), opts))
	return buf.String()
}

func TestRender(t *testing.T) {
	tbl := newTable(t)
	_, err := people.InsertAutoMulti(tbl, []tabula.Values{
		{"name": name("ada"), "point": point{1, 2}},
		{"name": name("grace")},
	})
	require.NoError(t, err)

	want := strings.Join([]string{
		"Key | name  | point",
		"----+-------+------",
		"0   | ada   | {1 2}",
		"1   | grace |",
		"(2 rows)",
		"",
	}, "\n")
	assert.Equal(t, want, render(t, tbl, Options{}))
}

func TestRenderEmpty(t *testing.T) {
	tbl := newTable(t)
	want := "Key | name | point\n----+------+------\n(0 rows)\n"
	assert.Equal(t, want, render(t, tbl, Options{}))
}

func TestRenderTruncatesAndMaps(t *testing.T) {
	tbl := newTable(t)
	_, err := people.InsertAuto(tbl, tabula.Values{"name": name("a very long name\nwith a newline")})
	require.NoError(t, err)

	out := render(t, tbl, Options{MaxCellWidth: 8})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "0   | a very … |", lines[2])
	assert.Equal(t, "(1 row)", lines[3])

	upper := func(v any) string { return strings.ToUpper(tabula.Stringify(v)) }
	out = render(t, tbl, Options{MaxCellWidth: 100, Mapper: upper})
	assert.Contains(t, out, "A VERY LONG NAME WITH A NEWLINE")
}

func TestRenderWideRunes(t *testing.T) {
	tbl := newTable(t)
	_, err := people.InsertAuto(tbl, tabula.Values{"name": name("日本")})
	require.NoError(t, err)

	lines := strings.Split(render(t, tbl, Options{}), "\n")
	assert.Equal(t, "Key | name | point", lines[0])
	assert.Equal(t, "0   | 日本 |", lines[2])
}

func TestRenderStaleView(t *testing.T) {
	tbl := newTable(t)
	k, err := people.InsertAuto(tbl, tabula.Values{"name": name("gone")})
	require.NoError(t, err)

	// Remove behind the view's back.
	g := tabula.NewWriteColumn[name](tbl)
	g.Remove(k)
	g.Release()

	var buf bytes.Buffer
	err = Render(&buf, tbl, tbl.View(people), Options{})
	require.ErrorIs(t, err, tabula.ErrSchemaViolation)
}

func TestRenderMultilineWidth(t *testing.T) {
	tbl := newTable(t)
	_, err := people.InsertAuto(tbl, tabula.Values{"name": name("a\nb\nc")})
	require.NoError(t, err)

	lines := strings.Split(render(t, tbl, Options{}), "\n")
	assert.Equal(t, "Key | name  | point", lines[0])
	assert.Equal(t, "----+-------+------", lines[1])
	assert.Equal(t, "0   | a b c |", lines[2])
}
