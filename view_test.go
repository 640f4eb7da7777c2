package tabula

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(v *View) []Key {
	return slices.Collect(v.Keys())
}

var testAB = MustDefine("ab",
	Required[Position]("a", AccessRead),
	Required[Velocity]("b", AccessRead),
	Optional[Label]("label", AccessRead),
)

// go test -run ^TestCommonKeys$ . -count 1
func TestCommonKeys(t *testing.T) {
	tbl := newTestTable(t)
	for _, k := range []Key{1, 2, 3} {
		Insert(tbl, k, Position{})
	}
	for _, k := range []Key{2, 3, 4} {
		Insert(tbl, k, Velocity{})
	}
	assert.Equal(t, []Key{2, 3}, testAB.CommonKeys(tbl))

	// Optional fields never change membership.
	Insert(tbl, 1, Label("one"))
	Insert(tbl, 3, Label("three"))
	Insert(tbl, 9, Label("nine"))
	assert.Equal(t, []Key{2, 3}, testAB.CommonKeys(tbl))
}

func TestCommonKeysPivotOnSmallestColumn(t *testing.T) {
	tbl := newTestTable(t)
	for k := range Key(100) {
		Insert(tbl, k, Position{})
	}
	Insert(tbl, 50, Velocity{})
	Insert(tbl, 500, Velocity{})
	assert.Equal(t, []Key{50}, testAB.CommonKeys(tbl))
}

func TestCommonKeysEmpty(t *testing.T) {
	tbl := newTestTable(t)
	Insert(tbl, 1, Position{})
	assert.Empty(t, testAB.CommonKeys(tbl))
}

func TestCommonKeysOptionalOnly(t *testing.T) {
	tbl := newTestTable(t)
	s := MustDefine("any",
		Optional[Position]("position", AccessRead),
		Optional[Velocity]("velocity", AccessRead),
	)
	Insert(tbl, 3, Position{})
	Insert(tbl, 1, Velocity{})
	Insert(tbl, 3, Velocity{})
	assert.Equal(t, []Key{1, 3}, s.CommonKeys(tbl))
}

func TestCommonKeysGlobalOnly(t *testing.T) {
	tbl := newTestTable(t)
	s := MustDefine("clock", Global[Clock]("clock", AccessRead))
	InsertAuto(tbl, Position{})
	assert.Empty(t, s.CommonKeys(tbl))
}

func TestViewStartsEmpty(t *testing.T) {
	tbl := newTestTable(t)
	v := tbl.View(testMoving)
	assert.Empty(t, collect(v))
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, uint64(0), v.Generation())
	assert.Same(t, testMoving, v.Schema())
}

// go test -run ^TestViewMatchesCommonKeysAfterNotify$ . -count 1
func TestViewMatchesCommonKeysAfterNotify(t *testing.T) {
	tbl := newTestTable(t)
	v := tbl.View(testMoving)

	for k := range Key(10) {
		Insert(tbl, k, Position{})
		if k%2 == 0 {
			Insert(tbl, k, Velocity{})
		}
	}
	assert.Equal(t, testMoving.CommonKeys(tbl), collect(v))
	assert.Equal(t, []Key{0, 2, 4, 6, 8}, collect(v))

	Remove[Velocity](tbl, 4)
	Remove[Position](tbl, 6)
	assert.Equal(t, []Key{0, 2, 8}, collect(v))
	assert.True(t, v.Contains(2))
	assert.False(t, v.Contains(4))
}

func TestViewIsStaleUntilNotify(t *testing.T) {
	tbl := newTestTable(t)
	v := tbl.View(testMoving)

	wp := NewWriteColumn[Position](tbl)
	wp.Insert(1, Position{})
	wp.Release()
	wv := NewWriteColumn[Velocity](tbl)
	wv.Insert(1, Velocity{})
	wv.Release()

	assert.Empty(t, collect(v), "no notification yet")
	assert.Equal(t, []Key{1}, testMoving.CommonKeys(tbl))

	tbl.Notify(ID[Velocity](tbl))
	assert.Equal(t, []Key{1}, collect(v))
}

func TestNotifyOnlyUpdatesDependentViews(t *testing.T) {
	tbl := newTestTable(t)
	moving := tbl.View(testMoving)
	healthy := tbl.View(testHealthy)
	readBoth := func() {
		moving.Len()
		healthy.Len()
	}

	InsertAuto(tbl, Health{})
	assert.Equal(t, uint64(0), healthy.Generation(), "recomputed on read, not on notify")
	readBoth()
	assert.Equal(t, uint64(0), moving.Generation())
	assert.Equal(t, uint64(1), healthy.Generation())

	// Label is optional in testMoving and does not affect membership.
	InsertAuto(tbl, Label("x"))
	readBoth()
	assert.Equal(t, uint64(0), moving.Generation())

	InsertAuto(tbl, Position{})
	readBoth()
	assert.Equal(t, uint64(1), moving.Generation())
	assert.Equal(t, uint64(1), healthy.Generation())

	// Notifications between two reads collapse into one recompute.
	tbl.Notify(ID[Position](tbl), ID[Velocity](tbl), ID[Health](tbl))
	InsertAuto(tbl, Velocity{})
	InsertAuto(tbl, Health{})
	readBoth()
	readBoth()
	assert.Equal(t, uint64(2), moving.Generation())
	assert.Equal(t, uint64(2), healthy.Generation())
	assert.Equal(t, 2, healthy.Len())

	tbl.Notify()
	readBoth()
	assert.Equal(t, uint64(2), moving.Generation())

	// An explicit Update always rescans.
	moving.Update()
	assert.Equal(t, uint64(3), moving.Generation())
}

func TestValueWritesDoNotNotify(t *testing.T) {
	tbl := newTestTable(t)
	healthy := tbl.View(testHealthy)
	k := InsertAuto(tbl, Health{})
	require.Equal(t, 1, healthy.Len())
	gen := healthy.Generation()

	g, _ := GetMut[Health](tbl, k)
	g.Ptr().Current = 10
	g.Release()
	assert.Equal(t, 1, healthy.Len())
	assert.Equal(t, gen, healthy.Generation())
}

// go test -run ^TestStructuralChangeWhileHoldingGuardOfAnotherColumn$ . -count 1
func TestStructuralChangeWhileHoldingGuardOfAnotherColumn(t *testing.T) {
	tbl := newTestTable(t)
	k1 := InsertAuto(tbl, Position{})
	k2 := InsertAuto(tbl, Position{})
	v := tbl.View(testMoving)
	require.Equal(t, 0, v.Len())

	held, ok := GetMut[Position](tbl, k1)
	require.True(t, ok)

	// A writer queued on Position blocks every new Position reader.
	removed, blocked := blocks(func() {
		Remove[Position](tbl, k2)
	}, hold)
	require.True(t, blocked, "remove must wait for the held guard")

	_, blocked = blocks(func() {
		Insert(tbl, k1, Velocity{VX: 1})
		Remove[Velocity](tbl, k2)
		InsertAuto(tbl, Health{})
	}, settle)
	require.False(t, blocked, "changes to other columns must not rescan Position")

	held.Ptr().X = 1
	held.Release()
	<-removed

	assert.Equal(t, []Key{k1}, collect(v))
	assert.Equal(t, testMoving.CommonKeys(tbl), collect(v))
}

func TestViewKeysIsSnapshot(t *testing.T) {
	tbl := newTestTable(t)
	v := tbl.View(testHealthy)
	InsertAuto(tbl, Health{})
	InsertAuto(tbl, Health{})

	seq := v.Keys()
	InsertAuto(tbl, Health{})
	require.Equal(t, 3, v.Len())

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, []Key{0, 1}, first)
	assert.Equal(t, first, second, "a sequence can be ranged again")

	for range seq {
		break
	}
}

func TestOptionalOnlyViewDependsOnOptionalColumns(t *testing.T) {
	s := MustDefine("labels", Optional[Label]("label", AccessRead))
	tbl := newTestTable(t, WithView(s))
	v := tbl.View(s)
	k := InsertAuto(tbl, Label("x"))
	assert.Equal(t, []Key{k}, collect(v))
}

func TestDuplicateWithViewIsIgnored(t *testing.T) {
	tbl := newTestTable(t, WithView(testMoving))
	assert.Len(t, tbl.Views(), 2)
}

func TestEventsPublished(t *testing.T) {
	tbl := newTestTable(t)
	var changed []Changed
	var updated []ViewUpdated
	Subscribe(tbl.Events(), func(c Changed) { changed = append(changed, c) })
	Subscribe(tbl.Events(), func(u ViewUpdated) { updated = append(updated, u) })

	InsertAuto(tbl, Health{})
	require.Len(t, changed, 1)
	assert.Equal(t, []ComponentID{ID[Health](tbl)}, changed[0].IDs)
	assert.Equal(t, "tabula.Health", changed[0].Types[0].String())
	assert.Empty(t, updated, "views recompute on read")

	assert.Equal(t, 1, tbl.View(testHealthy).Len())
	require.Len(t, updated, 1)
	assert.Equal(t, ViewUpdated{Schema: "healthy", Keys: 1, Generation: 1}, updated[0])
}
