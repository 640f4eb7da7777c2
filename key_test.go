package tabula

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextKeyIsMonotonic(t *testing.T) {
	tbl := newTestTable(t)
	prev := tbl.NextKey()
	for range 100 {
		k := tbl.NextKey()
		require.Greater(t, k, prev)
		prev = k
	}
}

func TestNextKeyConcurrent(t *testing.T) {
	tbl := newTestTable(t)
	const goroutines = 16
	const perGoroutine = 1000

	results := make([][]Key, goroutines)
	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Go(func() {
			keys := make([]Key, perGoroutine)
			for i := range keys {
				keys[i] = tbl.NextKey()
			}
			results[g] = keys
		})
	}
	wg.Wait()

	seen := make(map[Key]struct{}, goroutines*perGoroutine)
	for _, keys := range results {
		for i, k := range keys {
			if i > 0 {
				require.Greater(t, k, keys[i-1], "keys of one goroutine must increase")
			}
			_, dup := seen[k]
			require.False(t, dup, "key %d allocated twice", k)
			seen[k] = struct{}{}
		}
	}
	assert.Len(t, seen, goroutines*perGoroutine)
	assert.Equal(t, Key(goroutines*perGoroutine), tbl.NextKey())
}

func TestKeysNotReusedAfterRemove(t *testing.T) {
	tbl := newTestTable(t)
	k := InsertAuto(tbl, Health{Current: 1})
	Remove[Health](tbl, k)
	next := InsertAuto(tbl, Health{Current: 2})
	assert.Greater(t, next, k)
}

func TestAllocateN(t *testing.T) {
	var a keyAllocator
	first := a.allocateN(5)
	assert.Equal(t, Key(0), first)
	assert.Equal(t, Key(5), a.allocate())
	assert.Equal(t, Key(6), a.allocateN(0))
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "42", Key(42).String())
}
