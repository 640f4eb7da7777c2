package tabula

import (
	"fmt"
	"testing"
)

var benchSizes = []int{1000, 10000, 100000}

func sizeName(size int) string {
	if size >= 1000000 {
		return fmt.Sprintf("%dM", size/1000000)
	}
	return fmt.Sprintf("%dK", size/1000)
}

// runSizes runs fn as one sub-benchmark per entry of benchSizes.
func runSizes(b *testing.B, fn func(b *testing.B, size int)) {
	for _, size := range benchSizes {
		b.Run(sizeName(size), func(b *testing.B) {
			fn(b, size)
		})
	}
}

// populated returns a test table holding size moving rows.
func populated(b *testing.B, size int) (*Table, []Key) {
	b.Helper()
	tbl := newTestTable(b)
	rows := make([]Values, size)
	for i := range rows {
		rows[i] = Values{
			"position": Position{X: float32(i)},
			"velocity": Velocity{VX: 1, VY: 1},
		}
	}
	keys, err := testMoving.InsertAutoMulti(tbl, rows)
	if err != nil {
		b.Fatal(err)
	}
	return tbl, keys
}
