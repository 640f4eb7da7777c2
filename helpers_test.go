package tabula

import (
	"testing"
	"time"
)

// --- Test Components ---
type Position struct{ X, Y float32 }
type Velocity struct{ VX, VY float32 }
type Health struct{ Current, Max int }
type Label string

// Pair is written as a whole by concurrent writers; A must always equal B.
type Pair struct{ A, B int }

type Clock struct{ Tick int }

var (
	testMoving = MustDefine("moving",
		Required[Position]("position", AccessWrite),
		Required[Velocity]("velocity", AccessRead),
		Optional[Label]("label", AccessRead),
	)
	testHealthy = MustDefine("healthy",
		Required[Health]("health", AccessRead),
	)
)

// --- Test Suite Setup ---
func newTestTable(_ testing.TB, opts ...Option) *Table {
	base := []Option{
		WithColumn[Position](),
		WithColumn[Velocity](),
		WithColumn[Health](),
		WithColumn[Label](),
		WithColumn[Pair](),
		WithSingleton(Clock{Tick: 1}),
		WithView(testMoving),
		WithView(testHealthy),
	}
	return New(append(base, opts...)...)
}

// blocks reports whether fn is still running after d.
func blocks(fn func(), d time.Duration) (chan struct{}, bool) {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
		return done, false
	case <-time.After(d):
		return done, true
	}
}
