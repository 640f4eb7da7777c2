package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/edwinsyarief/tabula"
)

// Label names an entity.
type Label string

// Position is an entity's location.
type Position struct{ X, Y float64 }

func (p Position) String() string { return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y) }

// Velocity is an entity's displacement per second.
type Velocity struct{ X, Y float64 }

func (v Velocity) String() string { return fmt.Sprintf("<%.1f, %.1f>", v.X, v.Y) }

// Clock is the global simulation clock.
type Clock struct {
	Tick    uint64
	Elapsed time.Duration
}

// Stats counts what the systems did.
type Stats struct {
	Spawned    int
	Reaped     int
	Integrated int
	Violations int
}

var (
	// movingSchema is every entity that has both a position and a velocity.
	movingSchema = tabula.MustDefine("moving",
		tabula.Optional[Label]("label", tabula.AccessRead),
		tabula.Required[Position]("position", tabula.AccessWrite),
		tabula.Required[Velocity]("velocity", tabula.AccessRead),
	)
	// spawnSchema inserts and removes whole entities.
	spawnSchema = tabula.MustDefine("spawn",
		tabula.Optional[Label]("label", tabula.AccessRead),
		tabula.Required[Position]("position", tabula.AccessRead),
		tabula.Required[Velocity]("velocity", tabula.AccessRead),
	)
	// positionSchema is used by the reaper to inspect positions.
	positionSchema = tabula.MustDefine("positions",
		tabula.Required[Position]("position", tabula.AccessRead),
		tabula.Global[Clock]("clock", tabula.AccessRead),
	)
)

func newTable(logger *slog.Logger) *tabula.Table {
	return tabula.New(
		tabula.WithLogger(logger),
		tabula.WithColumn[Label](),
		tabula.WithColumn[Position](),
		tabula.WithColumn[Velocity](),
		tabula.WithSingleton(Clock{}),
		tabula.WithView(movingSchema),
	)
}

// world bundles the table with the demo's parameters.
type world struct {
	table  *tabula.Table
	cfg    Config
	rng    *rand.Rand
	logger *slog.Logger
	stats  Stats
}

func newWorld(cfg Config, logger *slog.Logger) *world {
	return &world{
		table:  newTable(logger),
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(uint64(cfg.Seed), 0)),
		logger: logger,
	}
}

func (w *world) randomRow(n int) tabula.Values {
	v := tabula.Values{
		"position": Position{},
		"velocity": Velocity{X: w.rng.Float64()*20 - 10, Y: w.rng.Float64()*20 - 10},
	}
	// Every third entity is anonymous.
	if n%3 != 0 {
		v["label"] = Label(fmt.Sprintf("entity-%d", n))
	}
	return v
}

// populate inserts the initial entities in one batch.
func (w *world) populate() error {
	rows := make([]tabula.Values, w.cfg.Entities)
	for i := range rows {
		rows[i] = w.randomRow(i)
	}
	keys, err := spawnSchema.InsertAutoMulti(w.table, rows)
	if err != nil {
		return err
	}
	w.stats.Spawned += len(keys)
	return nil
}

// integrate advances the clock and moves every entity of the moving view.
// Keys removed by the reaper after the view snapshot was taken show up as
// schema violations; the affected row is skipped.
func (w *world) integrate(dt time.Duration) (int, int) {
	clock := tabula.NewWriteSingleton[Clock](w.table)
	clock.Ptr().Tick++
	clock.Ptr().Elapsed += dt
	clock.Release()

	moved, violations := 0, 0
	secs := dt.Seconds()
	for key := range w.table.View(movingSchema).Keys() {
		row, err := movingSchema.Open(w.table, key)
		if err != nil {
			if !errors.Is(err, tabula.ErrSchemaViolation) {
				panic(err)
			}
			w.logger.Debug("skipping row", "key", uint64(key), "err", err)
			violations++
			continue
		}
		pos, _ := tabula.Write[Position](row, "position")
		vel, _ := tabula.Read[Velocity](row, "velocity")
		pos.X += vel.X * secs
		pos.Y += vel.Y * secs
		row.Release()
		moved++
	}
	return moved, violations
}

// reap removes every entity that left the bounds and spawns a replacement
// every SpawnEvery ticks.
func (w *world) reap(tick int) (int, error) {
	var out []tabula.Key
	for _, key := range positionSchema.CommonKeys(w.table) {
		row, err := positionSchema.Open(w.table, key)
		if err != nil {
			continue
		}
		p, _ := tabula.Read[Position](row, "position")
		row.Release()
		if math.Abs(p.X) > w.cfg.Bounds || math.Abs(p.Y) > w.cfg.Bounds {
			out = append(out, key)
		}
	}
	if len(out) > 0 {
		spawnSchema.RemoveMulti(w.table, slices.Values(out))
	}
	if w.cfg.SpawnEvery > 0 && tick%w.cfg.SpawnEvery == 0 {
		if _, err := spawnSchema.InsertAuto(w.table, w.randomRow(tick)); err != nil {
			return len(out), err
		}
		w.stats.Spawned++
	}
	return len(out), nil
}

// runSystem calls step at most tps times per second until ctx is done.
func runSystem(ctx context.Context, tps float64, step func(tick int) error) error {
	lim := rate.NewLimiter(rate.Limit(tps), 1)
	for tick := 1; ; tick++ {
		if err := lim.Wait(ctx); err != nil {
			// Wait also fails early when the next tick falls past the deadline.
			<-ctx.Done()
			return nil
		}
		if err := step(tick); err != nil {
			return err
		}
	}
}
