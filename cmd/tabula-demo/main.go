// Command tabula-demo exercises a tabula Table from concurrent systems: an
// integrator moving entities through a cached view and a reaper removing and
// spawning entities through a schema. When the configured duration is over,
// the view is printed as a table.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/edwinsyarief/tabula"
	"github.com/edwinsyarief/tabula/debugview"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "tabula-demo: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides the config")
	duration := flag.Duration("duration", 0, "How long to run the systems; overrides the config")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *duration != 0 {
		cfg.Duration = *duration
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	level, _ := parseLevel(cfg.LogLevel)
	ll := &slog.LevelVar{}
	ll.Set(level)
	logger := newLogger(os.Stderr, ll)
	slog.SetDefault(logger)

	w := newWorld(cfg, logger)
	tabula.Subscribe(w.table.Events(), func(c tabula.Changed) {
		logger.Debug("structural change", "types", c.Types)
	})
	if err := w.populate(); err != nil {
		return err
	}
	if err := run(ctx, w); err != nil {
		return err
	}

	logger.Info("done",
		"spawned", humanize.Comma(int64(w.stats.Spawned)),
		"reaped", humanize.Comma(int64(w.stats.Reaped)),
		"integrated", humanize.Comma(int64(w.stats.Integrated)),
		"violations", w.stats.Violations,
	)
	return debugview.Render(os.Stdout, w.table, w.table.View(movingSchema), debugview.Options{MaxCellWidth: cfg.Width})
}

// run drives the integrator and the reaper concurrently for cfg.Duration.
func run(ctx context.Context, w *world) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.Duration)
	defer cancel()
	dt := time.Duration(float64(time.Second) / w.cfg.TicksPerSecond)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return runSystem(ctx, w.cfg.TicksPerSecond, func(int) error {
			moved, violations := w.integrate(dt)
			w.stats.Integrated += moved
			w.stats.Violations += violations
			return nil
		})
	})
	eg.Go(func() error {
		return runSystem(ctx, w.cfg.TicksPerSecond, func(tick int) error {
			n, err := w.reap(tick)
			w.stats.Reaped += n
			return err
		})
	})
	return eg.Wait()
}

func newLogger(out *os.File, level slog.Leveler) *slog.Logger {
	var wr io.Writer = colorable.NewColorable(out)
	return slog.New(tint.NewHandler(wr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(out.Fd()),
	}))
}
