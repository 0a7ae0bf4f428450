// Command intersim runs the single-intersection traffic simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/crossing-sim/internal/config"
	"github.com/talgya/crossing-sim/internal/engine"
	"github.com/talgya/crossing-sim/internal/persistence"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config (defaults apply when empty)")
		ticks      = flag.Uint64("ticks", 500, "ticks to run (0 = until interrupted)")
		seed       = flag.Int64("seed", 0, "random seed (overrides config; 0 keeps the config value)")
		mode       = flag.String("mode", "", "signal mode: pedestrian or fixed (overrides config)")
		interval   = flag.Duration("interval", 0, "minimum wall time per tick")
		report     = flag.Uint64("report", 100, "log a metrics line every N ticks (0 disables)")
		dbPath     = flag.String("db", "", "record per-tick samples to this SQLite file (empty disables)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	// ── Configuration ─────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		slog.Info("config loaded", "path", *configPath)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *mode != "" {
		cfg.SignalMode = *mode
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim, err := engine.New(cfg)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("intersection ready",
		"grid", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"intersection", sim.Intersection,
		"mode", cfg.SignalMode,
		"seed", sim.Seed(),
	)

	// ── Recording ─────────────────────────────────────────────────────
	var (
		db    *persistence.DB
		runID string
	)
	if *dbPath != "" {
		if dir := filepath.Dir(*dbPath); dir != "." {
			os.MkdirAll(dir, 0755)
		}
		db, err = persistence.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		runID, err = db.StartRun(cfg, sim.Seed())
		if err != nil {
			slog.Error("failed to start run", "error", err)
			os.Exit(1)
		}
		sim.Collector = engine.NewCollector(0)
	}

	flush := func() {
		if db == nil {
			return
		}
		if err := db.SaveSamples(runID, sim.Collector.Drain()); err != nil {
			slog.Error("failed to save samples", "error", err)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.MaxTicks = *ticks
	eng.Interval = *interval
	eng.ReportEvery = *report
	eng.OnTick = func(uint64) { sim.Step() }
	eng.OnReport = func(tick uint64) {
		m := sim.Metrics()
		light := sim.LightState()
		slog.Info("report",
			"tick", tick,
			"light", light.Car.String(),
			"walk", light.Pedestrian.String(),
			"agents", len(sim.Agents),
			"cars_passed", m.CarsPassed,
			"queue", m.QueueLength,
			"pedestrians_crossed", m.PedestriansCrossed,
			"emergency", m.EmergencyActive,
		)
		flush()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	started := time.Now()
	eng.Run()
	flush()

	m := sim.Metrics()
	if db != nil {
		if err := db.FinishRun(runID, sim.CurrentTick(), m); err != nil {
			slog.Error("failed to finish run", "error", err)
		}
	}

	fmt.Printf("\nRan %s ticks in %s (seed %d)\n",
		humanize.Comma(int64(sim.CurrentTick())), time.Since(started).Round(time.Millisecond), sim.Seed())
	fmt.Printf("  cars passed          %s (avg travel %s ticks)\n",
		humanize.Comma(int64(m.CarsPassed)), humanize.FtoaWithDigits(m.AvgTravelTime, 2))
	fmt.Printf("  pedestrians crossed  %s (avg crossing %s ticks)\n",
		humanize.Comma(int64(m.PedestriansCrossed)), humanize.FtoaWithDigits(m.AvgPedestrianTime, 2))
	fmt.Printf("  emergencies cleared  %s\n", humanize.Comma(int64(m.EmergenciesCleared)))
	fmt.Printf("  queue at stop line   %d, emergency active: %t\n", m.QueueLength, m.EmergencyActive)
	if db != nil {
		fmt.Printf("  recorded run %s to %s\n", runID, *dbPath)
	}
}
