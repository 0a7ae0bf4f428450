// Package engine provides the intersection simulation and the loop that
// drives it tick by tick.
package engine

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Engine drives a simulation forward. All callbacks run on the goroutine
// that called Run; only Stop may be called from elsewhere.
type Engine struct {
	Tick        uint64        // Last tick run (monotonic)
	MaxTicks    uint64        // Stop after this many ticks; 0 = until Stop
	Interval    time.Duration // Minimum wall time per tick; 0 = as fast as possible
	ReportEvery uint64        // OnReport cadence in ticks; 0 disables

	// Callbacks, populated during setup.
	OnTick   func(tick uint64) // Every tick: advance the simulation
	OnReport func(tick uint64) // Every ReportEvery ticks

	running atomic.Bool
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		ReportEvery: 100,
	}
}

// Run starts the loop. It returns when MaxTicks is reached or Stop is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "max_ticks", e.MaxTicks, "interval", e.Interval)

	for e.running.Load() {
		if e.MaxTicks > 0 && e.Tick >= e.MaxTicks {
			break
		}

		start := time.Now()
		e.step()

		if e.Interval > 0 {
			if elapsed := time.Since(start); elapsed < e.Interval {
				time.Sleep(e.Interval - elapsed)
			}
		}
	}

	e.running.Store(false)
	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the loop after the tick in progress.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}

	if e.ReportEvery > 0 && e.Tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(e.Tick)
	}
}
