// Package signal provides the intersection's traffic/pedestrian signal state
// machine and the emergency coordinator that overrides it.
package signal

import (
	"fmt"

	"github.com/talgya/crossing-sim/internal/world"
)

// CarPhase is the vehicle signal.
type CarPhase uint8

const (
	Green CarPhase = iota
	Red
)

func (p CarPhase) String() string {
	if p == Red {
		return "RED"
	}
	return "GREEN"
}

// PedPhase is the pedestrian signal.
type PedPhase uint8

const (
	DontWalk PedPhase = iota
	Walk
)

func (p PedPhase) String() string {
	if p == Walk {
		return "WALK"
	}
	return "DONT_WALK"
}

// Mode selects the signal controller variant.
type Mode uint8

const (
	// ModePedestrian holds GREEN until a pedestrian reaches the crosswalk,
	// then runs a WALK countdown with cars held at RED.
	ModePedestrian Mode = iota
	// ModeFixed alternates GREEN and RED on fixed durations and grants WALK
	// to waiting pedestrians while RED.
	ModeFixed
)

func (m Mode) String() string {
	if m == ModeFixed {
		return "fixed"
	}
	return "pedestrian"
}

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "pedestrian":
		return ModePedestrian, nil
	case "fixed":
		return ModeFixed, nil
	}
	return 0, fmt.Errorf("unknown signal mode %q", s)
}

// Timing holds the configured durations, all in ticks.
type Timing struct {
	Mode  Mode
	Green int
	Red   int
	Walk  int
}

// State is the observable signal state plus its internal timers.
type State struct {
	Car        CarPhase `json:"car_phase"`
	Pedestrian PedPhase `json:"pedestrian_phase"`
	Override   bool     `json:"override"`
	WalkTimer  int      `json:"walk_timer"`  // Remaining WALK ticks (pedestrian mode)
	PhaseTimer int      `json:"phase_timer"` // Ticks spent in the current car phase (fixed mode)
}

// initialState is GREEN / DONT_WALK with no override and no timers running.
var initialState = State{Car: Green, Pedestrian: DontWalk}

// Light is the stationary signal at the intersection. It sits on the grid as
// an occupant but never moves. Its transition is computed during the decide
// pass and applied at commit, so entities deciding in the same tick always
// see the phases committed at the end of the previous tick.
type Light struct {
	id     world.EntityID
	pos    world.Position
	timing Timing

	state   State
	pending State
	decided bool
}

// NewLight creates a light at the intersection in its initial state.
func NewLight(id world.EntityID, pos world.Position, timing Timing) *Light {
	return &Light{
		id:     id,
		pos:    pos,
		timing: timing,
		state:  initialState,
	}
}

func (l *Light) ID() world.EntityID       { return l.id }
func (l *Light) Kind() world.Kind         { return world.KindLight }
func (l *Light) Position() world.Position { return l.pos }
func (l *Light) Timing() Timing           { return l.timing }

// State returns the committed state.
func (l *Light) State() State { return l.state }

// CarPhase returns the committed vehicle phase.
func (l *Light) CarPhase() CarPhase { return l.state.Car }

// PedestrianPhase returns the committed pedestrian phase.
func (l *Light) PedestrianPhase() PedPhase { return l.state.Pedestrian }

// Override reports whether emergency override is engaged.
func (l *Light) Override() bool { return l.state.Override }

// Decide computes the next state from the committed one. override is the
// coordinator's flag as of tick start; g is read but never mutated.
func (l *Light) Decide(g *world.Grid, override bool) {
	l.pending = l.next(g, override)
	l.decided = true
}

// Commit applies the state computed by Decide. Without a preceding Decide it
// is a no-op.
func (l *Light) Commit() {
	if !l.decided {
		return
	}
	l.state = l.pending
	l.decided = false
}

func (l *Light) next(g *world.Grid, override bool) State {
	s := l.state

	// Rule 1: emergency override forces RED / DONT_WALK.
	if override || s.Override {
		return State{Car: Red, Pedestrian: DontWalk, Override: true}
	}

	nearby := l.pedestriansNearby(g)
	if l.timing.Mode == ModeFixed {
		return l.nextFixed(s, nearby)
	}

	// Rule 2: first detection starts a WALK countdown.
	if nearby && s.Pedestrian == DontWalk && s.WalkTimer == 0 {
		s.Pedestrian = Walk
		s.WalkTimer = l.timing.Walk * 2
	}

	// Rule 3: count down while WALK, holding cars at RED.
	if s.Pedestrian == Walk {
		s.Car = Red
		s.WalkTimer--
		if s.WalkTimer <= 0 {
			s.WalkTimer = 0
			s.Pedestrian = DontWalk
			s.Car = Green
		}
		return s
	}
	s.Car = Green
	s.WalkTimer = 0
	return s
}

func (l *Light) nextFixed(s State, nearby bool) State {
	s.PhaseTimer++
	switch s.Car {
	case Green:
		if s.PhaseTimer >= l.timing.Green {
			s.Car = Red
			s.PhaseTimer = 0
		}
	case Red:
		if s.PhaseTimer >= l.timing.Red {
			s.Car = Green
			s.PhaseTimer = 0
		}
	}
	s.WalkTimer = 0
	s.Pedestrian = DontWalk
	if s.Car == Red && nearby {
		s.Pedestrian = Walk
	}
	return s
}

// pedestriansNearby checks the crosswalk cells that exist on this grid.
func (l *Light) pedestriansNearby(g *world.Grid) bool {
	for _, p := range world.Crosswalk(l.pos) {
		if !g.InBounds(p) {
			continue
		}
		cell, err := g.Cell(p)
		if err != nil {
			continue
		}
		if cell.Has(world.KindPedestrian) {
			return true
		}
	}
	return false
}

// EngageOverride forces RED / DONT_WALK immediately and resets the timers.
func (l *Light) EngageOverride() {
	l.state = State{Car: Red, Pedestrian: DontWalk, Override: true}
	l.decided = false
}

// ReleaseOverride clears the override and returns the light to its initial
// GREEN / DONT_WALK state with timers reset. It does nothing when no
// override is engaged.
func (l *Light) ReleaseOverride() {
	if !l.state.Override {
		return
	}
	l.state = initialState
	l.decided = false
}
