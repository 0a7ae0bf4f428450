// Simulation ties together the grid, the light, the emergency coordinator,
// and the live agents, and advances them one tick at a time.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/crossing-sim/internal/agents"
	"github.com/talgya/crossing-sim/internal/config"
	"github.com/talgya/crossing-sim/internal/entropy"
	"github.com/talgya/crossing-sim/internal/signal"
	"github.com/talgya/crossing-sim/internal/world"
)

// Simulation holds the complete intersection state. The engine is its only
// writer; readers use the accessors between ticks.
type Simulation struct {
	Grid         *world.Grid
	Light        *signal.Light
	Coordinator  *signal.Coordinator
	Spawner      *agents.Spawner
	Agents       []agents.Agent // Live agents in creation order
	Intersection world.Position
	LastTick     uint64 // Most recent tick processed

	// Collector, when set, receives a metrics sample after every tick.
	Collector *Collector

	cfg    config.Config
	seed   int64
	demand *Demand
	stats  Counters
}

// Counters are the cumulative exit tallies of a run.
type Counters struct {
	CarsPassed         int    `json:"cars_passed"`
	TotalTravelTime    uint64 `json:"total_travel_time"`
	PedestriansCrossed int    `json:"pedestrians_crossed"`
	TotalCrossingTime  uint64 `json:"total_crossing_time"`
	EmergenciesCleared int    `json:"emergencies_cleared"`
}

// New builds a simulation from cfg. A zero cfg.Seed picks a random seed;
// the seed actually used is available from Seed.
func New(cfg config.Config) (*Simulation, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.RandomSeed()
	}
	return NewWithSource(cfg, entropy.NewSeeded(seed), seed)
}

// NewWithSource builds a simulation that draws spawn decisions from src.
// seed only feeds the demand profile and is reported by Seed.
func NewWithSource(cfg config.Config, src entropy.Source, seed int64) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timing, err := cfg.Timing()
	if err != nil {
		return nil, err
	}

	grid := world.NewGrid(cfg.Width, cfg.Height)
	spawner := agents.NewSpawner(src)
	cross := cfg.IntersectionPos()

	light := signal.NewLight(spawner.NextID(), cross, timing)
	if err := grid.Place(light, cross); err != nil {
		return nil, fmt.Errorf("place light: %w", err)
	}

	sim := &Simulation{
		Grid:         grid,
		Light:        light,
		Coordinator:  signal.NewCoordinator(light),
		Spawner:      spawner,
		Intersection: cross,
		cfg:          cfg,
		seed:         seed,
		demand:       NewDemand(cfg.Demand, seed),
	}
	return sim, nil
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() config.Config {
	return s.cfg
}

// Seed returns the seed driving the run.
func (s *Simulation) Seed() int64 {
	return s.seed
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	return s.LastTick
}

// Counters returns the cumulative exit tallies.
func (s *Simulation) Counters() Counters {
	return s.stats
}

// Step advances the simulation by one tick. An error here means an agent
// addressed a cell off the grid, which the decision rules never do; the
// run cannot continue consistently, so Step panics.
func (s *Simulation) Step() {
	if err := s.step(); err != nil {
		panic(err)
	}
}

func (s *Simulation) step() error {
	s.LastTick++
	tick := s.LastTick

	// Snapshot the registry so spawns and removals cannot leak into this tick.
	live := make([]agents.Agent, len(s.Agents))
	copy(live, s.Agents)

	// Decide: everything reads state committed at the end of the last tick.
	override := s.Coordinator.Active()
	env := &agents.Env{
		Grid:         s.Grid,
		Light:        s.Light.State(),
		Override:     override,
		Intersection: s.Intersection,
		Tick:         tick,
	}
	s.Light.Decide(s.Grid, override)
	for _, a := range live {
		if err := a.Decide(env); err != nil {
			return fmt.Errorf("tick %d: decide %s %d: %w", tick, a.Kind(), a.ID(), err)
		}
	}

	// Commit.
	s.Light.Commit()
	survivors := s.Agents[:0]
	for _, a := range live {
		d := a.Pending()
		if d.Exit {
			if err := s.Grid.Remove(a); err != nil {
				return fmt.Errorf("tick %d: remove %s %d: %w", tick, a.Kind(), a.ID(), err)
			}
			s.recordExit(a, tick)
			if d.Release {
				s.Coordinator.Deactivate(a.ID())
			}
			continue
		}
		if d.Next != a.Position() {
			if err := s.Grid.Move(a, d.Next); err != nil {
				return fmt.Errorf("tick %d: move %s %d: %w", tick, a.Kind(), a.ID(), err)
			}
		}
		a.Commit()
		if d.Release {
			s.Coordinator.Deactivate(a.ID())
		}
		survivors = append(survivors, a)
	}
	clear(s.Agents[len(survivors):])
	s.Agents = survivors

	// Spawn.
	spawned, err := s.Spawner.Spawn(s.Grid, s.Coordinator, s.Intersection, tick, s.rates(tick))
	s.Agents = append(s.Agents, spawned...)
	if err != nil {
		return fmt.Errorf("tick %d: spawn: %w", tick, err)
	}

	if s.Collector != nil {
		s.Collector.Collect(tick, s.Metrics())
	}
	return nil
}

func (s *Simulation) rates(tick uint64) agents.Rates {
	return agents.Rates{
		Car:        s.demand.Scale(s.cfg.CarSpawnRate, tick),
		Pedestrian: s.demand.Scale(s.cfg.PedestrianSpawnRate, tick),
		Emergency:  s.demand.Scale(s.cfg.EmergencySpawnRate, tick),
	}
}

func (s *Simulation) recordExit(a agents.Agent, tick uint64) {
	elapsed := tick - a.SpawnTick()
	switch a.Kind() {
	case world.KindCar:
		s.stats.CarsPassed++
		s.stats.TotalTravelTime += elapsed
	case world.KindPedestrian:
		s.stats.PedestriansCrossed++
		s.stats.TotalCrossingTime += elapsed
	case world.KindEmergency:
		s.stats.EmergenciesCleared++
		slog.Debug("emergency cleared", "id", a.ID(), "tick", tick, "elapsed", elapsed)
	}
}
