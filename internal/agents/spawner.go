// Agent spawning: per-tick Bernoulli draws gate creation of each kind at its
// fixed entry cell, subject to the same blocking rule that kind moves by.
package agents

import (
	"fmt"
	"log/slog"

	"github.com/talgya/crossing-sim/internal/entropy"
	"github.com/talgya/crossing-sim/internal/signal"
	"github.com/talgya/crossing-sim/internal/world"
)

// Rates are the per-tick spawn probabilities for one tick.
type Rates struct {
	Car        float64
	Pedestrian float64
	Emergency  float64
}

// Spawner creates agents with sequential ids.
type Spawner struct {
	rng    entropy.Source
	nextID world.EntityID
}

// NewSpawner creates a spawner drawing from src. Ids start at 1.
func NewSpawner(src entropy.Source) *Spawner {
	return &Spawner{
		rng:    src,
		nextID: 1,
	}
}

// NextID issues a fresh entity id.
func (s *Spawner) NextID() world.EntityID {
	id := s.nextID
	s.nextID++
	return id
}

// Spawn runs one spawn phase: car, then pedestrian, then emergency vehicle.
// Every draw is taken whether or not the entry cell is free, so the random
// sequence does not depend on traffic. New agents are already placed on g;
// new emergency vehicles are already registered with coord.
func (s *Spawner) Spawn(g *world.Grid, coord *signal.Coordinator, intersection world.Position, tick uint64, rates Rates) ([]Agent, error) {
	var spawned []Agent

	if entropy.Bernoulli(s.rng, rates.Car) {
		entry := world.Position{X: 0, Y: intersection.Y}
		free, err := vacant(g, entry, world.KindCar)
		if err != nil {
			return spawned, err
		}
		if free {
			c, err := s.PlaceCar(g, entry, tick)
			if err != nil {
				return spawned, err
			}
			spawned = append(spawned, c)
		}
	}

	if entropy.Bernoulli(s.rng, rates.Pedestrian) {
		row := 0
		if s.rng.Float64() >= 0.5 {
			row = g.Height - 1
		}
		entry := world.Position{X: 0, Y: row}
		free, err := vacant(g, entry, world.KindCar, world.KindPedestrian)
		if err != nil {
			return spawned, err
		}
		if free {
			p, err := s.PlacePedestrian(g, entry, tick)
			if err != nil {
				return spawned, err
			}
			spawned = append(spawned, p)
		}
	}

	// The draw comes first so a running override does not shift the sequence.
	if entropy.Bernoulli(s.rng, rates.Emergency) && !coord.Active() {
		entry := world.Position{X: 0, Y: intersection.Y}
		free, err := vacant(g, entry, world.KindCar, world.KindPedestrian, world.KindEmergency)
		if err != nil {
			return spawned, err
		}
		if free {
			e, err := s.PlaceEmergency(g, coord, entry, tick)
			if err != nil {
				return spawned, err
			}
			spawned = append(spawned, e)
		}
	}

	return spawned, nil
}

// PlaceCar creates a car at pos without any vacancy check.
func (s *Spawner) PlaceCar(g *world.Grid, pos world.Position, tick uint64) (*Car, error) {
	c := NewCar(s.NextID(), pos, tick)
	if err := g.Place(c, pos); err != nil {
		return nil, fmt.Errorf("place car: %w", err)
	}
	slog.Debug("car spawned", "id", c.id, "pos", pos, "tick", tick)
	return c, nil
}

// PlacePedestrian creates a pedestrian at pos without any vacancy check.
func (s *Spawner) PlacePedestrian(g *world.Grid, pos world.Position, tick uint64) (*Pedestrian, error) {
	p := NewPedestrian(s.NextID(), pos, tick)
	if err := g.Place(p, pos); err != nil {
		return nil, fmt.Errorf("place pedestrian: %w", err)
	}
	slog.Debug("pedestrian spawned", "id", p.id, "pos", pos, "tick", tick)
	return p, nil
}

// PlaceEmergency creates an emergency vehicle at pos and activates its
// priority with coord.
func (s *Spawner) PlaceEmergency(g *world.Grid, coord *signal.Coordinator, pos world.Position, tick uint64) (*EmergencyVehicle, error) {
	e := NewEmergencyVehicle(s.NextID(), pos, tick)
	if err := g.Place(e, pos); err != nil {
		return nil, fmt.Errorf("place emergency vehicle: %w", err)
	}
	coord.Activate(e.id)
	slog.Debug("emergency vehicle spawned", "id", e.id, "pos", pos, "tick", tick)
	return e, nil
}

func vacant(g *world.Grid, p world.Position, blockers ...world.Kind) (bool, error) {
	cell, err := g.Cell(p)
	if err != nil {
		return false, err
	}
	return !cell.Has(blockers...), nil
}
