// Per-tick decision rules. Decide reads only committed state: the grid as it
// stood at tick start, the light's committed phases, and the override flag
// captured before the decide pass. Nothing here mutates the grid.
package agents

import (
	"github.com/talgya/crossing-sim/internal/signal"
	"github.com/talgya/crossing-sim/internal/world"
)

// Decide computes the car's move for this tick.
func (c *Car) Decide(env *Env) error {
	d, err := c.decide(env)
	if err != nil {
		return err
	}
	c.pending = d
	return nil
}

func (c *Car) decide(env *Env) (Decision, error) {
	cross := env.Intersection

	// Emergency freeze for cars short of the intersection.
	if env.Override && c.pos.X < cross.X {
		return c.stay(), nil
	}

	next := c.pos.Add(1, 0)
	if !env.Grid.InBounds(next) {
		return Decision{Next: c.pos, Exit: true}, nil
	}

	dst, err := env.Grid.Cell(next)
	if err != nil {
		return Decision{}, err
	}

	if next == cross {
		if env.Light.Car != signal.Green || dst.Has(world.KindCar, world.KindPedestrian) {
			return c.stay(), nil
		}
		return Decision{Next: next}, nil
	}

	// Yield to anyone mid-crossing before pulling up to the stop line.
	if next.X == cross.X-1 && next.Y == cross.Y {
		busy, err := crosswalkBusy(env)
		if err != nil {
			return Decision{}, err
		}
		if busy {
			return c.stay(), nil
		}
	}

	if dst.Has(world.KindCar, world.KindPedestrian) {
		return c.stay(), nil
	}
	return Decision{Next: next}, nil
}

// crosswalkBusy reports whether any pedestrian on the crosswalk is crossing.
func crosswalkBusy(env *Env) (bool, error) {
	for _, p := range world.Crosswalk(env.Intersection) {
		if !env.Grid.InBounds(p) {
			continue
		}
		cell, err := env.Grid.Cell(p)
		if err != nil {
			return false, err
		}
		if cell.AnyCrossing() {
			return true, nil
		}
	}
	return false, nil
}

// Decide computes the pedestrian's move for this tick.
func (p *Pedestrian) Decide(env *Env) error {
	if !p.hasTarget {
		p.targetRow = 0
		if p.pos.Y == 0 {
			p.targetRow = env.Grid.Height - 1
		}
		p.hasTarget = true
	}

	d, err := p.decide(env)
	if err != nil {
		return err
	}
	p.pending = d
	return nil
}

func (p *Pedestrian) decide(env *Env) (Decision, error) {
	col := env.Intersection.X
	hold := Decision{Next: p.pos, Crossing: p.crossing}

	// Emergency freeze for pedestrians on the crosswalk column.
	if env.Override && p.pos.X == col {
		return p.stay(), nil
	}

	switch {
	case p.pos.X < col:
		next := p.pos.Add(1, 0)
		dst, err := env.Grid.Cell(next)
		if err != nil {
			return Decision{}, err
		}
		if dst.Has(world.KindCar, world.KindPedestrian) {
			return hold, nil
		}
		return Decision{Next: next}, nil

	case p.pos.X == col:
		if env.Light.Pedestrian != signal.Walk {
			return p.stay(), nil
		}
		if p.pos.Y != p.targetRow {
			step := 1
			if p.pos.Y > p.targetRow {
				step = -1
			}
			next := p.pos.Add(0, step)
			dst, err := env.Grid.Cell(next)
			if err != nil {
				return Decision{}, err
			}
			if dst.HasOther(p.id, world.KindPedestrian) {
				return hold, nil
			}
			return Decision{Next: next, Crossing: true}, nil
		}
		return p.walkOff(env)

	default:
		return p.walkOff(env)
	}
}

// walkOff steps toward the exit edge, yielding only to cars.
func (p *Pedestrian) walkOff(env *Env) (Decision, error) {
	next := p.pos.Add(1, 0)
	if !env.Grid.InBounds(next) {
		return Decision{Next: p.pos, Exit: true}, nil
	}
	dst, err := env.Grid.Cell(next)
	if err != nil {
		return Decision{}, err
	}
	if dst.Has(world.KindCar) {
		return p.stay(), nil
	}
	return Decision{Next: next}, nil
}

// Decide computes the emergency vehicle's move for this tick. It ignores
// cars, pedestrians, and the light; only another emergency vehicle in the
// way holds it back.
func (e *EmergencyVehicle) Decide(env *Env) error {
	d, err := e.decide(env)
	if err != nil {
		return err
	}
	e.pending = d
	return nil
}

func (e *EmergencyVehicle) decide(env *Env) (Decision, error) {
	next := e.pos.Add(1, 0)
	if !env.Grid.InBounds(next) {
		return Decision{Next: e.pos, Exit: true, Release: e.priority}, nil
	}
	dst, err := env.Grid.Cell(next)
	if err != nil {
		return Decision{}, err
	}
	if dst.HasOther(e.id, world.KindEmergency) {
		return e.stay(), nil
	}
	return Decision{
		Next:    next,
		Release: e.priority && next.X > env.Intersection.X,
	}, nil
}
