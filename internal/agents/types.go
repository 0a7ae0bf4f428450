// Package agents provides the moving entities of the intersection: cars,
// pedestrians, and emergency vehicles, their per-tick decision rules, and
// the spawner that creates them.
package agents

import (
	"github.com/talgya/crossing-sim/internal/signal"
	"github.com/talgya/crossing-sim/internal/world"
)

// Agent is a moving entity. Each tick the engine calls Decide on every live
// agent, then Commit on the survivors after the grid has been updated.
type Agent interface {
	world.Occupant
	Position() world.Position
	SpawnTick() uint64

	// Decide computes this tick's pending decision from committed state only.
	Decide(env *Env) error
	// Pending returns the decision computed by the last Decide.
	Pending() Decision
	// Commit applies the pending decision's bookkeeping. The engine has
	// already moved the agent on the grid.
	Commit()
}

// Env is the read-only view an agent decides against.
type Env struct {
	Grid         *world.Grid
	Light        signal.State // Committed at the end of the previous tick
	Override     bool         // Emergency override as of tick start
	Intersection world.Position
	Tick         uint64
}

// Decision is an agent's intent for the current tick.
type Decision struct {
	Next     world.Position // Equal to the current position for "stay"
	Exit     bool           // Leaves the grid this tick; removed at commit
	Crossing bool           // Pedestrians: crossing flag after this tick
	Release  bool           // Emergency: give up priority at commit
}

// body holds what every moving entity has.
type body struct {
	id        world.EntityID
	pos       world.Position
	spawnTick uint64
	pending   Decision
}

func (b *body) ID() world.EntityID       { return b.id }
func (b *body) Position() world.Position { return b.pos }
func (b *body) SpawnTick() uint64        { return b.spawnTick }
func (b *body) Pending() Decision        { return b.pending }

func (b *body) stay() Decision {
	return Decision{Next: b.pos}
}

// Car drives along its row toward the exit edge.
type Car struct {
	body
	waiting int
}

// NewCar creates a car at pos.
func NewCar(id world.EntityID, pos world.Position, tick uint64) *Car {
	c := &Car{body: body{id: id, pos: pos, spawnTick: tick}}
	c.pending = c.stay()
	return c
}

func (c *Car) Kind() world.Kind { return world.KindCar }

// Waiting returns consecutive ticks without a position change.
func (c *Car) Waiting() int { return c.waiting }

// Commit applies the pending move bookkeeping.
func (c *Car) Commit() {
	c.waiting = advance(&c.body, c.waiting)
}

// Pedestrian walks along an edge row to the intersection column, crosses
// to the opposite edge row on WALK, and leaves along that row.
type Pedestrian struct {
	body
	waiting   int
	targetRow int
	hasTarget bool
	crossing  bool
}

// NewPedestrian creates a pedestrian at pos. Its target row is fixed at
// its first decision.
func NewPedestrian(id world.EntityID, pos world.Position, tick uint64) *Pedestrian {
	p := &Pedestrian{body: body{id: id, pos: pos, spawnTick: tick}}
	p.pending = p.stay()
	return p
}

func (p *Pedestrian) Kind() world.Kind { return world.KindPedestrian }

// Waiting returns consecutive ticks without a position change.
func (p *Pedestrian) Waiting() int { return p.waiting }

// TargetRow returns the row the pedestrian is crossing to. ok is false
// before its first decision.
func (p *Pedestrian) TargetRow() (row int, ok bool) { return p.targetRow, p.hasTarget }

// Crossing reports whether the pedestrian is mid-crossing, as committed at
// the end of the previous tick.
func (p *Pedestrian) Crossing() bool { return p.crossing }

// Commit applies the pending move bookkeeping. The crossing flag only
// survives while the pedestrian is still short of its target row.
func (p *Pedestrian) Commit() {
	d := p.pending
	p.waiting = advance(&p.body, p.waiting)
	p.crossing = d.Crossing && p.pos.Y != p.targetRow
}

// EmergencyVehicle drives with unconditional right of way and holds signal
// priority until it passes the intersection.
type EmergencyVehicle struct {
	body
	priority bool
}

// NewEmergencyVehicle creates an emergency vehicle holding priority. The
// caller registers it with the coordinator.
func NewEmergencyVehicle(id world.EntityID, pos world.Position, tick uint64) *EmergencyVehicle {
	e := &EmergencyVehicle{
		body:     body{id: id, pos: pos, spawnTick: tick},
		priority: true,
	}
	e.pending = e.stay()
	return e
}

func (e *EmergencyVehicle) Kind() world.Kind { return world.KindEmergency }

// PriorityActive reports whether the vehicle still holds signal priority.
func (e *EmergencyVehicle) PriorityActive() bool { return e.priority }

// Commit applies the pending move and drops priority if released.
func (e *EmergencyVehicle) Commit() {
	d := e.pending
	e.pos = d.Next
	if d.Release {
		e.priority = false
	}
}

// advance moves b to its pending position and returns the new waiting count.
func advance(b *body, waiting int) int {
	next := b.pending.Next
	if next == b.pos {
		return waiting + 1
	}
	b.pos = next
	return 0
}
