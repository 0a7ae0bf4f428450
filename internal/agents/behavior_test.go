package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/crossing-sim/internal/signal"
	"github.com/talgya/crossing-sim/internal/world"
)

var cross = world.Position{X: 5, Y: 1}

type fixture struct {
	t    *testing.T
	grid *world.Grid
	env  *Env
	next world.EntityID
}

func newFixture(t *testing.T) *fixture {
	g := world.NewGrid(10, 3)
	light := signal.NewLight(100, cross, signal.Timing{Walk: 5})
	require.NoError(t, g.Place(light, cross))
	return &fixture{
		t:    t,
		grid: g,
		env: &Env{
			Grid:         g,
			Light:        signal.State{Car: signal.Green, Pedestrian: signal.DontWalk},
			Intersection: cross,
			Tick:         1,
		},
		next: 1,
	}
}

func (f *fixture) id() world.EntityID {
	id := f.next
	f.next++
	return id
}

func (f *fixture) car(x, y int) *Car {
	c := NewCar(f.id(), world.Position{X: x, Y: y}, 0)
	require.NoError(f.t, f.grid.Place(c, c.pos))
	return c
}

func (f *fixture) ped(x, y int) *Pedestrian {
	p := NewPedestrian(f.id(), world.Position{X: x, Y: y}, 0)
	require.NoError(f.t, f.grid.Place(p, p.pos))
	return p
}

func (f *fixture) ev(x, y int) *EmergencyVehicle {
	e := NewEmergencyVehicle(f.id(), world.Position{X: x, Y: y}, 0)
	require.NoError(f.t, f.grid.Place(e, e.pos))
	return e
}

func (f *fixture) decide(a Agent) Decision {
	require.NoError(f.t, a.Decide(f.env))
	return a.Pending()
}

// apply mirrors the engine's commit for a single surviving agent.
func (f *fixture) apply(a Agent) {
	d := a.Pending()
	if d.Next != a.Position() {
		require.NoError(f.t, f.grid.Move(a, d.Next))
	}
	a.Commit()
}

func pos(x, y int) world.Position { return world.Position{X: x, Y: y} }

func TestCar_AdvancesIntoEmptyCell(t *testing.T) {
	f := newFixture(t)
	c := f.car(1, 1)
	assert.Equal(t, Decision{Next: pos(2, 1)}, f.decide(c))
	f.apply(c)
	assert.Equal(t, pos(2, 1), c.Position())
	assert.Zero(t, c.Waiting())
}

func TestCar_BlockedByCarOrPedestrian(t *testing.T) {
	f := newFixture(t)
	c := f.car(1, 1)
	f.car(2, 1)
	assert.Equal(t, pos(1, 1), f.decide(c).Next)
	f.apply(c)
	f.decide(c)
	f.apply(c)
	assert.Equal(t, 2, c.Waiting())

	f = newFixture(t)
	c = f.car(1, 1)
	f.ped(2, 1)
	assert.Equal(t, pos(1, 1), f.decide(c).Next)
}

func TestCar_NotBlockedByEmergencyVehicle(t *testing.T) {
	f := newFixture(t)
	c := f.car(1, 1)
	f.ev(2, 1)
	assert.Equal(t, pos(2, 1), f.decide(c).Next)
}

func TestCar_IntersectionNeedsGreen(t *testing.T) {
	f := newFixture(t)
	c := f.car(4, 1)
	// The light itself sits on the intersection cell and never blocks.
	assert.Equal(t, cross, f.decide(c).Next)

	f.env.Light.Car = signal.Red
	assert.Equal(t, pos(4, 1), f.decide(c).Next)
}

func TestCar_IntersectionOccupied(t *testing.T) {
	f := newFixture(t)
	c := f.car(4, 1)
	f.ped(5, 1)
	assert.Equal(t, pos(4, 1), f.decide(c).Next)
}

func TestCar_YieldsToCrossingPedestrian(t *testing.T) {
	for _, row := range []int{0, 1, 2} {
		f := newFixture(t)
		c := f.car(3, 1)
		p := f.ped(5, row)

		// Standing on the crosswalk without crossing does not hold the car.
		assert.Equal(t, pos(4, 1), f.decide(c).Next, "row %d", row)

		p.crossing = true
		assert.Equal(t, pos(3, 1), f.decide(c).Next, "row %d", row)

		// Regardless of the light.
		f.env.Light.Car = signal.Red
		assert.Equal(t, pos(3, 1), f.decide(c).Next, "row %d", row)
	}
}

func TestCar_CrossingPedestrianIgnoredElsewhere(t *testing.T) {
	f := newFixture(t)
	c := f.car(1, 1)
	p := f.ped(5, 0)
	p.crossing = true
	assert.Equal(t, pos(2, 1), f.decide(c).Next)
}

func TestCar_FreezesUpstreamDuringOverride(t *testing.T) {
	f := newFixture(t)
	f.env.Override = true
	up := f.car(1, 1)
	at := f.car(5, 1)
	past := f.car(7, 1)

	assert.Equal(t, pos(1, 1), f.decide(up).Next)
	assert.Equal(t, pos(6, 1), f.decide(at).Next)
	assert.Equal(t, pos(8, 1), f.decide(past).Next)

	f.apply(up)
	assert.Equal(t, 1, up.Waiting())
}

func TestCar_ExitsAtEdge(t *testing.T) {
	f := newFixture(t)
	c := f.car(9, 1)
	d := f.decide(c)
	assert.True(t, d.Exit)
	assert.Equal(t, pos(9, 1), d.Next)
}

func TestPedestrian_TargetRowFixedAtFirstDecision(t *testing.T) {
	f := newFixture(t)
	top := f.ped(0, 0)
	bottom := f.ped(0, 2)

	_, ok := top.TargetRow()
	assert.False(t, ok)

	f.decide(top)
	f.decide(bottom)
	row, ok := top.TargetRow()
	require.True(t, ok)
	assert.Equal(t, 2, row)
	row, _ = bottom.TargetRow()
	assert.Equal(t, 0, row)

	// Moving does not change it.
	f.apply(top)
	f.decide(top)
	row, _ = top.TargetRow()
	assert.Equal(t, 2, row)
}

func TestPedestrian_UpstreamBlocking(t *testing.T) {
	f := newFixture(t)
	p := f.ped(1, 0)
	assert.Equal(t, pos(2, 0), f.decide(p).Next)

	f.car(2, 0)
	assert.Equal(t, pos(1, 0), f.decide(p).Next)

	f = newFixture(t)
	p = f.ped(1, 0)
	f.ped(2, 0)
	assert.Equal(t, pos(1, 0), f.decide(p).Next)
	f.apply(p)
	assert.Equal(t, 1, p.Waiting())
}

func TestPedestrian_WaitsForWalk(t *testing.T) {
	f := newFixture(t)
	p := f.ped(5, 0)
	d := f.decide(p)
	assert.Equal(t, pos(5, 0), d.Next)
	assert.False(t, d.Crossing)
}

func TestPedestrian_CrossesOnWalk(t *testing.T) {
	f := newFixture(t)
	f.env.Light.Pedestrian = signal.Walk
	p := f.ped(5, 0)

	d := f.decide(p)
	assert.Equal(t, Decision{Next: pos(5, 1), Crossing: true}, d)
	f.apply(p)
	assert.True(t, p.Crossing())
	assert.Zero(t, p.Waiting())

	// Reaching the target row ends the crossing.
	f.decide(p)
	f.apply(p)
	assert.Equal(t, pos(5, 2), p.Position())
	assert.False(t, p.Crossing())

	// Then it walks off horizontally.
	d = f.decide(p)
	assert.Equal(t, Decision{Next: pos(6, 2)}, d)
}

func TestPedestrian_CrossingUpward(t *testing.T) {
	f := newFixture(t)
	f.env.Light.Pedestrian = signal.Walk
	p := f.ped(5, 2)
	assert.Equal(t, pos(5, 1), f.decide(p).Next)
}

func TestPedestrian_VerticalBlockedOnlyByPedestrians(t *testing.T) {
	f := newFixture(t)
	f.env.Light.Pedestrian = signal.Walk
	p := f.ped(5, 0)
	// Cars in the intersection do not hold a crossing pedestrian.
	f.car(5, 1)
	assert.Equal(t, pos(5, 1), f.decide(p).Next)

	f.ped(5, 1)
	d := f.decide(p)
	assert.Equal(t, pos(5, 0), d.Next)
}

func TestPedestrian_BlockedMidCrossingKeepsFlag(t *testing.T) {
	f := newFixture(t)
	f.env.Light.Pedestrian = signal.Walk
	p := f.ped(5, 0)
	f.decide(p)
	f.apply(p)
	require.True(t, p.Crossing())

	f.ped(5, 2)
	d := f.decide(p)
	assert.Equal(t, pos(5, 1), d.Next)
	assert.True(t, d.Crossing)
	f.apply(p)
	assert.True(t, p.Crossing())
	assert.Equal(t, 1, p.Waiting())
}

func TestPedestrian_WalkOffBlockedOnlyByCars(t *testing.T) {
	f := newFixture(t)
	f.env.Light.Pedestrian = signal.Walk
	p := f.ped(5, 2)
	p.targetRow, p.hasTarget = 2, true

	f.ped(6, 2)
	assert.Equal(t, pos(6, 2), f.decide(p).Next)

	f.car(6, 2)
	assert.Equal(t, pos(5, 2), f.decide(p).Next)
}

func TestPedestrian_DownstreamAndExit(t *testing.T) {
	f := newFixture(t)
	p := f.ped(8, 2)
	p.targetRow, p.hasTarget = 2, true
	assert.Equal(t, pos(9, 2), f.decide(p).Next)
	f.apply(p)

	d := f.decide(p)
	assert.True(t, d.Exit)
}

func TestPedestrian_FreezesOnColumnDuringOverride(t *testing.T) {
	f := newFixture(t)
	f.env.Override = true
	f.env.Light.Pedestrian = signal.Walk
	on := f.ped(5, 0)
	on.crossing = true
	off := f.ped(2, 0)

	d := f.decide(on)
	assert.Equal(t, pos(5, 0), d.Next)
	assert.False(t, d.Crossing)
	assert.Equal(t, pos(3, 0), f.decide(off).Next)
}

func TestEmergency_IgnoresTraffic(t *testing.T) {
	f := newFixture(t)
	f.env.Light.Car = signal.Red
	e := f.ev(4, 1)
	f.car(5, 1)
	f.ped(5, 1)
	d := f.decide(e)
	assert.Equal(t, cross, d.Next)
	assert.False(t, d.Release)
}

func TestEmergency_BlockedByEmergency(t *testing.T) {
	f := newFixture(t)
	e := f.ev(2, 1)
	f.ev(3, 1)
	assert.Equal(t, pos(2, 1), f.decide(e).Next)
}

func TestEmergency_ReleasesPastIntersection(t *testing.T) {
	f := newFixture(t)
	e := f.ev(5, 1)
	d := f.decide(e)
	assert.Equal(t, pos(6, 1), d.Next)
	assert.True(t, d.Release)
	f.apply(e)
	assert.False(t, e.PriorityActive())

	// Already released: no second release.
	assert.False(t, f.decide(e).Release)
}

func TestEmergency_ExitReleasesIfStillHolding(t *testing.T) {
	f := newFixture(t)
	e := f.ev(9, 1)
	d := f.decide(e)
	assert.True(t, d.Exit)
	assert.True(t, d.Release)

	e.priority = false
	assert.False(t, f.decide(e).Release)
}

func TestDecide_DoesNotMutateGrid(t *testing.T) {
	f := newFixture(t)
	f.env.Light.Pedestrian = signal.Walk
	list := []Agent{f.car(3, 1), f.ped(5, 0), f.ev(1, 1), f.car(9, 1)}
	before := map[world.EntityID]world.Position{}
	for _, a := range list {
		before[a.ID()], _ = f.grid.PositionOf(a.ID())
	}
	for _, a := range list {
		f.decide(a)
	}
	for _, a := range list {
		p, ok := f.grid.PositionOf(a.ID())
		require.True(t, ok)
		assert.Equal(t, before[a.ID()], p)
		assert.Equal(t, before[a.ID()], a.Position())
	}
}
