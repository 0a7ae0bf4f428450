package engine

import (
	"github.com/talgya/crossing-sim/internal/agents"
	"github.com/talgya/crossing-sim/internal/signal"
	"github.com/talgya/crossing-sim/internal/world"
)

// QueueWindow is how many cells upstream of the intersection count toward
// the queue length.
const QueueWindow = 5

// Metrics is a point-in-time summary for external consumers.
type Metrics struct {
	CarsPassed         int     `json:"cars_passed"`
	AvgTravelTime      float64 `json:"avg_travel_time"`
	AvgCarWait         float64 `json:"avg_car_wait"`
	QueueLength        int     `json:"queue_length"`
	PedestriansCrossed int     `json:"pedestrians_crossed"`
	AvgPedestrianTime  float64 `json:"avg_pedestrian_time"`
	AvgPedestrianWait  float64 `json:"avg_pedestrian_wait"`
	EmergencyActive    bool    `json:"emergency_active"`
	EmergenciesCleared int     `json:"emergencies_cleared"`
}

// Metrics gathers every read accessor into one value.
func (s *Simulation) Metrics() Metrics {
	return Metrics{
		CarsPassed:         s.CarsPassed(),
		AvgTravelTime:      s.AvgTravelTime(),
		AvgCarWait:         s.AvgCarWait(),
		QueueLength:        s.QueueLength(),
		PedestriansCrossed: s.PedestriansCrossed(),
		AvgPedestrianTime:  s.AvgPedestrianTime(),
		AvgPedestrianWait:  s.AvgPedestrianWait(),
		EmergencyActive:    s.EmergencyActive(),
		EmergenciesCleared: s.EmergenciesCleared(),
	}
}

func (s *Simulation) CarsPassed() int         { return s.stats.CarsPassed }
func (s *Simulation) PedestriansCrossed() int { return s.stats.PedestriansCrossed }
func (s *Simulation) EmergenciesCleared() int { return s.stats.EmergenciesCleared }
func (s *Simulation) EmergencyActive() bool   { return s.Coordinator.Active() }

// AvgTravelTime is mean ticks from spawn to exit over cars that have left.
func (s *Simulation) AvgTravelTime() float64 {
	if s.stats.CarsPassed == 0 {
		return 0
	}
	return float64(s.stats.TotalTravelTime) / float64(s.stats.CarsPassed)
}

// AvgPedestrianTime is mean ticks from spawn to exit over pedestrians that
// have crossed.
func (s *Simulation) AvgPedestrianTime() float64 {
	if s.stats.PedestriansCrossed == 0 {
		return 0
	}
	return float64(s.stats.TotalCrossingTime) / float64(s.stats.PedestriansCrossed)
}

// AvgCarWait is the mean waiting-steps of live cars.
func (s *Simulation) AvgCarWait() float64 {
	total, n := 0, 0
	for _, a := range s.Agents {
		if c, ok := a.(*agents.Car); ok {
			total += c.Waiting()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// AvgPedestrianWait is the mean waiting-steps of live pedestrians.
func (s *Simulation) AvgPedestrianWait() float64 {
	total, n := 0, 0
	for _, a := range s.Agents {
		if p, ok := a.(*agents.Pedestrian); ok {
			total += p.Waiting()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// QueueLength counts cells holding a car in the QueueWindow cells upstream
// of the intersection on its row.
func (s *Simulation) QueueLength() int {
	count := 0
	for dx := 1; dx <= QueueWindow; dx++ {
		p := s.Intersection.Add(-dx, 0)
		if !s.Grid.InBounds(p) {
			break
		}
		cell, err := s.Grid.Cell(p)
		if err != nil {
			break
		}
		if cell.Has(world.KindCar) {
			count++
		}
	}
	return count
}

// LightState returns the committed signal state.
func (s *Simulation) LightState() signal.State {
	return s.Light.State()
}

// View is the per-entity state a renderer needs.
type View struct {
	ID       world.EntityID `json:"id"`
	Kind     string         `json:"kind"`
	Pos      world.Position `json:"pos"`
	Waiting  int            `json:"waiting"`
	Crossing bool           `json:"crossing,omitempty"`
	Priority bool           `json:"priority,omitempty"`
}

// Views lists the light followed by every live agent in creation order.
func (s *Simulation) Views() []View {
	views := make([]View, 0, len(s.Agents)+1)
	views = append(views, View{
		ID:   s.Light.ID(),
		Kind: world.KindLight.String(),
		Pos:  s.Light.Position(),
	})
	for _, a := range s.Agents {
		v := View{ID: a.ID(), Kind: a.Kind().String(), Pos: a.Position()}
		switch e := a.(type) {
		case *agents.Car:
			v.Waiting = e.Waiting()
		case *agents.Pedestrian:
			v.Waiting = e.Waiting()
			v.Crossing = e.Crossing()
		case *agents.EmergencyVehicle:
			v.Priority = e.PriorityActive()
		}
		views = append(views, v)
	}
	return views
}
