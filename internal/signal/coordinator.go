package signal

import (
	"log/slog"

	"github.com/talgya/crossing-sim/internal/world"
)

// Coordinator tracks which emergency vehicles currently hold priority and
// drives the light's override from that set. Override is engaged iff the
// set is non-empty.
type Coordinator struct {
	light  *Light
	active map[world.EntityID]struct{}
}

// NewCoordinator creates a coordinator for the given light.
func NewCoordinator(light *Light) *Coordinator {
	return &Coordinator{
		light:  light,
		active: make(map[world.EntityID]struct{}),
	}
}

// Activate registers id as a priority holder and engages the override.
// Repeated calls with the same id are harmless.
func (c *Coordinator) Activate(id world.EntityID) {
	if _, ok := c.active[id]; !ok {
		c.active[id] = struct{}{}
		slog.Debug("emergency priority activated", "id", id, "holders", len(c.active))
	}
	c.light.EngageOverride()
}

// Deactivate drops id from the holder set. The override is released only
// when the last holder leaves; unknown ids are ignored.
func (c *Coordinator) Deactivate(id world.EntityID) {
	if _, ok := c.active[id]; !ok {
		return
	}
	delete(c.active, id)
	slog.Debug("emergency priority released", "id", id, "holders", len(c.active))
	if len(c.active) == 0 {
		c.light.ReleaseOverride()
	}
}

// Active reports whether any emergency vehicle holds priority.
func (c *Coordinator) Active() bool {
	return len(c.active) > 0
}

// Count returns the number of priority holders.
func (c *Coordinator) Count() int {
	return len(c.active)
}

// Holds reports whether id is a priority holder.
func (c *Coordinator) Holds(id world.EntityID) bool {
	_, ok := c.active[id]
	return ok
}
