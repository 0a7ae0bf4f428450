package world

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned for any operation addressing a cell outside the grid.
	ErrOutOfBounds = errors.New("position out of bounds")
	// ErrUnknownOccupant is returned when moving or removing something not on the grid.
	ErrUnknownOccupant = errors.New("occupant not on grid")
	// ErrAlreadyPlaced is returned when placing an occupant that is already on the grid.
	ErrAlreadyPlaced = errors.New("occupant already placed")
)

// Grid is a bounded, non-wrapping 2D occupancy grid. Each cell holds an
// unordered multiset of occupants; there is no per-cell capacity.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	cells [][]Occupant           // Row-major, index y*Width + x
	where map[EntityID]Position // Reverse index for Move/Remove
}

// NewGrid creates an empty grid. Dimensions are validated by the caller's
// configuration; non-positive values yield an unusable zero-cell grid.
func NewGrid(width, height int) *Grid {
	n := 0
	if width > 0 && height > 0 {
		n = width * height
	}
	return &Grid{
		Width:  width,
		Height: height,
		cells:  make([][]Occupant, n),
		where:  make(map[EntityID]Position),
	}
}

// InBounds reports whether p addresses a cell of the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

func (g *Grid) index(p Position) (int, error) {
	if !g.InBounds(p) {
		return 0, fmt.Errorf("%w: %v on %dx%d grid", ErrOutOfBounds, p, g.Width, g.Height)
	}
	return p.Y*g.Width + p.X, nil
}

// Cell returns the occupants of p.
func (g *Grid) Cell(p Position) (Cell, error) {
	i, err := g.index(p)
	if err != nil {
		return Cell{}, err
	}
	return Cell{Pos: p, occupants: g.cells[i]}, nil
}

// Place puts o on the grid at p.
func (g *Grid) Place(o Occupant, p Position) error {
	i, err := g.index(p)
	if err != nil {
		return err
	}
	if _, ok := g.where[o.ID()]; ok {
		return fmt.Errorf("%w: %s %d", ErrAlreadyPlaced, o.Kind(), o.ID())
	}
	g.cells[i] = append(g.cells[i], o)
	g.where[o.ID()] = p
	return nil
}

// Move relocates o to the given position. The target is validated before
// anything is removed, so a failed move leaves the grid unchanged.
func (g *Grid) Move(o Occupant, to Position) error {
	from, ok := g.where[o.ID()]
	if !ok {
		return fmt.Errorf("%w: %s %d", ErrUnknownOccupant, o.Kind(), o.ID())
	}
	dst, err := g.index(to)
	if err != nil {
		return err
	}
	src, _ := g.index(from)
	g.cells[src] = removeOccupant(g.cells[src], o.ID())
	g.cells[dst] = append(g.cells[dst], o)
	g.where[o.ID()] = to
	return nil
}

// Remove takes o off the grid.
func (g *Grid) Remove(o Occupant) error {
	at, ok := g.where[o.ID()]
	if !ok {
		return fmt.Errorf("%w: %s %d", ErrUnknownOccupant, o.Kind(), o.ID())
	}
	i, _ := g.index(at)
	g.cells[i] = removeOccupant(g.cells[i], o.ID())
	delete(g.where, o.ID())
	return nil
}

// PositionOf returns where the occupant with the given id sits.
func (g *Grid) PositionOf(id EntityID) (Position, bool) {
	p, ok := g.where[id]
	return p, ok
}

// Len returns the number of occupants on the grid.
func (g *Grid) Len() int {
	return len(g.where)
}

func removeOccupant(list []Occupant, id EntityID) []Occupant {
	for i, o := range list {
		if o.ID() == id {
			last := len(list) - 1
			list[i] = list[last]
			list[last] = nil
			return list[:last]
		}
	}
	return list
}

// Cell is a read-only view of one grid cell. It is only valid until the
// grid is next mutated.
type Cell struct {
	Pos       Position
	occupants []Occupant
}

// Len returns the number of occupants.
func (c Cell) Len() int {
	return len(c.occupants)
}

// Occupants returns a copy of the cell contents.
func (c Cell) Occupants() []Occupant {
	out := make([]Occupant, len(c.occupants))
	copy(out, c.occupants)
	return out
}

// Has reports whether any occupant is of one of the given kinds.
func (c Cell) Has(kinds ...Kind) bool {
	for _, o := range c.occupants {
		for _, k := range kinds {
			if o.Kind() == k {
				return true
			}
		}
	}
	return false
}

// HasOther is Has but ignores the occupant with the given id.
func (c Cell) HasOther(self EntityID, kinds ...Kind) bool {
	for _, o := range c.occupants {
		if o.ID() == self {
			continue
		}
		for _, k := range kinds {
			if o.Kind() == k {
				return true
			}
		}
	}
	return false
}

// Count returns how many occupants are of kind k.
func (c Cell) Count(k Kind) int {
	n := 0
	for _, o := range c.occupants {
		if o.Kind() == k {
			n++
		}
	}
	return n
}

// AnyCrossing reports whether a pedestrian in this cell is mid-crossing.
func (c Cell) AnyCrossing() bool {
	for _, o := range c.occupants {
		if o.Kind() != KindPedestrian {
			continue
		}
		if cr, ok := o.(Crosser); ok && cr.Crossing() {
			return true
		}
	}
	return false
}
