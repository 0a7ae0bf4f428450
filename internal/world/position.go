// Package world provides the bounded occupancy grid and its coordinates.
// The grid is one-way: traffic enters at column 0 and leaves past width-1.
package world

import "fmt"

// Position is a cell on the grid. X grows along the direction of travel,
// Y is the row.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the position offset by (dx, dy).
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// String renders the position as (x,y).
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Crosswalk returns the intersection cell and its two row neighbors, in
// ascending row order. Cells may fall outside the grid on short grids;
// callers filter with InBounds.
func Crosswalk(intersection Position) [3]Position {
	return [3]Position{
		intersection.Add(0, -1),
		intersection,
		intersection.Add(0, 1),
	}
}
