package world

// EntityID is a unique identifier for anything placed on the grid.
type EntityID uint64

// Kind discriminates grid occupants.
type Kind uint8

const (
	KindLight      Kind = iota // The traffic light, fixed at the intersection
	KindCar                    // Ordinary vehicle
	KindPedestrian             // Walker crossing at the intersection column
	KindEmergency              // Emergency vehicle with right of way
)

var kindNames = [...]string{"light", "car", "pedestrian", "emergency"}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Occupant is anything that can sit in a grid cell.
type Occupant interface {
	ID() EntityID
	Kind() Kind
}

// Crosser is implemented by occupants that can be mid-crossing on the
// crosswalk. Only pedestrians report true.
type Crosser interface {
	Crossing() bool
}
