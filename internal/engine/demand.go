// Demand profile: smooth simplex noise over time scales every spawn rate,
// giving rush and lull periods that are reproducible from the run seed.
package engine

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/crossing-sim/internal/config"
)

// Demand scales spawn probabilities by a noise-driven factor in
// [1-amplitude, 1+amplitude], clamped at zero. A nil Demand leaves rates
// unchanged.
type Demand struct {
	noise     opensimplex.Noise
	amplitude float64
	period    float64
}

// NewDemand returns nil when the profile is disabled.
func NewDemand(cfg config.Demand, seed int64) *Demand {
	if cfg.Amplitude <= 0 || cfg.Period <= 0 {
		return nil
	}
	return &Demand{
		noise:     opensimplex.NewNormalized(seed),
		amplitude: cfg.Amplitude,
		period:    cfg.Period,
	}
}

// Factor returns the multiplier applied at tick.
func (d *Demand) Factor(tick uint64) float64 {
	if d == nil {
		return 1
	}
	n := d.noise.Eval2(float64(tick)/d.period, 0) // [0, 1)
	f := 1 + d.amplitude*(2*n-1)
	if f < 0 {
		return 0
	}
	return f
}

// Scale applies the tick's factor to p.
func (d *Demand) Scale(p float64, tick uint64) float64 {
	if d == nil {
		return p
	}
	return p * d.Factor(tick)
}
