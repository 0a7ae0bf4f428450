package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/crossing-sim/internal/config"
)

func TestDemand_DisabledIsNil(t *testing.T) {
	assert.Nil(t, NewDemand(config.Demand{}, 1))
	assert.Nil(t, NewDemand(config.Demand{Amplitude: 0.5}, 1))

	var d *Demand
	assert.Equal(t, 1.0, d.Factor(42))
	assert.Equal(t, 0.3, d.Scale(0.3, 42))
}

func TestDemand_FactorBounds(t *testing.T) {
	d := NewDemand(config.Demand{Amplitude: 0.5, Period: 25}, 99)
	require.NotNil(t, d)

	varied := false
	first := d.Factor(1)
	for tick := uint64(1); tick <= 2000; tick++ {
		f := d.Factor(tick)
		require.GreaterOrEqual(t, f, 0.5, "tick %d", tick)
		require.LessOrEqual(t, f, 1.5, "tick %d", tick)
		if f != first {
			varied = true
		}
	}
	assert.True(t, varied)
}

func TestDemand_NeverNegative(t *testing.T) {
	d := NewDemand(config.Demand{Amplitude: 3, Period: 10}, 5)
	for tick := uint64(0); tick < 1000; tick++ {
		require.GreaterOrEqual(t, d.Factor(tick), 0.0)
		require.GreaterOrEqual(t, d.Scale(0.2, tick), 0.0)
	}
}

func TestDemand_SameSeedSameProfile(t *testing.T) {
	cfg := config.Demand{Amplitude: 0.8, Period: 30}
	a := NewDemand(cfg, 7)
	b := NewDemand(cfg, 7)
	for tick := uint64(0); tick < 500; tick++ {
		require.Equal(t, a.Factor(tick), b.Factor(tick))
	}
}
