package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngine_RunsToMaxTicks(t *testing.T) {
	eng := NewEngine()
	eng.MaxTicks = 25
	eng.ReportEvery = 10

	var ticks, reports []uint64
	eng.OnTick = func(tick uint64) { ticks = append(ticks, tick) }
	eng.OnReport = func(tick uint64) { reports = append(reports, tick) }

	eng.Run()
	assert.Len(t, ticks, 25)
	assert.Equal(t, uint64(1), ticks[0])
	assert.Equal(t, []uint64{10, 20}, reports)
	assert.Equal(t, uint64(25), eng.Tick)
	assert.False(t, eng.Running())
}

func TestEngine_StopFromCallback(t *testing.T) {
	eng := NewEngine()
	eng.OnTick = func(tick uint64) {
		if tick == 7 {
			eng.Stop()
		}
	}
	eng.Run()
	assert.Equal(t, uint64(7), eng.Tick)
}

func TestEngine_ResumesFromTick(t *testing.T) {
	eng := NewEngine()
	eng.MaxTicks = 3
	eng.Run()
	eng.MaxTicks = 5
	eng.Run()
	assert.Equal(t, uint64(5), eng.Tick)
}

func TestEngine_DrivesSimulation(t *testing.T) {
	cfg := quietConfig()
	cfg.CarSpawnRate = 1
	sim := newSim(t, cfg)

	eng := NewEngine()
	eng.MaxTicks = 12
	eng.OnTick = func(uint64) { sim.Step() }
	eng.Run()

	assert.Equal(t, eng.Tick, sim.CurrentTick())
	assert.NotEmpty(t, sim.Agents)
}
