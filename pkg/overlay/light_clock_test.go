package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLightClockPhaseCycle(t *testing.T) {
	durations := PhaseDurations{Red: 2, Yellow: 1, Green: 3}
	modifiers := PhaseModifiers{Red: 50, Yellow: 10, Green: 0}

	clock, err := NewLightClock(durations, modifiers)
	assert.Nil(t, err)

	var phases []LightPhase
	clock.OnPhaseChange(func(p LightPhase) {
		phases = append(phases, p)
	})

	clock.Start()
	assert.Equal(t, PhaseRed, clock.Phase())
	assert.Equal(t, 2, clock.Remaining())
	assert.Equal(t, 50.0, clock.WeightModifier())

	clock.Tick()
	assert.Equal(t, PhaseRed, clock.Phase())
	assert.Equal(t, 1, clock.Remaining())

	clock.Tick()
	assert.Equal(t, PhaseYellow, clock.Phase())
	assert.Equal(t, 1, clock.Remaining())
	assert.Equal(t, 10.0, clock.WeightModifier())

	clock.Tick()
	assert.Equal(t, PhaseGreen, clock.Phase())
	assert.Equal(t, 3, clock.Remaining())
	assert.Equal(t, 0.0, clock.WeightModifier())

	clock.Tick()
	clock.Tick()
	clock.Tick()
	assert.Equal(t, PhaseRed, clock.Phase())
	assert.Equal(t, 2, clock.Remaining())

	assert.Equal(t, []LightPhase{PhaseYellow, PhaseGreen, PhaseRed}, phases)
}

func TestLightClockCountdownCallback(t *testing.T) {
	clock, err := NewLightClock(PhaseDurations{Red: 2, Yellow: 1, Green: 1}, PhaseModifiers{})
	assert.Nil(t, err)

	var countdown []int
	clock.OnCountdown(func(remaining int) {
		countdown = append(countdown, remaining)
	})

	clock.Start()
	clock.Tick() // red 1
	clock.Tick() // yellow 1
	clock.Tick() // green 1
	assert.Equal(t, []int{1, 1, 1}, countdown)
}

func TestLightClockStop(t *testing.T) {
	clock, err := NewLightClock(PhaseDurations{Red: 3, Yellow: 1, Green: 1}, PhaseModifiers{Red: 50})
	assert.Nil(t, err)

	clock.Start()
	clock.Tick()
	clock.Stop()
	assert.False(t, clock.Running())

	// ticks after stop change nothing, the modifier stays queryable
	clock.Tick()
	clock.Tick()
	assert.Equal(t, PhaseRed, clock.Phase())
	assert.Equal(t, 2, clock.Remaining())
	assert.Equal(t, 50.0, clock.WeightModifier())
}

func TestLightClockInvalidDurations(t *testing.T) {
	_, err := NewLightClock(PhaseDurations{Red: 0, Yellow: 1, Green: 1}, PhaseModifiers{})
	assert.NotNil(t, err)

	_, err = NewLightClock(PhaseDurations{Red: 1, Yellow: -2, Green: 1}, PhaseModifiers{})
	assert.NotNil(t, err)
}
