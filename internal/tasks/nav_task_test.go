package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leodavilats/truckctl/internal/events"
	"github.com/leodavilats/truckctl/internal/state"
)

func TestEmergencyForcesZeroActuation(t *testing.T) {
	rt := newTestRuntime()
	rt.Store.Update(func(s *state.VehicleState) {
		s.Status = state.StatusEmergency
		s.SetpointVelocity = 8
		s.SetpointAngular = 2
		s.Velocity = 3
	})

	nav := NewNavTask(rt)
	nav.Tick(0.05)

	v, omega := nav.LastOutput()
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, omega)
}

func TestStoppedForcesZeroActuation(t *testing.T) {
	rt := newTestRuntime()
	rt.Store.Update(func(s *state.VehicleState) {
		s.Status = state.StatusStopped
		s.SetpointVelocity = 6
	})

	nav := NewNavTask(rt)
	nav.Tick(0.05)

	v, omega := nav.LastOutput()
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, omega)
}

func TestRunningTracksSetpointVelocity(t *testing.T) {
	rt := newTestRuntime()
	rt.Store.Update(func(s *state.VehicleState) {
		s.Status = state.StatusRunning
		s.SetpointVelocity = 4
	})

	nav := NewNavTask(rt)
	for i := 0; i < 50; i++ {
		nav.Tick(0.05)
	}

	v, _ := nav.LastOutput()
	assert.Greater(t, v, 0.0, "a positive velocity error should drive a positive command")
}

func TestModeChangeTriggersBumplessReinit(t *testing.T) {
	const dt = 0.05
	const trueOmega = 0.1 // steady nonzero turn rate, fed into Position.Theta like a real sensor

	rt := newTestRuntime()
	rt.Store.Update(func(s *state.VehicleState) {
		s.Status = state.StatusRunning
		s.Mode = state.ModeManualRemote
		s.SetpointVelocity = 5
		s.SetpointAngular = 0.4 // != trueOmega, so the angular loop sits on a nonzero, unsaturated error
	})

	nav := NewNavTask(rt)
	var theta float64
	for i := 0; i < 20; i++ {
		theta += trueOmega * dt
		rt.Store.Update(func(s *state.VehicleState) { s.Position.Theta = theta })
		nav.Tick(dt)
	}
	vBefore, omegaBefore := nav.LastOutput()
	require.NotEqual(t, 0.0, omegaBefore, "angular output must have settled on a nonzero command before the mode switch")

	rt.Store.Update(func(s *state.VehicleState) { s.Mode = state.ModeAutomaticRemote })
	rt.Events.Signal(events.ModeChanged)

	theta += trueOmega * dt
	rt.Store.Update(func(s *state.VehicleState) { s.Position.Theta = theta })
	nav.Tick(dt)
	vAfter, omegaAfter := nav.LastOutput()

	require.InDelta(t, vBefore, vAfter, 1e-6, "bumpless transfer must not step the commanded velocity")
	require.InDelta(t, omegaBefore, omegaAfter, 1e-6, "bumpless transfer must not step the commanded angular rate")
}
