package tasks

import (
	"context"
)

// SimulatorTask is the 20 Hz mine simulator: it owns no shared state
// beyond the dynamics model itself, which the navigation task commands
// and the sensor task samples.
type SimulatorTask struct {
	rt *Runtime
}

// NewSimulatorTask constructs the mine simulator task.
func NewSimulatorTask(rt *Runtime) *SimulatorTask {
	return &SimulatorTask{rt: rt}
}

// Tick advances the dynamics model by one period.
func (t *SimulatorTask) Tick(dt float64) {
	t.rt.Dynamics.Step(dt)
}

// Run loops Tick at the configured simulator period until ctx is done.
func (t *SimulatorTask) Run(ctx context.Context) {
	period := t.rt.Config.PeriodSim
	dt := period.Seconds()
	runLoop(ctx, period, func() {
		t.Tick(dt)
	})
}
