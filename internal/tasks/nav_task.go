package tasks

import (
	"context"

	"github.com/leodavilats/truckctl/internal/events"
	"github.com/leodavilats/truckctl/internal/pidctl"
	"github.com/leodavilats/truckctl/internal/state"
)

// NavTask runs at 20 Hz: the dual-PID navigation controller. It is the
// sole writer of actuator commands (via Dynamics.SetCommand).
type NavTask struct {
	rt *Runtime

	velocityPID *pidctl.Controller
	angularPID  *pidctl.Controller

	prevTheta    float64
	havePrevPose bool

	lastModeGen uint64

	lastVOut     float64
	lastOmegaOut float64
}

// NewNavTask constructs the navigation controller task with the two
// tuned PID instances.
func NewNavTask(rt *Runtime) *NavTask {
	lin := rt.Config.PIDLinear
	ang := rt.Config.PIDAngular
	return &NavTask{
		rt:          rt,
		velocityPID: pidctl.New(pidctl.Gains{Kp: lin.Kp, Ki: lin.Ki, Kd: lin.Kd}, -lin.Sat, lin.Sat),
		angularPID:  pidctl.New(pidctl.Gains{Kp: ang.Kp, Ki: ang.Ki, Kd: ang.Kd}, -ang.Sat, ang.Sat),
	}
}

// Tick snapshots the shared state, computes actuator commands, and
// publishes them to the dynamics model.
func (t *NavTask) Tick(dt float64) {
	snap := t.rt.Store.Snapshot()
	measuredOmega := t.measureOmega(snap.Position.Theta, dt)

	if gen := t.rt.Events.Generation(events.ModeChanged); gen != t.lastModeGen {
		t.lastModeGen = gen
		t.reinit(snap, measuredOmega, dt)
	}

	var vOut, omegaOut float64
	switch snap.Status {
	case state.StatusEmergency:
		// Still tick the PIDs with zero setpoint to keep their internal
		// state fresh, but never commit the integral update, and force
		// the actual actuator command to zero regardless of the PID
		// output.
		t.velocityPID.TickFrozen(0, snap.Velocity, dt)
		t.angularPID.TickFrozen(0, measuredOmega, dt)
		vOut, omegaOut = 0, 0
	case state.StatusStopped:
		// Keep PID state fresh against zero setpoint while stopped, but
		// the commanded output is still zero.
		t.velocityPID.Tick(0, snap.Velocity, dt)
		t.angularPID.Tick(0, measuredOmega, dt)
		vOut, omegaOut = 0, 0
	default: // RUNNING
		vOut = t.velocityPID.Tick(snap.SetpointVelocity, snap.Velocity, dt)
		omegaOut = t.angularPID.Tick(snap.SetpointAngular, measuredOmega, dt)
	}

	t.rt.Dynamics.SetCommand(vOut, omegaOut)
	t.lastVOut = vOut
	t.lastOmegaOut = omegaOut
}

// measureOmega derives the measured angular velocity from the filtered
// theta difference divided by dt.
func (t *NavTask) measureOmega(theta, dt float64) float64 {
	if !t.havePrevPose {
		t.prevTheta = theta
		t.havePrevPose = true
		return 0
	}
	diff := state.WrapAngle(theta - t.prevTheta)
	t.prevTheta = theta
	if dt <= 0 {
		return 0
	}
	return diff / dt
}

// reinit performs a bumpless-transfer seed when a mode change has been
// signaled: both PIDs are reseeded so their next output matches the
// last output produced before the switch, given the current setpoint
// and measurement. measuredOmega must be the same value the following
// Tick will use, and dt must match the dt that Tick will pass.
func (t *NavTask) reinit(snap state.VehicleState, measuredOmega, dt float64) {
	t.velocityPID.Reinit(t.lastVOut, snap.SetpointVelocity, snap.Velocity, dt)
	t.angularPID.Reinit(t.lastOmegaOut, snap.SetpointAngular, measuredOmega, dt)
}

// LastOutput exposes the most recent (v_cmd, omega_cmd), for tests
// asserting bumplessness and the emergency-zero invariant.
func (t *NavTask) LastOutput() (float64, float64) {
	return t.lastVOut, t.lastOmegaOut
}

// Run loops Tick at the configured navigation period until ctx is
// done.
func (t *NavTask) Run(ctx context.Context) {
	period := t.rt.Config.PeriodNav
	dt := period.Seconds()
	runLoop(ctx, period, func() {
		t.Tick(dt)
	})
}
