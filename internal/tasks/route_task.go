package tasks

import (
	"context"
	"math"

	"github.com/leodavilats/truckctl/internal/state"
)

// RouteTask runs at 2 Hz: the waypoint sequencer. Active only while
// mode is AUTOMATIC_REMOTE; it is the sole writer of setpoint_* and
// current_waypoint_index while active.
type RouteTask struct {
	rt *Runtime
}

// NewRouteTask constructs the route planner task.
func NewRouteTask(rt *Runtime) *RouteTask {
	return &RouteTask{rt: rt}
}

// Tick advances the active route toward the current waypoint, if any.
func (t *RouteTask) Tick() {
	snap := t.rt.Store.Snapshot()
	if snap.Mode != state.ModeAutomaticRemote {
		return
	}
	if snap.CurrentWaypointIndex >= len(snap.Route) {
		return
	}

	target := snap.Route[snap.CurrentWaypointIndex]
	dx := target.X - snap.Position.X
	dy := target.Y - snap.Position.Y
	distance := math.Hypot(dx, dy)
	heading := math.Atan2(dy, dx)
	headingError := state.WrapAngle(heading - snap.Position.Theta)

	cruise := t.rt.Config.CruiseVelocity
	speedFactor := math.Cos(headingError)
	speedFactor *= speedFactor
	if math.Abs(headingError) >= math.Pi/2 {
		speedFactor = 0
	}

	accept := t.rt.Config.WaypointAccept

	t.rt.Store.Update(func(s *state.VehicleState) {
		// Re-check under lock: mode/route may have changed between
		// snapshot and now.
		if s.Mode != state.ModeAutomaticRemote || s.CurrentWaypointIndex != snap.CurrentWaypointIndex {
			return
		}
		s.SetpointAngular = headingError
		s.SetpointVelocity = cruise * speedFactor

		if distance <= accept {
			s.CurrentWaypointIndex++
			if s.CurrentWaypointIndex >= len(s.Route) {
				s.SetpointVelocity = 0
				s.SetpointAngular = 0
				s.LastEvent = "route complete"
			}
		}
	})
}

// Run loops Tick at the configured route period until ctx is done.
func (t *RouteTask) Run(ctx context.Context) {
	period := t.rt.Config.PeriodRoute
	runLoop(ctx, period, t.Tick)
}
