package tasks

import (
	"context"

	"github.com/leodavilats/truckctl/internal/events"
	"github.com/leodavilats/truckctl/internal/state"
)

// CommandTask runs at 10 Hz: it drains the command queue non-blocking
// and applies the status/mode transition table. It is the sole writer
// of VehicleState.Status/Mode.
type CommandTask struct {
	rt *Runtime
}

// NewCommandTask constructs the command-logic task.
func NewCommandTask(rt *Runtime) *CommandTask {
	return &CommandTask{rt: rt}
}

// Tick drains and applies every currently queued command.
func (t *CommandTask) Tick() {
	cmds := t.rt.Commands.DrainAll()
	for _, cmd := range cmds {
		t.apply(cmd)
	}
}

func (t *CommandTask) apply(cmd state.Command) {
	switch cmd.Kind {
	case state.CmdSetStatus:
		t.setStatus(cmd.Status)
	case state.CmdStop:
		t.setStatus(state.StatusStopped)
	case state.CmdEmergency:
		t.setStatus(state.StatusEmergency)
	case state.CmdReset:
		t.reset()
	case state.CmdSetMode:
		t.setMode(cmd.Mode)
	case state.CmdSetSetpointVelocity:
		t.rt.Store.Update(func(s *state.VehicleState) {
			v := cmd.SetpointVelocity
			if !t.rt.Config.AllowReverse && v < 0 {
				v = 0
			}
			s.SetpointVelocity = v
		})
	case state.CmdSetSetpointAngular:
		t.rt.Store.Update(func(s *state.VehicleState) {
			s.SetpointAngular = cmd.SetpointAngular
		})
	case state.CmdSetRoute:
		// A new route always replaces the old one on receipt rather
		// than queuing behind it.
		t.rt.Store.Update(func(s *state.VehicleState) {
			s.Route = cmd.Route
			s.CurrentWaypointIndex = 0
			s.LastEvent = "route replaced"
		})
	}
}

// setStatus applies the status transition table, ignoring and logging
// illegal transitions.
func (t *CommandTask) setStatus(next state.Status) {
	t.rt.Store.Update(func(s *state.VehicleState) {
		switch {
		case s.Status == state.StatusStopped && next == state.StatusRunning:
			s.Status = state.StatusRunning
		case s.Status == state.StatusRunning && next == state.StatusStopped:
			s.Status = state.StatusStopped
		case next == state.StatusEmergency:
			if s.Status != state.StatusEmergency {
				s.Status = state.StatusEmergency
				s.LastEvent = "emergency"
			}
		default:
			s.LastEvent = "illegal status transition ignored"
		}
	})
}

func (t *CommandTask) reset() {
	t.rt.Store.Update(func(s *state.VehicleState) {
		if s.Status != state.StatusEmergency {
			s.LastEvent = "illegal status transition ignored"
			return
		}
		s.Status = state.StatusStopped
		s.Faults = state.Faults{}
		s.LastEvent = "reset"
	})
}

// setMode transitions Mode independently of Status; the rule applies
// uniformly across all three modes. A transition
// into AUTOMATIC_REMOTE signals the navigation task to bumpless-reinit
// its PIDs before its next tick.
func (t *CommandTask) setMode(next state.Mode) {
	var changed bool
	t.rt.Store.Update(func(s *state.VehicleState) {
		if s.Mode == next {
			return
		}
		s.Mode = next
		changed = true
	})
	if changed {
		t.rt.Events.Signal(events.ModeChanged)
	}
}

// Run loops Tick at the configured command-logic period until ctx is
// done.
func (t *CommandTask) Run(ctx context.Context) {
	period := t.rt.Config.PeriodLogic
	runLoop(ctx, period, t.Tick)
}
