package tasks

import (
	"context"
	"time"

	"github.com/leodavilats/truckctl/internal/state"
)

// CollectorTask runs at 1 Hz: it snapshots shared state and appends a
// LogEntry to the configured Sink. Missing sinks are tolerated; write
// errors degrade to in-memory-only operation.
type CollectorTask struct {
	rt *Runtime
}

// NewCollectorTask constructs the data collector task.
func NewCollectorTask(rt *Runtime) *CollectorTask {
	return &CollectorTask{rt: rt}
}

// Tick snapshots state and writes a LogEntry.
func (t *CollectorTask) Tick(now time.Time) {
	snap := t.rt.Store.Snapshot()
	entry := LogEntry{
		Timestamp:        now,
		TruckID:          snap.TruckID,
		Status:           snap.Status,
		Mode:             snap.Mode,
		PositionX:        snap.Position.X,
		PositionY:        snap.Position.Y,
		Theta:            snap.Position.Theta,
		Velocity:         snap.Velocity,
		Temperature:      snap.Temperature,
		ElectricalFault:  snap.Faults.Electrical,
		HydraulicFault:   snap.Faults.Hydraulic,
		EventDescription: snap.LastEvent,
	}

	if t.rt.Sink == nil {
		return
	}
	if err := t.rt.Sink.Write(entry); err != nil {
		t.rt.Logger.Warn().Err(err).Msg("telemetry sink write failed, continuing in-memory only")
		t.rt.Store.Update(func(s *state.VehicleState) {
			s.LastEvent = "telemetry sink write failed"
		})
	}
}

// Run loops Tick at the configured data-collector period until ctx is
// done.
func (t *CollectorTask) Run(ctx context.Context) {
	period := t.rt.Config.PeriodLog
	runLoop(ctx, period, func() {
		t.Tick(time.Now())
	})
}
