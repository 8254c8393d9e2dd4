// Package tasks implements the periodic cooperating tasks that make
// up the control core: the mine simulator, sensor processing, command
// logic, navigation controller, route planner, fault monitor and data
// collector. Each task is a small struct with a Tick method doing one
// period's work, plus a Run loop that sleeps on a ticker between ticks
// and observes ctx cancellation.
package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/leodavilats/truckctl/internal/cmdqueue"
	"github.com/leodavilats/truckctl/internal/config"
	"github.com/leodavilats/truckctl/internal/dynamics"
	"github.com/leodavilats/truckctl/internal/events"
	"github.com/leodavilats/truckctl/internal/ring"
	"github.com/leodavilats/truckctl/internal/state"
)

// Sink is the narrow telemetry-writing contract the data collector
// depends on; internal/telemetry provides the CSV implementation.
// Kept local to avoid an import cycle.
type Sink interface {
	Write(entry LogEntry) error
}

// LogEntry is the data collector's per-tick snapshot.
type LogEntry struct {
	Timestamp        time.Time
	TruckID          int
	Status           state.Status
	Mode             state.Mode
	PositionX        float64
	PositionY        float64
	Theta            float64
	Velocity         float64
	Temperature      float64
	ElectricalFault  bool
	HydraulicFault   bool
	EventDescription string
}

// Runtime bundles every shared collaborator the tasks need. One
// Runtime is constructed per truck process and handed to each task's
// constructor.
type Runtime struct {
	Store    *state.Store
	Ring     *ring.Buffer
	Events   *events.Manager
	Commands *cmdqueue.Queue
	Dynamics *dynamics.Model
	Config   config.Config
	Logger   zerolog.Logger
	Sink     Sink
}

// runLoop is the common sleep-tick-work pattern shared by every task.
// It uses time.Ticker (monotonic, drift-free) rather than repeated
// time.Sleep(period), and returns promptly when ctx is cancelled so
// shutdown is observed within one period.
func runLoop(ctx context.Context, period time.Duration, tick func()) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}
