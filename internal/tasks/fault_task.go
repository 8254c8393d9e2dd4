package tasks

import (
	"context"
	"math/rand"
	"time"

	"github.com/leodavilats/truckctl/internal/events"
	"github.com/leodavilats/truckctl/internal/state"
)

// FaultTask runs at 2 Hz: thermal and stochastic electrical/hydraulic
// fault checking. It never writes Status directly (only command logic
// does); it injects an EMERGENCY command instead.
type FaultTask struct {
	rt  *Runtime
	rng *rand.Rand
}

// NewFaultTask constructs the fault monitor task with its own seeded
// PRNG so fault injection is reproducible independent of other tasks.
func NewFaultTask(rt *Runtime, seed int64) *FaultTask {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &FaultTask{rt: rt, rng: rand.New(rand.NewSource(seed))}
}

// Tick checks temperature and draws independent Bernoulli trials for
// the two sticky fault flags.
func (t *FaultTask) Tick() {
	snap := t.rt.Store.Snapshot()

	if snap.Temperature >= t.rt.Config.TempCrit {
		t.injectEmergency("Temperatura critica: engine over thermal limit")
		return
	}
	if snap.Temperature >= t.rt.Config.TempWarn {
		t.rt.Store.Update(func(s *state.VehicleState) {
			s.LastEvent = "thermal warning"
		})
	}

	electrical := !snap.Faults.Electrical && t.draw()
	hydraulic := !snap.Faults.Hydraulic && t.draw()
	if !electrical && !hydraulic {
		return
	}

	t.rt.Store.Update(func(s *state.VehicleState) {
		if electrical {
			s.Faults.Electrical = true
		}
		if hydraulic {
			s.Faults.Hydraulic = true
		}
	})
	t.injectEmergency("stochastic fault onset")
}

func (t *FaultTask) draw() bool {
	return t.rng.Float64() < t.rt.Config.FaultProbability
}

func (t *FaultTask) injectEmergency(reason string) {
	t.rt.Store.Update(func(s *state.VehicleState) {
		s.LastEvent = reason
	})
	t.rt.Commands.Push(state.Command{Kind: state.CmdEmergency, Source: "fault-monitor"})
	t.rt.Events.Signal(events.FaultDetected)
}

// Run loops Tick at the configured fault-monitor period until ctx is
// done.
func (t *FaultTask) Run(ctx context.Context) {
	period := t.rt.Config.PeriodFault
	runLoop(ctx, period, t.Tick)
}
