package tasks

import (
	"context"
	"math"
	"time"

	"github.com/leodavilats/truckctl/internal/filter"
	"github.com/leodavilats/truckctl/internal/ring"
	"github.com/leodavilats/truckctl/internal/state"
)

// SensorTask runs at 10 Hz: it reads the simulator's latest raw sample,
// smooths each channel through its own moving-average filter, writes
// the filtered position/velocity/temperature into the shared state,
// and pushes the FilteredSample into the ring buffer. It is the sole
// writer of those VehicleState fields.
type SensorTask struct {
	rt *Runtime

	x     *filter.Average
	y     *filter.Average
	theta *filter.Angle
	v     *filter.Average
	temp  *filter.Average

	glitchCount int
}

// NewSensorTask constructs the sensor processing task with the
// configured moving-average window.
func NewSensorTask(rt *Runtime) *SensorTask {
	window := rt.Config.FilterWindow
	return &SensorTask{
		rt:    rt,
		x:     filter.NewAverage(window),
		y:     filter.NewAverage(window),
		theta: filter.NewAngle(window),
		v:     filter.NewAverage(window),
		temp:  filter.NewAverage(window),
	}
}

// Tick samples the simulator and writes the filtered result through.
func (t *SensorTask) Tick(now time.Time) {
	raw := t.rt.Dynamics.Sample(now)

	if isGlitch(raw.X) || isGlitch(raw.Y) || isGlitch(raw.Theta) || isGlitch(raw.Velocity) || isGlitch(raw.Temperature) {
		// Transient glitch: discard the sample, keep the filter windows
		// as they were, leave VehicleState untouched.
		t.glitchCount++
		return
	}

	fx := t.x.Push(raw.X)
	fy := t.y.Push(raw.Y)
	ftheta := t.theta.Push(raw.Theta)
	fv := t.v.Push(raw.Velocity)
	ftemp := t.temp.Push(raw.Temperature)

	t.rt.Store.Update(func(s *state.VehicleState) {
		s.Position.X = fx
		s.Position.Y = fy
		s.Position.Theta = ftheta
		s.Velocity = fv
		s.Temperature = ftemp
	})

	t.rt.Ring.Push(ring.FilteredSample{
		X:           fx,
		Y:           fy,
		Theta:       ftheta,
		Velocity:    fv,
		Temperature: ftemp,
		Timestamp:   now,
	})
}

// Run loops Tick at the configured sensor period until ctx is done.
func (t *SensorTask) Run(ctx context.Context) {
	period := t.rt.Config.PeriodSensor
	runLoop(ctx, period, func() {
		t.Tick(time.Now())
	})
}

// GlitchCount reports how many transient glitches have been discarded.
func (t *SensorTask) GlitchCount() int {
	return t.glitchCount
}

func isGlitch(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
