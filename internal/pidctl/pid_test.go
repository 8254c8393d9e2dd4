package pidctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickSaturates(t *testing.T) {
	c := New(Gains{Kp: 0.5, Ki: 0.1, Kd: 0.05}, -10, 10)
	out := c.Tick(100, 0, 0.05)
	assert.LessOrEqual(t, out, 10.0)
	assert.GreaterOrEqual(t, out, -10.0)
}

func TestAntiWindupStopsIntegralGrowthWhileSaturated(t *testing.T) {
	c := New(Gains{Kp: 0.5, Ki: 0.1, Kd: 0.05}, -10, 10)

	for i := 0; i < 50; i++ {
		c.Tick(1000, 0, 0.05)
	}
	saturatedIntegral := c.Integral()

	for i := 0; i < 50; i++ {
		c.Tick(1000, 0, 0.05)
	}
	require.Equal(t, saturatedIntegral, c.Integral(), "integral must not grow while saturated in the same direction")
}

func TestReinitProducesNoStepOnNextTick(t *testing.T) {
	c := New(Gains{Kp: 0.5, Ki: 0.1, Kd: 0.05}, -10, 10)

	// Unrelated prior history, to prove Reinit discards it.
	for i := 0; i < 30; i++ {
		c.Tick(7, 1, 0.05)
	}

	const wantOutput = 3.0
	const setpoint = 2.0
	const measurement = 2.0 // error == 0, so the derivative term also vanishes on the seeding tick.
	const dt = 0.05

	c.Reinit(wantOutput, setpoint, measurement, dt)
	next := c.Tick(setpoint, measurement, dt)

	assert.InDelta(t, wantOutput, next, 1e-6)
}

// TestReinitProducesNoStepWithNonzeroError pins down the case a
// zero-error seed can't catch: Tick adds errVal*dt to the integral
// before reading it back, so Reinit must seed one increment short of
// the value it wants Tick to use.
func TestReinitProducesNoStepWithNonzeroError(t *testing.T) {
	c := New(Gains{Kp: 0.5, Ki: 0.1, Kd: 0.05}, -1000, 1000)

	for i := 0; i < 30; i++ {
		c.Tick(7, 1, 0.05)
	}

	const wantOutput = 3.0
	const setpoint = 5.0
	const measurement = 2.0 // error == 3, well clear of saturation at these gains/bounds.
	const dt = 0.05

	c.Reinit(wantOutput, setpoint, measurement, dt)
	next := c.Tick(setpoint, measurement, dt)

	assert.InDelta(t, wantOutput, next, 1e-6)
}

func TestOutputAlwaysWithinBounds(t *testing.T) {
	c := New(Gains{Kp: 1.0, Ki: 0.05, Kd: 0.2}, -1, 1)
	setpoints := []float64{0, 5, -5, 0.1, -0.1, 100, -100}
	for _, sp := range setpoints {
		out := c.Tick(sp, 0, 0.05)
		assert.LessOrEqual(t, out, 1.0)
		assert.GreaterOrEqual(t, out, -1.0)
	}
}
