// Package filter implements the window-M moving-average smoothing used
// by the sensor processing task. Not thread-safe: each instance is
// owned by a single task.
package filter

import "math"

// Average is a simple moving average over the last M scalar samples.
// Before M samples have been pushed it averages whatever it has seen.
type Average struct {
	window int
	values []float64
	next   int
	filled bool
	sum    float64
}

// NewAverage creates a moving-average filter with the given window
// (default 5 if <= 0).
func NewAverage(window int) *Average {
	if window <= 0 {
		window = 5
	}
	return &Average{
		window: window,
		values: make([]float64, window),
	}
}

// Push adds a raw sample and returns the updated mean.
func (a *Average) Push(v float64) float64 {
	old := a.values[a.next]
	a.values[a.next] = v
	a.sum += v - old
	a.next = (a.next + 1) % a.window
	if a.next == 0 {
		a.filled = true
	}
	n := a.window
	if !a.filled {
		n = a.countFilled()
	}
	return a.sum / float64(n)
}

func (a *Average) countFilled() int {
	if a.filled {
		return a.window
	}
	return a.next
}

// Angle smooths an angular channel by averaging sin/cos components and
// recombining with atan2, avoiding the wraparound error of a naive
// arithmetic mean near +-pi.
type Angle struct {
	sin *Average
	cos *Average
}

// NewAngle creates an angle-aware moving-average filter with the given
// window (default 5 if <= 0).
func NewAngle(window int) *Angle {
	return &Angle{
		sin: NewAverage(window),
		cos: NewAverage(window),
	}
}

// Push adds a raw angle sample (radians) and returns the smoothed angle,
// wrapped to (-pi, pi].
func (a *Angle) Push(theta float64) float64 {
	s := a.sin.Push(math.Sin(theta))
	c := a.cos.Push(math.Cos(theta))
	return math.Atan2(s, c)
}
