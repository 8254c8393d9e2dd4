// Package dynamics implements the simulated vehicle model: a first-order
// lag on commanded linear/angular velocity, position integration, and
// noisy sensor samples. The 20 Hz simulator task that steps it lives in
// internal/tasks.
package dynamics

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/leodavilats/truckctl/internal/state"
)

// SensorSample is the raw, noisy reading the simulator exposes each
// tick for the sensor task to consume and filter.
type SensorSample struct {
	X           float64
	Y           float64
	Theta       float64
	Velocity    float64
	Temperature float64
	Timestamp   time.Time
}

// Params bundles the physical constants of the first-order model.
type Params struct {
	Tau         float64 // time constant, seconds
	VMax        float64 // m/s
	OmegaMax    float64 // rad/s
	SigmaXY     float64 // metres
	SigmaTheta  float64 // radians
	SigmaV      float64 // m/s
	SigmaTemp   float64 // degrees C
	AmbientTemp float64 // resting engine temperature, degrees C
}

// DefaultParams returns the factory-tuned physical constants.
func DefaultParams() Params {
	return Params{
		Tau:         0.5,
		VMax:        10,
		OmegaMax:    1,
		SigmaXY:     0.1,
		SigmaTheta:  0.01,
		SigmaV:      0.05,
		SigmaTemp:   0.2,
		AmbientTemp: 40,
	}
}

// Model is the truck's true (unfiltered) physical state, advanced once
// per simulator tick. Every method takes the model's own mutex, so the
// simulator, navigation and sensor tasks may call it concurrently. The
// model never writes the shared Store; the sensor task publishes
// filtered readings there.
type Model struct {
	params Params

	mu    sync.Mutex
	x, y  float64
	theta float64
	v     float64
	omega float64
	temp  float64

	vCmd     float64
	omegaCmd float64

	rng *rand.Rand
}

// New creates a vehicle dynamics model at the origin with the given
// params and a seeded PRNG (seed 0 means time-seeded; tests should pass
// a fixed non-zero seed for determinism).
func New(params Params, seed int64) *Model {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Model{
		params: params,
		temp:   params.AmbientTemp,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// SetCommand updates the commanded (v, omega) the navigation task wants
// the dynamics to track. Safe to call concurrently with Step.
func (m *Model) SetCommand(vCmd, omegaCmd float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vCmd = vCmd
	m.omegaCmd = omegaCmd
}

// Step advances the model by dt seconds: first-order lag toward the
// commanded velocities, saturation, then position integration.
func (m *Model) Step(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.v += (m.vCmd - m.v) * (dt / m.params.Tau)
	m.omega += (m.omegaCmd - m.omega) * (dt / m.params.Tau)

	m.v = clamp(m.v, -m.params.VMax, m.params.VMax)
	m.omega = clamp(m.omega, -m.params.OmegaMax, m.params.OmegaMax)

	m.x += m.v * math.Cos(m.theta) * dt
	m.y += m.v * math.Sin(m.theta) * dt
	m.theta = state.WrapAngle(m.theta + m.omega*dt)

	// Engine temperature drifts toward a load-dependent target; a crude
	// but serviceable proxy for thermal behavior under the simulator.
	target := m.params.AmbientTemp + math.Abs(m.v)*8
	m.temp += (target - m.temp) * (dt / 5.0)
}

// Sample returns a noisy sensor reading of the current true state,
// suitable for the sensor processing task's filters.
func (m *Model) Sample(now time.Time) SensorSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return SensorSample{
		X:           m.x + m.gauss(m.params.SigmaXY),
		Y:           m.y + m.gauss(m.params.SigmaXY),
		Theta:       state.WrapAngle(m.theta + m.gauss(m.params.SigmaTheta)),
		Velocity:    m.v + m.gauss(m.params.SigmaV),
		Temperature: m.temp + m.gauss(m.params.SigmaTemp),
		Timestamp:   now,
	}
}

// ForceTemperature is a test hook that lets the fault monitor's
// thermal path be exercised deterministically.
func (m *Model) ForceTemperature(celsius float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.temp = celsius
}

func (m *Model) gauss(sigma float64) float64 {
	if sigma <= 0 {
		return 0
	}
	return m.rng.NormFloat64() * sigma
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
