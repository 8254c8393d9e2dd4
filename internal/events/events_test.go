package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitTimesOutWithoutSignal(t *testing.T) {
	m := New()
	fired := m.Wait(ModeChanged, 20*time.Millisecond)
	assert.False(t, fired)
}

func TestSignalWakesWaiter(t *testing.T) {
	m := New()
	done := make(chan bool, 1)
	go func() {
		done <- m.Wait(FaultDetected, time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	m.Signal(FaultDetected)

	select {
	case fired := <-done:
		assert.True(t, fired)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by Signal")
	}
}

func TestGenerationAdvancesOnSignal(t *testing.T) {
	m := New()
	g0 := m.Generation(ModeChanged)
	m.Signal(ModeChanged)
	g1 := m.Generation(ModeChanged)
	assert.NotEqual(t, g0, g1)
}
