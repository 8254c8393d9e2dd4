package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leodavilats/truckctl/internal/cmdqueue"
	"github.com/leodavilats/truckctl/internal/state"
)

type obedientTask struct {
	ran int32
}

func (o *obedientTask) Run(ctx context.Context) {
	atomic.AddInt32(&o.ran, 1)
	<-ctx.Done()
}

type stubbornTask struct{}

func (stubbornTask) Run(ctx context.Context) {
	<-ctx.Done()
	time.Sleep(time.Hour) // never actually returns within any reasonable join timeout
}

func TestRunJoinsAllTasksOnCancel(t *testing.T) {
	a, b := &obedientTask{}, &obedientTask{}
	o := New(zerolog.Nop(), 500*time.Millisecond, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.EqualValues(t, 1, a.ran)
	assert.EqualValues(t, 1, b.ran)
}

func TestRunAbandonsTasksPastJoinTimeout(t *testing.T) {
	o := New(zerolog.Nop(), 30*time.Millisecond, stubbornTask{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "a timed-out join still returns cleanly to the caller")
	case <-time.After(2 * time.Second):
		t.Fatal("Run should abandon a stuck task rather than block forever")
	}
}

func TestShutdownPushesStopCommand(t *testing.T) {
	q := cmdqueue.New(4, nil)
	Shutdown(q)

	cmds := q.DrainAll()
	require.Len(t, cmds, 1)
	assert.Equal(t, state.CmdStop, cmds[0].Kind)
}
