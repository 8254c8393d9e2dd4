// Package orchestrator owns the task lifecycle: it starts every task's
// goroutine, waits for its context to be cancelled, and joins
// everyone with a bounded timeout, using golang.org/x/sync/errgroup to
// generalize joining from a fixed pair of goroutines to an arbitrary
// task set while propagating the first error.
package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/leodavilats/truckctl/internal/cmdqueue"
	"github.com/leodavilats/truckctl/internal/state"
)

// Task is anything with a blocking Run(ctx) loop that returns when ctx
// is cancelled.
type Task interface {
	Run(ctx context.Context)
}

// Orchestrator owns the group of task goroutines and the bounded join
// timeout used at shutdown.
type Orchestrator struct {
	tasks       []Task
	joinTimeout time.Duration
	logger      zerolog.Logger
}

// New constructs an orchestrator over the given tasks.
func New(logger zerolog.Logger, joinTimeout time.Duration, tasks ...Task) *Orchestrator {
	if joinTimeout <= 0 {
		joinTimeout = 5 * time.Second
	}
	return &Orchestrator{tasks: tasks, joinTimeout: joinTimeout, logger: logger}
}

// Run starts every task and blocks until ctx is cancelled, then waits
// up to joinTimeout for all tasks to return before abandoning them,
// logging if the timeout is exceeded.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range o.tasks {
		t := t
		g.Go(func() error {
			t.Run(gctx)
			return nil
		})
	}

	<-ctx.Done()
	o.logger.Info().Msg("shutdown requested, waiting for tasks to drain")

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		o.logger.Info().Msg("all tasks joined cleanly")
		return err
	case <-time.After(o.joinTimeout):
		o.logger.Warn().Dur("timeout", o.joinTimeout).Msg("join timeout exceeded, abandoning remaining tasks")
		return nil
	}
}

// Shutdown pushes a STOP command so command logic forces the vehicle
// to STOPPED with zeroed actuation before the caller cancels ctx.
// Called from the main OS-signal handler or a test hook.
func Shutdown(commands *cmdqueue.Queue) {
	commands.Push(state.Command{Kind: state.CmdStop, Source: "shutdown"})
}
