// Command truckctl runs the on-vehicle real-time control core for one
// mining truck: it wires configuration, logging, the shared state
// store, and every periodic task, then blocks until an OS signal
// (SIGINT or SIGTERM) triggers a clean shutdown.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/leodavilats/truckctl/internal/cmdqueue"
	"github.com/leodavilats/truckctl/internal/config"
	"github.com/leodavilats/truckctl/internal/dynamics"
	"github.com/leodavilats/truckctl/internal/events"
	"github.com/leodavilats/truckctl/internal/mqttbridge"
	"github.com/leodavilats/truckctl/internal/orchestrator"
	"github.com/leodavilats/truckctl/internal/ring"
	"github.com/leodavilats/truckctl/internal/state"
	"github.com/leodavilats/truckctl/internal/statusws"
	"github.com/leodavilats/truckctl/internal/tasks"
	"github.com/leodavilats/truckctl/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		panic(err) // flag parse failure is fatal, before logging exists
	}

	logger := zerolog.New(zerolog.NewConsoleWriter()).
		With().
		Timestamp().
		Int("truck_id", cfg.TruckID).
		Logger()

	store := state.New(cfg.TruckID)
	buf := ring.New(cfg.RingCapacity)
	evts := events.New()

	var overflowCount int
	commands := cmdqueue.New(cfg.CommandQueueN, func(dropped state.Command) {
		overflowCount++
		store.Update(func(s *state.VehicleState) {
			s.LastEvent = "command queue overflow, oldest dropped"
		})
		logger.Warn().Int("kind", int(dropped.Kind)).Int("overflow_count", overflowCount).Msg("command dropped on queue overflow")
	})

	dyn := dynamics.New(dynamics.Params{
		Tau:         cfg.Tau,
		VMax:        cfg.PIDLinear.Sat,
		OmegaMax:    cfg.PIDAngular.Sat,
		SigmaXY:     0.1,
		SigmaTheta:  0.01,
		SigmaV:      0.05,
		SigmaTemp:   0.2,
		AmbientTemp: 40,
	}, 0)

	var sink tasks.Sink
	if cfg.CSVPath != "" {
		sink = telemetry.NewCSVSink(cfg.CSVPath)
	}

	rt := &tasks.Runtime{
		Store:    store,
		Ring:     buf,
		Events:   evts,
		Commands: commands,
		Dynamics: dyn,
		Config:   cfg,
		Logger:   logger,
		Sink:     sink,
	}

	simTask := tasks.NewSimulatorTask(rt)
	sensorTask := tasks.NewSensorTask(rt)
	commandTask := tasks.NewCommandTask(rt)
	navTask := tasks.NewNavTask(rt)
	routeTask := tasks.NewRouteTask(rt)
	faultTask := tasks.NewFaultTask(rt, 0)
	collectorTask := tasks.NewCollectorTask(rt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := orchestrator.New(logger, 5*time.Second,
		simTask, sensorTask, commandTask, navTask, routeTask, faultTask, collectorTask)

	var bridge *mqttbridge.Bridge
	if cfg.EnableMessaging {
		bridge = mqttbridge.New(cfg, commands, store, logger)
		if err := bridge.Connect(); err != nil {
			logger.Fatal().Err(err).Msg("mqtt connect failed")
		}
		defer bridge.Close()
		go bridge.Run(ctx)
	}

	if cfg.StatusAddr != "" {
		wsServer := statusws.New(store, logger, 200*time.Millisecond)
		go func() {
			if err := statusws.ListenAndServe(ctx, cfg.StatusAddr, wsServer); err != nil {
				logger.Warn().Err(err).Msg("status websocket server stopped")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("signal received, shutting down")
		orchestrator.Shutdown(commands)
		cancel()
	}()

	logger.Info().Msg("truckctl running")
	if err := orch.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("orchestrator exited with error")
	}
}
