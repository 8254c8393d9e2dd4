// Package mqttbridge is the messaging adapter: it subscribes to this
// truck's command/route topics and enqueues decoded Commands, and
// publishes state/position snapshots at 10 Hz. Built on
// mqtt.NewClientOptions(), SetAutoReconnect(true)/SetConnectRetry(true),
// the Subscribe-with-closure pattern, and QoS-1 Publish.
package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/leodavilats/truckctl/internal/cmdqueue"
	"github.com/leodavilats/truckctl/internal/config"
	"github.com/leodavilats/truckctl/internal/state"
)

const publishPeriod = 100 * time.Millisecond

// Bridge is the pub/sub boundary to the message broker. It runs on its
// own goroutines; its queue into command logic is the shared bounded
// cmdqueue.Queue, non-blocking on publish.
type Bridge struct {
	client   mqtt.Client
	cfg      config.Config
	commands *cmdqueue.Queue
	store    *state.Store
	logger   zerolog.Logger

	stateTopic    string
	positionTopic string
	commandTopic  string
	routeTopic    string
}

// New constructs a disconnected Bridge for the given truck id.
func New(cfg config.Config, commands *cmdqueue.Queue, store *state.Store, logger zerolog.Logger) *Bridge {
	truckID := cfg.TruckID
	b := &Bridge{
		cfg:           cfg,
		commands:      commands,
		store:         store,
		logger:        logger,
		stateTopic:    fmt.Sprintf("mine/truck/%d/state", truckID),
		positionTopic: fmt.Sprintf("mine/truck/%d/position", truckID),
		commandTopic:  fmt.Sprintf("mine/truck/%d/command", truckID),
		routeTopic:    fmt.Sprintf("mine/truck/%d/route", truckID),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(fmt.Sprintf("truckctl-%d", truckID)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(100 * time.Millisecond).
		SetMaxReconnectInterval(5 * time.Second).
		SetOrderMatters(false)
	if cfg.MQTTUser != "" {
		opts.SetUsername(cfg.MQTTUser)
		opts.SetPassword(cfg.MQTTPass)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.logger.Warn().Err(err).Msg("mqtt connection lost, reconnecting with backoff")
	})
	b.client = mqtt.NewClient(opts)
	return b
}

// Connect dials the broker and subscribes to the command/route topics.
func (b *Bridge) Connect() error {
	if tok := b.client.Connect(); !tok.WaitTimeout(10*time.Second) || tok.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", tok.Error())
	}

	if tok := b.client.Subscribe(b.commandTopic, 1, b.onCommand); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", b.commandTopic, tok.Error())
	}
	if tok := b.client.Subscribe(b.routeTopic, 1, b.onRoute); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", b.routeTopic, tok.Error())
	}
	b.logger.Info().Str("command_topic", b.commandTopic).Str("route_topic", b.routeTopic).Msg("mqtt bridge subscribed")
	return nil
}

// Close disconnects from the broker.
func (b *Bridge) Close() {
	b.client.Disconnect(250)
}

type commandPayload struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type routePayload struct {
	Waypoints [][2]float64 `json:"waypoints"`
}

// onCommand decodes an inbound command/{T} message and enqueues a
// state.Command. Unknown type strings are rejected with a logged
// warning.
func (b *Bridge) onCommand(_ mqtt.Client, msg mqtt.Message) {
	var p commandPayload
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		b.logger.Warn().Err(err).Str("payload", string(msg.Payload())).Msg("command: bad json")
		return
	}

	cmd, ok := decodeCommand(p)
	if !ok {
		b.logger.Warn().Str("type", p.Type).Msg("command: unknown type, dropped")
		return
	}
	cmd.Source = "mqtt"
	b.commands.Push(cmd)
}

func decodeCommand(p commandPayload) (state.Command, bool) {
	switch p.Type {
	case "SET_MODE":
		var v string
		if err := json.Unmarshal(p.Value, &v); err != nil {
			return state.Command{}, false
		}
		return state.Command{Kind: state.CmdSetMode, Mode: state.Mode(v)}, true
	case "SET_STATUS":
		var v string
		if err := json.Unmarshal(p.Value, &v); err != nil {
			return state.Command{}, false
		}
		return state.Command{Kind: state.CmdSetStatus, Status: state.Status(v)}, true
	case "EMERGENCY":
		return state.Command{Kind: state.CmdEmergency}, true
	case "RESET":
		return state.Command{Kind: state.CmdReset}, true
	case "SET_SETPOINT_VELOCITY":
		var v float64
		if err := json.Unmarshal(p.Value, &v); err != nil {
			return state.Command{}, false
		}
		return state.Command{Kind: state.CmdSetSetpointVelocity, SetpointVelocity: v}, true
	case "SET_SETPOINT_ANGULAR":
		var v float64
		if err := json.Unmarshal(p.Value, &v); err != nil {
			return state.Command{}, false
		}
		return state.Command{Kind: state.CmdSetSetpointAngular, SetpointAngular: v}, true
	case "STOP":
		return state.Command{Kind: state.CmdStop}, true
	default:
		return state.Command{}, false
	}
}

// onRoute decodes an inbound route/{T} message and enqueues a
// replace-on-receipt SET_ROUTE command.
func (b *Bridge) onRoute(_ mqtt.Client, msg mqtt.Message) {
	var p routePayload
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		b.logger.Warn().Err(err).Str("payload", string(msg.Payload())).Msg("route: bad json")
		return
	}
	waypoints := make([]state.Waypoint, 0, len(p.Waypoints))
	for _, wp := range p.Waypoints {
		waypoints = append(waypoints, state.Waypoint{X: wp[0], Y: wp[1]})
	}
	b.commands.Push(state.Command{Kind: state.CmdSetRoute, Route: waypoints, Source: "mqtt"})
}

type statePayload struct {
	TruckID     int             `json:"truck_id"`
	Timestamp   float64         `json:"timestamp"`
	Position    positionPayload `json:"position"`
	Velocity    float64         `json:"velocity"`
	Temperature float64         `json:"temperature"`
	Status      string          `json:"status"`
	Mode        string          `json:"mode"`
	Faults      faultsPayload   `json:"faults"`
}

type positionPayload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

type faultsPayload struct {
	Electrical bool `json:"electrical"`
	Hydraulic  bool `json:"hydraulic"`
}

type positionOnlyPayload struct {
	TruckID int     `json:"truck_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Theta   float64 `json:"theta"`
}

// Run publishes state and position snapshots at 10 Hz until ctx is
// cancelled. Outbound messages while disconnected are silently
// dropped; there is no backlog to flush on reconnect.
func (b *Bridge) Run(ctx context.Context) {
	ticker := time.NewTicker(publishPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.publishOnce()
		}
	}
}

func (b *Bridge) publishOnce() {
	if !b.client.IsConnected() {
		return
	}
	snap := b.store.Snapshot()
	now := float64(time.Now().UnixNano()) / 1e9

	stateBytes, err := json.Marshal(statePayload{
		TruckID:     snap.TruckID,
		Timestamp:   now,
		Position:    positionPayload{X: snap.Position.X, Y: snap.Position.Y, Theta: snap.Position.Theta},
		Velocity:    snap.Velocity,
		Temperature: snap.Temperature,
		Status:      string(snap.Status),
		Mode:        string(snap.Mode),
		Faults:      faultsPayload{Electrical: snap.Faults.Electrical, Hydraulic: snap.Faults.Hydraulic},
	})
	if err == nil {
		b.client.Publish(b.stateTopic, 1, false, stateBytes)
	}

	posBytes, err := json.Marshal(positionOnlyPayload{
		TruckID: snap.TruckID,
		X:       snap.Position.X,
		Y:       snap.Position.Y,
		Theta:   snap.Position.Theta,
	})
	if err == nil {
		b.client.Publish(b.positionTopic, 1, false, posBytes)
	}
}
