package mqttbridge

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leodavilats/truckctl/internal/cmdqueue"
	"github.com/leodavilats/truckctl/internal/config"
	"github.com/leodavilats/truckctl/internal/state"
)

// fakeMessage implements mqtt.Message with only Payload() meaningful;
// the bridge never calls the others.
type fakeMessage struct {
	payload []byte
}

func (f fakeMessage) Duplicate() bool   { return false }
func (f fakeMessage) Qos() byte         { return 1 }
func (f fakeMessage) Retained() bool    { return false }
func (f fakeMessage) Topic() string     { return "" }
func (f fakeMessage) MessageID() uint16 { return 0 }
func (f fakeMessage) Payload() []byte   { return f.payload }
func (f fakeMessage) Ack()              {}

func mustJSON(t *testing.T, v interface{}) []byte {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestDecodeCommandKnownTypes(t *testing.T) {
	cmd, ok := decodeCommand(commandPayload{Type: "EMERGENCY"})
	require.True(t, ok)
	assert.Equal(t, state.CmdEmergency, cmd.Kind)

	cmd, ok = decodeCommand(commandPayload{Type: "SET_SETPOINT_VELOCITY", Value: mustJSON(t, 3.5)})
	require.True(t, ok)
	assert.Equal(t, state.CmdSetSetpointVelocity, cmd.Kind)
	assert.Equal(t, 3.5, cmd.SetpointVelocity)
}

func TestDecodeCommandUnknownTypeRejected(t *testing.T) {
	_, ok := decodeCommand(commandPayload{Type: "DANCE"})
	assert.False(t, ok)
}

func newTestBridge() *Bridge {
	return &Bridge{
		cfg:      config.Default(),
		commands: cmdqueue.New(8, nil),
		store:    state.New(1),
		logger:   zerolog.Nop(),
	}
}

func TestOnCommandEnqueuesWithMQTTSource(t *testing.T) {
	b := newTestBridge()
	payload := mustJSON(t, commandPayload{Type: "STOP"})

	b.onCommand(nil, fakeMessage{payload: payload})

	cmds := b.commands.DrainAll()
	require.Len(t, cmds, 1)
	assert.Equal(t, state.CmdStop, cmds[0].Kind)
	assert.Equal(t, "mqtt", cmds[0].Source)
}

func TestOnCommandDropsBadJSON(t *testing.T) {
	b := newTestBridge()
	b.onCommand(nil, fakeMessage{payload: []byte("not json")})
	assert.Empty(t, b.commands.DrainAll())
}

func TestOnCommandDropsUnknownType(t *testing.T) {
	b := newTestBridge()
	payload := mustJSON(t, commandPayload{Type: "UNKNOWN_KIND"})
	b.onCommand(nil, fakeMessage{payload: payload})
	assert.Empty(t, b.commands.DrainAll())
}

func TestOnRouteDecodesWaypointsAndReplacesOnReceipt(t *testing.T) {
	b := newTestBridge()
	payload := mustJSON(t, routePayload{Waypoints: [][2]float64{{1, 2}, {3, 4}}})

	b.onRoute(nil, fakeMessage{payload: payload})

	cmds := b.commands.DrainAll()
	require.Len(t, cmds, 1)
	require.Equal(t, state.CmdSetRoute, cmds[0].Kind)
	require.Len(t, cmds[0].Route, 2)
	assert.Equal(t, state.Waypoint{X: 1, Y: 2}, cmds[0].Route[0])
	assert.Equal(t, state.Waypoint{X: 3, Y: 4}, cmds[0].Route[1])
}
