package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Garsondee/Particle-Bench/internal/lab"
	"github.com/Garsondee/Particle-Bench/internal/sim"
)

func TestCommandRoundTrip(t *testing.T) {
	for _, c := range []Command{
		{Kind: CmdParam, Name: "rain", Value: 40},
		{Kind: CmdFlag, Name: "clustered", On: true},
		{Kind: CmdAction, Name: "drop-ink"},
		{Kind: CmdReset, Seed: 7},
		{Kind: CmdScenario, Name: "ecology"},
		{Kind: CmdPause},
		{Kind: CmdResume},
	} {
		data, err := c.Encode()
		require.NoError(t, err)
		got, err := DecodeCommand(data)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	bad := []map[string]any{
		{},
		{"param": "rain"},
		{"param": "", "value": 3},
		{"flag": "clustered", "on": "yes"},
		{"reset": "seven"},
		{"pause": 1},
	}
	for _, m := range bad {
		st, err := structpb.NewStruct(m)
		require.NoError(t, err)
		data, err := proto.Marshal(st)
		require.NoError(t, err)
		_, err = DecodeCommand(data)
		assert.True(t, errors.Is(err, ErrBadCommand), "%v: got %v", m, err)
	}
	_, err := DecodeCommand([]byte{0xff, 0xff, 0xff})
	assert.True(t, errors.Is(err, ErrBadCommand))
}

func TestDriverAppliesCommandsBeforeStepping(t *testing.T) {
	d, err := NewDriver("flood", 3)
	require.NoError(t, err)

	require.NoError(t, d.Submit(Command{Kind: CmdParam, Name: "rain", Value: 40}))
	require.NoError(t, d.Submit(Command{Kind: CmdFlag, Name: "clustered", On: true}))
	snap := d.Step()

	assert.Equal(t, "flood", snap.Scenario)
	assert.Equal(t, 1, snap.Tick)
	assert.Equal(t, 40.0, snap.Params["rain"])
	assert.True(t, snap.Flags["clustered"])
	assert.True(t, snap.Running)
}

func TestDriverRejectsInvalidParameterAndKeepsRunning(t *testing.T) {
	d, err := NewDriver("greenhouse", 1)
	require.NoError(t, err)
	require.NoError(t, d.Submit(Command{Kind: CmdParam, Name: "co2", Value: 500}))
	require.NoError(t, d.Submit(Command{Kind: CmdAction, Name: "drop-ink"}))
	snap := d.Step()
	assert.Equal(t, 25.0, snap.Params["co2"], "out-of-range value must be rejected")
	assert.Equal(t, 1, snap.Tick)
}

func TestDriverPauseResetAndSwitch(t *testing.T) {
	d, err := NewDriver("diffusion", 1)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		d.Step()
	}

	require.NoError(t, d.Submit(Command{Kind: CmdPause}))
	snap := d.Step()
	assert.False(t, snap.Running)
	assert.Equal(t, 5, snap.Tick, "a paused loop does not advance")

	require.NoError(t, d.Submit(Command{Kind: CmdResume}))
	require.NoError(t, d.Submit(Command{Kind: CmdReset, Seed: 9}))
	snap = d.Step()
	assert.Equal(t, int64(9), snap.Seed)
	assert.Equal(t, 1, snap.Tick)

	require.NoError(t, d.Submit(Command{Kind: CmdScenario, Name: "Transport"}))
	snap = d.Step()
	assert.Equal(t, "transport", snap.Scenario)
	assert.Equal(t, int64(9), snap.Seed, "switching keeps the seed")

	require.NoError(t, d.Submit(Command{Kind: CmdScenario, Name: "volcano"}))
	snap = d.Step()
	assert.Equal(t, "transport", snap.Scenario, "unknown scenario is ignored")
}

func TestSubmitReportsFullQueue(t *testing.T) {
	d, err := NewDriver("osmosis", 1)
	require.NoError(t, err)
	for i := 0; i < queueSize; i++ {
		require.NoError(t, d.Submit(Command{Kind: CmdResume}))
	}
	assert.True(t, errors.Is(d.Submit(Command{Kind: CmdResume}), ErrBusy))
}

func TestRunReports(t *testing.T) {
	d, err := NewDriver("ecology", 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reported := make(chan Snapshot, 1)

	go d.Run(ctx, 5*time.Millisecond, func(s Snapshot) {
		select {
		case reported <- s:
		default:
		}
		cancel()
	})

	select {
	case s := <-reported:
		assert.Equal(t, "ecology", s.Scenario)
		assert.Greater(t, s.Census["sheep"], 0)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for report")
	}
}

func TestCaptureMatchesScenario(t *testing.T) {
	sc, err := lab.New("transport", 4)
	require.NoError(t, err)
	loop := sim.NewLoop(sc)
	snap := Capture(sc, loop)

	assert.False(t, snap.Running)
	assert.Equal(t, sc.World().Census().Total, sum(snap.Census))
	assert.Len(t, snap.Sample, len(sc.Channels()))
	for _, name := range sc.Params().Names() {
		assert.Contains(t, snap.Params, name)
	}
}

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func TestHubStreamsAndAcceptsCommands(t *testing.T) {
	d, err := NewDriver("flood", 5)
	require.NoError(t, err)
	hub := NewHub()
	srv := httptest.NewServer(hub.Handler(d))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readSnapshot(t, conn)
	assert.Equal(t, "flood", first.Fields["scenario"].GetStringValue())

	cmd, err := Command{Kind: CmdParam, Name: "rain", Value: 60}.Encode()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, cmd))

	require.Eventually(t, func() bool {
		return d.Step().Params["rain"] == 60
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast(d.Latest())
	got := readSnapshot(t, conn)
	params := got.Fields["params"].GetStructValue()
	require.NotNil(t, params)
	assert.Equal(t, 60.0, params.Fields["rain"].GetNumberValue())
}

func readSnapshot(t *testing.T, conn *websocket.Conn) *structpb.Struct {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, kind)
	var st structpb.Struct
	require.NoError(t, proto.Unmarshal(data, &st))
	return &st
}
