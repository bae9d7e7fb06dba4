package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aircast/aircast/internal/core"
)

const testFrameDur = 2_000_000 // 2ms in time.Duration units

func decodeChunks(t *testing.T, msgs [][]byte) [][]byte {
	t.Helper()
	out := make([][]byte, 0, len(msgs))
	for _, m := range msgs {
		var env core.Envelope
		require.NoError(t, json.Unmarshal(m, &env))
		require.Equal(t, core.EventChunk, env.Kind())
		require.NotNil(t, env.Media)
		require.True(t, env.Media.IsSync)
		raw, err := base64.StdEncoding.DecodeString(env.Media.Payload)
		require.NoError(t, err)
		out = append(out, raw)
	}
	return out
}

func TestPumpDeliversEveryFrameInOrder(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)
	p1 := newFakeConn("p1", core.RolePlayer)
	p2 := newFakeConn("p2", core.RolePlayer)
	reg.Register(p1, core.RolePlayer)
	reg.Register(p2, core.RolePlayer)

	frames := [][]byte{{0xFF, 0xFB, 1}, {2, 3}, {4}}
	pump := &Pump{Broadcaster: d}
	require.NoError(t, pump.Run(context.Background(), frames, testFrameDur))

	for _, p := range []*fakeConn{p1, p2} {
		got := decodeChunks(t, p.received())
		require.Len(t, got, 3)
		assert.Equal(t, frames, got)
	}
}

func TestPumpDoesNotReachServers(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)
	s := newFakeConn("s", core.RoleServer)
	reg.Register(s, core.RoleServer)

	pump := &Pump{Broadcaster: d}
	require.NoError(t, pump.Run(context.Background(), [][]byte{{1}}, testFrameDur))

	assert.Empty(t, s.received())
}

func TestPumpStopsOnCanceledContext(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)
	p := newFakeConn("p", core.RolePlayer)
	reg.Register(p, core.RolePlayer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pump := &Pump{Broadcaster: d}
	err := pump.Run(ctx, [][]byte{{1}, {2}, {3}}, testFrameDur)

	// The frame in flight is still sent; the inter-frame sleep observes the
	// canceled context before the next one.
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, p.received(), 1)
}

func TestPumpsSingleFlight(t *testing.T) {
	pumps := NewPumps()

	require.True(t, pumps.TryAcquire("c1"))
	assert.False(t, pumps.TryAcquire("c1"))
	assert.Equal(t, 1, pumps.Active())

	// Another connection is unaffected.
	assert.True(t, pumps.TryAcquire("c2"))
	assert.Equal(t, 2, pumps.Active())

	pumps.Release("c1")
	assert.True(t, pumps.TryAcquire("c1"))

	// Releasing an unknown ID is harmless.
	pumps.Release("ghost")
	assert.Equal(t, 2, pumps.Active())
}
