package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aircast/aircast/internal/audio"
	"github.com/aircast/aircast/internal/core"
)

// testFraming keeps the inter-frame delay near zero so pump runs finish
// within the test.
var testFraming = Framing{FrameSize: 64, FrameSamples: 8, SampleRate: 8000}

func writeSourceFile(t *testing.T, data []byte) *audio.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stream.mp3")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	src, err := audio.NewSource(path)
	require.NoError(t, err)
	return src
}

func mp3Buffer(size, markerAt int) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i % 251) // 0xFF never occurs, marker placement is exact
	}
	buf[markerAt] = 0xFF
	buf[markerAt+1] = 0xFB
	return buf
}

func TestRelayOnConnectedPumpsWholeSource(t *testing.T) {
	buf := mp3Buffer(200, 10)
	relay := NewRelay(writeSourceFile(t, buf), testFraming)

	p := newFakeConn("p", core.RolePlayer)
	relay.Registry.Register(p, core.RolePlayer)

	require.NoError(t, relay.OnConnected(context.Background(), "trigger"))

	// 190 body bytes at frame size 64: two full frames and a 62-byte tail.
	got := decodeChunks(t, p.received())
	require.Len(t, got, 3)
	flat := make([]byte, 0, 190)
	for _, f := range got {
		flat = append(flat, f...)
	}
	assert.Equal(t, buf[10:], flat)
}

func TestRelayOnConnectedSingleFlight(t *testing.T) {
	relay := NewRelay(writeSourceFile(t, mp3Buffer(200, 0)), testFraming)

	require.True(t, relay.Pumps.TryAcquire("c1"))
	err := relay.OnConnected(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrPumpRunning)

	// The slot is still held by the original run.
	assert.Equal(t, 1, relay.Pumps.Active())
	relay.Pumps.Release("c1")

	// After release the same connection may trigger again.
	require.NoError(t, relay.OnConnected(context.Background(), "c1"))
	assert.Equal(t, 0, relay.Pumps.Active())
}

func TestRelayOnConnectedEmptySource(t *testing.T) {
	relay := NewRelay(writeSourceFile(t, nil), testFraming)
	p := newFakeConn("p", core.RolePlayer)
	relay.Registry.Register(p, core.RolePlayer)

	require.NoError(t, relay.OnConnected(context.Background(), "c1"))
	assert.Empty(t, p.received())
	assert.Equal(t, 0, relay.Pumps.Active())
}

func TestRelayServerDisconnectBroadcastsClose(t *testing.T) {
	relay := NewRelay(writeSourceFile(t, mp3Buffer(200, 0)), testFraming)

	s := newFakeConn("s", core.RoleServer)
	p1 := newFakeConn("p1", core.RolePlayer)
	p2 := newFakeConn("p2", core.RolePlayer)
	relay.Registry.Register(s, core.RoleServer)
	relay.Registry.Register(p1, core.RolePlayer)
	relay.Registry.Register(p2, core.RolePlayer)

	relay.OnDisconnect(s)

	assert.Equal(t, 0, relay.Registry.Count(core.RoleServer))
	for _, p := range []*fakeConn{p1, p2} {
		msgs := p.received()
		require.Len(t, msgs, 1)
		assert.JSONEq(t, `{"event":"close"}`, string(msgs[0]))
	}
}

func TestRelayPlayerDisconnectIsSilent(t *testing.T) {
	relay := NewRelay(writeSourceFile(t, mp3Buffer(200, 0)), testFraming)

	p1 := newFakeConn("p1", core.RolePlayer)
	p2 := newFakeConn("p2", core.RolePlayer)
	relay.Registry.Register(p1, core.RolePlayer)
	relay.Registry.Register(p2, core.RolePlayer)

	relay.OnDisconnect(p1)

	assert.Equal(t, 1, relay.Registry.Count(core.RolePlayer))
	assert.Empty(t, p1.received())
	assert.Empty(t, p2.received())
}
