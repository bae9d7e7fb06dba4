package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/aircast/aircast/internal/audio"
	"github.com/aircast/aircast/internal/core"
	"github.com/aircast/aircast/internal/metrics"
)

var ErrPumpRunning = errors.New("pump already running for connection")

// Framing carries the codec-profile constants the framer and pump need.
// FrameSize is empirical for one bitrate/sample-rate combination, not a
// general MP3 property, so it lives in configuration.
type Framing struct {
	FrameSize    int
	FrameSamples int
	SampleRate   int
}

// Relay wires registry, dispatcher, pump guard and audio source together.
// It owns the protocol semantics; the WebSocket adapter owns the transport.
type Relay struct {
	Registry   *Registry
	Dispatcher *Dispatcher
	Pumps      *Pumps
	Source     *audio.Source
	Framing    Framing
}

func NewRelay(source *audio.Source, framing Framing) *Relay {
	reg := NewRegistry()
	return &Relay{
		Registry:   reg,
		Dispatcher: NewDispatcher(reg),
		Pumps:      NewPumps(),
		Source:     source,
		Framing:    framing,
	}
}

// OnConnected handles a "connected" envelope: frame the current audio
// buffer and pump it to all players. Single-flight per connection; a second
// trigger while a run is in flight returns ErrPumpRunning and does nothing.
// Blocks until the run completes.
func (r *Relay) OnConnected(ctx context.Context, cid core.ConnID) error {
	if !r.Pumps.TryAcquire(cid) {
		log.Warn().Str("module", "app.relay").Str("cid", string(cid)).Msg("pump trigger rejected, run in flight")
		return ErrPumpRunning
	}
	defer r.Pumps.Release(cid)

	buf := r.Source.Bytes()
	frames := audio.Slice(buf, audio.SyncMarkerMP3, r.Framing.FrameSize)
	if len(frames) == 0 {
		metrics.PumpRuns.WithLabelValues("empty").Inc()
		log.Error().Str("module", "app.relay").Str("cid", string(cid)).Msg("no frames to pump, audio source empty")
		return nil
	}

	log.Info().Str("module", "app.relay").Str("cid", string(cid)).Int("frames", len(frames)).Msg("starting pump")
	pump := &Pump{Broadcaster: r.Dispatcher}
	frameDur := audio.FrameDuration(r.Framing.FrameSamples, r.Framing.SampleRate)
	if err := pump.Run(ctx, frames, frameDur); err != nil {
		metrics.PumpRuns.WithLabelValues("aborted").Inc()
		return err
	}
	metrics.PumpRuns.WithLabelValues("complete").Inc()
	return nil
}

// OnDisconnect removes the connection from the registry regardless of what
// terminated it. A departing server additionally tells every player the
// stream is over.
func (r *Relay) OnDisconnect(conn core.Conn) {
	r.Registry.Unregister(conn)
	if conn.Role() != core.RoleServer {
		return
	}
	payload, err := core.NewClose().Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("encode close envelope")
		return
	}
	r.Dispatcher.Broadcast(payload, core.EncodingJSON, core.RolePlayer)
	log.Info().Str("module", "app.relay").Str("cid", string(conn.ID())).Msg("server left, close broadcast to players")
}
