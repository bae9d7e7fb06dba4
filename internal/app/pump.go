package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aircast/aircast/internal/core"
	"github.com/aircast/aircast/internal/metrics"
)

// Pump paces delivery of a frame sequence to the player role: each frame is
// wrapped in a chunk envelope, broadcast, then the pump sleeps before the
// next frame. It runs to completion once started; players that disconnect
// mid-run simply fall out of later snapshots.
type Pump struct {
	Broadcaster core.Broadcaster
}

// Run streams frames in order. frameDur is the nominal playback time of one
// frame; the inter-frame sleep is frameDur/2, which delivers at roughly
// double the nominal playback rate. That halving matches the observed
// behavior of the deployed relay and is kept pending confirmation that it
// is intentional, so do not "fix" it here without a stakeholder decision.
func (p *Pump) Run(ctx context.Context, frames [][]byte, frameDur time.Duration) error {
	delay := frameDur / 2

	for i, frame := range frames {
		payload, err := core.NewChunk(frame).Encode()
		if err != nil {
			return err
		}
		p.Broadcaster.Broadcast(payload, core.EncodingJSON, core.RolePlayer)
		metrics.FramesSent.Inc()

		if i == len(frames)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	log.Info().Str("module", "app.pump").Int("frames", len(frames)).Dur("delay", delay).Msg("pump run complete")
	return nil
}

// Pumps is the single-flight guard over pump runs: at most one pump per
// triggering connection. A second "connected" trigger while a run is in
// flight is rejected instead of spawning an untracked duplicate.
type Pumps struct {
	mu     sync.Mutex
	active map[core.ConnID]struct{}
}

func NewPumps() *Pumps {
	return &Pumps{active: make(map[core.ConnID]struct{})}
}

// TryAcquire reserves the pump slot for cid. It returns false when a run
// triggered by cid is already in flight.
func (p *Pumps) TryAcquire(cid core.ConnID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, running := p.active[cid]; running {
		return false
	}
	p.active[cid] = struct{}{}
	metrics.PumpsActive.Inc()
	return true
}

// Release frees the slot reserved by TryAcquire.
func (p *Pumps) Release(cid core.ConnID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, running := p.active[cid]; running {
		delete(p.active, cid)
		metrics.PumpsActive.Dec()
	}
}

// Active reports the number of in-flight pump runs.
func (p *Pumps) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}
