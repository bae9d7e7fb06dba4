package app

import (
	"github.com/rs/zerolog/log"

	"github.com/aircast/aircast/internal/core"
	"github.com/aircast/aircast/internal/metrics"
)

// Dispatcher fans one payload out to every connection in a role's snapshot.
// Delivery is at-most-effort: a connection whose send fails is dropped from
// the registry and the broadcast moves on, so one dead or closed client
// never aborts delivery to the rest.
type Dispatcher struct {
	Registry *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{Registry: reg}
}

func (d *Dispatcher) Broadcast(payload []byte, enc core.Encoding, role core.Role) {
	snap := d.Registry.Snapshot(role)
	sent := 0
	for _, conn := range snap {
		if err := conn.Send(enc, payload); err != nil {
			metrics.SendFailures.Inc()
			d.Registry.Unregister(conn)
			log.Error().Err(err).Str("module", "app.dispatcher").Str("cid", string(conn.ID())).Msg("peer dropped during send")
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.dispatcher").Str("role", string(role)).Int("sent_to", sent).Int("snapshot", len(snap)).Msg("broadcast result")
}
