package app

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/aircast/aircast/internal/core"
)

// Registry holds the two role-partitioned membership sets. A connection
// lives in at most one set at a time; broadcasts iterate snapshots, never
// the live maps, so a concurrent unregister can never surface mid-fanout.
type Registry struct {
	mu      sync.RWMutex
	players map[core.ConnID]core.Conn
	servers map[core.ConnID]core.Conn
}

func NewRegistry() *Registry {
	return &Registry{
		players: make(map[core.ConnID]core.Conn),
		servers: make(map[core.ConnID]core.Conn),
	}
}

func (r *Registry) set(role core.Role) map[core.ConnID]core.Conn {
	if role == core.RoleServer {
		return r.servers
	}
	return r.players
}

// Register inserts conn into the set for role. Idempotent if already present.
func (r *Registry) Register(conn core.Conn, role core.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(role)[conn.ID()] = conn
	log.Info().Str("module", "app.registry").Str("cid", string(conn.ID())).Str("role", string(role)).Msg("registered connection")
}

// Unregister removes conn from whichever set contains it. No-op if absent,
// so calling it twice leaves the registry in the same state as once.
func (r *Registry) Unregister(conn core.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, conn.ID())
	delete(r.servers, conn.ID())
	log.Info().Str("module", "app.registry").Str("cid", string(conn.ID())).Msg("unregistered connection")
}

// Snapshot returns a point-in-time copy of the role's members, ordered by
// connection ID, safe to iterate while the registry mutates concurrently.
func (r *Registry) Snapshot(role core.Role) []core.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.set(role)
	out := make([]core.Conn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *Registry) Count(role core.Role) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.set(role))
}
