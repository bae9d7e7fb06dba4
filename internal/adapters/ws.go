package adapters

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog/log"

	"github.com/aircast/aircast/internal/app"
	"github.com/aircast/aircast/internal/core"
	"github.com/aircast/aircast/internal/metrics"
)

// Connection lifecycle states. A connection is registered on the
// connecting→open transition and cleaned up exactly once on any
// transition into closed.
const (
	StateConnecting = "connecting"
	StateOpen       = "open"
	StateClosed     = "closed"
)

func newConnFSM() *fsm.FSM {
	return fsm.NewFSM(
		StateConnecting,
		fsm.Events{
			{Name: "open", Src: []string{StateConnecting}, Dst: StateOpen},
			{Name: "close", Src: []string{StateConnecting, StateOpen}, Dst: StateClosed},
		}, nil,
	)
}

type WSController struct {
	Relay   *app.Relay
	Limiter *UpgradeLimiter
}

func NewWSController(relay *app.Relay, limiter *UpgradeLimiter) *WSController {
	return &WSController{Relay: relay, Limiter: limiter}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the per-connection receive loop
// until the peer goes away. ctx is the server's root context: pump runs
// triggered here outlive the triggering connection on purpose.
func (ctl *WSController) HandleWS(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	if ctl.Limiter != nil && !ctl.Limiter.Allow(token) {
		c.AbortWithStatus(http.StatusTooManyRequests)
		return
	}

	role := core.ParseRole(c.Query("clientType"))
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}

	cid := core.ConnID(uuid.NewString())
	log.Info().Str("module", "adapters.ws").Str("cid", string(cid)).Str("role", string(role)).Msg("socket connected")

	conn := newWSConn(cid, role, ws)
	ctl.serve(ctx, conn)
}

// serve drives the lifecycle machine and the receive loop for one
// connection. Split from HandleWS so tests can feed it a fake Socket.
func (ctl *WSController) serve(ctx context.Context, conn *wsConn) {
	machine := newConnFSM()

	if err := machine.Event(ctx, "open"); err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("lifecycle open")
		conn.Close()
		return
	}
	ctl.Relay.Registry.Register(conn, conn.Role())
	metrics.Connections.WithLabelValues(string(conn.Role())).Inc()

	// Cleanup is unconditional: whichever branch ends the loop, the
	// connection leaves the registry and a departing server triggers the
	// close broadcast.
	defer func() {
		_ = machine.Event(context.Background(), "close")
		ctl.Relay.OnDisconnect(conn)
		metrics.Connections.WithLabelValues(string(conn.Role())).Dec()
		conn.Close()
		log.Info().Str("module", "adapters.ws").Str("cid", string(conn.ID())).Msg("socket closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			mt, data, err := conn.sock.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "adapters.ws").Str("cid", string(conn.ID())).Msg("receive loop ended")
				return
			}
			ctl.handleMessage(ctx, conn, mt, data)
		}
	}
}

func (ctl *WSController) handleMessage(ctx context.Context, conn *wsConn, mt int, data []byte) {
	// Binary frames are accepted and discarded: there is no inbound binary
	// contract beyond "ignored".
	if mt == websocket.BinaryMessage {
		return
	}

	env, err := core.ParseEnvelope(data)
	if err != nil {
		// Unparseable text is dropped silently; no error goes back to the peer.
		return
	}

	switch env.Kind() {
	case core.EventMedia:
		// Inbound media is suppressed whether or not a payload is present:
		// placeholder for a bidirectional relay that is out of scope here.
	case core.EventConnected:
		log.Info().Str("module", "adapters.ws").Str("cid", string(conn.ID())).Msg("starting new call")
		go func() {
			if err := ctl.Relay.OnConnected(ctx, conn.ID()); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Str("cid", string(conn.ID())).Msg("pump run")
			}
		}()
	case core.EventChunk, core.EventClose, core.EventHangup, core.EventUnknown:
		// Not meaningful inbound; the loop just continues.
	}
}
