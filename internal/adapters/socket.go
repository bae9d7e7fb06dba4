package adapters

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aircast/aircast/internal/core"
)

var ErrConnClosed = errors.New("connection closed")

const writeTimeout = 5 * time.Second

// Socket is an indirection over *websocket.Conn to ease testing.
type Socket interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// wsConn is the transport endpoint handed to the core. Writes are
// serialized by a mutex because gorilla allows only one concurrent writer;
// a broadcast therefore waits out a slow peer up to the write deadline
// before moving to the next snapshot entry.
type wsConn struct {
	id   core.ConnID
	role core.Role
	sock Socket

	mu     sync.Mutex
	closed bool
}

func newWSConn(id core.ConnID, role core.Role, sock Socket) *wsConn {
	return &wsConn{id: id, role: role, sock: sock}
}

func (c *wsConn) ID() core.ConnID { return c.id }
func (c *wsConn) Role() core.Role { return c.role }

func (c *wsConn) Send(enc core.Encoding, payload []byte) error {
	mt := websocket.TextMessage
	if enc == core.EncodingBinary {
		mt = websocket.BinaryMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if err := c.sock.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.sock.WriteMessage(mt, payload)
}

func (c *wsConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.sock.Close()
}
