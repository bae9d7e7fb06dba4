package app

import (
	"errors"
	"sync"

	"github.com/aircast/aircast/internal/core"
)

// fakeConn records every payload delivered to it and can be flipped into a
// failing state to simulate a peer that closed mid-broadcast.
type fakeConn struct {
	id   core.ConnID
	role core.Role

	mu     sync.Mutex
	sent   [][]byte
	encs   []core.Encoding
	failed bool
	closed bool
}

var errPeerGone = errors.New("peer gone")

func newFakeConn(id string, role core.Role) *fakeConn {
	return &fakeConn{id: core.ConnID(id), role: role}
}

func (c *fakeConn) ID() core.ConnID { return c.id }
func (c *fakeConn) Role() core.Role { return c.role }

func (c *fakeConn) Send(enc core.Encoding, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return errPeerGone
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	c.sent = append(c.sent, buf)
	c.encs = append(c.encs, enc)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = true
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}
