package core

// Role is the fixed classification of a connection, assigned once at open
// time and immutable afterwards.
type Role string

const (
	RolePlayer Role = "player"
	RoleServer Role = "server"
)

// ParseRole maps the clientType request parameter to a Role.
// Anything unrecognized (including empty) defaults to player.
func ParseRole(s string) Role {
	if s == string(RoleServer) {
		return RoleServer
	}
	return RolePlayer
}

type ConnID string

// Encoding selects how a broadcast payload is framed on the wire.
type Encoding int

const (
	EncodingBinary Encoding = iota
	EncodingJSON
	EncodingText
)

// Conn is a transport endpoint as the core sees it.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	ID() ConnID
	Role() Role
	Send(enc Encoding, payload []byte) error
	Close()
}

// Registry is the role-partitioned membership view the dispatcher fans
// out over. All operations are total.
type Registry interface {
	Register(conn Conn, role Role)
	Unregister(conn Conn)
	Snapshot(role Role) []Conn
	Count(role Role) int
}

// Broadcaster delivers one payload to every connection registered under a
// role at call time. At-most-effort: no retry, no acknowledgment.
type Broadcaster interface {
	Broadcast(payload []byte, enc Encoding, role Role)
}
