package transport

import (
	"errors"
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
)

// sendQueueSize bounds the per-connection outbound queue described in
// §4.4(b): a slow or stalled client must not block the room lock that
// Bus.Emit holds while it fans a broadcast out to every subscriber.
const sendQueueSize = 64

// errQueueFull is returned by Send when a connection's outbound queue
// is saturated — the "overflow drops the subscriber" half of §4.4(b).
var errQueueFull = errors.New("send queue full")

type frame struct {
	tag     string
	payload any
}

// Connection adapts a socket.io *socket.Socket to the member.Connection
// and broadcast.Subscriber contracts. Frames are queued and flushed by
// a dedicated goroutine so Send never blocks its caller (the room
// lock) on network I/O; once the queue is full the connection is
// considered dead and Send fails, which is how Bus.Emit discovers and
// drops it.
type Connection struct {
	sock   *socket.Socket
	queue  chan frame
	mu     sync.Mutex
	closed bool
}

// NewConnection wraps sock and starts its flush goroutine.
func NewConnection(sock *socket.Socket) *Connection {
	c := &Connection{sock: sock, queue: make(chan frame, sendQueueSize)}
	go c.flush()
	return c
}

func (c *Connection) flush() {
	for f := range c.queue {
		c.sock.Emit(f.tag, f.payload)
	}
}

// Send enqueues tag/payload for delivery, failing immediately if the
// queue is already full rather than blocking the caller. A broadcast
// can race a "disconnecting" event and reach Send after Close, so the
// closed flag is checked under the same lock Close sets it under,
// rather than risk a send on a closed queue channel.
func (c *Connection) Send(tag string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errQueueFull
	}
	select {
	case c.queue <- frame{tag, payload}:
		return nil
	default:
		return errQueueFull
	}
}

// Close stops the flush goroutine. Idempotent: each Connection is torn
// down exactly once, from the socket's own "disconnecting" event, but
// a second call must not close an already-closed channel.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.queue)
}

// ID returns the socket.io session id backing this connection.
func (c *Connection) ID() string {
	return string(c.sock.Id())
}
