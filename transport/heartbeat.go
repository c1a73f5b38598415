package transport

import (
	"sync"
	"time"

	"github.com/zishang520/socket.io/v2/socket"
)

// heartbeat drives one connection's ping/pong cycle: a ping_heartbeat
// every HeartbeatInterval, and a HeartbeatTimeout deadline that is
// pushed back by every received pong_heartbeat. A deadline firing
// treats the connection as dead.
type heartbeat struct {
	mu      sync.Mutex
	ticker  *time.Ticker
	timeout *time.Timer
	done    chan struct{}
}

// startHeartbeat begins pinging sock and invokes onTimeout (once) if
// no pong arrives within HeartbeatTimeout.
func startHeartbeat(sock *socket.Socket, onTimeout func()) *heartbeat {
	h := &heartbeat{
		ticker: time.NewTicker(HeartbeatInterval),
		done:   make(chan struct{}),
	}
	h.timeout = time.AfterFunc(HeartbeatTimeout, onTimeout)

	go func() {
		for {
			select {
			case <-h.ticker.C:
				sock.Emit(TagPingHeartbeat)
			case <-h.done:
				return
			}
		}
	}()
	return h
}

// pong pushes the timeout deadline back by HeartbeatTimeout.
func (h *heartbeat) pong() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeout.Reset(HeartbeatTimeout)
}

// stop halts the ping ticker and the timeout timer.
func (h *heartbeat) stop() {
	h.ticker.Stop()
	h.mu.Lock()
	h.timeout.Stop()
	h.mu.Unlock()
	close(h.done)
}
