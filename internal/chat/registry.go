/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package chat

import (
	"context"
	"sync"

	"server/internal/nlog"
)

// One live duplex connection towards a client. Implementations must be safe
// for concurrent Send calls.
type Transport interface {
	Send(ctx context.Context, v any) error
	Close() error
}

// The registry's record of a live connection, bound to exactly one group for
// its whole lifetime. Re-homing a connection to another group requires a
// disconnect and a new admission.
type Conn struct {
	ID        string // Unique identifier of this connection
	UserUUID  string // UUID of the authenticated user behind it
	GroupUUID string // UUID of the group the connection is bound to

	transport Transport
}

func NewConn(id, userUuid, groupUuid string, transport Transport) *Conn {
	return &Conn{
		ID:        id,
		UserUUID:  userUuid,
		GroupUUID: groupUuid,
		transport: transport,
	}
}

func (c *Conn) Send(ctx context.Context, v any) error {
	return c.transport.Send(ctx, v)
}

// Registry tracks, per group, the set of currently open connections and fans
// events out to them. It is constructed once at startup and injected into the
// socket endpoint; it is the only shared mutable state of the chat.
type Registry struct {
	logger nlog.Logger

	mu     sync.RWMutex
	groups map[string]map[*Conn]struct{}
}

func NewRegistry(logger nlog.Logger) *Registry {
	return &Registry{
		logger: logger,
		groups: make(map[string]map[*Conn]struct{}),
	}
}

func (r *Registry) Logf(format string, v ...any) {
	r.logger.Logf(format, v...)
}

// Connect registers the connection under its bound group. Registering the
// same connection twice leaves a single entry.
func (r *Registry) Connect(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.groups[c.GroupUUID]
	if !ok {
		set = make(map[*Conn]struct{})
		r.groups[c.GroupUUID] = set
	}
	set[c] = struct{}{}
}

// Disconnect removes the connection from its group's set. Disconnecting a
// connection that was never registered, or was already removed by a failed
// broadcast, is a no-op: the error path and the transport-close path may race.
func (r *Registry) Disconnect(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.groups[c.GroupUUID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.groups, c.GroupUUID)
	}
}

// Broadcast sends payload to every connection currently registered under the
// group. A connection whose send fails is deregistered and closed, and the
// fan-out continues with the rest: partial delivery is the documented failure
// mode, not an error.
func (r *Registry) Broadcast(ctx context.Context, groupUuid string, payload any) {
	r.mu.RLock()
	conns := make([]*Conn, 0, len(r.groups[groupUuid]))
	for c := range r.groups[groupUuid] {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(ctx, payload); err != nil {
			r.Logf("Dropping connection %s after failed send {%v}", c.ID, err)
			r.Disconnect(c)
			c.transport.Close()
		}
	}
}

// GroupSize reports how many connections are currently registered for the group.
func (r *Registry) GroupSize(groupUuid string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[groupUuid])
}
