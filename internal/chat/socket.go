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
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"server/internal/nlog"
	"server/internal/service"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

const writeTimeout = 10 * time.Second

// wsTransport adapts one websocket connection to the Transport interface.
// The mutex serializes writers: a broadcast and a targeted error reply may
// race for the same socket.
type wsTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (t *wsTransport) Send(ctx context.Context, v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, t.conn, v)
}

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "")
}

// Endpoint upgrades authenticated group members to a websocket and pumps
// their envelopes into the router until the socket dies.
type Endpoint struct {
	registry     *Registry
	router       *Router
	gate         service.MembershipService
	sessionStore sessions.Store
	logger       nlog.Logger
}

func NewEndpoint(registry *Registry, router *Router, gate service.MembershipService, sessionStore sessions.Store, logger nlog.Logger) *Endpoint {
	return &Endpoint{
		registry:     registry,
		router:       router,
		gate:         gate,
		sessionStore: sessionStore,
		logger:       logger,
	}
}

func (e *Endpoint) Logf(format string, v ...any) {
	e.logger.Logf(format, v...)
}

// ServeGroupSocket handles GET /api/{user_id}/{group_id}/ws. Both admission
// checks run before the upgrade, so a rejected client gets a plain HTTP
// status instead of a websocket that closes immediately.
func (e *Endpoint) ServeGroupSocket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userUuid := vars["user_id"]
	groupUuid := vars["group_id"]

	session, err := e.sessionStore.Get(r, "auth-session")
	if err != nil {
		http.Error(w, "Invalid session", http.StatusUnauthorized)
		return
	}
	sessionUser, ok := session.Values["user_uuid"].(string)
	if !ok || sessionUser != userUuid {
		http.Error(w, "Not logged in as this user", http.StatusUnauthorized)
		return
	}

	member, err := e.gate.IsMember(userUuid, groupUuid)
	if err != nil {
		e.Logf("Admission check failed for user %s in group %s {%v}", userUuid, groupUuid, err)
		http.Error(w, "Could not verify group membership", http.StatusInternalServerError)
		return
	}
	if !member {
		http.Error(w, "Not a member of this group", http.StatusForbidden)
		return
	}

	socket, err := websocket.Accept(w, r, nil)
	if err != nil {
		e.Logf("Websocket upgrade failed for user %s {%v}", userUuid, err)
		return
	}

	conn := NewConn(uuid.New().String(), userUuid, groupUuid, &wsTransport{conn: socket})
	e.registry.Connect(conn)
	e.Logf("User %s joined group %s on connection %s", userUuid, groupUuid, conn.ID)

	defer func() {
		e.registry.Disconnect(conn)
		socket.Close(websocket.StatusNormalClosure, "")
		e.Logf("Connection %s closed", conn.ID)
	}()

	ctx := r.Context()
	for {
		// Read raw frames so a malformed envelope only costs the client an
		// error reply, not the whole connection
		_, data, err := socket.Read(ctx)
		if err != nil {
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			if sendErr := conn.Send(ctx, errorEnvelope{Error: "Malformed envelope"}); sendErr != nil {
				return
			}
			continue
		}
		e.router.Dispatch(ctx, conn, envelope)
	}
}
