/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package chat

import (
	"encoding/json"
	"time"

	"server/internal/entity"
)

// Actions a client may request over the socket.
const (
	ActionSendMessage = "send_message"
	ActionLoadHistory = "load_history"
	ActionEdit        = "edit"
	ActionReply       = "reply"
	ActionDelete      = "delete"
)

// Events the server pushes to clients.
const (
	EventNewMessage     = "new_message"
	EventMessageEdited  = "message_edited"
	EventMessageDeleted = "message_deleted"
)

// The unit every client request arrives in: an action name plus an
// action-specific payload, decoded by the handler that owns the action.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type sendMessagePayload struct {
	UserID  string `json:"user_id"`
	GroupID string `json:"group_id"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

type loadHistoryPayload struct {
	LastMessageID *uint64 `json:"last_message_id"` // Cursor: only messages with a smaller ID are returned. Nil for the newest page.
	UserID        string  `json:"user_id"`
	GroupID       string  `json:"group_id"`
}

type editPayload struct {
	UserID        string `json:"user_id"`
	MessageID     uint64 `json:"message_id"`
	GroupID       string `json:"group_id"`
	EditedContent string `json:"edited_content"`
	EditedType    string `json:"edited_type"`
}

type replyPayload struct {
	RepliedMessageID uint64 `json:"replied_message_id"`
	GroupID          string `json:"group_id"`
	RepliedToID      string `json:"replied_to_id"` // Author of the target as the client believes it. The stored target is authoritative.
	RepliedByID      string `json:"replied_by_id"`
	ReplyContent     string `json:"reply_content"`
	ReplyContentType string `json:"reply_content_type"`
}

type deletePayload struct {
	DeleteMessageID uint64 `json:"delete_message_id"`
	GroupID         string `json:"group_id"`
	UserID          string `json:"user_id"`
}

// The sanctioned view of a message on the wire. Built by explicit field copy
// so that storage columns never leak into the protocol by accident.
type wireMessage struct {
	ID        uint64    `json:"id"`
	SenderID  string    `json:"sender_id"`
	GroupID   string    `json:"group_id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	IsEdited  bool      `json:"is_edited"`
	ReplyTo   *uint64   `json:"reply_to,omitempty"`
}

func toWire(m *entity.Message) wireMessage {
	return wireMessage{
		ID:        m.ID,
		SenderID:  m.SenderUUID,
		GroupID:   m.GroupUUID,
		Content:   m.Content,
		Type:      m.Kind,
		CreatedAt: m.CreatedAt,
		IsEdited:  m.IsEdited,
		ReplyTo:   m.ReplyToID,
	}
}

type newMessageEvent struct {
	Action  string      `json:"action"`
	Message wireMessage `json:"message"`
}

type historyEvent struct {
	Action  string        `json:"action"`
	History []wireMessage `json:"history"` // Oldest first, ready to append to a transcript
}

type messageEditedEvent struct {
	Action    string `json:"action"`
	MessageID uint64 `json:"message_id"`
	Content   string `json:"content"`
	Type      string `json:"type"`
}

type messageDeletedEvent struct {
	Action    string `json:"action"`
	MessageID uint64 `json:"message_id"`
}

// Targeted error reply. AvailableActions is filled only for unknown actions.
type errorEnvelope struct {
	Error            string   `json:"error"`
	AvailableActions []string `json:"available_actions,omitempty"`
}
