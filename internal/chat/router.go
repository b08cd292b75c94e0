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
	"errors"
	"fmt"

	"server/internal/entity"
	"server/internal/nlog"
	"server/internal/repository"
	"server/internal/service"
)

var knownActions = []string{
	ActionSendMessage,
	ActionLoadHistory,
	ActionEdit,
	ActionReply,
	ActionDelete,
}

// Router decodes client envelopes and runs the matching action against the
// message store, guarded by the membership gate. Errors go back to the sender
// only; successful mutations are broadcast to the whole group through the
// registry. A Router carries no per-connection state and a single instance
// serves every connection.
type Router struct {
	messages repository.MessageRepository
	gate     service.MembershipService
	notifier service.NotificationService
	registry *Registry
	logger   nlog.Logger
	pageSize int // Maximum number of messages a history page may carry
}

func NewRouter(messages repository.MessageRepository, gate service.MembershipService, notifier service.NotificationService, registry *Registry, logger nlog.Logger, pageSize int) *Router {
	return &Router{
		messages: messages,
		gate:     gate,
		notifier: notifier,
		registry: registry,
		logger:   logger,
		pageSize: pageSize,
	}
}

func (rt *Router) Logf(format string, v ...any) {
	rt.logger.Logf(format, v...)
}

// Dispatch routes one envelope to its action handler. Unknown actions are
// answered with the list of actions the server does understand, and the
// connection stays open: an outdated client should not lose its session over
// a feature it does not have yet.
func (rt *Router) Dispatch(ctx context.Context, conn *Conn, envelope Envelope) {
	switch envelope.Action {
	case ActionSendMessage:
		rt.handleSendMessage(ctx, conn, envelope.Payload)
	case ActionLoadHistory:
		rt.handleLoadHistory(ctx, conn, envelope.Payload)
	case ActionEdit:
		rt.handleEdit(ctx, conn, envelope.Payload)
	case ActionReply:
		rt.handleReply(ctx, conn, envelope.Payload)
	case ActionDelete:
		rt.handleDelete(ctx, conn, envelope.Payload)
	default:
		rt.Logf("Connection %s requested unknown action %q", conn.ID, envelope.Action)
		rt.sendError(ctx, conn, errorEnvelope{
			Error:            fmt.Sprintf("Unknown action %q", envelope.Action),
			AvailableActions: knownActions,
		})
	}
}

// sendError delivers an error to the offending connection only. The rest of
// the group never learns a request failed.
func (rt *Router) sendError(ctx context.Context, conn *Conn, e errorEnvelope) {
	if err := conn.Send(ctx, e); err != nil {
		rt.Logf("Could not deliver error to connection %s {%v}", conn.ID, err)
	}
}

func (rt *Router) rejectf(ctx context.Context, conn *Conn, format string, v ...any) {
	rt.sendError(ctx, conn, errorEnvelope{Error: fmt.Sprintf(format, v...)})
}

// checkScope verifies that the payload targets the group the connection was
// admitted to and that the payload's claimed author is the authenticated
// user. A client can only ever act as itself, inside its own socket's group.
func (rt *Router) checkScope(ctx context.Context, conn *Conn, groupUuid, userUuid string) bool {
	if groupUuid != conn.GroupUUID {
		rt.rejectf(ctx, conn, "Payload targets group %s but the connection is bound to group %s", groupUuid, conn.GroupUUID)
		return false
	}
	if userUuid != conn.UserUUID {
		rt.rejectf(ctx, conn, "Payload user does not match the authenticated user")
		return false
	}
	return true
}

// checkMembership re-reads the member relation. Admission at connect time is
// not enough: a user removed from the group mid-session must be cut off at
// the next mutating action.
func (rt *Router) checkMembership(ctx context.Context, conn *Conn) bool {
	member, err := rt.gate.IsMember(conn.UserUUID, conn.GroupUUID)
	if err != nil {
		rt.Logf("Membership check failed for user %s in group %s {%v}", conn.UserUUID, conn.GroupUUID, err)
		rt.rejectf(ctx, conn, "Could not verify group membership")
		return false
	}
	if !member {
		rt.rejectf(ctx, conn, "You are not a member of this group")
		return false
	}
	return true
}

func validKind(kind string) bool {
	return kind == entity.KindText || kind == entity.KindImage
}

func (rt *Router) handleSendMessage(ctx context.Context, conn *Conn, raw json.RawMessage) {
	var p sendMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		rt.rejectf(ctx, conn, "Malformed send_message payload")
		return
	}
	if !rt.checkScope(ctx, conn, p.GroupID, p.UserID) {
		return
	}
	if p.Content == "" {
		rt.rejectf(ctx, conn, "A message needs a content")
		return
	}
	if !validKind(p.Type) {
		rt.rejectf(ctx, conn, "Unknown content type %q", p.Type)
		return
	}
	if !rt.checkMembership(ctx, conn) {
		return
	}

	message := &entity.Message{
		GroupUUID:  conn.GroupUUID,
		SenderUUID: conn.UserUUID,
		Content:    p.Content,
		Kind:       p.Type,
	}
	if err := rt.messages.Create(message); err != nil {
		rt.Logf("Could not store message from %s in group %s {%v}", conn.UserUUID, conn.GroupUUID, err)
		rt.rejectf(ctx, conn, "Could not store the message")
		return
	}

	rt.registry.Broadcast(ctx, conn.GroupUUID, newMessageEvent{
		Action:  EventNewMessage,
		Message: toWire(message),
	})
	rt.notifyGroup(conn, "New message in your group", p.Content)
}

// notifyGroup records a notification for every member of the connection's
// group except the acting user. Failures are logged by the notifier and
// swallowed here: the message is already committed and broadcast.
func (rt *Router) notifyGroup(conn *Conn, title, body string) {
	members, err := rt.gate.MembersOf(conn.GroupUUID)
	if err != nil {
		rt.Logf("Could not list members of group %s for notifications {%v}", conn.GroupUUID, err)
		return
	}
	for _, member := range members {
		if member == conn.UserUUID {
			continue
		}
		rt.notifier.Notify(member, title, body, service.CategoryChatMessage)
	}
}

func (rt *Router) handleLoadHistory(ctx context.Context, conn *Conn, raw json.RawMessage) {
	var p loadHistoryPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		rt.rejectf(ctx, conn, "Malformed load_history payload")
		return
	}
	if !rt.checkScope(ctx, conn, p.GroupID, p.UserID) {
		return
	}
	if !rt.checkMembership(ctx, conn) {
		return
	}

	var beforeId uint64
	if p.LastMessageID != nil {
		beforeId = *p.LastMessageID
	}

	messages, err := rt.messages.History(conn.GroupUUID, beforeId, rt.pageSize)
	if err != nil {
		rt.Logf("Could not load history for group %s {%v}", conn.GroupUUID, err)
		rt.rejectf(ctx, conn, "Could not load the message history")
		return
	}

	// The store hands the page newest first; the client wants a transcript
	history := make([]wireMessage, len(messages))
	for i, m := range messages {
		history[len(messages)-1-i] = toWire(m)
	}

	if err := conn.Send(ctx, historyEvent{Action: ActionLoadHistory, History: history}); err != nil {
		rt.Logf("Could not deliver history to connection %s {%v}", conn.ID, err)
	}
}

func (rt *Router) handleEdit(ctx context.Context, conn *Conn, raw json.RawMessage) {
	var p editPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		rt.rejectf(ctx, conn, "Malformed edit payload")
		return
	}
	if !rt.checkScope(ctx, conn, p.GroupID, p.UserID) {
		return
	}
	if p.EditedContent == "" {
		rt.rejectf(ctx, conn, "A message needs a content")
		return
	}
	if !validKind(p.EditedType) {
		rt.rejectf(ctx, conn, "Unknown content type %q", p.EditedType)
		return
	}
	if !rt.checkMembership(ctx, conn) {
		return
	}

	message, err := rt.messages.GetByID(p.MessageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			rt.rejectf(ctx, conn, "Message %d does not exist", p.MessageID)
		} else {
			rt.Logf("Could not fetch message %d {%v}", p.MessageID, err)
			rt.rejectf(ctx, conn, "Could not fetch the message")
		}
		return
	}
	if message.GroupUUID != conn.GroupUUID {
		rt.rejectf(ctx, conn, "Message %d does not belong to this group", p.MessageID)
		return
	}
	if message.IsDeleted {
		rt.rejectf(ctx, conn, "Message %d was deleted and can no longer be edited", p.MessageID)
		return
	}
	if message.SenderUUID != conn.UserUUID {
		rt.rejectf(ctx, conn, "Only the author can edit a message")
		return
	}

	if err := rt.messages.Edit(p.MessageID, p.EditedContent, p.EditedType); err != nil {
		rt.Logf("Could not edit message %d {%v}", p.MessageID, err)
		rt.rejectf(ctx, conn, "Could not edit the message")
		return
	}

	rt.registry.Broadcast(ctx, conn.GroupUUID, messageEditedEvent{
		Action:    EventMessageEdited,
		MessageID: p.MessageID,
		Content:   p.EditedContent,
		Type:      p.EditedType,
	})
}

func (rt *Router) handleReply(ctx context.Context, conn *Conn, raw json.RawMessage) {
	var p replyPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		rt.rejectf(ctx, conn, "Malformed reply payload")
		return
	}
	if !rt.checkScope(ctx, conn, p.GroupID, p.RepliedByID) {
		return
	}
	if p.ReplyContent == "" {
		rt.rejectf(ctx, conn, "A message needs a content")
		return
	}
	if !validKind(p.ReplyContentType) {
		rt.rejectf(ctx, conn, "Unknown content type %q", p.ReplyContentType)
		return
	}
	if !rt.checkMembership(ctx, conn) {
		return
	}

	target, err := rt.messages.GetByID(p.RepliedMessageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			rt.rejectf(ctx, conn, "Message %d does not exist", p.RepliedMessageID)
		} else {
			rt.Logf("Could not fetch message %d {%v}", p.RepliedMessageID, err)
			rt.rejectf(ctx, conn, "Could not fetch the replied message")
		}
		return
	}
	if target.GroupUUID != conn.GroupUUID {
		rt.rejectf(ctx, conn, "Message %d does not belong to this group", p.RepliedMessageID)
		return
	}
	if target.IsDeleted {
		rt.rejectf(ctx, conn, "Message %d was deleted and can no longer be replied to", p.RepliedMessageID)
		return
	}

	targetId := target.ID
	message := &entity.Message{
		GroupUUID:  conn.GroupUUID,
		SenderUUID: conn.UserUUID,
		Content:    p.ReplyContent,
		Kind:       p.ReplyContentType,
		ReplyToID:  &targetId,
	}
	link := &entity.ReplyLink{
		GroupUUID:     conn.GroupUUID,
		TargetID:      target.ID,
		RepliedByUUID: conn.UserUUID,
		RepliedToUUID: target.SenderUUID, // The author as stored, not as claimed by the client
	}
	if err := rt.messages.CreateReply(message, link); err != nil {
		rt.Logf("Could not store reply from %s in group %s {%v}", conn.UserUUID, conn.GroupUUID, err)
		rt.rejectf(ctx, conn, "Could not store the reply")
		return
	}

	rt.registry.Broadcast(ctx, conn.GroupUUID, newMessageEvent{
		Action:  EventNewMessage,
		Message: toWire(message),
	})
	if target.SenderUUID != conn.UserUUID {
		rt.notifier.Notify(target.SenderUUID, "Someone replied to your message", p.ReplyContent, service.CategoryChatReply)
	}
}

func (rt *Router) handleDelete(ctx context.Context, conn *Conn, raw json.RawMessage) {
	var p deletePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		rt.rejectf(ctx, conn, "Malformed delete payload")
		return
	}
	if !rt.checkScope(ctx, conn, p.GroupID, p.UserID) {
		return
	}
	if !rt.checkMembership(ctx, conn) {
		return
	}

	message, err := rt.messages.GetByID(p.DeleteMessageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			rt.rejectf(ctx, conn, "Message %d does not exist", p.DeleteMessageID)
		} else {
			rt.Logf("Could not fetch message %d {%v}", p.DeleteMessageID, err)
			rt.rejectf(ctx, conn, "Could not fetch the message")
		}
		return
	}
	if message.GroupUUID != conn.GroupUUID {
		rt.rejectf(ctx, conn, "Message %d does not belong to this group", p.DeleteMessageID)
		return
	}
	if message.IsDeleted {
		rt.rejectf(ctx, conn, "Message %d is already deleted", p.DeleteMessageID)
		return
	}

	if message.SenderUUID != conn.UserUUID {
		moderator, err := rt.gate.CanModerate(conn.UserUUID, conn.GroupUUID)
		if err != nil {
			rt.Logf("Moderator check failed for user %s in group %s {%v}", conn.UserUUID, conn.GroupUUID, err)
			rt.rejectf(ctx, conn, "Could not verify delete permissions")
			return
		}
		if !moderator {
			rt.rejectf(ctx, conn, "Only the author or the group leader can delete a message")
			return
		}
	}

	if err := rt.messages.SoftDelete(p.DeleteMessageID); err != nil {
		rt.Logf("Could not delete message %d {%v}", p.DeleteMessageID, err)
		rt.rejectf(ctx, conn, "Could not delete the message")
		return
	}

	rt.registry.Broadcast(ctx, conn.GroupUUID, messageDeletedEvent{
		Action:    EventMessageDeleted,
		MessageID: p.DeleteMessageID,
	})
}
