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
	"testing"

	"server/internal/entity"
	"server/internal/repository"
)

type MockMessageRepo struct {
	nextId   uint64
	messages map[uint64]*entity.Message
	links    map[uint64]*entity.ReplyLink
}

func NewMockMessageRepo() *MockMessageRepo {
	return &MockMessageRepo{
		messages: make(map[uint64]*entity.Message),
		links:    make(map[uint64]*entity.ReplyLink),
	}
}

func (m *MockMessageRepo) Create(message *entity.Message) error {
	m.nextId++
	message.ID = m.nextId
	m.messages[message.ID] = message
	return nil
}

func (m *MockMessageRepo) CreateReply(message *entity.Message, link *entity.ReplyLink) error {
	m.Create(message)
	link.MessageID = message.ID
	m.links[link.MessageID] = link
	return nil
}

func (m *MockMessageRepo) GetByID(id uint64) (*entity.Message, error) {
	message, ok := m.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *message
	return &copy, nil
}

func (m *MockMessageRepo) History(groupUuid string, beforeId uint64, limit int) ([]*entity.Message, error) {
	var page []*entity.Message
	start := m.nextId
	if beforeId > 0 {
		start = beforeId - 1
	}
	for id := start; id >= 1 && len(page) < limit; id-- {
		message, ok := m.messages[id]
		if !ok || message.GroupUUID != groupUuid || message.IsDeleted {
			continue
		}
		page = append(page, message)
	}
	return page, nil
}

func (m *MockMessageRepo) Edit(id uint64, content, kind string) error {
	message, ok := m.messages[id]
	if !ok {
		return repository.ErrNotFound
	}
	message.Content = content
	message.Kind = kind
	message.IsEdited = true
	return nil
}

func (m *MockMessageRepo) SoftDelete(id uint64) error {
	message, ok := m.messages[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(m.links, id)
	message.IsDeleted = true
	message.Content = ""
	return nil
}

func (m *MockMessageRepo) GetReplyLink(messageId uint64) (*entity.ReplyLink, error) {
	link, ok := m.links[messageId]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return link, nil
}

type MockGate struct {
	members map[string][]string
	leaders map[string]string
}

func (g *MockGate) IsMember(userUuid, groupUuid string) (bool, error) {
	for _, member := range g.members[groupUuid] {
		if member == userUuid {
			return true, nil
		}
	}
	return false, nil
}

func (g *MockGate) MembersOf(groupUuid string) ([]string, error) {
	return g.members[groupUuid], nil
}

func (g *MockGate) CanModerate(userUuid, groupUuid string) (bool, error) {
	return g.leaders[groupUuid] == userUuid, nil
}

type recordedNotification struct {
	userUuid, title, body, category string
}

type MockNotifier struct {
	recorded []recordedNotification
}

func (n *MockNotifier) Notify(userUuid, title, body, category string) error {
	n.recorded = append(n.recorded, recordedNotification{userUuid, title, body, category})
	return nil
}

func (n *MockNotifier) ListForUser(userUuid string) ([]*entity.Notification, error) {
	return nil, nil
}

func (n *MockNotifier) MarkRead(id uint64, userUuid string) error { return nil }

type routerFixture struct {
	router   *Router
	registry *Registry
	repo     *MockMessageRepo
	gate     *MockGate
	notifier *MockNotifier
}

func newRouterFixture(pageSize int) *routerFixture {
	repo := NewMockMessageRepo()
	gate := &MockGate{
		members: map[string][]string{"group-1": {"user-a", "user-b", "user-l"}},
		leaders: map[string]string{"group-1": "user-l"},
	}
	notifier := &MockNotifier{}
	registry := NewRegistry(&MockLogger{})
	router := NewRouter(repo, gate, notifier, registry, &MockLogger{}, pageSize)
	return &routerFixture{router, registry, repo, gate, notifier}
}

func (f *routerFixture) attach(id, userUuid, groupUuid string) (*Conn, *MockTransport) {
	transport := &MockTransport{}
	conn := NewConn(id, userUuid, groupUuid, transport)
	f.registry.Connect(conn)
	return conn, transport
}

func (f *routerFixture) dispatch(t *testing.T, conn *Conn, action string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Could not marshal the payload {%v}", err)
	}
	f.router.Dispatch(context.Background(), conn, Envelope{Action: action, Payload: raw})
}

func lastError(t *testing.T, transport *MockTransport) errorEnvelope {
	t.Helper()
	e, ok := transport.lastSent().(errorEnvelope)
	if !ok {
		t.Fatalf("Expected an error envelope, got %T", transport.lastSent())
	}
	return e
}

func TestUnknownActionListsAvailableOnes(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")

	f.dispatch(t, conn, "shout", map[string]any{})

	e := lastError(t, transport)
	if len(e.AvailableActions) != len(knownActions) {
		t.Errorf("Expected %d available actions, got %d", len(knownActions), len(e.AvailableActions))
	}
	if f.registry.GroupSize("group-1") != 1 {
		t.Errorf("An unknown action must not cost the client its connection")
	}

	// The same connection keeps working afterwards
	f.dispatch(t, conn, ActionSendMessage, sendMessagePayload{
		UserID: "user-a", GroupID: "group-1", Content: "still here", Type: entity.KindText,
	})
	if _, ok := transport.lastSent().(newMessageEvent); !ok {
		t.Errorf("Expected the next action to succeed, got %T", transport.lastSent())
	}
}

func TestSendMessageBroadcastsToGroup(t *testing.T) {
	f := newRouterFixture(50)
	sender, senderTr := f.attach("c1", "user-a", "group-1")
	_, otherTr := f.attach("c2", "user-b", "group-1")
	_, strangerTr := f.attach("c3", "user-c", "group-2")

	f.dispatch(t, sender, ActionSendMessage, sendMessagePayload{
		UserID: "user-a", GroupID: "group-1", Content: "hello", Type: entity.KindText,
	})

	event, ok := senderTr.lastSent().(newMessageEvent)
	if !ok {
		t.Fatalf("Expected the sender to receive its own message, got %T", senderTr.lastSent())
	}
	if event.Message.SenderID != "user-a" || event.Message.Content != "hello" {
		t.Errorf("Broadcast carries the wrong message: %+v", event.Message)
	}
	if event.Message.ID == 0 {
		t.Errorf("Expected the stored id on the broadcast message")
	}
	if otherTr.sentCount() != 1 {
		t.Errorf("Expected the other group member to receive the message")
	}
	if strangerTr.sentCount() != 0 {
		t.Errorf("A connection of another group received the message")
	}
}

func TestSendMessageNotifiesOtherMembersOnly(t *testing.T) {
	f := newRouterFixture(50)
	sender, _ := f.attach("c1", "user-a", "group-1")

	f.dispatch(t, sender, ActionSendMessage, sendMessagePayload{
		UserID: "user-a", GroupID: "group-1", Content: "hello", Type: entity.KindText,
	})

	if len(f.notifier.recorded) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(f.notifier.recorded))
	}
	for _, n := range f.notifier.recorded {
		if n.userUuid == "user-a" {
			t.Errorf("The sender notified itself")
		}
	}
}

func TestSendMessageRejectsForeignGroup(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")

	f.dispatch(t, conn, ActionSendMessage, sendMessagePayload{
		UserID: "user-a", GroupID: "group-2", Content: "smuggled", Type: entity.KindText,
	})

	lastError(t, transport)
	if len(f.repo.messages) != 0 {
		t.Errorf("A message for a foreign group was stored")
	}
}

func TestSendMessageRejectsSpoofedUser(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")

	f.dispatch(t, conn, ActionSendMessage, sendMessagePayload{
		UserID: "user-b", GroupID: "group-1", Content: "not me", Type: entity.KindText,
	})

	lastError(t, transport)
	if len(f.repo.messages) != 0 {
		t.Errorf("A spoofed message was stored")
	}
}

func TestSendMessageRechecksMembership(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")

	// Admitted at connect time, removed from the group afterwards
	f.gate.members["group-1"] = []string{"user-b", "user-l"}

	f.dispatch(t, conn, ActionSendMessage, sendMessagePayload{
		UserID: "user-a", GroupID: "group-1", Content: "too late", Type: entity.KindText,
	})

	lastError(t, transport)
	if len(f.repo.messages) != 0 {
		t.Errorf("A former member's message was stored")
	}
}

func TestSendMessageRejectsUnknownContentType(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")

	f.dispatch(t, conn, ActionSendMessage, sendMessagePayload{
		UserID: "user-a", GroupID: "group-1", Content: "x", Type: "video",
	})

	lastError(t, transport)
}

func seedMessages(f *routerFixture, groupUuid string, count int) {
	for i := 0; i < count; i++ {
		f.repo.Create(&entity.Message{
			GroupUUID:  groupUuid,
			SenderUUID: "user-b",
			Content:    "seeded",
			Kind:       entity.KindText,
		})
	}
}

func TestLoadHistoryReturnsNewestPageAscending(t *testing.T) {
	f := newRouterFixture(2)
	conn, transport := f.attach("c1", "user-a", "group-1")
	seedMessages(f, "group-1", 5)

	f.dispatch(t, conn, ActionLoadHistory, loadHistoryPayload{
		UserID: "user-a", GroupID: "group-1",
	})

	event, ok := transport.lastSent().(historyEvent)
	if !ok {
		t.Fatalf("Expected a history event, got %T", transport.lastSent())
	}
	if len(event.History) != 2 {
		t.Fatalf("Expected a page of 2, got %d", len(event.History))
	}
	if event.History[0].ID != 4 || event.History[1].ID != 5 {
		t.Errorf("Expected ids [4 5], got [%d %d]", event.History[0].ID, event.History[1].ID)
	}
}

func TestLoadHistoryFollowsTheCursor(t *testing.T) {
	f := newRouterFixture(2)
	conn, transport := f.attach("c1", "user-a", "group-1")
	seedMessages(f, "group-1", 5)

	cursor := uint64(4)
	f.dispatch(t, conn, ActionLoadHistory, loadHistoryPayload{
		LastMessageID: &cursor, UserID: "user-a", GroupID: "group-1",
	})

	event := transport.lastSent().(historyEvent)
	if len(event.History) != 2 || event.History[0].ID != 2 || event.History[1].ID != 3 {
		t.Errorf("Expected ids [2 3] before the cursor, got %+v", event.History)
	}
}

func TestLoadHistorySkipsTombstones(t *testing.T) {
	f := newRouterFixture(10)
	conn, transport := f.attach("c1", "user-a", "group-1")
	seedMessages(f, "group-1", 3)
	f.repo.SoftDelete(2)

	f.dispatch(t, conn, ActionLoadHistory, loadHistoryPayload{
		UserID: "user-a", GroupID: "group-1",
	})

	event := transport.lastSent().(historyEvent)
	if len(event.History) != 2 {
		t.Fatalf("Expected 2 surviving messages, got %d", len(event.History))
	}
	for _, m := range event.History {
		if m.ID == 2 {
			t.Errorf("A deleted message leaked into the history")
		}
	}
}

func TestEditByNonAuthorRejected(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")
	seedMessages(f, "group-1", 1) // authored by user-b

	f.dispatch(t, conn, ActionEdit, editPayload{
		UserID: "user-a", MessageID: 1, GroupID: "group-1",
		EditedContent: "hijacked", EditedType: entity.KindText,
	})

	lastError(t, transport)
	if f.repo.messages[1].Content != "seeded" {
		t.Errorf("A non-author managed to edit the message")
	}
}

func TestEditDeletedMessageRejected(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-b", "group-1")
	seedMessages(f, "group-1", 1)
	f.repo.SoftDelete(1)

	f.dispatch(t, conn, ActionEdit, editPayload{
		UserID: "user-b", MessageID: 1, GroupID: "group-1",
		EditedContent: "resurrected", EditedType: entity.KindText,
	})

	lastError(t, transport)
	if f.repo.messages[1].Content != "" {
		t.Errorf("A deleted message was edited")
	}
}

func TestEditBroadcastsTheChange(t *testing.T) {
	f := newRouterFixture(50)
	author, _ := f.attach("c1", "user-b", "group-1")
	_, otherTr := f.attach("c2", "user-a", "group-1")
	seedMessages(f, "group-1", 1)

	f.dispatch(t, author, ActionEdit, editPayload{
		UserID: "user-b", MessageID: 1, GroupID: "group-1",
		EditedContent: "fixed", EditedType: entity.KindText,
	})

	event, ok := otherTr.lastSent().(messageEditedEvent)
	if !ok {
		t.Fatalf("Expected an edited event, got %T", otherTr.lastSent())
	}
	if event.MessageID != 1 || event.Content != "fixed" {
		t.Errorf("Edited event carries the wrong data: %+v", event)
	}
	if !f.repo.messages[1].IsEdited {
		t.Errorf("The stored message is not flagged as edited")
	}
}

func TestReplyToMissingMessageRejected(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")

	f.dispatch(t, conn, ActionReply, replyPayload{
		RepliedMessageID: 42, GroupID: "group-1", RepliedByID: "user-a",
		ReplyContent: "into the void", ReplyContentType: entity.KindText,
	})

	lastError(t, transport)
	if len(f.repo.messages) != 0 {
		t.Errorf("A reply to a missing message was stored")
	}
}

func TestReplyToDeletedMessageRejected(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")
	seedMessages(f, "group-1", 1)
	f.repo.SoftDelete(1)

	f.dispatch(t, conn, ActionReply, replyPayload{
		RepliedMessageID: 1, GroupID: "group-1", RepliedByID: "user-a",
		ReplyContent: "too late", ReplyContentType: entity.KindText,
	})

	lastError(t, transport)
	if len(f.repo.messages) != 1 {
		t.Errorf("A reply to a deleted message was stored")
	}
}

func TestReplyToForeignTargetRejected(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")
	f.repo.Create(&entity.Message{
		GroupUUID: "group-2", SenderUUID: "user-c", Content: "elsewhere", Kind: entity.KindText,
	})

	f.dispatch(t, conn, ActionReply, replyPayload{
		RepliedMessageID: 1, GroupID: "group-1", RepliedByID: "user-a",
		ReplyContent: "reaching over", ReplyContentType: entity.KindText,
	})

	lastError(t, transport)
	if len(f.repo.messages) != 1 {
		t.Errorf("A reply across groups was stored")
	}
}

func TestReplyStoresLinkWithStoredAuthor(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")
	seedMessages(f, "group-1", 1) // authored by user-b

	f.dispatch(t, conn, ActionReply, replyPayload{
		RepliedMessageID: 1, GroupID: "group-1",
		RepliedToID: "user-x", // a stale client claim, the store knows better
		RepliedByID: "user-a",
		ReplyContent: "i agree", ReplyContentType: entity.KindText,
	})

	event, ok := transport.lastSent().(newMessageEvent)
	if !ok {
		t.Fatalf("Expected a new message event, got %T", transport.lastSent())
	}
	if event.Message.ReplyTo == nil || *event.Message.ReplyTo != 1 {
		t.Errorf("The broadcast reply does not point at its target")
	}

	link, err := f.repo.GetReplyLink(event.Message.ID)
	if err != nil {
		t.Fatalf("No reply link was stored {%v}", err)
	}
	if link.RepliedToUUID != "user-b" {
		t.Errorf("Expected the stored author user-b, got %s", link.RepliedToUUID)
	}
	if link.RepliedByUUID != "user-a" {
		t.Errorf("Expected the replier user-a, got %s", link.RepliedByUUID)
	}
}

func TestReplyNotifiesTheTargetAuthor(t *testing.T) {
	f := newRouterFixture(50)
	conn, _ := f.attach("c1", "user-a", "group-1")
	seedMessages(f, "group-1", 1) // authored by user-b

	f.dispatch(t, conn, ActionReply, replyPayload{
		RepliedMessageID: 1, GroupID: "group-1", RepliedByID: "user-a",
		ReplyContent: "i agree", ReplyContentType: entity.KindText,
	})

	if len(f.notifier.recorded) != 1 {
		t.Fatalf("Expected exactly 1 notification, got %d", len(f.notifier.recorded))
	}
	if f.notifier.recorded[0].userUuid != "user-b" {
		t.Errorf("Expected user-b to be notified, got %s", f.notifier.recorded[0].userUuid)
	}
}

func TestDeleteByAuthorTombstonesAndBroadcasts(t *testing.T) {
	f := newRouterFixture(50)
	author, _ := f.attach("c1", "user-b", "group-1")
	_, otherTr := f.attach("c2", "user-a", "group-1")
	seedMessages(f, "group-1", 1)

	f.dispatch(t, author, ActionDelete, deletePayload{
		DeleteMessageID: 1, GroupID: "group-1", UserID: "user-b",
	})

	event, ok := otherTr.lastSent().(messageDeletedEvent)
	if !ok {
		t.Fatalf("Expected a deleted event, got %T", otherTr.lastSent())
	}
	if event.MessageID != 1 {
		t.Errorf("Deleted event targets the wrong message: %d", event.MessageID)
	}
	if !f.repo.messages[1].IsDeleted || f.repo.messages[1].Content != "" {
		t.Errorf("The message was not tombstoned")
	}
}

func TestDeleteByLeaderAllowed(t *testing.T) {
	f := newRouterFixture(50)
	leader, transport := f.attach("c1", "user-l", "group-1")
	seedMessages(f, "group-1", 1) // authored by user-b

	f.dispatch(t, leader, ActionDelete, deletePayload{
		DeleteMessageID: 1, GroupID: "group-1", UserID: "user-l",
	})

	if _, ok := transport.lastSent().(messageDeletedEvent); !ok {
		t.Fatalf("Expected the leader's delete to succeed, got %T", transport.lastSent())
	}
}

func TestDeleteByOtherMemberRejected(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")
	seedMessages(f, "group-1", 1) // authored by user-b

	f.dispatch(t, conn, ActionDelete, deletePayload{
		DeleteMessageID: 1, GroupID: "group-1", UserID: "user-a",
	})

	lastError(t, transport)
	if f.repo.messages[1].IsDeleted {
		t.Errorf("A plain member deleted someone else's message")
	}
}

func TestDeleteTwiceRejected(t *testing.T) {
	f := newRouterFixture(50)
	author, transport := f.attach("c1", "user-b", "group-1")
	seedMessages(f, "group-1", 1)

	f.dispatch(t, author, ActionDelete, deletePayload{
		DeleteMessageID: 1, GroupID: "group-1", UserID: "user-b",
	})
	f.dispatch(t, author, ActionDelete, deletePayload{
		DeleteMessageID: 1, GroupID: "group-1", UserID: "user-b",
	})

	lastError(t, transport)
}

func TestMalformedPayloadRejected(t *testing.T) {
	f := newRouterFixture(50)
	conn, transport := f.attach("c1", "user-a", "group-1")

	f.router.Dispatch(context.Background(), conn, Envelope{
		Action:  ActionSendMessage,
		Payload: json.RawMessage(`{"user_id": 42}`),
	})

	lastError(t, transport)
	if f.registry.GroupSize("group-1") != 1 {
		t.Errorf("A malformed payload must not cost the client its connection")
	}
}
