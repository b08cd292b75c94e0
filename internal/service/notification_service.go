/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"server/internal/entity"
	"server/internal/nlog"
	"server/internal/repository"
)

// Notification categories emitted by the chat.
const (
	CategoryChatMessage = "chat_message"
	CategoryChatReply   = "chat_reply"
)

// Sink for per-user notifications. Callers treat delivery as best-effort:
// a failed Notify is logged by the implementation and must never fail the
// action that triggered it.
type NotificationService interface {
	Notify(userUuid, title, body, category string) error            // Records one notification for the user
	ListForUser(userUuid string) ([]*entity.Notification, error)    // Retrieves the user's unread notifications
	MarkRead(id uint64, userUuid string) error                      // Marks one of the user's notifications as read
}

type localNotificationService struct {
	notificationRepository repository.NotificationRepository // Repository for notifications
	logger                 nlog.Logger                       // Logs a format string
}

func NewLocalNotificationService(notificationRepo repository.NotificationRepository, logger nlog.Logger) NotificationService {
	return &localNotificationService{
		notificationRepository: notificationRepo,
		logger:                 logger,
	}
}

func (n *localNotificationService) Logf(format string, v ...any) {
	n.logger.Logf(format, v...)
}

func (n *localNotificationService) Notify(userUuid, title, body, category string) error {
	notification := &entity.Notification{
		UserUUID: userUuid,
		Title:    title,
		Body:     body,
		Category: category,
	}
	if err := n.notificationRepository.Create(notification); err != nil {
		n.Logf("Could not store notification for %s {%v}", userUuid, err)
		return err
	}
	return nil
}

func (n *localNotificationService) ListForUser(userUuid string) ([]*entity.Notification, error) {
	return n.notificationRepository.ListForUser(userUuid)
}

func (n *localNotificationService) MarkRead(id uint64, userUuid string) error {
	return n.notificationRepository.MarkRead(id, userUuid)
}
