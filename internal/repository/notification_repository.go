/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"time"

	"server/internal/entity"

	"gorm.io/gorm"
)

// This repository stores per-user notifications.
type NotificationRepository interface {
	Create(n *entity.Notification) error                          // Inserts a notification, assigning its ID and CreatedAt
	ListForUser(userUuid string) ([]*entity.Notification, error)  // Retrieves the unread notifications of a user, newest first
	MarkRead(id uint64, userUuid string) error                    // Marks one of the user's notifications as read
}

// Implementation of the repository using a SQLite DB
type SQLiteNotificationRepository struct {
	db *gorm.DB
}

func NewSQLiteNotificationRepository(db *gorm.DB) NotificationRepository {
	return &SQLiteNotificationRepository{db}
}

func (repo *SQLiteNotificationRepository) Create(n *entity.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return repo.db.Create(n).Error
}

func (repo *SQLiteNotificationRepository) ListForUser(userUuid string) ([]*entity.Notification, error) {
	var notifications []*entity.Notification
	err := repo.db.Where("user_uuid = ? AND is_read = ?", userUuid, false).
		Order("id DESC").Find(&notifications).Error
	return notifications, err
}

func (repo *SQLiteNotificationRepository) MarkRead(id uint64, userUuid string) error {
	res := repo.db.Model(&entity.Notification{}).
		Where("id = ? AND user_uuid = ?", id, userUuid).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
