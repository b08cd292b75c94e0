/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"errors"
	"time"

	"server/internal/entity"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// This repository is the durable store for chat messages and their reply links.
// Compound operations (reply insert, delete) are transactional: a reply's message
// and its link are written together or not at all, and a delete removes the link
// and tombstones the message in one transaction.
type MessageRepository interface {
	Create(message *entity.Message) error                                 // Inserts a plain message, assigning its ID and CreatedAt
	CreateReply(message *entity.Message, link *entity.ReplyLink) error    // Inserts a reply message together with its reply link
	GetByID(id uint64) (*entity.Message, error)                           // Retrieves a single message by its ID, tombstoned or not
	History(groupUUID string, beforeID uint64, limit int) ([]*entity.Message, error) // Retrieves up to limit non-deleted messages with ID < beforeID (0 = no cursor), newest first
	Edit(id uint64, content, kind string) error                           // Replaces content and kind, setting the edited flag. CreatedAt is untouched.
	SoftDelete(id uint64) error                                           // Removes the message's reply link (if any) and tombstones the message
	GetReplyLink(messageID uint64) (*entity.ReplyLink, error)             // Retrieves the reply link owned by the given message, ErrNotFound if none
}

// Implementation of the repository using a SQLite DB
type SQLiteMessageRepository struct {
	db *gorm.DB
}

func NewSQLiteMessageRepository(db *gorm.DB) MessageRepository {
	return &SQLiteMessageRepository{db}
}

func (repo *SQLiteMessageRepository) Create(message *entity.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	return repo.db.Create(message).Error
}

func (repo *SQLiteMessageRepository) CreateReply(message *entity.Message, link *entity.ReplyLink) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		link.MessageID = message.ID
		if err := tx.Create(link).Error; err != nil {
			return err
		}
		return nil
	})
}

func (repo *SQLiteMessageRepository) GetByID(id uint64) (*entity.Message, error) {
	var message entity.Message
	err := repo.db.First(&message, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &message, err
}

func (repo *SQLiteMessageRepository) History(groupUUID string, beforeID uint64, limit int) ([]*entity.Message, error) {
	var messages []*entity.Message
	q := repo.db.Where("group_uuid = ? AND is_deleted = ?", groupUUID, false)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	err := q.Order("id DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

func (repo *SQLiteMessageRepository) Edit(id uint64, content, kind string) error {
	res := repo.db.Model(&entity.Message{}).Where("id = ?", id).
		Updates(map[string]any{"content": content, "kind": kind, "is_edited": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *SQLiteMessageRepository) SoftDelete(id uint64) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&entity.ReplyLink{}).Error; err != nil {
			return err
		}

		res := tx.Model(&entity.Message{}).Where("id = ?", id).
			Updates(map[string]any{"is_deleted": true, "content": ""})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (repo *SQLiteMessageRepository) GetReplyLink(messageID uint64) (*entity.ReplyLink, error) {
	var link entity.ReplyLink
	err := repo.db.Where("message_id = ?", messageID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &link, err
}
