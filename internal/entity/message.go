/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

// Content kinds a message may carry.
const (
	KindText  = "text"
	KindImage = "image"
)

// Represents a message sent in a group chat.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"` // Unique identifier, assigned by the store. Increases with insertion order.
	GroupUUID string    `gorm:"not null;index"`           // UUID of the group the message belongs to. Immutable after creation.
	Content   string    `gorm:"not null"`                 // Actual content of the message. Cleared when the message is tombstoned.
	Kind      string    `gorm:"not null;default:text"`    // Content kind: text or image
	CreatedAt time.Time `gorm:"not null"`                 // Time of creation. Never changed by edits.

	IsEdited  bool `gorm:"not null;default:false"` // Set on the first successful edit, never cleared
	IsDeleted bool `gorm:"not null;default:false"` // Tombstone flag. A deleted message keeps its row but is excluded from history.

	SenderUUID string  `gorm:"not null;index"` // UUID of the user that sent the message
	ReplyToID  *uint64 `gorm:"index"`          // ID of the message this one replies to, nil for plain messages
}
