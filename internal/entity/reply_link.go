/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

// Connects a reply message to the message it replies to.
// A ReplyLink exists if and only if its message has ReplyToID set; deleting
// the message removes the link in the same transaction.
type ReplyLink struct {
	MessageID     uint64 `gorm:"primaryKey"`     // ID of the reply message itself
	GroupUUID     string `gorm:"not null;index"` // UUID of the group both messages belong to
	TargetID      uint64 `gorm:"not null;index"` // ID of the message being replied to
	RepliedByUUID string `gorm:"not null"`       // UUID of the user who authored the reply
	RepliedToUUID string `gorm:"not null"`       // UUID of the target's author, captured at write time
}
