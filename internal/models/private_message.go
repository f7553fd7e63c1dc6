package models

import (
	"time"

	"gorm.io/datatypes"
)

// PrivateMessage records a Messenger reply sent for a Comment. The
// unique index on CommentID is the at-most-one-message guarantee.
type PrivateMessage struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement"`
	CommentID   uint64         `gorm:"uniqueIndex;not null"`
	PageID      string         `gorm:"type:text;not null"`
	RecipientID string         `gorm:"type:text"`
	MessageID   string         `gorm:"type:text"`
	Message     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time
}

func (PrivateMessage) TableName() string {
	return "private_messages"
}
