package models

import "time"

// Post is a Facebook feed item. Comments join on the remote post id,
// not the local primary key.
type Post struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement"`
	FacebookID string  `gorm:"uniqueIndex;not null"`
	Message    *string `gorm:"type:text"`
	PostType   string  `gorm:"type:text;not null"`
	IsLive     bool    `gorm:"not null;default:false;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Post) TableName() string {
	return "posts"
}
