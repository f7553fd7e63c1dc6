package models

import (
	"strings"
	"time"
)

// Comment is a Facebook comment or reply, upserted by webhook ingestion.
type Comment struct {
	ID                uint64 `gorm:"primaryKey;autoIncrement"`
	FacebookID        string `gorm:"uniqueIndex;not null"`
	FacebookUserID    string `gorm:"type:text;not null"`
	Commenter         string `gorm:"type:text;not null"`
	PostID            string `gorm:"type:text;index;not null"`
	ParentID          string `gorm:"type:text"`
	PostType          string `gorm:"type:text"`
	PostLink          string `gorm:"type:text"`
	Message           string `gorm:"type:text"`
	FacebookCreatedAt time.Time
	IsFromPage        bool `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	PrivateMessage *PrivateMessage `gorm:"foreignKey:CommentID"`
}

func (Comment) TableName() string {
	return "comments"
}

// PageID derives the owning page id from the remote post id
// ("<page>_<post>").
func (c Comment) PageID() string {
	page, _, _ := strings.Cut(c.PostID, "_")
	return page
}

// CleanMessage squishes whitespace and drops apostrophes before
// token matching.
func (c Comment) CleanMessage() string {
	msg := strings.ReplaceAll(c.Message, "'", "")
	return strings.Join(strings.Fields(msg), " ")
}

func (c Comment) MessageContains(s string) bool {
	return strings.Contains(strings.ToLower(c.Message), strings.ToLower(s))
}
