package models

import "time"

// Tag is either a user tag (arbitrary label) or a system tag (a trigger
// code of form letter+3digits). System tag codes are globally unique,
// backed by a partial unique index created in db.AutoMigrate.
type Tag struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:text;index;not null"`
	ProductID   uint64 `gorm:"index;not null"`
	IsSystemTag bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Tag) TableName() string {
	return "tags"
}
