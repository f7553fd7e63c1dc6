package models

import "time"

// ReleasedTrigger is a decommissioned trigger code eligible for reuse.
// A code never exists both here and as an active system Tag.
type ReleasedTrigger struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:text;uniqueIndex;not null"`
	CreatedAt time.Time
}

func (ReleasedTrigger) TableName() string {
	return "released_triggers"
}
