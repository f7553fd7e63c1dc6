package models

import "time"

// Variant is a purchasable SKU under a Product. The variant set is
// replaced wholesale on every product update event.
type Variant struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement"`
	ShopifyID int64   `gorm:"uniqueIndex;not null"`
	ProductID uint64  `gorm:"index;not null"`
	Name      string  `gorm:"type:text;not null"`
	SKU       *string `gorm:"type:text"`
	Quantity  int     `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Variant) TableName() string {
	return "variants"
}
