package models

import "time"

// Product mirrors a Shopify catalog item that carries at least one
// trigger tag (or a variant with a SKU).
type Product struct {
	ID               uint64  `gorm:"primaryKey;autoIncrement"`
	ShopifyID        int64   `gorm:"uniqueIndex;not null"`
	Name             string  `gorm:"type:text;not null"`
	Handle           string  `gorm:"type:text;not null"`
	ImageURL         *string `gorm:"type:text"`
	ShortDescription *string `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Tags     []Tag     `gorm:"foreignKey:ProductID"`
	Variants []Variant `gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "products"
}
