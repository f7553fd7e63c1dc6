package db

import (
	"livecart/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	if err := db.Gorm.AutoMigrate(
		&models.Product{},
		&models.Variant{},
		&models.Tag{},
		&models.ReleasedTrigger{},
		&models.Post{},
		&models.Comment{},
		&models.PrivateMessage{},
	); err != nil {
		return err
	}

	// System tag codes must be unique across the whole table while user
	// tags stay free-form; gorm cannot express a partial index, so it is
	// created here.
	return db.Gorm.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_system_code ON tags (name) WHERE is_system_tag",
	).Error
}
