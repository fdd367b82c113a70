package db

import (
	"signalscout/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}
	return db.Gorm.AutoMigrate(
		&models.Signal{},
		&models.ChannelStats{},
		&models.SourceChannel{},
	)
}
