package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&brand.BrandRecord{},
	)
}
