package setup

import (
	"fmt"

	"gorm.io/gorm"

	"roomsplit/internal/domain"
)

// MigrateDB auto-migrates every core table. Unlike the source project's
// users/rooms tables, every model here carries explicit gorm size tags, so
// plain AutoMigrate is sufficient — no TEXT/BLOB index-length workaround is
// needed.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("setup: cannot migrate with a nil DB connection")
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Room{}, &domain.Membership{}); err != nil {
		return fmt.Errorf("setup: auto-migrate: %w", err)
	}
	return nil
}
