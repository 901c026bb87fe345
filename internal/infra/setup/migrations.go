package setup

import (
	"fmt"

	"study-room/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MigrateDB creates or updates the schema for every model.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.User{},
		&domain.Profile{},
		&domain.Room{},
		&domain.Membership{},
		&domain.Message{},
		&domain.OTPCode{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}
