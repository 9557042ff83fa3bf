package database

import (
	"fmt"

	"trekhub_backend/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Booking{},
		&models.BookingTransition{},
		&models.Review{},
		&models.ReviewHelpfulVote{},
		&models.Notification{},
		&models.OtpRecord{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
