package database

import (
	"log"

	"github.com/lessonhub/settlement-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Booking{}, &models.Wallet{}, &models.WalletTransaction{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial unique index: one active booking per slot. Backstop for the
	// availability pre-check under concurrent creates.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_slot_active
		ON bookings (slot_id)
		WHERE status IN ('hold', 'confirmed')
	`)

	return db
}
