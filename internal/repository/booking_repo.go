package repository

import (
	"context"
	"time"

	"github.com/lessonhub/settlement-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByPublicID(ctx context.Context, publicID string) (*models.Booking, error)
	FindByPublicIDForUpdate(ctx context.Context, tx *gorm.DB, publicID string) (*models.Booking, error)
	FindActiveBySlot(ctx context.Context, tx *gorm.DB, slotID string) (*models.Booking, error)
	FindExpiredHolds(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
	Save(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	ResolveHold(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) (bool, error)
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByPublicID(ctx context.Context, publicID string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByPublicIDForUpdate acquires a row-level lock on the booking within the
// given transaction. Every transition out of hold goes through this lock.
func (r *bookingRepository) FindByPublicIDForUpdate(ctx context.Context, tx *gorm.DB, publicID string) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("public_id = ?", publicID).
		First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindActiveBySlot(ctx context.Context, tx *gorm.DB, slotID string) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Where("slot_id = ? AND status IN ?", slotID, []models.BookingStatus{models.StatusHold, models.StatusConfirmed}).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindExpiredHolds(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND hold_expires_at < ?", models.StatusHold, cutoff).
		Order("hold_expires_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) Save(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Save(booking).Error
}

// ResolveHold transitions a booking out of hold with compare-and-set
// semantics: the update applies only if the row is still in hold at commit
// time. Returns false when another transition won the race.
func (r *bookingRepository) ResolveHold(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", bookingID, models.StatusHold).
		Updates(map[string]any{
			"status":          status,
			"hold_expires_at": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
