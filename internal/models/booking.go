package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	StatusHold      BookingStatus = "hold"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusExpired   BookingStatus = "expired"
)

// Resolved reports whether the booking has left the hold state.
// Confirmed, cancelled and expired are all terminal.
func (s BookingStatus) Resolved() bool {
	return s != StatusHold
}

type Booking struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	PublicID  string `gorm:"type:uuid;uniqueIndex;not null" json:"public_id"`
	StudentID string `gorm:"size:64;not null" json:"student_id"`
	TutorID   string `gorm:"size:64;not null" json:"tutor_id"`
	SlotID    string `gorm:"size:64;not null" json:"slot_id"`

	Status BookingStatus `gorm:"type:varchar(20);not null;default:'hold';index:idx_booking_status_expiry,priority:1" json:"status"`
	// HoldExpiresAt is set while Status == hold and cleared on every
	// transition out of it.
	HoldExpiresAt *time.Time `gorm:"index:idx_booking_status_expiry,priority:2" json:"hold_expires_at,omitempty"`

	PaymentEngine    string `gorm:"size:32" json:"payment_engine,omitempty"`
	PaymentSessionID string `gorm:"size:128" json:"payment_session_id,omitempty"`

	Amount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency string          `gorm:"size:3;not null" json:"currency"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
