package dto

import (
	"time"

	"github.com/lessonhub/settlement-service/internal/models"
	"github.com/shopspring/decimal"
)

type BookingResponse struct {
	ID               string               `json:"id"`
	StudentID        string               `json:"student_id"`
	TutorID          string               `json:"tutor_id"`
	SlotID           string               `json:"slot_id"`
	Status           models.BookingStatus `json:"status"`
	HoldExpiresAt    *time.Time           `json:"hold_expires_at,omitempty"`
	PaymentEngine    string               `json:"payment_engine,omitempty"`
	PaymentSessionID string               `json:"payment_session_id,omitempty"`
	CheckoutURL      string               `json:"checkout_url,omitempty"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         string               `json:"currency"`
	CreatedAt        time.Time            `json:"created_at"`
}

type WalletResponse struct {
	UserID   string          `json:"user_id"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

type TransferResponse struct {
	TransferID string         `json:"transfer_id"`
	From       WalletResponse `json:"from"`
	To         WalletResponse `json:"to"`
}

type TransactionListResponse struct {
	Transactions []models.WalletTransaction `json:"transactions"`
	Page         int                        `json:"page"`
	PageSize     int                        `json:"page_size"`
	Total        int64                      `json:"total"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.PublicID,
		StudentID:        b.StudentID,
		TutorID:          b.TutorID,
		SlotID:           b.SlotID,
		Status:           b.Status,
		HoldExpiresAt:    b.HoldExpiresAt,
		PaymentEngine:    b.PaymentEngine,
		PaymentSessionID: b.PaymentSessionID,
		Amount:           b.Amount,
		Currency:         b.Currency,
		CreatedAt:        b.CreatedAt,
	}
}

func ToWalletResponse(w *models.Wallet) WalletResponse {
	return WalletResponse{
		UserID:   w.UserID,
		Currency: w.Currency,
		Balance:  w.Balance,
	}
}
