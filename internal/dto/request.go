package dto

import "github.com/shopspring/decimal"

type CreateBookingRequest struct {
	StudentID string          `json:"student_id"`
	TutorID   string          `json:"tutor_id"`
	SlotID    string          `json:"slot_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// PaymentUpdateRequest mirrors a provider callback. Status is "success" or
// "failed"; anything else is rejected.
type PaymentUpdateRequest struct {
	Status string `json:"status"`
}

const (
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

type DepositRequest struct {
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
}

type TransferRequest struct {
	FromUserID  string          `json:"from_user_id"`
	ToUserID    string          `json:"to_user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
}
