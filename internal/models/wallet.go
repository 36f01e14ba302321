package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxDeposit     TransactionType = "deposit"
	TxSale        TransactionType = "sale"
	TxTransferIn  TransactionType = "transfer_in"
	TxTransferOut TransactionType = "transfer_out"
)

// Signed returns the amount with the sign the type applies to the balance.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == TxTransferOut {
		return amount.Neg()
	}
	return amount
}

// Wallet holds one balance per (user, currency) pair. The balance is always
// the running sum of the transactions recorded against the wallet; it is
// never written without an accompanying WalletTransaction row.
type Wallet struct {
	ID       uint            `gorm:"primaryKey" json:"-"`
	UserID   string          `gorm:"size:64;not null;uniqueIndex:idx_wallet_user_currency" json:"user_id"`
	Currency string          `gorm:"size:3;not null;uniqueIndex:idx_wallet_user_currency" json:"currency"`
	Balance  decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WalletTransaction is an append-only ledger row. BalanceBefore/BalanceAfter
// are captured under the wallet's row lock, so per wallet they form a
// gapless chain in commit order.
type WalletTransaction struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	WalletID uint            `gorm:"not null;index" json:"wallet_id"`
	Type     TransactionType `gorm:"type:varchar(20);not null" json:"type"`

	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"balance_after"`

	Reference   string `gorm:"size:255" json:"reference,omitempty"`
	Description string `gorm:"size:255" json:"description,omitempty"`
	// TransferID links the paired transfer_out/transfer_in rows of one
	// transfer. Nil for deposits and sales.
	TransferID     *string `gorm:"type:uuid;index" json:"transfer_id,omitempty"`
	CounterpartyID *string `gorm:"size:64" json:"counterparty_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
