package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// Validation runs before any repository access, so these tests exercise the
// rejection paths without a database.

func TestDeposit_RejectsNonPositiveAmount(t *testing.T) {
	svc := NewWalletService(nil)

	for _, amount := range []string{"0", "-1", "-0.01"} {
		_, err := svc.Deposit(context.Background(), "user-1", decimal.RequireFromString(amount), "USD", "ref", "")
		assert.ErrorIs(t, err, ErrInvalidInput, "amount %s", amount)
	}
}

func TestDeposit_RejectsBadCurrency(t *testing.T) {
	svc := NewWalletService(nil)

	for _, currency := range []string{"", "US", "DOLLARS"} {
		_, err := svc.Deposit(context.Background(), "user-1", decimal.RequireFromString("10.00"), currency, "ref", "")
		assert.ErrorIs(t, err, ErrInvalidInput, "currency %q", currency)
	}
}

func TestCreditSale_RejectsNonPositiveAmount(t *testing.T) {
	svc := NewWalletService(nil)

	_, err := svc.CreditSale(context.Background(), "tutor-1", decimal.Zero, "USD", "booking:x", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransfer_RejectsNonPositiveAmount(t *testing.T) {
	svc := NewWalletService(nil)

	_, err := svc.Transfer(context.Background(), "user-1", "user-2", decimal.RequireFromString("-40.00"), "USD", "ref", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransfer_RejectsSelfTransfer(t *testing.T) {
	svc := NewWalletService(nil)

	_, err := svc.Transfer(context.Background(), "user-1", "user-1", decimal.RequireFromString("40.00"), "USD", "ref", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransfer_RejectsMissingUserIDs(t *testing.T) {
	svc := NewWalletService(nil)

	_, err := svc.Transfer(context.Background(), "", "user-2", decimal.RequireFromString("40.00"), "USD", "ref", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetOrCreateWallet_RejectsEmptyUser(t *testing.T) {
	svc := NewWalletService(nil)

	_, err := svc.GetOrCreateWallet(context.Background(), "", "USD")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
