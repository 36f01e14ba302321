package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lessonhub/settlement-service/internal/models"
	"github.com/lessonhub/settlement-service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type TransferResult struct {
	From       *models.Wallet
	To         *models.Wallet
	TransferID string
}

type WalletService interface {
	GetOrCreateWallet(ctx context.Context, userID, currency string) (*models.Wallet, error)
	Deposit(ctx context.Context, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error)
	CreditSale(ctx context.Context, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error)
	// CreditSaleTx joins an existing database transaction so a caller can
	// make the credit atomic with its own writes (booking settlement does).
	CreditSaleTx(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error)
	Transfer(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal, currency, reference, description string) (*TransferResult, error)
	GetTransactions(ctx context.Context, userID, currency string, page, pageSize int) ([]models.WalletTransaction, int64, error)
}

type walletService struct {
	repo repository.WalletRepository
}

func NewWalletService(repo repository.WalletRepository) WalletService {
	return &walletService{repo: repo}
}

func validateMoney(amount decimal.Decimal, currency string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidInput, amount)
	}
	if len(currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code, got %q", ErrInvalidInput, currency)
	}
	return nil
}

func (s *walletService) GetOrCreateWallet(ctx context.Context, userID, currency string) (*models.Wallet, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code, got %q", ErrInvalidInput, currency)
	}

	var wallet *models.Wallet
	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.EnsureWallet(ctx, tx, userID, currency); err != nil {
			return err
		}
		w, err := s.repo.FindByUserAndCurrency(ctx, tx, userID, currency)
		if err != nil {
			return err
		}
		wallet = w
		return nil
	})
	return wallet, err
}

func (s *walletService) Deposit(ctx context.Context, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error) {
	return s.credit(ctx, userID, amount, currency, models.TxDeposit, reference, description)
}

func (s *walletService) CreditSale(ctx context.Context, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error) {
	return s.credit(ctx, userID, amount, currency, models.TxSale, reference, description)
}

func (s *walletService) CreditSaleTx(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error) {
	if err := validateMoney(amount, currency); err != nil {
		return nil, err
	}
	return s.creditInTx(ctx, tx, userID, amount, currency, models.TxSale, reference, description)
}

func (s *walletService) credit(ctx context.Context, userID string, amount decimal.Decimal, currency string, txType models.TransactionType, reference, description string) (*models.Wallet, error) {
	if err := validateMoney(amount, currency); err != nil {
		return nil, err
	}

	var wallet *models.Wallet
	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.creditInTx(ctx, tx, userID, amount, currency, txType, reference, description)
		if err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"amount":   amount.String(),
		"currency": currency,
		"type":     txType,
	}).Info("wallet credited")
	return wallet, nil
}

// creditInTx appends one ledger row and moves the balance, all under the
// wallet's row lock. The balance written is computed from the locked read,
// never from a stale snapshot.
func (s *walletService) creditInTx(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal, currency string, txType models.TransactionType, reference, description string) (*models.Wallet, error) {
	if err := s.repo.EnsureWallet(ctx, tx, userID, currency); err != nil {
		return nil, err
	}
	w, err := s.repo.FindByUserAndCurrency(ctx, tx, userID, currency)
	if err != nil {
		return nil, err
	}
	locked, err := s.repo.FindByIDForUpdate(ctx, tx, w.ID)
	if err != nil {
		return nil, err
	}

	before := locked.Balance
	after := before.Add(amount)
	txn := models.WalletTransaction{
		WalletID:      locked.ID,
		Type:          txType,
		Amount:        amount,
		Currency:      currency,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reference:     reference,
		Description:   description,
	}
	if err := s.repo.CreateTransaction(ctx, tx, &txn); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBalance(ctx, tx, locked.ID, after); err != nil {
		return nil, err
	}

	locked.Balance = after
	return locked, nil
}

func (s *walletService) Transfer(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal, currency, reference, description string) (*TransferResult, error) {
	if err := validateMoney(amount, currency); err != nil {
		return nil, err
	}
	if fromUserID == "" || toUserID == "" {
		return nil, fmt.Errorf("%w: both user ids are required", ErrInvalidInput)
	}
	if fromUserID == toUserID {
		return nil, fmt.Errorf("%w: cannot transfer to the same user", ErrInvalidInput)
	}

	var result *TransferResult
	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Speculative wallet inserts take the unique-index lock, so
		// first-touch creation follows the same deterministic order as
		// the row locks below.
		firstUser, secondUser := fromUserID, toUserID
		if secondUser < firstUser {
			firstUser, secondUser = secondUser, firstUser
		}
		if err := s.repo.EnsureWallet(ctx, tx, firstUser, currency); err != nil {
			return err
		}
		if err := s.repo.EnsureWallet(ctx, tx, secondUser, currency); err != nil {
			return err
		}
		fromW, err := s.repo.FindByUserAndCurrency(ctx, tx, fromUserID, currency)
		if err != nil {
			return err
		}
		toW, err := s.repo.FindByUserAndCurrency(ctx, tx, toUserID, currency)
		if err != nil {
			return err
		}

		// Lock both rows in ascending wallet-id order regardless of
		// direction, so two opposite transfers between the same pair
		// can never deadlock.
		firstID, secondID := fromW.ID, toW.ID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		first, err := s.repo.FindByIDForUpdate(ctx, tx, firstID)
		if err != nil {
			return err
		}
		second, err := s.repo.FindByIDForUpdate(ctx, tx, secondID)
		if err != nil {
			return err
		}
		lockedFrom, lockedTo := first, second
		if lockedFrom.ID != fromW.ID {
			lockedFrom, lockedTo = second, first
		}

		// Funds check happens under the lock; an optimistic check here
		// would let two concurrent transfers both pass on the same
		// balance.
		if lockedFrom.Balance.LessThan(amount) {
			return fmt.Errorf("%w: balance %s is less than %s %s",
				ErrInsufficientFunds, lockedFrom.Balance, amount, currency)
		}

		transferID := uuid.NewString()
		outAfter := lockedFrom.Balance.Sub(amount)
		inAfter := lockedTo.Balance.Add(amount)

		out := models.WalletTransaction{
			WalletID:       lockedFrom.ID,
			Type:           models.TxTransferOut,
			Amount:         amount,
			Currency:       currency,
			BalanceBefore:  lockedFrom.Balance,
			BalanceAfter:   outAfter,
			Reference:      reference,
			Description:    description,
			TransferID:     &transferID,
			CounterpartyID: &toUserID,
		}
		in := models.WalletTransaction{
			WalletID:       lockedTo.ID,
			Type:           models.TxTransferIn,
			Amount:         amount,
			Currency:       currency,
			BalanceBefore:  lockedTo.Balance,
			BalanceAfter:   inAfter,
			Reference:      reference,
			Description:    description,
			TransferID:     &transferID,
			CounterpartyID: &fromUserID,
		}
		if err := s.repo.CreateTransaction(ctx, tx, &out); err != nil {
			return err
		}
		if err := s.repo.CreateTransaction(ctx, tx, &in); err != nil {
			return err
		}
		if err := s.repo.UpdateBalance(ctx, tx, lockedFrom.ID, outAfter); err != nil {
			return err
		}
		if err := s.repo.UpdateBalance(ctx, tx, lockedTo.ID, inAfter); err != nil {
			return err
		}

		lockedFrom.Balance = outAfter
		lockedTo.Balance = inAfter
		result = &TransferResult{From: lockedFrom, To: lockedTo, TransferID: transferID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"from_user_id": fromUserID,
		"to_user_id":   toUserID,
		"amount":       amount.String(),
		"currency":     currency,
		"transfer_id":  result.TransferID,
	}).Info("wallet transfer")
	return result, nil
}

func (s *walletService) GetTransactions(ctx context.Context, userID, currency string, page, pageSize int) ([]models.WalletTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	wallet, err := s.repo.FindByUserAndCurrency(ctx, s.repo.GetDB(), userID, currency)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrWalletNotFound
		}
		return nil, 0, err
	}

	total, err := s.repo.CountTransactions(ctx, wallet.ID)
	if err != nil {
		return nil, 0, err
	}
	txns, err := s.repo.ListTransactions(ctx, wallet.ID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
