package repository

import (
	"context"

	"github.com/lessonhub/settlement-service/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepository interface {
	EnsureWallet(ctx context.Context, tx *gorm.DB, userID, currency string) error
	FindByUserAndCurrency(ctx context.Context, tx *gorm.DB, userID, currency string) (*models.Wallet, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, walletID uint) (*models.Wallet, error)
	UpdateBalance(ctx context.Context, tx *gorm.DB, walletID uint, balance decimal.Decimal) error
	CreateTransaction(ctx context.Context, tx *gorm.DB, txn *models.WalletTransaction) error
	ListTransactions(ctx context.Context, walletID uint, offset, limit int) ([]models.WalletTransaction, error)
	CountTransactions(ctx context.Context, walletID uint) (int64, error)
	GetDB() *gorm.DB
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) GetDB() *gorm.DB {
	return r.db
}

// EnsureWallet inserts a zero-balance wallet for (user, currency) if none
// exists yet. The ON CONFLICT DO NOTHING clause makes concurrent first-touch
// safe: exactly one row survives, losers fall through to the read.
func (r *walletRepository) EnsureWallet(ctx context.Context, tx *gorm.DB, userID, currency string) error {
	wallet := models.Wallet{
		UserID:   userID,
		Currency: currency,
		Balance:  decimal.Zero,
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "currency"}},
			DoNothing: true,
		}).
		Create(&wallet).Error
}

func (r *walletRepository) FindByUserAndCurrency(ctx context.Context, tx *gorm.DB, userID, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.WithContext(ctx).
		Where("user_id = ? AND currency = ?", userID, currency).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// FindByIDForUpdate acquires the wallet's row lock. Balance reads feeding a
// mutation must come from here, never from an unlocked read.
func (r *walletRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, walletID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&wallet, walletID).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepository) UpdateBalance(ctx context.Context, tx *gorm.DB, walletID uint, balance decimal.Decimal) error {
	return tx.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", balance).Error
}

func (r *walletRepository) CreateTransaction(ctx context.Context, tx *gorm.DB, txn *models.WalletTransaction) error {
	return tx.WithContext(ctx).Create(txn).Error
}

func (r *walletRepository) ListTransactions(ctx context.Context, walletID uint, offset, limit int) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *walletRepository) CountTransactions(ctx context.Context, walletID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("wallet_id = ?", walletID).
		Count(&count).Error
	return count, err
}
