package repositories

import (
	"context"
	"errors"
	"fmt"

	"finstats/internal/models"

	"gorm.io/gorm"
)

var (
	ErrEmptyProfile        = errors.New("profile is required")
	ErrEmptyCurrencyFilter = errors.New("currency filter requires a currency")
)

// transactionRepository implements TransactionRepositoryInterface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &transactionRepository{
		db: db,
	}
}

// ListTransactions retrieves records for a profile and currency filter inside the fetch window
func (r *transactionRepository) ListTransactions(ctx context.Context, profile string, filter CurrencyFilter, window models.DateWindow) ([]models.Transaction, error) {
	if profile == "" {
		return nil, ErrEmptyProfile
	}
	if filter.Currency == "" {
		return nil, ErrEmptyCurrencyFilter
	}

	query := r.db.WithContext(ctx).
		Where("profile = ?", profile).
		Where("occurred_at BETWEEN ? AND ?", window.FetchStart, window.FetchEnd)

	if filter.Exclude {
		query = query.Where("currency <> ?", filter.Currency)
	} else {
		query = query.Where("currency = ?", filter.Currency)
	}

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// Create creates a new transaction
func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// CreateBatch creates multiple transactions in a single database transaction
func (r *transactionRepository) CreateBatch(ctx context.Context, transactions []models.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&transactions).Error; err != nil {
			return fmt.Errorf("failed to create batch transactions: %w", err)
		}
		return nil
	})
}
