package repositories

import (
	"context"

	"finstats/internal/models"
)

// CurrencyFilter selects records by currency: equal to Currency, or anything but it when Exclude is set.
type CurrencyFilter struct {
	Currency string
	Exclude  bool
}

// Only matches records in exactly this currency.
func Only(currency string) CurrencyFilter {
	return CurrencyFilter{Currency: currency}
}

// AnyBut matches records in every currency except this one.
func AnyBut(currency string) CurrencyFilter {
	return CurrencyFilter{Currency: currency, Exclude: true}
}

// TransactionRepositoryInterface defines the contract for transaction repository operations
type TransactionRepositoryInterface interface {
	// ListTransactions returns a profile's records whose occurred_at lies inside the window's
	// fetch bounds (inclusive). No ordering is guaranteed.
	ListTransactions(ctx context.Context, profile string, filter CurrencyFilter, window models.DateWindow) ([]models.Transaction, error)
	Create(ctx context.Context, transaction *models.Transaction) error
	CreateBatch(ctx context.Context, transactions []models.Transaction) error
}
