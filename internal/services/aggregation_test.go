package services

import (
	"testing"
	"time"

	"finstats/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func march2024(t *testing.T) models.DateWindow {
	t.Helper()
	window, err := NormalizeDateRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	return window
}

func txn(txType string, amount int64, currency string, day time.Time, tags ...string) models.Transaction {
	return models.Transaction{
		Profile:     "Personal",
		Type:        txType,
		AmountMinor: amount,
		Currency:    currency,
		Tags:        models.TagList(tags),
		OccurredAt:  day,
	}
}

func TestAggregateTransactions_NetEqualsIncomeMinusExpense(t *testing.T) {
	day := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	bucket := AggregateTransactions([]models.Transaction{
		txn(models.TransactionTypeIncome, 250000, "USD", day, "Salary"),
		txn(models.TransactionTypeExpense, 120000, "USD", day, "Rent"),
		txn(models.TransactionTypeExpense, 180000, "USD", day, "Travel"),
	}, march2024(t))

	assert.Equal(t, int64(250000), bucket.TotalIncomeMinor)
	assert.Equal(t, int64(300000), bucket.TotalExpenseMinor)
	assert.Equal(t, bucket.TotalIncomeMinor-bucket.TotalExpenseMinor, bucket.NetMinor())
	assert.Equal(t, int64(-50000), bucket.NetMinor())
}

func TestAggregateTransactions_DropsRecordsOutsideExactRange(t *testing.T) {
	bucket := AggregateTransactions([]models.Transaction{
		txn(models.TransactionTypeExpense, 100, "USD", time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC), "Food"),
		txn(models.TransactionTypeExpense, 200, "USD", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "Food"),
		txn(models.TransactionTypeExpense, 400, "USD", time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC), "Food"),
		txn(models.TransactionTypeExpense, 800, "USD", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "Food"),
	}, march2024(t))

	assert.Equal(t, int64(600), bucket.TotalExpenseMinor)
	assert.Equal(t, int64(600), bucket.ExpenseByTag["Food"])
}

func TestAggregateTransactions_UsesUTCCalendarDay(t *testing.T) {
	// 20:00 on Feb 29 in UTC-5 is Mar 1 in UTC
	est := time.FixedZone("UTC-5", -5*60*60)
	bucket := AggregateTransactions([]models.Transaction{
		txn(models.TransactionTypeIncome, 700, "USD", time.Date(2024, 2, 29, 20, 0, 0, 0, est), "Gift"),
	}, march2024(t))

	assert.Equal(t, int64(700), bucket.TotalIncomeMinor)
}

func TestAggregateConverted_MergesIntoSameBucket(t *testing.T) {
	window := march2024(t)
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	bucket := AggregateTransactions([]models.Transaction{
		txn(models.TransactionTypeExpense, 1000, "USD", day, "Food"),
	}, window)

	adapter := NewConversionAdapter("USD", availableRates("USD", map[string]float64{"EUR": 0.9}))
	AggregateConverted(bucket, []models.Transaction{
		txn(models.TransactionTypeExpense, 5000, "EUR", day, "Food", "Travel"),
		txn(models.TransactionTypeExpense, 7000, "SEK", day, "Food"),
		txn(models.TransactionTypeExpense, 9000, "EUR", time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)),
	}, window, adapter)

	assert.Equal(t, int64(6556), bucket.TotalExpenseMinor)
	assert.Equal(t, int64(6556), bucket.ExpenseByTag["Food"])
	assert.Equal(t, int64(5556), bucket.ExpenseByTag["Travel"])
	assert.Equal(t, []string{"SEK"}, adapter.SkippedCurrencies())
	assert.Equal(t, 1, adapter.ConvertedCount())
}
