package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateBucket_FanOutCountsFullAmountPerTag(t *testing.T) {
	b := NewAggregateBucket()

	b.Add(TransactionTypeExpense, 1000, TagList{"Food", "Work"})

	assert.Equal(t, int64(1000), b.TotalExpenseMinor)
	assert.Equal(t, int64(1000), b.ExpenseByTag["Food"])
	assert.Equal(t, int64(1000), b.ExpenseByTag["Work"])
	assert.Empty(t, b.IncomeByTag)
}

func TestAggregateBucket_UntaggedGoesToUncategorized(t *testing.T) {
	b := NewAggregateBucket()

	b.Add(TransactionTypeIncome, 250, nil)
	b.Add(TransactionTypeIncome, 50, TagList{"  "})

	assert.Equal(t, int64(300), b.TotalIncomeMinor)
	assert.Equal(t, map[string]int64{UncategorizedTag: 300}, b.IncomeByTag)
}

func TestAggregateBucket_DuplicateTagsCountOnce(t *testing.T) {
	b := NewAggregateBucket()

	b.Add(TransactionTypeExpense, 400, TagList{"Rent", "Rent"})

	assert.Equal(t, int64(400), b.ExpenseByTag["Rent"])
}

func TestAggregateBucket_NetAndOrder(t *testing.T) {
	b := NewAggregateBucket()

	b.Add(TransactionTypeIncome, 100, TagList{"Salary"})
	b.Add(TransactionTypeExpense, 300, TagList{"Rent"})
	b.Add(TransactionTypeExpense, 20, TagList{"Coffee", "Rent"})
	b.Add("transfer", 999, TagList{"Ignored"})

	assert.Equal(t, int64(-220), b.NetMinor())
	assert.Equal(t, []string{"Rent", "Coffee"}, b.ExpenseTags())
	assert.Equal(t, []string{"Salary"}, b.IncomeTags())
	assert.Equal(t, int64(320), b.ExpenseByTag["Rent"])
}
