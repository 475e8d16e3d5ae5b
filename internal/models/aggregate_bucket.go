package models

// AggregateBucket holds running totals for a single statistics call.
type AggregateBucket struct {
	TotalIncomeMinor  int64
	TotalExpenseMinor int64
	IncomeByTag       map[string]int64
	ExpenseByTag      map[string]int64

	// tag encounter order per type, used to keep breakdown output stable
	incomeOrder  []string
	expenseOrder []string
}

// NewAggregateBucket returns an empty bucket.
func NewAggregateBucket() *AggregateBucket {
	return &AggregateBucket{
		IncomeByTag:  make(map[string]int64),
		ExpenseByTag: make(map[string]int64),
	}
}

// Add books amountMinor to the type total and, in full, to every tag. A record with
// no tags is booked to UncategorizedTag. Amounts are never split across tags.
func (b *AggregateBucket) Add(transactionType string, amountMinor int64, tags TagList) {
	tags = tags.Normalized()
	if len(tags) == 0 {
		tags = TagList{UncategorizedTag}
	}

	switch transactionType {
	case TransactionTypeIncome:
		b.TotalIncomeMinor += amountMinor
		for _, tag := range tags {
			if _, ok := b.IncomeByTag[tag]; !ok {
				b.incomeOrder = append(b.incomeOrder, tag)
			}
			b.IncomeByTag[tag] += amountMinor
		}
	case TransactionTypeExpense:
		b.TotalExpenseMinor += amountMinor
		for _, tag := range tags {
			if _, ok := b.ExpenseByTag[tag]; !ok {
				b.expenseOrder = append(b.expenseOrder, tag)
			}
			b.ExpenseByTag[tag] += amountMinor
		}
	}
}

// NetMinor is income minus expense; negative when spending exceeds income.
func (b *AggregateBucket) NetMinor() int64 {
	return b.TotalIncomeMinor - b.TotalExpenseMinor
}

// IncomeTags lists income tags in first-seen order.
func (b *AggregateBucket) IncomeTags() []string {
	return append([]string(nil), b.incomeOrder...)
}

// ExpenseTags lists expense tags in first-seen order.
func (b *AggregateBucket) ExpenseTags() []string {
	return append([]string(nil), b.expenseOrder...)
}
