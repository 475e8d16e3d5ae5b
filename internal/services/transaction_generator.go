package services

import (
	"time"

	"finstats/internal/models"

	"github.com/brianvoe/gofakeit/v7"
)

type transactionGenerator struct {
	faker *gofakeit.Faker
}

var (
	expenseTagPool = []string{"Food", "Dining", "Rent", "Transport", "Utilities", "Health", "Travel", "Shopping", "Entertainment", "Work"}
	incomeTagPool  = []string{"Salary", "Freelance", "Interest", "Gift", "Refund"}
)

// amount ranges in minor units
var amountRanges = map[string][2]int{
	models.TransactionTypeExpense: {300, 45000},
	models.TransactionTypeIncome:  {50000, 800000},
}

// NewTransactionGenerator creates a generator. A zero seed picks a random one.
func NewTransactionGenerator(seed uint64) TransactionGeneratorInterface {
	return &transactionGenerator{
		faker: gofakeit.New(seed),
	}
}

// Generate produces count records for profile spread over [startDate, endDate].
// Roughly one in five is income, one in ten is untagged and some carry two tags.
func (g *transactionGenerator) Generate(profile string, currencies []string, startDate, endDate time.Time, count int) []models.Transaction {
	if len(currencies) == 0 || count <= 0 || !endDate.After(startDate) {
		return nil
	}

	transactions := make([]models.Transaction, 0, count)
	for i := 0; i < count; i++ {
		txType := models.TransactionTypeExpense
		if g.faker.Number(1, 100) <= 20 {
			txType = models.TransactionTypeIncome
		}

		var tags models.TagList
		if g.faker.Number(1, 100) > 10 {
			tags = g.tagsFor(txType)
		}

		transactions = append(transactions, models.Transaction{
			Profile:     profile,
			Type:        txType,
			AmountMinor: g.GenerateAmount(txType),
			Currency:    g.faker.RandomString(currencies),
			Tags:        tags,
			Description: g.faker.Company(),
			OccurredAt:  g.faker.DateRange(startDate, endDate).UTC(),
		})
	}
	return transactions
}

func (g *transactionGenerator) tagsFor(txType string) models.TagList {
	pool := expenseTagPool
	if txType == models.TransactionTypeIncome {
		pool = incomeTagPool
	}

	tags := models.TagList{g.faker.RandomString(pool)}
	if g.faker.Number(1, 100) <= 25 {
		tags = append(tags, g.faker.RandomString(pool))
	}
	return tags.Normalized()
}

// GenerateAmount returns a plausible amount in minor units for the type
func (g *transactionGenerator) GenerateAmount(transactionType string) int64 {
	r, ok := amountRanges[transactionType]
	if !ok {
		r = [2]int{100, 10000}
	}
	return int64(g.faker.Number(r[0], r[1]))
}
