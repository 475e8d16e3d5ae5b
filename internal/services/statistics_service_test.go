package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finstats/internal/models"
	"finstats/internal/repositories"
	"finstats/internal/repositories/repository_mocks"
	"finstats/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

// StatisticsServiceSuite defines the test suite for StatisticsServiceInterface
type StatisticsServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	repo    *repository_mocks.MockTransactionRepositoryInterface
	rates   *service_mocks.MockRateProviderInterface
	service StatisticsServiceInterface
	ctx     context.Context
	march   models.StatisticsQuery
	midDay  time.Time
}

func TestStatisticsServiceSuite(t *testing.T) {
	suite.Run(t, new(StatisticsServiceSuite))
}

func (s *StatisticsServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.repo = repository_mocks.NewMockTransactionRepositoryInterface(s.ctrl)
	s.rates = service_mocks.NewMockRateProviderInterface(s.ctrl)
	s.service = NewStatisticsService(s.repo, s.rates, NoopMetrics{}, discardLogger())
	s.ctx = context.Background()
	s.march = models.StatisticsQuery{
		Profile:  "Personal",
		Currency: "USD",
		From:     "2024-03-01",
		To:       "2024-03-31",
	}
	s.midDay = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
}

func (s *StatisticsServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *StatisticsServiceSuite) expectBase(txns ...models.Transaction) {
	s.repo.EXPECT().
		ListTransactions(gomock.Any(), "Personal", repositories.Only("USD"), gomock.Any()).
		Return(txns, nil)
}

func (s *StatisticsServiceSuite) expectForeign(txns ...models.Transaction) {
	s.repo.EXPECT().
		ListTransactions(gomock.Any(), "Personal", repositories.AnyBut("USD"), gomock.Any()).
		Return(txns, nil)
}

func (s *StatisticsServiceSuite) TestSingleSalary_RoundTrip() {
	s.expectBase(txn(models.TransactionTypeIncome, 100000, "USD", s.midDay, "Salary"))

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Require().NoError(err)
	s.Equal("Personal", result.Profile)
	s.Equal("2024-03-01", result.From)
	s.Equal("2024-03-31", result.To)
	s.Equal(models.Money{AmountMinor: 100000, Currency: "USD"}, result.Summary.TotalIncome)
	s.Equal(models.Money{AmountMinor: 0, Currency: "USD"}, result.Summary.TotalExpense)
	s.Equal(models.Money{AmountMinor: 100000, Currency: "USD"}, result.Summary.NetBalance)
	s.Equal([]models.BreakdownItem{{Tag: "Salary", AmountMinor: 100000, Currency: "USD", Percentage: 100}}, result.IncomeBreakdown)
	s.NotNil(result.ExpenseBreakdown)
	s.Empty(result.ExpenseBreakdown)
	s.Equal([]string{}, result.Meta.SkippedCurrencies)
	s.False(result.Meta.IncludeConverted)
}

func (s *StatisticsServiceSuite) TestQueryIsNormalized() {
	s.repo.EXPECT().
		ListTransactions(gomock.Any(), "Personal", repositories.Only("EUR"), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ repositories.CurrencyFilter, window models.DateWindow) ([]models.Transaction, error) {
			s.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), window.FetchStart)
			s.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), window.FetchEnd)
			return nil, nil
		})

	result, err := s.service.GetStatistics(s.ctx, models.StatisticsQuery{
		Profile: " Personal ", Currency: "eur", From: "2024-03-01", To: "2024-03-31",
	})

	s.Require().NoError(err)
	s.Equal("EUR", result.Summary.NetBalance.Currency)
}

func (s *StatisticsServiceSuite) TestMultiTag_FullAmountPerTag() {
	s.expectBase(txn(models.TransactionTypeExpense, 1000, "USD", s.midDay, "Food", "Work"))

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Require().NoError(err)
	s.Equal(int64(1000), result.Summary.TotalExpense.AmountMinor)
	s.Equal([]models.BreakdownItem{
		{Tag: "Food", AmountMinor: 1000, Currency: "USD", Percentage: 100},
		{Tag: "Work", AmountMinor: 1000, Currency: "USD", Percentage: 100},
	}, result.ExpenseBreakdown)
}

func (s *StatisticsServiceSuite) TestUntagged_GoesToUncategorizedOnly() {
	s.expectBase(
		txn(models.TransactionTypeExpense, 300, "USD", s.midDay),
		txn(models.TransactionTypeExpense, 700, "USD", s.midDay, "Rent"),
	)

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Require().NoError(err)
	s.Equal([]models.BreakdownItem{
		{Tag: "Rent", AmountMinor: 700, Currency: "USD", Percentage: 70},
		{Tag: models.UncategorizedTag, AmountMinor: 300, Currency: "USD", Percentage: 30},
	}, result.ExpenseBreakdown)
}

func (s *StatisticsServiceSuite) TestBreakdownSortedByAmountThenTag() {
	s.expectBase(
		txn(models.TransactionTypeExpense, 100, "USD", s.midDay, "Zoo"),
		txn(models.TransactionTypeExpense, 500, "USD", s.midDay, "Rent"),
		txn(models.TransactionTypeExpense, 100, "USD", s.midDay, "Art"),
		txn(models.TransactionTypeExpense, 300, "USD", s.midDay, "Food"),
	)

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Require().NoError(err)
	var tags []string
	var percentages []int64
	for _, item := range result.ExpenseBreakdown {
		tags = append(tags, item.Tag)
		percentages = append(percentages, item.Percentage)
	}
	s.Equal([]string{"Rent", "Food", "Art", "Zoo"}, tags)
	s.Equal([]int64{50, 30, 10, 10}, percentages)
}

func (s *StatisticsServiceSuite) TestBoundaryDaysAreExcluded() {
	s.expectBase(
		txn(models.TransactionTypeIncome, 1, "USD", time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC), "Early"),
		txn(models.TransactionTypeIncome, 2, "USD", time.Date(2024, 4, 1, 6, 0, 0, 0, time.UTC), "Late"),
		txn(models.TransactionTypeIncome, 4, "USD", s.midDay, "Inside"),
	)

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Require().NoError(err)
	s.Equal(int64(4), result.Summary.TotalIncome.AmountMinor)
	s.Len(result.IncomeBreakdown, 1)
}

func (s *StatisticsServiceSuite) TestConversion_Included() {
	s.march.IncludeConverted = true
	s.expectBase()
	s.expectForeign(txn(models.TransactionTypeExpense, 5000, "EUR", s.midDay, "Travel"))
	s.rates.EXPECT().GetRates(gomock.Any(), "USD").Return(availableRates("USD", map[string]float64{"EUR": 0.9}))

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Require().NoError(err)
	s.Equal(int64(5556), result.Summary.TotalExpense.AmountMinor)
	s.Equal(int64(-5556), result.Summary.NetBalance.AmountMinor)
	s.Equal([]models.BreakdownItem{{Tag: "Travel", AmountMinor: 5556, Currency: "USD", Percentage: 100}}, result.ExpenseBreakdown)
	s.Equal(models.StatisticsMeta{
		IncludeConverted:  true,
		SkippedCurrencies: []string{},
		ConvertedCount:    1,
		RatesAvailable:    true,
	}, result.Meta)
}

func (s *StatisticsServiceSuite) TestConversion_NotRequested() {
	// only the base currency is read; no rate lookup happens
	s.expectBase()

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Require().NoError(err)
	s.Zero(result.Summary.TotalExpense.AmountMinor)
	s.Zero(result.Meta.ConvertedCount)
}

func (s *StatisticsServiceSuite) TestConversion_MissingRateIsSkipped() {
	s.march.IncludeConverted = true
	s.expectBase(txn(models.TransactionTypeExpense, 250, "USD", s.midDay, "Food"))
	s.expectForeign(
		txn(models.TransactionTypeExpense, 5000, "EUR", s.midDay, "Travel"),
		txn(models.TransactionTypeIncome, 900, "GBP", s.midDay, "Gift"),
	)
	s.rates.EXPECT().GetRates(gomock.Any(), "USD").Return(availableRates("USD", map[string]float64{}))

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Require().NoError(err)
	s.Equal(int64(250), result.Summary.TotalExpense.AmountMinor)
	s.Zero(result.Summary.TotalIncome.AmountMinor)
	s.Equal([]string{"EUR", "GBP"}, result.Meta.SkippedCurrencies)
	s.Len(result.ExpenseBreakdown, 1)
	s.Empty(result.IncomeBreakdown)
}

func (s *StatisticsServiceSuite) TestConversion_OverflowingRateIsSkipped() {
	s.march.IncludeConverted = true
	s.expectBase(txn(models.TransactionTypeExpense, 250, "USD", s.midDay, "Food"))
	s.expectForeign(txn(models.TransactionTypeExpense, 1_000_000, "XXX", s.midDay, "Travel"))
	s.rates.EXPECT().GetRates(gomock.Any(), "USD").Return(availableRates("USD", map[string]float64{"XXX": 1e-15}))

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Require().NoError(err)
	s.Equal(int64(250), result.Summary.TotalExpense.AmountMinor)
	s.Equal(int64(-250), result.Summary.NetBalance.AmountMinor)
	s.Equal([]string{"XXX"}, result.Meta.SkippedCurrencies)
	s.Zero(result.Meta.ConvertedCount)
}

func (s *StatisticsServiceSuite) TestConversion_RatesUnavailable() {
	s.march.IncludeConverted = true
	s.expectBase(txn(models.TransactionTypeIncome, 1000, "USD", s.midDay, "Salary"))
	s.expectForeign(txn(models.TransactionTypeExpense, 5000, "EUR", s.midDay))
	s.rates.EXPECT().GetRates(gomock.Any(), "USD").Return(models.UnavailableRates("USD"))

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Require().NoError(err)
	s.Equal(int64(1000), result.Summary.NetBalance.AmountMinor)
	s.False(result.Meta.RatesAvailable)
	s.Equal([]string{"EUR"}, result.Meta.SkippedCurrencies)
}

func (s *StatisticsServiceSuite) TestStorageFailureIsFatal() {
	s.march.IncludeConverted = true
	s.repo.EXPECT().
		ListTransactions(gomock.Any(), "Personal", repositories.Only("USD"), gomock.Any()).
		Return(nil, errors.New("connection refused"))
	s.repo.EXPECT().
		ListTransactions(gomock.Any(), "Personal", repositories.AnyBut("USD"), gomock.Any()).
		Return(nil, nil).AnyTimes()
	s.rates.EXPECT().GetRates(gomock.Any(), "USD").Return(models.UnavailableRates("USD")).AnyTimes()

	result, err := s.service.GetStatistics(s.ctx, s.march)

	s.Nil(result)
	s.ErrorIs(err, ErrStorage)
	s.Contains(err.Error(), "connection refused")
}

func (s *StatisticsServiceSuite) TestValidationErrors() {
	tests := []struct {
		name   string
		mutate func(q *models.StatisticsQuery)
		field  string
		reason ValidationReason
	}{
		{"missing profile", func(q *models.StatisticsQuery) { q.Profile = "  " }, "profile", ReasonRequired},
		{"missing currency", func(q *models.StatisticsQuery) { q.Currency = "" }, "currency", ReasonRequired},
		{"bad currency", func(q *models.StatisticsQuery) { q.Currency = "dollar" }, "currency", ReasonCurrency},
		{"missing from", func(q *models.StatisticsQuery) { q.From = "" }, "from", ReasonRequired},
		{"bad to", func(q *models.StatisticsQuery) { q.To = "31/03/2024" }, "to", ReasonDateFormat},
		{"reversed", func(q *models.StatisticsQuery) { q.From = "2024-04-01" }, "from", ReasonDateRange},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			query := s.march
			tt.mutate(&query)

			result, err := s.service.GetStatistics(s.ctx, query)

			s.Nil(result)
			s.ErrorIs(err, ErrValidation)
			vErr, ok := AsValidationError(err)
			s.Require().True(ok)
			s.Equal(tt.field, vErr.Field)
			s.Equal(tt.reason, vErr.Reason)
		})
	}
}

func (s *StatisticsServiceSuite) TestMetricsRecorded() {
	metrics := service_mocks.NewMockMetricsRecorderInterface(s.ctrl)
	service := NewStatisticsService(s.repo, s.rates, metrics, discardLogger())

	s.march.IncludeConverted = true
	s.expectBase()
	s.expectForeign(txn(models.TransactionTypeExpense, 10, "SEK", s.midDay))
	s.rates.EXPECT().GetRates(gomock.Any(), "USD").Return(models.UnavailableRates("USD"))

	metrics.EXPECT().IncrementCounter(MetricCurrencySkipped, map[string]string{"currency": "SEK"})
	metrics.EXPECT().IncrementCounter(MetricStatisticsRequest, map[string]string{"status": "success"})
	metrics.EXPECT().RecordProcessingTime(MetricStatisticsDuration, gomock.Any())

	_, err := service.GetStatistics(s.ctx, s.march)
	s.NoError(err)
}
