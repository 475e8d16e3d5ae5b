package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"finstats/internal/models"
	"finstats/internal/repositories"
)

type statisticsService struct {
	repo    repositories.TransactionRepositoryInterface
	rates   RateProviderInterface
	metrics MetricsRecorderInterface
	logger  *slog.Logger
}

// NewStatisticsService creates the statistics composer
func NewStatisticsService(
	repo repositories.TransactionRepositoryInterface,
	rates RateProviderInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) StatisticsServiceInterface {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &statisticsService{
		repo:    repo,
		rates:   rates,
		metrics: metrics,
		logger:  logger,
	}
}

// GetStatistics validates the query, loads the profile's records for the window and
// folds them into totals and per-tag breakdowns in the query currency.
//
// With IncludeConverted, records in other currencies are converted at the current
// rate snapshot; currencies without a usable rate are listed in Meta.SkippedCurrencies.
// Storage failures abort the call. Rate failures never do.
func (s *statisticsService) GetStatistics(ctx context.Context, query models.StatisticsQuery) (*models.StatisticsResult, error) {
	start := time.Now()

	query, window, err := normalizeQuery(query)
	if err != nil {
		s.metrics.IncrementCounter(MetricStatisticsRequest, map[string]string{"status": "invalid"})
		return nil, err
	}

	var (
		baseTxns    []models.Transaction
		foreignTxns []models.Transaction
		snapshot    models.RateSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txns, err := s.repo.ListTransactions(gctx, query.Profile, repositories.Only(query.Currency), window)
		if err != nil {
			return fmt.Errorf("list %s transactions: %w", query.Currency, err)
		}
		baseTxns = txns
		return nil
	})
	if query.IncludeConverted {
		g.Go(func() error {
			txns, err := s.repo.ListTransactions(gctx, query.Profile, repositories.AnyBut(query.Currency), window)
			if err != nil {
				return fmt.Errorf("list non-%s transactions: %w", query.Currency, err)
			}
			foreignTxns = txns
			return nil
		})
		g.Go(func() error {
			snapshot = s.rates.GetRates(gctx, query.Currency)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.metrics.IncrementCounter(MetricStatisticsRequest, map[string]string{"status": "storage_error"})
		s.logger.Error("statistics storage failure",
			"profile", query.Profile,
			"currency", query.Currency,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	bucket := AggregateTransactions(baseTxns, window)

	meta := models.StatisticsMeta{
		IncludeConverted:  query.IncludeConverted,
		SkippedCurrencies: []string{},
	}
	if query.IncludeConverted {
		adapter := NewConversionAdapter(query.Currency, snapshot)
		AggregateConverted(bucket, foreignTxns, window, adapter)

		meta.SkippedCurrencies = adapter.SkippedCurrencies()
		meta.ConvertedCount = adapter.ConvertedCount()
		meta.RatesAvailable = snapshot.Available

		for _, currency := range meta.SkippedCurrencies {
			s.metrics.IncrementCounter(MetricCurrencySkipped, map[string]string{"currency": currency})
		}
	}

	result := composeResult(query, window, bucket, meta)

	duration := time.Since(start)
	s.metrics.IncrementCounter(MetricStatisticsRequest, map[string]string{"status": "success"})
	s.metrics.RecordProcessingTime(MetricStatisticsDuration, duration)
	s.logger.Info("statistics computed",
		"profile", query.Profile,
		"currency", query.Currency,
		"from", window.ExactFrom,
		"to", window.ExactTo,
		"base_records", len(baseTxns),
		"foreign_records", len(foreignTxns),
		"converted", meta.ConvertedCount,
		"skipped_currencies", meta.SkippedCurrencies,
		"duration_ms", duration.Milliseconds(),
	)

	return result, nil
}

// normalizeQuery trims and uppercases the query and builds its date window.
func normalizeQuery(query models.StatisticsQuery) (models.StatisticsQuery, models.DateWindow, error) {
	query.Profile = strings.TrimSpace(query.Profile)
	query.Currency = strings.ToUpper(strings.TrimSpace(query.Currency))
	query.From = strings.TrimSpace(query.From)
	query.To = strings.TrimSpace(query.To)

	if query.Profile == "" {
		return query, models.DateWindow{}, newValidationError("profile", ReasonRequired, "is required")
	}
	if query.Currency == "" {
		return query, models.DateWindow{}, newValidationError("currency", ReasonRequired, "is required")
	}
	if !models.IsValidCurrencyCode(query.Currency) {
		return query, models.DateWindow{}, newValidationError("currency", ReasonCurrency, "must be a 3-letter currency code")
	}

	window, err := NormalizeDateRange(query.From, query.To)
	if err != nil {
		return query, models.DateWindow{}, err
	}
	return query, window, nil
}

func composeResult(query models.StatisticsQuery, window models.DateWindow, bucket *models.AggregateBucket, meta models.StatisticsMeta) *models.StatisticsResult {
	currency := query.Currency
	return &models.StatisticsResult{
		Profile: query.Profile,
		From:    window.ExactFrom,
		To:      window.ExactTo,
		Summary: models.StatisticsSummary{
			TotalIncome:  models.Money{AmountMinor: bucket.TotalIncomeMinor, Currency: currency},
			TotalExpense: models.Money{AmountMinor: bucket.TotalExpenseMinor, Currency: currency},
			NetBalance:   models.Money{AmountMinor: bucket.NetMinor(), Currency: currency},
		},
		ExpenseBreakdown: buildBreakdown(bucket.ExpenseTags(), bucket.ExpenseByTag, bucket.TotalExpenseMinor, currency),
		IncomeBreakdown:  buildBreakdown(bucket.IncomeTags(), bucket.IncomeByTag, bucket.TotalIncomeMinor, currency),
		Meta:             meta,
	}
}

// buildBreakdown orders tags by amount descending, then by name.
func buildBreakdown(tags []string, amounts map[string]int64, total int64, currency string) []models.BreakdownItem {
	items := make([]models.BreakdownItem, 0, len(tags))
	for _, tag := range tags {
		amount := amounts[tag]
		items = append(items, models.BreakdownItem{
			Tag:         tag,
			AmountMinor: amount,
			Currency:    currency,
			Percentage:  Percentage(amount, total),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].AmountMinor != items[j].AmountMinor {
			return items[i].AmountMinor > items[j].AmountMinor
		}
		return items[i].Tag < items[j].Tag
	})
	return items
}
