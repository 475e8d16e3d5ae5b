package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finstats/internal/models"
	"finstats/internal/repositories"
)

type transactionService struct {
	repo    repositories.TransactionRepositoryInterface
	metrics MetricsRecorderInterface
	logger  *slog.Logger
}

func NewTransactionService(
	repo repositories.TransactionRepositoryInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) TransactionServiceInterface {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &transactionService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
	}
}

// RecordTransaction validates and stores one record
func (s *transactionService) RecordTransaction(ctx context.Context, transaction *models.Transaction) error {
	transaction.Normalize()
	if err := transaction.Validate(); err != nil {
		return modelValidationError(err)
	}

	if err := s.repo.Create(ctx, transaction); err != nil {
		s.logger.Error("failed to record transaction", "profile", transaction.Profile, "error", err)
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.metrics.IncrementCounter(MetricTransactionRecorded, map[string]string{"type": transaction.Type})
	s.logger.Info("transaction recorded",
		"id", transaction.ID,
		"profile", transaction.Profile,
		"type", transaction.Type,
		"currency", transaction.Currency,
	)
	return nil
}

// RecordBatch validates every record before storing them atomically
func (s *transactionService) RecordBatch(ctx context.Context, transactions []models.Transaction) error {
	for i := range transactions {
		transactions[i].Normalize()
		if err := transactions[i].Validate(); err != nil {
			vErr := modelValidationError(err)
			vErr.Field = fmt.Sprintf("transactions[%d].%s", i, vErr.Field)
			return vErr
		}
	}

	if err := s.repo.CreateBatch(ctx, transactions); err != nil {
		s.logger.Error("failed to record transaction batch", "count", len(transactions), "error", err)
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	for i := range transactions {
		s.metrics.IncrementCounter(MetricTransactionRecorded, map[string]string{"type": transactions[i].Type})
	}
	s.logger.Info("transaction batch recorded", "count", len(transactions))
	return nil
}

func modelValidationError(err error) *ValidationError {
	switch {
	case errors.Is(err, models.ErrProfileRequired):
		return newValidationError("profile", ReasonRequired, "is required")
	case errors.Is(err, models.ErrInvalidTransactionType):
		return newValidationError("type", ReasonInvalid, "must be income or expense")
	case errors.Is(err, models.ErrInvalidAmount):
		return newValidationError("amountMinor", ReasonInvalid, "must not be negative")
	case errors.Is(err, models.ErrInvalidCurrency):
		return newValidationError("currency", ReasonCurrency, "must be a 3-letter currency code")
	case errors.Is(err, models.ErrOccurredAtRequired):
		return newValidationError("occurredAt", ReasonRequired, "is required")
	default:
		return newValidationError("transaction", ReasonInvalid, "%s", err.Error())
	}
}
