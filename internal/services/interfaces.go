package services

import (
	"context"
	"time"

	"finstats/internal/models"
)

// StatisticsServiceInterface computes income/expense statistics for a profile
type StatisticsServiceInterface interface {
	GetStatistics(ctx context.Context, query models.StatisticsQuery) (*models.StatisticsResult, error)
}

// TransactionServiceInterface records raw transactions consumed by the statistics engine
type TransactionServiceInterface interface {
	RecordTransaction(ctx context.Context, transaction *models.Transaction) error
	RecordBatch(ctx context.Context, transactions []models.Transaction) error
}

// RateProviderInterface fetches exchange-rate snapshots. It never fails: any problem
// yields a snapshot with Available=false.
type RateProviderInterface interface {
	GetRates(ctx context.Context, baseCurrency string) models.RateSnapshot
}

// RateCacheInterface stores rate snapshots per base currency
type RateCacheInterface interface {
	Get(ctx context.Context, baseCurrency string) (models.RateSnapshot, bool)
	Put(ctx context.Context, snapshot models.RateSnapshot)
	IsStale(snapshot models.RateSnapshot) bool
}

// TransactionGeneratorInterface generates demo transaction data
type TransactionGeneratorInterface interface {
	Generate(profile string, currencies []string, startDate, endDate time.Time, count int) []models.Transaction
	GenerateAmount(transactionType string) int64
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

type TokenVerifierInterface interface {
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
}

type CircuitBreakerInterface interface {
	IsOpen() bool
	RecordSuccess()
	RecordFailure()
	GetState() models.CircuitBreakerState
	Reset()
	GetFailureCount() int
}
