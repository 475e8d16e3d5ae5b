package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names accepted by PrometheusMetrics.
const (
	MetricStatisticsRequest   = "statistics.request"
	MetricStatisticsDuration  = "statistics.duration"
	MetricRateFetch           = "rates.fetch"
	MetricRateCacheLookup     = "rates.cache_lookup"
	MetricCurrencySkipped     = "currency.skipped"
	MetricCircuitBreakerState = "circuit_breaker.state"
	MetricTransactionRecorded = "transaction.recorded"
)

type PrometheusMetrics struct {
	statisticsRequests   *prometheus.CounterVec
	statisticsDuration   prometheus.Histogram
	rateFetches          *prometheus.CounterVec
	rateCacheLookups     *prometheus.CounterVec
	skippedCurrencies    *prometheus.CounterVec
	circuitBreakerState  *prometheus.GaugeVec
	transactionsRecorded *prometheus.CounterVec
}

// NewPrometheusMetricsWith registers the collectors with reg.
func NewPrometheusMetricsWith(reg prometheus.Registerer) MetricsRecorderInterface {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		statisticsRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statistics_requests_total",
				Help: "Total number of statistics computations by outcome",
			},
			[]string{"status"},
		),
		statisticsDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "statistics_duration_milliseconds",
				Help:    "Statistics computation duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		rateFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_fetch_total",
				Help: "Exchange-rate fetch attempts by result",
			},
			[]string{"result"},
		),
		rateCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_cache_lookups_total",
				Help: "Exchange-rate cache lookups by result",
			},
			[]string{"result"},
		),
		skippedCurrencies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skipped_currencies_total",
				Help: "Currencies left out of converted statistics for lack of a rate",
			},
			[]string{"currency"},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"service"},
		),
		transactionsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_recorded_total",
				Help: "Transactions written through the ingest path",
			},
			[]string{"type"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case MetricStatisticsRequest:
		if status := tags["status"]; status != "" {
			m.statisticsRequests.WithLabelValues(status).Inc()
		}
	case MetricRateFetch:
		if result := tags["result"]; result != "" {
			m.rateFetches.WithLabelValues(result).Inc()
		}
	case MetricRateCacheLookup:
		if result := tags["result"]; result != "" {
			m.rateCacheLookups.WithLabelValues(result).Inc()
		}
	case MetricCurrencySkipped:
		if currency := tags["currency"]; currency != "" {
			m.skippedCurrencies.WithLabelValues(currency).Inc()
		}
	case MetricTransactionRecorded:
		if txType := tags["type"]; txType != "" {
			m.transactionsRecorded.WithLabelValues(txType).Inc()
		}
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case MetricStatisticsDuration:
		m.statisticsDuration.Observe(float64(duration.Milliseconds()))
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case MetricCircuitBreakerState:
		if service := tags["service"]; service != "" {
			m.circuitBreakerState.WithLabelValues(service).Set(value)
		}
	}
}

// NoopMetrics discards everything. Used by the CLI and tests.
type NoopMetrics struct{}

func (NoopMetrics) IncrementCounter(string, map[string]string) {}
func (NoopMetrics) RecordProcessingTime(string, time.Duration) {}
func (NoopMetrics) RecordGauge(string, float64, map[string]string) {}
