package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/partita/internal/ledgererr"
	"gorm.io/gorm"
)

const (
	PostingReasonValidation           = "validation"
	PostingReasonNotFound             = "not_found"
	PostingReasonReferentialIntegrity = "referential_integrity"
	PostingReasonImbalanced           = "imbalanced"
	PostingReasonConcurrency          = "concurrency"
	PostingReasonDBLockTimeout        = "db_lock_timeout"
	PostingReasonSerializationFailure = "serialization_failure"
	PostingReasonUniqueViolation      = "unique_violation"
	PostingReasonDeadlineExceeded     = "deadline_exceeded"
	PostingReasonUnknown              = "unknown"
)

// PostingMetrics exposes posting-engine latency signals on the Prometheus registry.
type PostingMetrics struct {
	duration     *prometheus.HistogramVec
	lockWait     prometheus.Histogram
	failures     *prometheus.CounterVec
	failureCount map[string]prometheus.Counter
}

var (
	postingMetricsOnce sync.Once
	postingMetrics     *PostingMetrics
)

// Posting returns the singleton posting metrics registered on the default registry.
func Posting() *PostingMetrics {
	return PostingWithConfig(Config{})
}

// PostingWithConfig returns the singleton posting metrics using config labels.
func PostingWithConfig(cfg Config) *PostingMetrics {
	postingMetricsOnce.Do(func() {
		postingMetrics = newPostingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return postingMetrics
}

func newPostingMetrics(registerer prometheus.Registerer, cfg Config) *PostingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "partita"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"service": serviceName, "environment": environment}

	m := &PostingMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "partita_posting_duration_seconds",
			Help:        "Wall time of a posting transaction, commit included.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		}, []string{"category"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "partita_protocol_lock_wait_seconds",
			Help:        "Time spent acquiring the per-company protocol sequence row lock.",
			Buckets:     []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			ConstLabels: constLabels,
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "partita_posting_rollbacks_total",
			Help:        "Postings rolled back, by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
	}

	m.duration = registerOrExisting(registerer, m.duration).(*prometheus.HistogramVec)
	m.lockWait = registerOrExisting(registerer, m.lockWait).(prometheus.Histogram)
	m.failures = registerOrExisting(registerer, m.failures).(*prometheus.CounterVec)

	m.failureCount = make(map[string]prometheus.Counter)
	for _, reason := range []string{
		PostingReasonValidation,
		PostingReasonNotFound,
		PostingReasonReferentialIntegrity,
		PostingReasonImbalanced,
		PostingReasonConcurrency,
		PostingReasonDBLockTimeout,
		PostingReasonSerializationFailure,
		PostingReasonUniqueViolation,
		PostingReasonDeadlineExceeded,
		PostingReasonUnknown,
	} {
		m.failureCount[reason] = m.failures.WithLabelValues(reason)
	}

	return m
}

func registerOrExisting(registerer prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector
		}
		panic(err)
	}
	return c
}

// ObserveDuration records the duration of one posting.
func (m *PostingMetrics) ObserveDuration(category string, d time.Duration) {
	if m == nil {
		return
	}
	if category == "" {
		category = "unknown"
	}
	m.duration.WithLabelValues(category).Observe(d.Seconds())
}

// ObserveLockWait records how long the protocol row lock took.
func (m *PostingMetrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

// IncFailure increments the rollback counter for err.
func (m *PostingMetrics) IncFailure(err error) {
	if m == nil || err == nil {
		return
	}
	reason := ClassifyPostingFailure(err)
	if counter, ok := m.failureCount[reason]; ok {
		counter.Inc()
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}

// ClassifyPostingFailure maps an error to a low-cardinality reason label.
func ClassifyPostingFailure(err error) string {
	if err == nil {
		return PostingReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return PostingReasonDeadlineExceeded
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03":
			return PostingReasonDBLockTimeout
		case "40001", "40P01":
			return PostingReasonSerializationFailure
		case "23505":
			return PostingReasonUniqueViolation
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return PostingReasonUniqueViolation
	}

	switch ledgererr.KindOf(err) {
	case ledgererr.ErrValidation:
		return PostingReasonValidation
	case ledgererr.ErrNotFound:
		return PostingReasonNotFound
	case ledgererr.ErrReferentialIntegrity:
		return PostingReasonReferentialIntegrity
	case ledgererr.ErrImbalancedEntry:
		return PostingReasonImbalanced
	case ledgererr.ErrConcurrency:
		return PostingReasonConcurrency
	}
	return PostingReasonUnknown
}
