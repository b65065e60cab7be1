package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/partita/internal/ledgererr"
	"gorm.io/gorm"
)

func TestClassifyPostingFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: PostingReasonDeadlineExceeded},
		{name: "lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: PostingReasonDBLockTimeout},
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, want: PostingReasonSerializationFailure},
		{name: "unique", err: gorm.ErrDuplicatedKey, want: PostingReasonUniqueViolation},
		{name: "validation", err: fmt.Errorf("post: %w", ledgererr.Validation("vat_required")), want: PostingReasonValidation},
		{name: "imbalanced", err: ledgererr.Imbalanced("imbalanced_entry"), want: PostingReasonImbalanced},
		{name: "concurrency", err: ledgererr.ErrConcurrency, want: PostingReasonConcurrency},
		{name: "unknown", err: errors.New("boom"), want: PostingReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyPostingFailure(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPostingMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newPostingMetrics(registry, Config{ServiceName: "partita", Environment: "test"})

	m.IncFailure(ledgererr.Validation("vat_required"))
	m.IncFailure(ledgererr.Validation("invalid_lines"))
	m.IncFailure(&pgconn.PgError{Code: "55P03"})
	m.ObserveLockWait(3 * time.Millisecond)
	m.ObserveDuration("purchases", 20*time.Millisecond)

	if got := testutil.ToFloat64(m.failures.WithLabelValues(PostingReasonValidation)); got != 2 {
		t.Fatalf("expected 2 validation failures, got %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues(PostingReasonDBLockTimeout)); got != 1 {
		t.Fatalf("expected 1 lock timeout, got %v", got)
	}
	if got := testutil.CollectAndCount(m.lockWait); got != 1 {
		t.Fatalf("expected lock wait histogram to be collected, got %d", got)
	}

	// re-registering on the same registry reuses the collectors
	again := newPostingMetrics(registry, Config{ServiceName: "partita", Environment: "test"})
	again.IncFailure(ledgererr.Validation("vat_required"))
	if got := testutil.ToFloat64(m.failures.WithLabelValues(PostingReasonValidation)); got != 3 {
		t.Fatalf("expected shared collector, got %v", got)
	}
}
