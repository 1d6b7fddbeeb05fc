package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/dqbreaks/pkg/logger"
	"github.com/wonny/dqbreaks/pkg/metrics"
)

// Executor runs named read queries under the retry policy, recording
// timings and failures.
// ⭐ SSOT: 모든 읽기 쿼리는 Executor를 거쳐 재시도/메트릭/로그가 적용됨
type Executor struct {
	db      Querier
	retry   RetryPolicy
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewExecutor wires the retry hook to logging and the retry counter
func NewExecutor(db Querier, policy RetryPolicy, log *logger.Logger, m *metrics.Metrics) *Executor {
	if log == nil {
		log = logger.Nop()
	}

	policy.OnRetry = func(name string, attempt int, err error) {
		m.QueryRetried(name)
		log.WithError(err).WithFields(map[string]interface{}{
			"query":   name,
			"attempt": attempt,
			"delay":   policy.Delay,
		}).Warn("Database unreachable, retrying")
	}

	return &Executor{db: db, retry: policy, logger: log, metrics: m}
}

// Run executes fn under the retry policy and records the outcome under name
func (e *Executor) Run(ctx context.Context, name, sql string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := e.retry.Run(ctx, name, sql, fn)
	elapsed := time.Since(start)

	e.metrics.ObserveQuery(name, elapsed)

	if err != nil {
		kind := "query"
		var connErr *ConnectivityError
		if errors.As(err, &connErr) {
			kind = "connectivity"
		}
		e.metrics.QueryFailed(name, kind)
		e.logger.WithQuery(name, elapsed).WithError(err).WithField("kind", kind).Error("Query failed")
		return err
	}

	e.logger.WithQuery(name, elapsed).Debug("Query completed")
	return nil
}

// QueryRow scans a single row into dest
func (e *Executor) QueryRow(ctx context.Context, name, sql string, args []any, dest ...any) error {
	return e.Run(ctx, name, sql, func(ctx context.Context) error {
		return e.db.QueryRow(ctx, sql, args...).Scan(dest...)
	})
}

// Collect runs a query and maps every row with fn. A retried attempt starts
// from an empty result. Never returns a nil slice on success.
func Collect[T any](ctx context.Context, e *Executor, name, sql string, args []any, fn pgx.RowToFunc[T]) ([]T, error) {
	var out []T

	err := e.Run(ctx, name, sql, func(ctx context.Context) error {
		rows, err := e.db.Query(ctx, sql, args...)
		if err != nil {
			return err
		}

		collected, err := pgx.CollectRows(rows, fn)
		if err != nil {
			return err
		}
		out = collected
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []T{}
	}
	return out, nil
}
