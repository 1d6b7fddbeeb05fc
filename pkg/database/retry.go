package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/dqbreaks/pkg/config"
)

// RetryPolicy is the bounded fixed-delay retry applied around every query.
// Only connectivity failures are retried; rejected queries return at once.
type RetryPolicy struct {
	Attempts int           // total attempts, >= 1
	Delay    time.Duration // fixed delay between attempts
	Timeout  time.Duration // per-attempt deadline, 0 = none

	// OnRetry is called before sleeping between attempts
	OnRetry func(name string, attempt int, err error)
}

// NewRetryPolicy builds the policy from DB_RETRY_* / DB_QUERY_TIMEOUT
func NewRetryPolicy(cfg *config.Config) RetryPolicy {
	return RetryPolicy{
		Attempts: cfg.Database.RetryAttempts,
		Delay:    cfg.Database.RetryDelay,
		Timeout:  cfg.Database.QueryTimeout,
	}
}

// Run executes fn under the policy. name and query identify the statement in
// the returned *ConnectivityError or *QueryError.
func (p RetryPolicy) Run(ctx context.Context, name, query string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	made := 0

	for attempt := 1; attempt <= attempts; attempt++ {
		made = attempt
		err := p.attempt(ctx, fn)
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		if !IsConnectivityError(err) {
			return &QueryError{Name: name, Query: query, Err: err}
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(name, attempt, err)
		}

		select {
		case <-ctx.Done():
			return &ConnectivityError{Name: name, Query: query, Attempts: made, Err: lastErr}
		case <-time.After(p.Delay):
		}
	}

	return &ConnectivityError{Name: name, Query: query, Attempts: made, Err: lastErr}
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(attemptCtx)
}
