// Package retry implements the transport-side retry policy shared by the
// hsmgroups and redfish adapters. The planning core never retries; the
// adapters own transient-failure handling, and this is where it lives.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yourusername/hsm-rebalance/internal/config"
	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

// Policy holds the backoff parameters for a collaborator's call sites. A
// fresh backoff sequence is built per Do call, so one Policy is safe to
// share across the fetcher's concurrent workers.
type Policy struct {
	maxTries     uint
	baseInterval time.Duration
	maxInterval  time.Duration
	component    string
}

// New builds a Policy from RetryConfig, labeling its log lines with
// component (e.g. "hsmgroups", "redfish").
func New(cfg config.RetryConfig, component string) *Policy {
	return &Policy{
		maxTries:     uint(cfg.GetMaxAttempts()),
		baseInterval: cfg.GetBaseDelay(),
		maxInterval:  cfg.GetMaxDelay(),
		component:    component,
	}
}

// Do runs op under the policy, retrying on error up to maxTries attempts
// with exponential backoff, and aborting early if ctx is cancelled. Errors
// wrapped with backoff.Permanent are never retried.
func Do[T any](ctx context.Context, p *Policy, operation string, op func() (T, error)) (T, error) {
	logger := logging.WithComponent(p.component)

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.baseInterval
	eb.MaxInterval = p.maxInterval

	attempt := 0
	wrapped := func() (T, error) {
		attempt++
		result, err := op()
		if err != nil && ctx.Err() == nil {
			logger.Debugw("retrying operation", "operation", operation, "attempt", attempt, "error", err)
		}
		return result, err
	}

	result, err := backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(p.maxTries),
	)
	if err != nil {
		logger.Warnw("operation failed after retries", "operation", operation, "attempts", attempt, "error", err)
	}
	return result, err
}

// DoVoid is Do for operations with no result value.
func DoVoid(ctx context.Context, p *Policy, operation string, op func() error) error {
	_, err := Do(ctx, p, operation, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
