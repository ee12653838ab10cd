package qa

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hyperjump/medqa/internal/config"
	"github.com/hyperjump/medqa/internal/models"
)

// RetryPolicy is the exponential backoff applied to transient completion failures.
// The zero value never retries.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// RetryPolicyFromConfig converts the retry config section.
func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: time.Duration(cfg.InitialIntervalMs) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.MaxIntervalMs) * time.Millisecond,
	}
}

// retryable reports whether a completion error may succeed on a later attempt.
func retryable(err error) bool {
	return errors.Is(err, models.ErrRateLimit) || errors.Is(err, models.ErrRequest)
}

// do runs op until it succeeds, fails permanently, or the policy is exhausted. notify is
// called before each wait.
func (p RetryPolicy) do(ctx context.Context, op func() error, notify func(attempt int, err error, wait time.Duration)) error {
	if p.MaxRetries <= 0 {
		return op()
	}
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.MaxElapsedTime = 0

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.MaxRetries)), ctx)
	return backoff.RetryNotify(wrapped, b, func(err error, wait time.Duration) {
		if notify != nil {
			notify(attempt, err, wait)
		}
	})
}
