package saga

import (
	"context"
	"math"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
)

// RetryPolicy is applied to every step of a saga unless a step overrides it
type RetryPolicy struct {
	// MaximumAttempts counts the first attempt too. Zero means DefaultRetryPolicy value.
	MaximumAttempts        int           `json:"maximum_attempts"`
	InitialInterval        time.Duration `json:"initial_interval"`
	BackoffCoefficient     float64       `json:"backoff_coefficient"`
	MaximumInterval        time.Duration `json:"maximum_interval"`
	NonRetryableErrorTypes []string      `json:"non_retryable_error_types"`
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaximumAttempts:    3,
		InitialInterval:    time.Second * 5,
		BackoffCoefficient: 2,
		MaximumInterval:    time.Second * 30,
	}
}

// WithDefaults fills zero fields from DefaultRetryPolicy
func (p RetryPolicy) WithDefaults() RetryPolicy {
	defaults := DefaultRetryPolicy()

	if p.MaximumAttempts == 0 {
		p.MaximumAttempts = defaults.MaximumAttempts
	}

	if p.InitialInterval == 0 {
		p.InitialInterval = defaults.InitialInterval
	}

	if p.BackoffCoefficient == 0 {
		p.BackoffCoefficient = defaults.BackoffCoefficient
	}

	if p.MaximumInterval == 0 {
		p.MaximumInterval = defaults.MaximumInterval
	}

	return p
}

func (p RetryPolicy) Validate() error {
	if p.MaximumAttempts < 0 {
		return errors.Errorf("maximum attempts must not be negative, got %d", p.MaximumAttempts)
	}

	if p.InitialInterval < 0 || p.MaximumInterval < 0 {
		return errors.New("retry intervals must not be negative")
	}

	if p.BackoffCoefficient != 0 && p.BackoffCoefficient < 1 {
		return errors.Errorf("backoff coefficient must be at least 1, got %v", p.BackoffCoefficient)
	}

	if p.MaximumInterval != 0 && p.MaximumInterval < p.InitialInterval {
		return errors.Errorf("maximum interval %s is less than initial interval %s", p.MaximumInterval, p.InitialInterval)
	}

	return nil
}

// Delay returns the pause after the given failed attempt, attempts are counted from 1
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.InitialInterval) * math.Pow(p.BackoffCoefficient, float64(attempt-1))

	if p.MaximumInterval > 0 && delay > float64(p.MaximumInterval) {
		return p.MaximumInterval
	}

	return time.Duration(delay)
}

// Retryable reports whether err may be attempted again, application errors are matched by type and flag
func (p RetryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	appErr, ok := AsApplicationError(err)
	if !ok {
		return true
	}

	if appErr.NonRetryable {
		return false
	}

	for _, nonRetryable := range p.NonRetryableErrorTypes {
		if appErr.Type == nonRetryable {
			return false
		}
	}

	return true
}

// do runs fn until it succeeds, returns a non retryable error or attempts are exhausted.
// The returned error is the last one fn returned.
func (p RetryPolicy) do(ctx context.Context, fn func(attempt int) error) (int, error) {
	p = p.WithDefaults()

	var (
		attempts int
		lastErr  error
	)

	err := retry.Do(
		func() error {
			attempts++
			lastErr = fn(attempts)
			return lastErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.MaximumAttempts)),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return p.Delay(attempts)
		}),
		retry.MaxDelay(p.MaximumInterval),
		retry.RetryIf(p.Retryable),
		retry.LastErrorOnly(true),
	)

	if err == nil {
		return attempts, nil
	}

	if lastErr == nil || ctx.Err() != nil {
		return attempts, errors.WithStack(err)
	}

	return attempts, lastErr
}
