package fetch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig defines retry behavior for downloads
type RetryConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts" json:"max_attempts"`
	InitialDelay  time.Duration `mapstructure:"initial_delay" yaml:"initial_delay" json:"initial_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay" yaml:"max_delay" json:"max_delay"`
	BackoffFactor float64       `mapstructure:"backoff_factor" yaml:"backoff_factor" json:"backoff_factor"`
	Jitter        bool          `mapstructure:"jitter" yaml:"jitter" json:"jitter"`
}

// DefaultRetryConfig returns the download retry policy: three attempts,
// waiting 1s then 2s, never more than 10s between attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        false,
	}
}

// Validate checks that the policy can make at least one attempt.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.InitialDelay < 0 || c.MaxDelay < 0 {
		return errors.New("retry delays must not be negative")
	}
	if c.BackoffFactor < 1 {
		return fmt.Errorf("retry backoff_factor must be at least 1, got %g", c.BackoffFactor)
	}
	return nil
}

// RetryableError defines an error that can be retried
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}
	return false
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error, retryable bool) *RetryableError {
	return &RetryableError{
		Err:       err,
		Retryable: retryable,
	}
}

// Backoff computes exponential delays between attempts.
type Backoff struct {
	config RetryConfig
}

// NewBackoff creates a new exponential backoff strategy
func NewBackoff(config RetryConfig) *Backoff {
	return &Backoff{config: config}
}

// NextDelay calculates the delay after the given failed attempt (1-based).
func (b *Backoff) NextDelay(attempt int) time.Duration {
	raw := float64(b.config.InitialDelay) * math.Pow(b.config.BackoffFactor, float64(attempt-1))

	delay := b.config.MaxDelay
	if raw < float64(b.config.MaxDelay) {
		delay = time.Duration(raw)
	}

	if b.config.Jitter {
		jitter := time.Duration(rand.Float64() * float64(delay) * 0.1) // #nosec G404 - jitter does not need crypto randomness
		delay += jitter
	}

	return delay
}

// ShouldRetry determines if another attempt should follow a failure.
func (b *Backoff) ShouldRetry(attempt int, err error) bool {
	if attempt >= b.config.MaxAttempts {
		return false
	}
	return IsRetryableError(err)
}

// RetryHook is called before waiting for the next attempt.
type RetryHook func(attempt int, delay time.Duration, err error)

// Retrier runs an operation until it succeeds or the policy gives up.
type Retrier struct {
	backoff *Backoff
	config  RetryConfig
	onRetry RetryHook
}

// NewRetrier creates a new retrier for config.
func NewRetrier(config RetryConfig, onRetry RetryHook) *Retrier {
	return &Retrier{
		backoff: NewBackoff(config),
		config:  config,
		onRetry: onRetry,
	}
}

// Execute executes an operation with retry logic
func (r *Retrier) Execute(ctx context.Context, operation func(attempt int) error) error {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempts = attempt
		err := operation(attempt)
		if err == nil {
			if attempt > 1 {
				log.Info().
					Int("attempt", attempt).
					Int("total_attempts", r.config.MaxAttempts).
					Msg("Download succeeded after retries")
			}
			return nil
		}

		lastErr = err

		if !r.backoff.ShouldRetry(attempt, err) {
			break
		}

		delay := r.backoff.NextDelay(attempt)

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.config.MaxAttempts).
			Dur("delay", delay).
			Msg("Download failed, retrying")

		if r.onRetry != nil {
			r.onRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	log.Error().
		Err(lastErr).
		Int("attempts", attempts).
		Msg("Download failed after all retry attempts")

	return fmt.Errorf("failed after %d attempt(s): %w", attempts, lastErr)
}
