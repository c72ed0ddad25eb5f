// Package retry runs operations again with capped exponential backoff and
// jitter. The tracker uses it for the start-up database connection and for
// publishing events to Redis.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as transient. Nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// PermanentError stops the loop even when RetryIf would accept it.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Config controls one Retrier.
type Config struct {
	MaxAttempts  int           // including the first call
	InitialDelay time.Duration // before the second call
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.2 spreads each delay by ±20%

	// RetryIf decides whether err is retried. Nil retries only RetryableError.
	RetryIf func(error) bool

	// OnRetry runs before each sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
}

type Option func(*Config)

func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.InitialDelay = d
		}
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithJitter ignores values outside [0, 1].
func WithJitter(j float64) Option {
	return func(c *Config) {
		if j >= 0 && j <= 1 {
			c.JitterFactor = j
		}
	}
}

func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) { c.RetryIf = fn }
}

func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) { c.OnRetry = fn }
}

// Retrier is safe for concurrent use.
type Retrier struct {
	cfg Config
}

func New(opts ...Option) *Retrier {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Retrier{cfg: cfg}
}

// Do calls op until it succeeds, the error is not retryable, attempts run
// out or ctx ends. The returned error has the Retryable/Permanent marker
// stripped.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return unmark(last)
			}
			return err
		}

		last = op(ctx)
		if last == nil {
			return nil
		}
		if attempt >= r.cfg.MaxAttempts || IsPermanent(last) || !r.retryable(last) {
			return unmark(last)
		}

		wait := r.backoff(attempt)
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempt, last, wait)
		}
		select {
		case <-ctx.Done():
			return unmark(last)
		case <-time.After(wait):
		}
	}
}

func (r *Retrier) retryable(err error) bool {
	if r.cfg.RetryIf == nil {
		return IsRetryable(err)
	}
	return r.cfg.RetryIf(err)
}

func (r *Retrier) backoff(attempt int) time.Duration {
	d := math.Min(
		float64(r.cfg.InitialDelay)*math.Pow(r.cfg.Multiplier, float64(attempt-1)),
		float64(r.cfg.MaxDelay),
	)
	d *= 1 + r.cfg.JitterFactor*(2*rand.Float64()-1)
	return time.Duration(math.Max(d, 0))
}

func unmark(err error) error {
	switch e := err.(type) {
	case *RetryableError:
		return e.Err
	case *PermanentError:
		return e.Err
	}
	return err
}

// Do builds a Retrier from opts and runs op through it.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, op)
}

// DoWithData is Do for operations that return a value.
func DoWithData[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var out T
	err := New(opts...).Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}

// PublishRetrier backs the Redis event bus: four attempts, at most 2s apart.
func PublishRetrier(retryIf func(error) bool) *Retrier {
	return New(
		WithMaxAttempts(4),
		WithInitialDelay(50*time.Millisecond),
		WithMaxDelay(2*time.Second),
		WithJitter(0.2),
		WithRetryIf(retryIf),
	)
}

// ConnectOptions retries every error for up to five attempts. onRetry may
// be nil.
func ConnectOptions(onRetry func(attempt int, err error, delay time.Duration)) []Option {
	return []Option{
		WithMaxAttempts(5),
		WithInitialDelay(500 * time.Millisecond),
		WithMaxDelay(10 * time.Second),
		WithRetryIf(func(error) bool { return true }),
		WithOnRetry(onRetry),
	}
}
