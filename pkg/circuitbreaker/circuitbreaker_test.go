package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("redis down")

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

func newBreaker(t *testing.T, clk *clock, changes *[]string) *CircuitBreaker {
	t.Helper()
	return New("test",
		WithFailureThreshold(2),
		WithSuccessThreshold(1),
		WithTimeout(10*time.Second),
		WithClock(clk.Now),
		WithOnStateChange(func(_ string, from, to State) {
			*changes = append(*changes, from.String()+"->"+to.String())
		}),
	)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	clk := &clock{now: time.Date(2024, 5, 5, 6, 0, 0, 0, time.UTC)}
	var changes []string
	cb := newBreaker(t, clk, &changes)
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	calls := 0
	err := cb.Execute(ctx, func(context.Context) error { calls++; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsRejected(err))
	assert.Zero(t, calls)
	assert.Equal(t, 1, cb.Counts().Rejected)
	assert.Equal(t, []string{"closed->open"}, changes)
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	clk := &clock{now: time.Date(2024, 5, 5, 6, 0, 0, 0, time.UTC)}
	var changes []string
	cb := newBreaker(t, clk, &changes)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	require.Equal(t, StateOpen, cb.State())

	clk.Advance(10 * time.Second)
	require.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, changes)
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	clk := &clock{now: time.Date(2024, 5, 5, 6, 0, 0, 0, time.UTC)}
	var changes []string
	cb := newBreaker(t, clk, &changes)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	clk.Advance(11 * time.Second)

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	// The cool-down restarts from the failed probe.
	clk.Advance(5 * time.Second)
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestBreaker_IsFailureFilter(t *testing.T) {
	ignored := errors.New("cache miss")
	cb := New("test", WithFailureThreshold(1), WithIsFailure(func(err error) bool {
		return !errors.Is(err, ignored)
	}))

	assert.ErrorIs(t, cb.Execute(context.Background(), func(context.Context) error { return ignored }), ignored)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 1, cb.Counts().TotalSuccesses)
}

func TestBreaker_Reset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	_ = cb.Execute(context.Background(), fail)
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, Counts{}, cb.Counts())
}

func TestCacheBreaker(t *testing.T) {
	cb := CacheBreaker(nil)
	assert.Equal(t, "redis-status-cache", cb.Name())
	assert.Equal(t, StateClosed, cb.State())
}
