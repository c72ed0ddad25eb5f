package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type funcJob struct {
	name string
	runs atomic.Int32
	fn   func(ctx context.Context) error
}

func (j *funcJob) Name() string        { return j.name }
func (j *funcJob) Description() string { return "test job " + j.name }
func (j *funcJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.fn == nil {
		return nil
	}
	return j.fn(ctx)
}

func newTestScheduler(clock *fakeClock) *Scheduler {
	return NewScheduler(SchedulerConfig{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:          clock.Now,
		TickInterval: 5 * time.Millisecond,
	})
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	clock := &fakeClock{now: pkt(15, 10, 0)}
	s := newTestScheduler(clock)
	job := &funcJob{name: "weekly"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), job.runs.Load())

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Not due again until another hour passes.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.True(t, infos[0].NextRun.Equal(pkt(15, 12, 0)))
	assert.Equal(t, "@every 1h0m0s", infos[0].Schedule)
}

func TestScheduler_DoesNotOverlapRuns(t *testing.T) {
	clock := &fakeClock{now: pkt(15, 10, 0)}
	s := newTestScheduler(clock)

	release := make(chan struct{})
	job := &funcJob{name: "slow", fn: func(ctx context.Context) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	require.NoError(t, s.Start(context.Background()))

	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(5 * time.Minute)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())
	assert.True(t, s.ListJobs()[0].Running)

	close(release)
	require.NoError(t, s.Stop())
}

func TestScheduler_RunNowRecordsResult(t *testing.T) {
	clock := &fakeClock{now: pkt(15, 10, 0)}
	s := newTestScheduler(clock)

	boom := errors.New("boom")
	require.NoError(t, s.Register(&funcJob{name: "fails", fn: func(context.Context) error { return boom }}, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(&funcJob{name: "panics", fn: func(context.Context) error { panic("bad") }}, NewIntervalSchedule(time.Hour)))

	var completed []JobResult
	s.OnJobComplete(func(r JobResult) { completed = append(completed, r) })

	result, err := s.RunNow(context.Background(), "fails")
	assert.ErrorIs(t, err, boom)
	assert.True(t, result.Manual)
	assert.False(t, result.Success)

	_, err = s.RunNow(context.Background(), "panics")
	assert.ErrorIs(t, err, ErrJobPanicked)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.Len(t, completed, 2)
	assert.Len(t, s.GetHistory(0), 2)
	assert.Len(t, s.GetHistory(1), 1)
	assert.Equal(t, "panics", s.GetHistory(1)[0].JobName)

	snap := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalExecutions)
	assert.Equal(t, int64(2), snap.TotalFailures)
}

func TestScheduler_RegistrationAndLifecycleErrors(t *testing.T) {
	s := newTestScheduler(&fakeClock{now: pkt(15, 10, 0)})

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&funcJob{name: "a"}, nil), ErrNilSchedule)
	require.NoError(t, s.Register(&funcJob{name: "a"}, NewIntervalSchedule(time.Hour)))
	assert.ErrorIs(t, s.Register(&funcJob{name: "a"}, NewIntervalSchedule(time.Hour)), ErrJobAlreadyExists)

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}
