package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/command"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/query"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/persistence/memory"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/logger"
)

// Wednesday; the last completed week is Sunday 5 May to Saturday 11 May 2024.
var testNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
	err    error
}

func (p *capturePublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func intPtr(v int) *int { return &v }

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// enroll creates a learner and records the given entries on consecutive days
// starting Sunday 5 May.
func enroll(t *testing.T, store *memory.Store, entries ...command.DailyEntry) shared.LearnerID {
	t.Helper()
	ctx := context.Background()
	deps := command.HandlerDeps{Store: store, Logger: logger.Discard(), Now: func() time.Time { return testNow }}

	res, err := command.NewEnrollLearnerHandler(deps).Handle(ctx, command.EnrollLearnerCommand{StartingUnit: 1})
	require.NoError(t, err)

	rec := command.NewRecordDailyProgressHandler(deps)
	for i, e := range entries {
		_, err := rec.Handle(ctx, command.RecordDailyProgressCommand{
			LearnerID:  res.LearnerID.String(),
			Date:       time.Date(2024, 5, 5+i, 0, 0, 0, 0, time.UTC),
			DailyEntry: e,
		})
		require.NoError(t, err)
	}
	return res.LearnerID
}

func goodDay() command.DailyEntry {
	return command.DailyEntry{Attendance: string(hifz.AttendancePresent), NewLines: intPtr(10)}
}

func newJob(store *memory.Store, pub shared.EventPublisher) *WeeklyPerformanceJob {
	return NewWeeklyPerformanceJob(
		store.Statuses(),
		query.NewGetWeeklyPerformanceHandler(store),
		pub,
		quiet(),
		DefaultWeeklyPerformanceConfig(),
	).WithClock(func() time.Time { return testNow })
}

func TestWeeklyPerformanceJob_FlagsPoorWeeks(t *testing.T) {
	store := memory.NewStore()

	week := make([]command.DailyEntry, 7)
	for i := range week {
		week[i] = goodDay()
	}
	good := enroll(t, store, week...)

	// Two present days with no new lines, the rest absent.
	idle := command.DailyEntry{Attendance: string(hifz.AttendancePresent), NewLines: intPtr(0)}
	poor := enroll(t, store, idle, idle)

	pub := &capturePublisher{}
	job := newJob(store, pub)
	require.NoError(t, job.Run(context.Background()))

	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Evaluated)
	assert.Equal(t, []string{poor.String()}, stats.Flagged)
	assert.Equal(t, "2024-05-05", stats.Week.From.Format(shared.DateLayout))

	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, shared.EventPoorWeeklyPerformance, event.EventType())
	assert.Equal(t, poor.String(), event.AggregateID())
	assert.NotEqual(t, good.String(), event.AggregateID())
}

func TestWeeklyPerformanceJob_NoLearners(t *testing.T) {
	job := newJob(memory.NewStore(), &capturePublisher{})
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, job.LastStats().Evaluated)
}

func TestWeeklyPerformanceJob_PublishFailureStillCountsFlag(t *testing.T) {
	store := memory.NewStore()
	id := enroll(t, store)

	job := newJob(store, &capturePublisher{err: errors.New("redis down")})
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{id.String()}, job.LastStats().Flagged)
}

type failingEvaluator struct{}

func (failingEvaluator) Handle(context.Context, query.GetWeeklyPerformanceQuery) (*hifz.WeeklyEvaluation, error) {
	return nil, errors.New("db unavailable")
}

type staticLister []shared.LearnerID

func (l staticLister) ListLearnerIDs(context.Context) ([]shared.LearnerID, error) {
	return l, nil
}

func TestWeeklyPerformanceJob_AllEvaluationsFail(t *testing.T) {
	ids := staticLister{shared.GenerateLearnerID(), shared.GenerateLearnerID()}
	job := NewWeeklyPerformanceJob(ids, failingEvaluator{}, nil, quiet(), WeeklyPerformanceConfig{Concurrency: 1})

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db unavailable")
	assert.Equal(t, 2, job.LastStats().Failed)
}

func TestWeeklyPerformanceJob_Metadata(t *testing.T) {
	job := newJob(memory.NewStore(), nil)
	assert.Equal(t, "weekly_performance", job.Name())
	assert.NotEmpty(t, job.Description())
}
