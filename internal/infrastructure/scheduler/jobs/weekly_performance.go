// Package jobs contains the scheduled jobs of the hifz tracker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/query"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY PERFORMANCE JOB
// ══════════════════════════════════════════════════════════════════════════════

// LearnerLister lists enrolled learners.
type LearnerLister interface {
	ListLearnerIDs(ctx context.Context) ([]shared.LearnerID, error)
}

// WeeklyEvaluator evaluates the last completed week of one learner.
type WeeklyEvaluator interface {
	Handle(ctx context.Context, q query.GetWeeklyPerformanceQuery) (*hifz.WeeklyEvaluation, error)
}

// WeeklyPerformanceJob evaluates every enrolled learner's previous week and
// publishes PoorWeeklyPerformanceEvent for flagged learners.
type WeeklyPerformanceJob struct {
	learners       LearnerLister
	evaluator      WeeklyEvaluator
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
	now            func() time.Time
	config         WeeklyPerformanceConfig

	lastStats atomic.Pointer[WeeklyStats]
}

// WeeklyPerformanceConfig contains configuration for the job.
type WeeklyPerformanceConfig struct {
	// Concurrency is the number of learners evaluated in parallel.
	Concurrency int

	// Timeout bounds the whole run.
	Timeout time.Duration
}

// DefaultWeeklyPerformanceConfig returns sensible defaults.
func DefaultWeeklyPerformanceConfig() WeeklyPerformanceConfig {
	return WeeklyPerformanceConfig{
		Concurrency: 5,
		Timeout:     5 * time.Minute,
	}
}

// WeeklyStats contains statistics from one run.
type WeeklyStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Week        shared.DateRange
	Evaluated   int
	Flagged     []string
	Failed      int
}

// NewWeeklyPerformanceJob creates the job.
func NewWeeklyPerformanceJob(
	learners LearnerLister,
	evaluator WeeklyEvaluator,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config WeeklyPerformanceConfig,
) *WeeklyPerformanceJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultWeeklyPerformanceConfig().Concurrency
	}

	return &WeeklyPerformanceJob{
		learners:       learners,
		evaluator:      evaluator,
		eventPublisher: eventPublisher,
		logger:         logger.With("job", "weekly_performance"),
		now:            time.Now,
		config:         config,
	}
}

// WithClock overrides the clock used to pick the evaluated week.
func (j *WeeklyPerformanceJob) WithClock(now func() time.Time) *WeeklyPerformanceJob {
	j.now = now
	return j
}

// Name returns the job name.
func (j *WeeklyPerformanceJob) Name() string {
	return "weekly_performance"
}

// Description returns a human-readable description.
func (j *WeeklyPerformanceJob) Description() string {
	return "Flags learners with poor attendance, mistakes or progress in the last completed week"
}

// LastStats returns statistics of the most recent run, or nil.
func (j *WeeklyPerformanceJob) LastStats() *WeeklyStats {
	return j.lastStats.Load()
}

// Run executes the job. One learner's failure does not stop the others; the
// run fails only when every evaluation failed.
func (j *WeeklyPerformanceJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	asOf := j.now()
	stats := &WeeklyStats{StartedAt: asOf, Week: hifz.LastCompletedWeek(asOf)}

	ids, err := j.learners.ListLearnerIDs(ctx)
	if err != nil {
		return fmt.Errorf("list learners: %w", err)
	}

	j.logger.Info("evaluating week",
		"week_start", stats.Week.From.Format(shared.DateLayout),
		"learners", len(ids),
	)

	var (
		mu       sync.Mutex
		firstErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)

	for _, id := range ids {
		g.Go(func() error {
			flagged, err := j.evaluate(gctx, id, asOf)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				if firstErr == nil {
					firstErr = err
				}
				j.logger.Error("weekly evaluation failed", "learner_id", id.String(), "error", err)
				return nil
			}
			stats.Evaluated++
			if flagged {
				stats.Flagged = append(stats.Flagged, id.String())
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.CompletedAt = j.now()
	j.lastStats.Store(stats)

	j.logger.Info("weekly evaluation completed",
		"evaluated", stats.Evaluated,
		"flagged", len(stats.Flagged),
		"failed", stats.Failed,
	)

	if stats.Failed > 0 && stats.Evaluated == 0 {
		return fmt.Errorf("all %d evaluations failed: %w", stats.Failed, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (j *WeeklyPerformanceJob) evaluate(ctx context.Context, id shared.LearnerID, asOf time.Time) (bool, error) {
	eval, err := j.evaluator.Handle(ctx, query.GetWeeklyPerformanceQuery{LearnerID: id.String(), AsOf: asOf})
	if err != nil {
		return false, err
	}

	event := eval.PoorPerformanceEvent()
	if event == nil {
		return false, nil
	}

	j.logger.Warn("poor weekly performance", "learner_id", id.String(), "reasons", eval.Reasons())

	if j.eventPublisher != nil {
		if err := j.eventPublisher.Publish(event); err != nil {
			// The learner is still reported as flagged in the stats.
			j.logger.Error("failed to publish event", "learner_id", id.String(), "error", err)
		}
	}
	return true, nil
}
