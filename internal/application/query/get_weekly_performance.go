package query

import (
	"context"
	"fmt"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET WEEKLY PERFORMANCE QUERY
// Evaluates the last completed Sunday to Saturday week. Shared by the
// weekly CLI command and the scheduled job.
// ══════════════════════════════════════════════════════════════════════════════

type GetWeeklyPerformanceQuery struct {
	LearnerID string

	// AsOf defaults to now. The evaluated week is the one that ended
	// before the week containing AsOf.
	AsOf time.Time
}

func (q *GetWeeklyPerformanceQuery) Validate() error {
	if q.LearnerID == "" {
		return shared.ValidationError("GetWeeklyPerformance", "learner_id", "is required")
	}
	if q.AsOf.IsZero() {
		q.AsOf = timeutil.Now()
	}
	return nil
}

type GetWeeklyPerformanceHandler struct {
	store hifz.Store
}

func NewGetWeeklyPerformanceHandler(store hifz.Store) *GetWeeklyPerformanceHandler {
	return &GetWeeklyPerformanceHandler{store: store}
}

func (h *GetWeeklyPerformanceHandler) Handle(ctx context.Context, q GetWeeklyPerformanceQuery) (*hifz.WeeklyEvaluation, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_weekly_performance: %w", err)
	}

	learnerID, err := shared.NewLearnerID(q.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("get_weekly_performance: %w", err)
	}

	if _, err := h.store.Statuses().GetStatus(ctx, learnerID); err != nil {
		return nil, fmt.Errorf("get_weekly_performance: %w", err)
	}

	week := hifz.LastCompletedWeek(q.AsOf)
	records, err := h.store.Records().GetRecords(ctx, learnerID, week)
	if err != nil {
		return nil, fmt.Errorf("get_weekly_performance: load records: %w", err)
	}

	eval := hifz.EvaluateWeek(learnerID, records, week)
	return &eval, nil
}
