package command

import (
	"context"
	"fmt"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE DAILY RECORD COMMAND
// Corrects a previously stored day. The record keeps its identity and date;
// condition, totals and status aggregates are re-derived.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateDailyRecordCommand contains the corrected data for an existing day.
type UpdateDailyRecordCommand struct {
	LearnerID string

	// Date identifies the record to correct.
	Date time.Time

	DailyEntry

	CorrelationID string
}

// Validate validates the command shape.
func (c UpdateDailyRecordCommand) Validate() error {
	if _, err := shared.NewLearnerID(c.LearnerID); err != nil {
		return err
	}
	if c.Date.IsZero() {
		return shared.ValidationError("UpdateDailyRecord", "date", "is required")
	}
	_, err := hifz.ParseAttendance(c.Attendance)
	return err
}

// UpdateDailyRecordResult contains the result of a correction.
type UpdateDailyRecordResult struct {
	Previous   *hifz.DailyRecord
	Record     *hifz.DailyRecord
	Status     *hifz.LearnerStatus
	Transition hifz.Transition
	Completion hifz.Completion
	Events     []shared.Event
}

// UpdateDailyRecordHandler handles the UpdateDailyRecordCommand.
type UpdateDailyRecordHandler struct {
	store          hifz.UnitOfWorkFactory
	cache          hifz.StatusCache
	eventPublisher shared.EventPublisher
	log            *logger.Logger
	now            func() time.Time
}

// NewUpdateDailyRecordHandler creates a new UpdateDailyRecordHandler.
func NewUpdateDailyRecordHandler(deps HandlerDeps) *UpdateDailyRecordHandler {
	deps = deps.withDefaults()
	return &UpdateDailyRecordHandler{
		store:          deps.Store,
		cache:          deps.Cache,
		eventPublisher: deps.EventPublisher,
		log:            deps.Logger.With(logger.Component("update_daily_record")),
		now:            deps.Now,
	}
}

// Handle executes the update daily record command.
func (h *UpdateDailyRecordHandler) Handle(ctx context.Context, cmd UpdateDailyRecordCommand) (*UpdateDailyRecordResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_daily_record: %w", err)
	}

	learnerID, _ := shared.NewLearnerID(cmd.LearnerID)
	sub, err := cmd.submission(learnerID, cmd.Date)
	if err != nil {
		return nil, fmt.Errorf("update_daily_record: %w", err)
	}
	now := h.now()

	uow, err := h.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("update_daily_record: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	status, err := uow.Statuses().GetStatus(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("update_daily_record: %w", err)
	}

	existing, err := uow.Records().GetRecord(ctx, learnerID, cmd.Date)
	if err != nil {
		return nil, fmt.Errorf("update_daily_record: %w", err)
	}

	after, err := uow.Records().GetRecords(ctx, learnerID, shared.DateRange{
		From: existing.Date.AddDate(0, 0, 1),
		To:   shared.AllTime().To,
	})
	if err != nil {
		return nil, fmt.Errorf("update_daily_record: %w", err)
	}

	res, err := hifz.Revise(*status, *existing, sub, len(after) == 0, now)
	if err != nil {
		return nil, fmt.Errorf("update_daily_record: %w", err)
	}

	if err := uow.Records().UpdateRecord(ctx, res.Record); err != nil {
		return nil, fmt.Errorf("update_daily_record: %w", err)
	}

	next, err := replaceStatus(ctx, uow, res.Status, now)
	if err != nil {
		return nil, fmt.Errorf("update_daily_record: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("update_daily_record: commit: %w", err)
	}

	completion := next.Completion()
	log := h.log.With(logger.LearnerID(learnerID.String()), logger.RecordDate(res.Record.Date))
	log.Info("daily record corrected",
		logger.String("condition", string(res.Record.Condition)),
		logger.String("previous_condition", string(existing.Condition)),
	)
	logWarnings(log, completion)

	refreshCache(ctx, h.cache, log, next)
	publishAll(h.eventPublisher, log, res.Events, cmd.CorrelationID)

	return &UpdateDailyRecordResult{
		Previous:   existing,
		Record:     res.Record,
		Status:     next,
		Transition: res.Transition,
		Completion: completion,
		Events:     res.Events,
	}, nil
}
