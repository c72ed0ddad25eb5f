// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/logger"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD DAILY PROGRESS COMMAND
// Ingests one day of recitation for a learner: validates it, runs the para
// state machine, persists the record and replaces the learner status in one
// unit of work, then emits unit/milestone events.
// ══════════════════════════════════════════════════════════════════════════════

// DailyEntry contains the fields a teacher submits for one day.
type DailyEntry struct {
	// Attendance is PRESENT, ABSENT, LATE or EXCUSED (case-insensitive).
	Attendance string

	// NewLines is required when the learner is present.
	NewLines    *int
	NewMistakes int

	RecentLabel    string
	RecentMistakes int

	OlderLabel    string
	OlderMistakes int

	// CurrentUnit is the para being memorized; 0 keeps the current one.
	CurrentUnit int

	// CurrentUnitProgress is 0..100; nil keeps the current progress.
	CurrentUnitProgress *int

	Notes string
}

func (e DailyEntry) submission(learnerID shared.LearnerID, date time.Time) (hifz.RecordSubmission, error) {
	attendance, err := hifz.ParseAttendance(e.Attendance)
	if err != nil {
		return hifz.RecordSubmission{}, err
	}
	return hifz.RecordSubmission{
		LearnerID:           learnerID,
		Date:                date,
		Attendance:          attendance,
		NewLines:            e.NewLines,
		NewMistakes:         e.NewMistakes,
		RecentLabel:         e.RecentLabel,
		RecentMistakes:      e.RecentMistakes,
		OlderLabel:          e.OlderLabel,
		OlderMistakes:       e.OlderMistakes,
		CurrentUnit:         e.CurrentUnit,
		CurrentUnitProgress: e.CurrentUnitProgress,
		Notes:               e.Notes,
	}, nil
}

// RecordDailyProgressCommand contains the data to record a day.
type RecordDailyProgressCommand struct {
	// LearnerID is the UUID of the learner.
	LearnerID string

	// Date is the calendar day of the record (defaults to today if zero).
	Date time.Time

	DailyEntry

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command shape. Domain rules are checked by hifz.Ingest.
func (c RecordDailyProgressCommand) Validate() error {
	if c.LearnerID == "" {
		return shared.ValidationError("RecordDailyProgress", "learner_id", "is required")
	}
	if _, err := shared.NewLearnerID(c.LearnerID); err != nil {
		return err
	}
	_, err := hifz.ParseAttendance(c.Attendance)
	return err
}

// RecordDailyProgressResult contains the result of recording a day.
type RecordDailyProgressResult struct {
	// Record is the persisted record.
	Record *hifz.DailyRecord

	// Status is the replaced learner status.
	Status *hifz.LearnerStatus

	// Transition is the para state machine outcome.
	Transition hifz.Transition

	// Completion is the completion breakdown after the update.
	Completion hifz.Completion

	// Events contains the domain events that were emitted.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordDailyProgressHandler handles the RecordDailyProgressCommand.
type RecordDailyProgressHandler struct {
	store          hifz.UnitOfWorkFactory
	cache          hifz.StatusCache
	eventPublisher shared.EventPublisher
	log            *logger.Logger
	now            func() time.Time
}

// HandlerDeps contains the collaborators shared by the command handlers.
// Cache and EventPublisher are optional.
type HandlerDeps struct {
	Store          hifz.UnitOfWorkFactory
	Cache          hifz.StatusCache
	EventPublisher shared.EventPublisher
	Logger         *logger.Logger

	// Now overrides the clock, mainly for tests. Defaults to timeutil.Now.
	Now func() time.Time
}

func (d HandlerDeps) withDefaults() HandlerDeps {
	if d.Logger == nil {
		d.Logger = logger.Default()
	}
	if d.Now == nil {
		d.Now = timeutil.Now
	}
	return d
}

// NewRecordDailyProgressHandler creates a new RecordDailyProgressHandler.
func NewRecordDailyProgressHandler(deps HandlerDeps) *RecordDailyProgressHandler {
	deps = deps.withDefaults()
	return &RecordDailyProgressHandler{
		store:          deps.Store,
		cache:          deps.Cache,
		eventPublisher: deps.EventPublisher,
		log:            deps.Logger.With(logger.Component("record_daily_progress")),
		now:            deps.Now,
	}
}

// Handle executes the record daily progress command.
func (h *RecordDailyProgressHandler) Handle(ctx context.Context, cmd RecordDailyProgressCommand) (*RecordDailyProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_daily_progress: %w", err)
	}

	now := h.now()
	date := cmd.Date
	if date.IsZero() {
		date = now
	}

	learnerID, _ := shared.NewLearnerID(cmd.LearnerID)
	sub, err := cmd.submission(learnerID, date)
	if err != nil {
		return nil, fmt.Errorf("record_daily_progress: %w", err)
	}

	uow, err := h.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("record_daily_progress: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	status, err := uow.Statuses().GetStatus(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("record_daily_progress: %w", err)
	}

	res, err := hifz.Ingest(*status, sub, now)
	if err != nil {
		return nil, fmt.Errorf("record_daily_progress: %w", err)
	}

	if err := uow.Records().CreateRecord(ctx, res.Record); err != nil {
		return nil, fmt.Errorf("record_daily_progress: %w", err)
	}

	next, err := replaceStatus(ctx, uow, res.Status, now)
	if err != nil {
		return nil, fmt.Errorf("record_daily_progress: %w", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("record_daily_progress: commit: %w", err)
	}

	completion := next.Completion()
	log := h.log.With(logger.LearnerID(learnerID.String()), logger.RecordDate(res.Record.Date))
	log.Info("daily record stored",
		logger.Attendance(string(res.Record.Attendance)),
		logger.String("condition", string(res.Record.Condition)),
		logger.Unit(next.CurrentUnit),
		logger.Float64("completion_percent", completion.Percent),
	)
	logWarnings(log, completion)

	refreshCache(ctx, h.cache, log, next)
	publishAll(h.eventPublisher, log, res.Events, cmd.CorrelationID)

	return &RecordDailyProgressResult{
		Record:     res.Record,
		Status:     next,
		Transition: res.Transition,
		Completion: completion,
		Events:     res.Events,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED STEPS
// ══════════════════════════════════════════════════════════════════════════════

// replaceStatus recomputes the status from the full history inside uow and
// replaces it as a whole.
func replaceStatus(ctx context.Context, uow hifz.UnitOfWork, status hifz.LearnerStatus, now time.Time) (*hifz.LearnerStatus, error) {
	history, err := uow.Records().GetRecords(ctx, status.LearnerID, shared.AllTime())
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	next := hifz.RecomputeStatus(status, history, now)
	if err := uow.Statuses().ReplaceStatus(ctx, &next); err != nil {
		return nil, fmt.Errorf("replace status: %w", err)
	}
	return &next, nil
}

func refreshCache(ctx context.Context, cache hifz.StatusCache, log *logger.Logger, status *hifz.LearnerStatus) {
	if cache == nil {
		return
	}
	if err := cache.Set(ctx, status); err != nil {
		log.Warn("status cache refresh failed", logger.Err(err))
		// a stale entry is worse than a miss
		_ = cache.Invalidate(ctx, status.LearnerID)
	}
}

// publishAll emits events after commit. Delivery failures are logged and never
// undo the persisted state.
func publishAll(publisher shared.EventPublisher, log *logger.Logger, events []shared.Event, correlationID string) {
	if publisher == nil {
		return
	}
	for _, event := range withCorrelation(events, correlationID) {
		if err := publisher.Publish(event); err != nil {
			log.Error("failed to publish event",
				logger.EventType(string(event.EventType())),
				logger.Err(err),
			)
			continue
		}
		log.Debug("event published", logger.EventType(string(event.EventType())))
	}
}

func withCorrelation(events []shared.Event, id string) []shared.Event {
	if id == "" {
		return events
	}
	out := make([]shared.Event, 0, len(events))
	for _, event := range events {
		switch e := event.(type) {
		case shared.UnitCompletedEvent:
			e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
			out = append(out, e)
		case shared.MilestoneReachedEvent:
			e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
			out = append(out, e)
		case shared.LearnerEnrolledEvent:
			e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
			out = append(out, e)
		default:
			out = append(out, event)
		}
	}
	return out
}

func logWarnings(log *logger.Logger, c hifz.Completion) {
	if len(c.Warnings) == 0 {
		return
	}
	items := make([]string, 0, len(c.Warnings))
	for _, w := range c.Warnings {
		items = append(items, w.String())
	}
	log.Warn("data integrity warnings", logger.Warnings(items))
}
