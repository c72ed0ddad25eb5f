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
// ENROLL LEARNER COMMAND
// Creates the initial LearnerStatus. Enrollment is the only way a status comes
// into existence; daily records for unknown learners are rejected.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollLearnerCommand contains the data to enroll a learner.
type EnrollLearnerCommand struct {
	// LearnerID is optional. A new UUID is generated when empty.
	LearnerID string

	// AlreadyMemorized - paras memorized before enrollment.
	AlreadyMemorized []int

	// StartingUnit - para the learner starts on. 0 means para 1.
	StartingUnit int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c EnrollLearnerCommand) Validate() error {
	if c.LearnerID != "" {
		if _, err := shared.NewLearnerID(c.LearnerID); err != nil {
			return err
		}
	}
	for _, unit := range c.AlreadyMemorized {
		if !hifz.IsValidUnit(unit) {
			return shared.ValidationError("EnrollLearner", "already_memorized",
				fmt.Sprintf("para %d is outside 1..%d", unit, hifz.TotalUnits))
		}
	}
	if c.StartingUnit != 0 && !hifz.IsValidUnit(c.StartingUnit) {
		return shared.ValidationError("EnrollLearner", "starting_unit",
			fmt.Sprintf("para %d is outside 1..%d", c.StartingUnit, hifz.TotalUnits))
	}
	return nil
}

func (c EnrollLearnerCommand) startingUnit() int {
	if c.StartingUnit != 0 {
		return c.StartingUnit
	}
	return 1
}

// EnrollLearnerResult contains the result of enrollment.
type EnrollLearnerResult struct {
	LearnerID shared.LearnerID
	Status    *hifz.LearnerStatus
}

// EnrollLearnerHandler handles the EnrollLearnerCommand.
type EnrollLearnerHandler struct {
	store          hifz.UnitOfWorkFactory
	cache          hifz.StatusCache
	eventPublisher shared.EventPublisher
	log            *logger.Logger
	now            func() time.Time
}

// NewEnrollLearnerHandler creates a new EnrollLearnerHandler.
func NewEnrollLearnerHandler(deps HandlerDeps) *EnrollLearnerHandler {
	deps = deps.withDefaults()
	return &EnrollLearnerHandler{
		store:          deps.Store,
		cache:          deps.Cache,
		eventPublisher: deps.EventPublisher,
		log:            deps.Logger.With(logger.Component("enroll_learner")),
		now:            deps.Now,
	}
}

// Handle executes the enroll learner command.
func (h *EnrollLearnerHandler) Handle(ctx context.Context, cmd EnrollLearnerCommand) (*EnrollLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("enroll_learner: %w", err)
	}

	learnerID := shared.GenerateLearnerID()
	if cmd.LearnerID != "" {
		learnerID, _ = shared.NewLearnerID(cmd.LearnerID)
	}

	status, err := hifz.NewLearnerStatus(learnerID, cmd.AlreadyMemorized, cmd.startingUnit(), h.now())
	if err != nil {
		return nil, fmt.Errorf("enroll_learner: %w", err)
	}

	uow, err := h.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("enroll_learner: begin: %w", err)
	}
	defer uow.Rollback(ctx)

	existing, err := uow.Statuses().GetStatus(ctx, learnerID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("enroll_learner: check existing: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("enroll_learner: %w", shared.ErrLearnerAlreadyEnrolled)
	}

	if err := uow.Statuses().ReplaceStatus(ctx, status); err != nil {
		return nil, fmt.Errorf("enroll_learner: save status: %w", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("enroll_learner: commit: %w", err)
	}

	log := h.log.With(logger.LearnerID(learnerID.String()))
	log.Info("learner enrolled",
		logger.Unit(status.CurrentUnit),
		logger.Int("already_memorized", len(status.AlreadyMemorizedUnits)),
	)

	refreshCache(ctx, h.cache, log, status)
	event := shared.NewLearnerEnrolledEvent(learnerID.String(), status.AlreadyMemorizedUnits, status.CurrentUnit)
	publishAll(h.eventPublisher, log, []shared.Event{event}, cmd.CorrelationID)

	return &EnrollLearnerResult{LearnerID: learnerID, Status: status}, nil
}
