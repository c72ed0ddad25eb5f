package hifz

import (
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER STATUS (aggregate)
// ══════════════════════════════════════════════════════════════════════════════

// LearnerStatus - running aggregate for one learner. It is replaced as a whole
// after every record ingestion, never patched field by field.
type LearnerStatus struct {
	// LearnerID - learner identifier.
	LearnerID shared.LearnerID

	// AlreadyMemorizedUnits - paras memorized before enrollment.
	AlreadyMemorizedUnits []int

	// CompletedUnits - paras completed during training, in completion order.
	CompletedUnits []int

	// CurrentUnit - para being memorized, 1..30.
	CurrentUnit int

	// CurrentUnitProgress - progress of CurrentUnit, 0..100.
	CurrentUnitProgress int

	// TotalActiveDays - number of PRESENT records.
	TotalActiveDays int

	// TotalLinesMemorized - new-lesson lines over all PRESENT records.
	TotalLinesMemorized int

	// TotalMistakes - mistakes over all PRESENT records.
	TotalMistakes int

	// AverageLinesPerDay - lines per active day (the learner's pace).
	AverageLinesPerDay float64

	// AverageMistakesPerDay - mistakes per active day.
	AverageMistakesPerDay float64

	// MistakeRatePercent - mistakes per 100 new lines.
	MistakeRatePercent float64

	// CompletionPercent - share of the curriculum memorized.
	CompletionPercent float64

	// MemorizedUnits - whole paras memorized.
	MemorizedUnits int

	// EstimatedDaysToComplete - 0 when no projection is available.
	EstimatedDaysToComplete int

	// EstimatedCompletionDate - nil when no projection is available.
	EstimatedCompletionDate *time.Time

	// EnrolledAt - when the status was created.
	EnrolledAt time.Time

	// LastUpdated - when the status was last recomputed.
	LastUpdated time.Time
}

// NewLearnerStatus creates the initial status at enrollment.
// startingUnit 0 means para 1.
func NewLearnerStatus(learnerID shared.LearnerID, alreadyMemorized []int, startingUnit int, now time.Time) (*LearnerStatus, error) {
	const op = "Enroll"

	if !learnerID.IsValid() {
		return nil, shared.ErrInvalidLearnerID
	}
	for _, u := range alreadyMemorized {
		if !IsValidUnit(u) {
			return nil, shared.ValidationError(op, "already_memorized_units", "para numbers must be between 1 and 30")
		}
	}
	if startingUnit == 0 {
		startingUnit = 1
	}
	if !IsValidUnit(startingUnit) {
		return nil, shared.ValidationError(op, "starting_unit", "must be between 1 and 30")
	}

	already, _ := uniqueUnits(alreadyMemorized)
	status := &LearnerStatus{
		LearnerID:             learnerID,
		AlreadyMemorizedUnits: already,
		CompletedUnits:        []int{},
		CurrentUnit:           startingUnit,
		EnrolledAt:            now,
	}
	*status = RecomputeStatus(*status, nil, now)
	return status, nil
}

// Completion runs the completion calculator over the status lists.
func (s LearnerStatus) Completion() Completion {
	return CalculateCompletion(CompletionInput{
		AlreadyMemorized:    s.AlreadyMemorizedUnits,
		Completed:           s.CompletedUnits,
		CurrentUnit:         s.CurrentUnit,
		CurrentUnitProgress: s.CurrentUnitProgress,
	})
}

// Clone returns a deep copy.
func (s LearnerStatus) Clone() LearnerStatus {
	c := s
	c.AlreadyMemorizedUnits = append([]int(nil), s.AlreadyMemorizedUnits...)
	c.CompletedUnits = append([]int{}, s.CompletedUnits...)
	if s.EstimatedCompletionDate != nil {
		d := *s.EstimatedCompletionDate
		c.EstimatedCompletionDate = &d
	}
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS AGGREGATOR
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeStatus derives every aggregate field of status from the full record
// history. It is pure: the para lists and current position are taken from
// status as-is and the result is returned as a new value.
func RecomputeStatus(status LearnerStatus, records []DailyRecord, now time.Time) LearnerStatus {
	out := status.Clone()

	activeDays, lines, mistakes := 0, 0, 0
	for _, r := range records {
		if !r.IsPresent() {
			continue
		}
		activeDays++
		lines += r.NewLesson.Lines
		mistakes += r.TotalMistakes
	}

	out.TotalActiveDays = activeDays
	out.TotalLinesMemorized = lines
	out.TotalMistakes = mistakes
	out.AverageLinesPerDay = ratio(float64(lines), float64(activeDays))
	out.AverageMistakesPerDay = ratio(float64(mistakes), float64(activeDays))
	out.MistakeRatePercent = ratio(float64(mistakes), float64(lines)) * 100

	completion := out.Completion()
	out.CompletionPercent = completion.Percent
	out.MemorizedUnits = completion.MemorizedUnits

	projection := Estimate(completion.RemainingUnits, out.AverageLinesPerDay, now)
	out.EstimatedDaysToComplete = projection.EstimatedDays
	out.EstimatedCompletionDate = projection.EstimatedDate

	out.LastUpdated = now
	return out
}

// ratio divides with a zero guard.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// ══════════════════════════════════════════════════════════════════════════════
// INGESTION
// ══════════════════════════════════════════════════════════════════════════════

// IngestResult - outcome of applying a submission to a status.
type IngestResult struct {
	// Record - normalized record, reflecting the post-transition para.
	Record *DailyRecord

	// Status - status after the state machine ran. Aggregates are not yet recomputed.
	Status LearnerStatus

	// Transition - state machine outcome.
	Transition Transition

	// Events - unit_completed and milestone_reached events to emit after persistence.
	Events []shared.Event
}

// Ingest validates a submission and applies it to a copy of status.
// Duplicate detection is left to the record store.
func Ingest(status LearnerStatus, sub RecordSubmission, now time.Time) (*IngestResult, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if sub.LearnerID != status.LearnerID {
		return nil, shared.ValidationError("Ingest", "learner_id", "does not match the learner status")
	}
	return apply(status, sub, newRecord(sub, now)), nil
}

// Revise applies a corrected submission to an existing record. Date and learner
// are immutable; everything else is re-validated and re-derived.
//
// Only a correction of the learner's latest record moves the current para.
// An older record can still add a completed para but never rewinds the
// position reached by the records after it.
func Revise(status LearnerStatus, existing DailyRecord, sub RecordSubmission, latest bool, now time.Time) (*IngestResult, error) {
	sub.LearnerID = existing.LearnerID
	sub.Date = existing.Date
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if sub.LearnerID != status.LearnerID {
		return nil, shared.ValidationError("Revise", "learner_id", "does not match the learner status")
	}

	rec := newRecord(sub, now)
	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	if !latest {
		return backfill(status, existing, sub, rec), nil
	}
	return apply(status, sub, rec), nil
}

// backfill revises a record that later records have already moved past.
func backfill(status LearnerStatus, existing DailyRecord, sub RecordSubmission, rec *DailyRecord) *IngestResult {
	next := status.Clone()
	before := next.Completion().MemorizedUnits

	rec.CurrentUnit = existing.CurrentUnit
	rec.CurrentUnitProgress = existing.CurrentUnitProgress
	rec.CompletedUnits = append([]int{}, existing.CompletedUnits...)
	if sub.CurrentUnit != 0 && sub.CurrentUnit != rec.CurrentUnit {
		rec.CurrentUnit = sub.CurrentUnit
		rec.CurrentUnitProgress = 0
	}
	if sub.CurrentUnitProgress != nil {
		rec.CurrentUnitProgress = clampPercent(*sub.CurrentUnitProgress)
	}

	transition := Transition{
		Unit:           next.CurrentUnit,
		TotalCompleted: len(next.CompletedUnits),
		Terminal:       next.IsTerminal(),
	}
	if rec.CurrentUnitProgress == 100 && !containsUnit(next.CompletedUnits, rec.CurrentUnit) {
		next.CompletedUnits = append(next.CompletedUnits, rec.CurrentUnit)
		transition = Transition{
			Unit:           rec.CurrentUnit,
			Completed:      true,
			TotalCompleted: len(next.CompletedUnits),
			Terminal:       next.IsTerminal(),
		}
		if !containsUnit(rec.CompletedUnits, rec.CurrentUnit) {
			rec.CompletedUnits = append(rec.CompletedUnits, rec.CurrentUnit)
		}
	}
	if next.IsTerminal() {
		next.CurrentUnitProgress = 100
	}

	return &IngestResult{
		Record:     rec,
		Status:     next,
		Transition: transition,
		Events:     progressEvents(next, transition, before),
	}
}

func apply(status LearnerStatus, sub RecordSubmission, rec *DailyRecord) *IngestResult {
	next := status.Clone()
	before := next.Completion().MemorizedUnits

	unit := sub.CurrentUnit
	progress := next.CurrentUnitProgress
	if unit != 0 && unit != next.CurrentUnit {
		progress = 0
	}
	if sub.CurrentUnitProgress != nil {
		progress = *sub.CurrentUnitProgress
	}

	transition := next.ApplyProgress(unit, progress)

	rec.CurrentUnit = next.CurrentUnit
	rec.CurrentUnitProgress = next.CurrentUnitProgress
	rec.CompletedUnits = append([]int{}, next.CompletedUnits...)

	return &IngestResult{
		Record:     rec,
		Status:     next,
		Transition: transition,
		Events:     progressEvents(next, transition, before),
	}
}

func progressEvents(next LearnerStatus, transition Transition, before int) []shared.Event {
	var events []shared.Event
	learnerID := next.LearnerID.String()
	if transition.Completed {
		events = append(events, shared.NewUnitCompletedEvent(learnerID, transition.Unit, transition.TotalCompleted))
	}
	after := next.Completion().MemorizedUnits
	for _, m := range CrossedMilestones(before, after) {
		events = append(events, shared.NewMilestoneReachedEvent(learnerID, m))
	}
	return events
}
