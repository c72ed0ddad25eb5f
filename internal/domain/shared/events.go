package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Delivery is the publisher's concern; the core only emits.
const (
	EventLearnerEnrolled       EventType = "hifz.learner_enrolled"
	EventUnitCompleted         EventType = "hifz.unit_completed"
	EventMilestoneReached      EventType = "hifz.milestone_reached"
	EventPoorWeeklyPerformance EventType = "hifz.poor_weekly_performance"
)

// Event is what the core hands to an EventPublisher. AggregateID is the
// learner ID for every hifz event.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time
	AggregateID() string
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func (e BaseEvent) EventType() EventType  { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.AggregateId }

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// Correlation returns the correlation ID, if any.
func (e BaseEvent) Correlation() string {
	return e.CorrelationID
}

// LearnerEnrolledEvent is emitted once when a learner status is created.
type LearnerEnrolledEvent struct {
	BaseEvent
	LearnerID             string `json:"learner_id"`
	AlreadyMemorizedUnits []int  `json:"already_memorized_units"`
	StartingUnit          int    `json:"starting_unit"`
}

// Payload implements Event interface.
func (e LearnerEnrolledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":              e.LearnerID,
		"already_memorized_units": e.AlreadyMemorizedUnits,
		"starting_unit":           e.StartingUnit,
	}
}

// NewLearnerEnrolledEvent creates a new LearnerEnrolledEvent.
func NewLearnerEnrolledEvent(learnerID string, alreadyMemorized []int, startingUnit int) LearnerEnrolledEvent {
	return LearnerEnrolledEvent{
		BaseEvent:             NewBaseEvent(EventLearnerEnrolled, learnerID),
		LearnerID:             learnerID,
		AlreadyMemorizedUnits: alreadyMemorized,
		StartingUnit:          startingUnit,
	}
}

// UnitCompletedEvent is emitted exactly once per unit, when a para reaches 100%.
type UnitCompletedEvent struct {
	BaseEvent
	LearnerID      string `json:"learner_id"`
	UnitNumber     int    `json:"unit_number"`
	TotalCompleted int    `json:"total_completed"`
}

// Payload implements Event interface.
func (e UnitCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":      e.LearnerID,
		"unit_number":     e.UnitNumber,
		"total_completed": e.TotalCompleted,
	}
}

// NewUnitCompletedEvent creates a new UnitCompletedEvent.
func NewUnitCompletedEvent(learnerID string, unit, totalCompleted int) UnitCompletedEvent {
	return UnitCompletedEvent{
		BaseEvent:      NewBaseEvent(EventUnitCompleted, learnerID),
		LearnerID:      learnerID,
		UnitNumber:     unit,
		TotalCompleted: totalCompleted,
	}
}

// MilestoneReachedEvent is emitted when the memorized total crosses 10, 20 or 30 units.
type MilestoneReachedEvent struct {
	BaseEvent
	LearnerID  string `json:"learner_id"`
	TotalUnits int    `json:"total_units"`
}

// Payload implements Event interface.
func (e MilestoneReachedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":  e.LearnerID,
		"total_units": e.TotalUnits,
	}
}

// NewMilestoneReachedEvent creates a new MilestoneReachedEvent.
func NewMilestoneReachedEvent(learnerID string, totalUnits int) MilestoneReachedEvent {
	return MilestoneReachedEvent{
		BaseEvent:  NewBaseEvent(EventMilestoneReached, learnerID),
		LearnerID:  learnerID,
		TotalUnits: totalUnits,
	}
}

// WeeklySummary is the flattened result of a weekly evaluation carried by
// PoorWeeklyPerformanceEvent.
type WeeklySummary struct {
	WeekStart             time.Time `json:"week_start"`
	WeekEnd               time.Time `json:"week_end"`
	PresentDays           int       `json:"present_days"`
	AttendanceRate        float64   `json:"attendance_rate"`
	AverageMistakesPerDay float64   `json:"average_mistakes_per_day"`
	ZeroLineDays          int       `json:"zero_line_days"`
	HasBelowAverageDay    bool      `json:"has_below_average_day"`
	LowAttendance         bool      `json:"low_attendance"`
	HighMistakes          bool      `json:"high_mistakes"`
	HasNoProgress         bool      `json:"has_no_progress"`
}

func (s WeeklySummary) asMap() map[string]interface{} {
	return map[string]interface{}{
		"week_start":               s.WeekStart.Format("2006-01-02"),
		"week_end":                 s.WeekEnd.Format("2006-01-02"),
		"present_days":             s.PresentDays,
		"attendance_rate":          s.AttendanceRate,
		"average_mistakes_per_day": s.AverageMistakesPerDay,
		"zero_line_days":           s.ZeroLineDays,
		"has_below_average_day":    s.HasBelowAverageDay,
		"low_attendance":           s.LowAttendance,
		"high_mistakes":            s.HighMistakes,
		"has_no_progress":          s.HasNoProgress,
	}
}

// PoorWeeklyPerformanceEvent is emitted for learners flagged by the weekly evaluation.
type PoorWeeklyPerformanceEvent struct {
	BaseEvent
	LearnerID string        `json:"learner_id"`
	Summary   WeeklySummary `json:"weekly_summary"`
}

// Payload implements Event interface.
func (e PoorWeeklyPerformanceEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":     e.LearnerID,
		"weekly_summary": e.Summary.asMap(),
	}
}

// NewPoorWeeklyPerformanceEvent creates a new PoorWeeklyPerformanceEvent.
func NewPoorWeeklyPerformanceEvent(learnerID string, summary WeeklySummary) PoorWeeklyPerformanceEvent {
	return PoorWeeklyPerformanceEvent{
		BaseEvent: NewBaseEvent(EventPoorWeeklyPerformance, learnerID),
		LearnerID: learnerID,
		Summary:   summary,
	}
}

// EventEnvelope is the transport form used by the Redis bus.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher is where the core's responsibility for an event ends.
type EventPublisher interface {
	Publish(event Event) error
}

type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
