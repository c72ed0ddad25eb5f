// Package eventhandler reacts to domain events after they are published.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PROGRESS EVENT HANDLER
// Turns progress events into notices for the teacher and parents.
// Delivery is up to the Notifier.
// ═══════════════════════════════════════════════════════════════════════════

// Notification is one progress notice about a learner.
type Notification struct {
	LearnerID     string
	Kind          shared.EventType
	Title         string
	Message       string
	CorrelationID string
	OccurredAt    time.Time
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, msg Notification) error {
	n.log.Info(msg.Title,
		logger.LearnerID(msg.LearnerID),
		logger.EventType(string(msg.Kind)),
		logger.String("message", msg.Message),
		logger.String("correlation_id", msg.CorrelationID),
	)
	return nil
}

// OnProgressEventHandler handles unit completions, milestones and poor weeks.
type OnProgressEventHandler struct {
	notifier Notifier
	log      *logger.Logger
	timeout  time.Duration
}

func NewOnProgressEventHandler(notifier Notifier, log *logger.Logger) *OnProgressEventHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnProgressEventHandler{
		notifier: notifier,
		log:      log.With(logger.Component("on_progress_event")),
		timeout:  10 * time.Second,
	}
}

// Register subscribes h to every progress event type.
func (h *OnProgressEventHandler) Register(sub shared.EventSubscriber) error {
	for _, t := range []shared.EventType{
		shared.EventUnitCompleted,
		shared.EventMilestoneReached,
		shared.EventPoorWeeklyPerformance,
	} {
		if err := sub.Subscribe(t, h.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

func (h *OnProgressEventHandler) Handle(event shared.Event) error {
	n, ok := h.build(event)
	if !ok {
		h.log.Debug("ignoring event", logger.EventType(string(event.EventType())))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.notifier.Notify(ctx, n); err != nil {
		return fmt.Errorf("notify %s for %s: %w", n.Kind, n.LearnerID, err)
	}
	return nil
}

// build reads from Payload rather than the concrete type, since events from
// other instances arrive as RemoteEvent.
func (h *OnProgressEventHandler) build(event shared.Event) (Notification, bool) {
	p := event.Payload()
	n := Notification{
		LearnerID:  event.AggregateID(),
		Kind:       event.EventType(),
		OccurredAt: event.OccurredAt(),
	}
	if c, ok := event.(interface{ Correlation() string }); ok {
		n.CorrelationID = c.Correlation()
	}

	switch event.EventType() {
	case shared.EventUnitCompleted:
		unit := intField(p, "unit_number")
		n.Title = "unit completed"
		n.Message = fmt.Sprintf("%s memorized, %d of %d complete",
			hifz.UnitLabel(unit), intField(p, "total_completed"), hifz.TotalUnits)
	case shared.EventMilestoneReached:
		n.Title = "milestone reached"
		n.Message = fmt.Sprintf("%d of %d paras memorized", intField(p, "total_units"), hifz.TotalUnits)
	case shared.EventPoorWeeklyPerformance:
		n.Title = "poor weekly performance"
		n.Message = weeklyMessage(p)
	default:
		return Notification{}, false
	}
	return n, true
}

func weeklyMessage(p map[string]interface{}) string {
	summary, _ := p["weekly_summary"].(map[string]interface{})
	return fmt.Sprintf("attendance %.0f%%, %.1f mistakes per day, %d days without new lines",
		floatField(summary, "attendance_rate"),
		floatField(summary, "average_mistakes_per_day"),
		intField(summary, "zero_line_days"),
	)
}

func intField(p map[string]interface{}, key string) int {
	return int(floatField(p, key))
}

// floatField reads a number whether or not it went through JSON.
func floatField(p map[string]interface{}, key string) float64 {
	switch v := p[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}
