package hifz

import (
	"fmt"
	"strings"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY PERFORMANCE EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// Weekly flag thresholds.
const (
	WeeklyMinAttendanceRate  = 70.0
	WeeklyMaxAverageMistakes = 3.0
	WeeklyMaxZeroLineDays    = 3 // flagged at this many or more
	daysPerEvaluatedWeek     = 7
)

// LastCompletedWeek returns the most recent Sunday..Saturday week that ended
// before the calendar day of now. On a Sunday that is the week ending yesterday.
func LastCompletedWeek(now time.Time) shared.DateRange {
	today := shared.DateOf(now)
	thisSunday := today.AddDate(0, 0, -int(today.Weekday()))
	return shared.DateRange{
		From: thisSunday.AddDate(0, 0, -daysPerEvaluatedWeek),
		To:   thisSunday.AddDate(0, 0, -1),
	}
}

// WeeklyEvaluation - flags computed over one week of records.
type WeeklyEvaluation struct {
	LearnerID shared.LearnerID `json:"learner_id" yaml:"learner_id"`
	Week      shared.DateRange `json:"-" yaml:"-"`
	WeekStart string           `json:"week_start" yaml:"week_start"`
	WeekEnd   string           `json:"week_end" yaml:"week_end"`

	PresentDays           int     `json:"present_days" yaml:"present_days"`
	AttendanceRate        float64 `json:"attendance_rate" yaml:"attendance_rate"`
	AverageMistakesPerDay float64 `json:"average_mistakes_per_day" yaml:"average_mistakes_per_day"`

	// ZeroLineDays - present days with no new lines.
	ZeroLineDays int `json:"zero_line_days" yaml:"zero_line_days"`

	HasBelowAverageDay bool `json:"has_below_average_day" yaml:"has_below_average_day"`
	LowAttendance      bool `json:"low_attendance" yaml:"low_attendance"`
	HighMistakes       bool `json:"high_mistakes" yaml:"high_mistakes"`
	HasNoProgress      bool `json:"has_no_progress" yaml:"has_no_progress"`

	// HasPoorPerformance - any of the four flags above.
	HasPoorPerformance bool `json:"has_poor_performance" yaml:"has_poor_performance"`
}

// EvaluateWeek computes the weekly flags. Records outside week are ignored.
func EvaluateWeek(learnerID shared.LearnerID, records []DailyRecord, week shared.DateRange) WeeklyEvaluation {
	e := WeeklyEvaluation{
		LearnerID: learnerID,
		Week:      week,
		WeekStart: week.From.Format(shared.DateLayout),
		WeekEnd:   week.To.Format(shared.DateLayout),
	}

	mistakes := 0
	for _, r := range records {
		if !week.Contains(r.Date) || !r.IsPresent() {
			continue
		}
		e.PresentDays++
		mistakes += r.TotalMistakes
		if r.Condition == ConditionBelowAverage {
			e.HasBelowAverageDay = true
		}
		if r.NewLesson.Lines == 0 {
			e.ZeroLineDays++
		}
	}

	e.AttendanceRate = ratio(float64(e.PresentDays), float64(week.Days())) * 100
	e.AverageMistakesPerDay = ratio(float64(mistakes), float64(e.PresentDays))

	e.LowAttendance = e.AttendanceRate < WeeklyMinAttendanceRate
	e.HighMistakes = e.AverageMistakesPerDay > WeeklyMaxAverageMistakes
	e.HasNoProgress = e.ZeroLineDays >= WeeklyMaxZeroLineDays
	e.HasPoorPerformance = e.HasBelowAverageDay || e.LowAttendance || e.HighMistakes || e.HasNoProgress

	return e
}

// Reasons lists the raised flags in human-readable form.
func (e WeeklyEvaluation) Reasons() []string {
	var reasons []string
	if e.HasBelowAverageDay {
		reasons = append(reasons, "at least one Below Average day")
	}
	if e.LowAttendance {
		reasons = append(reasons, fmt.Sprintf("attendance %.0f%%", e.AttendanceRate))
	}
	if e.HighMistakes {
		reasons = append(reasons, fmt.Sprintf("%.1f mistakes per day", e.AverageMistakesPerDay))
	}
	if e.HasNoProgress {
		reasons = append(reasons, fmt.Sprintf("%d days without new lines", e.ZeroLineDays))
	}
	return reasons
}

// String summarizes the evaluation in one line.
func (e WeeklyEvaluation) String() string {
	if !e.HasPoorPerformance {
		return fmt.Sprintf("week %s..%s: on track", e.WeekStart, e.WeekEnd)
	}
	return fmt.Sprintf("week %s..%s: %s", e.WeekStart, e.WeekEnd, strings.Join(e.Reasons(), "; "))
}

// Summary flattens the evaluation into the event payload.
func (e WeeklyEvaluation) Summary() shared.WeeklySummary {
	return shared.WeeklySummary{
		WeekStart:             e.Week.From,
		WeekEnd:               e.Week.To,
		PresentDays:           e.PresentDays,
		AttendanceRate:        e.AttendanceRate,
		AverageMistakesPerDay: e.AverageMistakesPerDay,
		ZeroLineDays:          e.ZeroLineDays,
		HasBelowAverageDay:    e.HasBelowAverageDay,
		LowAttendance:         e.LowAttendance,
		HighMistakes:          e.HighMistakes,
		HasNoProgress:         e.HasNoProgress,
	}
}

// PoorPerformanceEvent returns the event for a flagged week, or nil.
func (e WeeklyEvaluation) PoorPerformanceEvent() shared.Event {
	if !e.HasPoorPerformance {
		return nil
	}
	return shared.NewPoorWeeklyPerformanceEvent(e.LearnerID.String(), e.Summary())
}
