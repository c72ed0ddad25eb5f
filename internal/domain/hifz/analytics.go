package hifz

import (
	"math"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Trend - direction of the recent pace compared to the window pace.
type Trend string

const (
	TrendImproving Trend = "Improving"
	TrendStable    Trend = "Stable"
	TrendDeclining Trend = "Declining"
)

// Trend classification bounds, as ratios of recent pace to window pace.
const (
	improvingRatio = 1.2
	decliningRatio = 0.8
)

// Analytics - derived metrics for a learner over a window of days.
// It is computed on demand and never persisted.
type Analytics struct {
	Window     shared.DateRange `json:"-" yaml:"-"`
	WindowDays int              `json:"window_days" yaml:"window_days"`

	PresentDays int `json:"present_days" yaml:"present_days"`
	AbsentDays  int `json:"absent_days" yaml:"absent_days"`
	LateDays    int `json:"late_days" yaml:"late_days"`
	ExcusedDays int `json:"excused_days" yaml:"excused_days"`

	// AttendanceRate - present days / window days × 100.
	AttendanceRate float64 `json:"attendance_rate" yaml:"attendance_rate"`

	TotalNewLines int `json:"total_new_lines" yaml:"total_new_lines"`
	TotalMistakes int `json:"total_mistakes" yaml:"total_mistakes"`

	// Averages are per present day.
	AverageLinesPerDay    float64 `json:"average_lines_per_day" yaml:"average_lines_per_day"`
	AverageMistakesPerDay float64 `json:"average_mistakes_per_day" yaml:"average_mistakes_per_day"`

	// MistakeRate - mistakes per 100 new lines.
	MistakeRate float64 `json:"mistake_rate" yaml:"mistake_rate"`

	// HighMistakeDays - present days with more than HighMistakeDayThreshold mistakes.
	HighMistakeDays int `json:"high_mistake_days" yaml:"high_mistake_days"`

	// ConditionBreakdown - count of each condition over present days.
	ConditionBreakdown map[Condition]int `json:"condition_breakdown" yaml:"condition_breakdown"`

	// RatedDays - present days with a rated condition.
	RatedDays int `json:"rated_days" yaml:"rated_days"`

	// ExcellentPercent - Excellent days / present days × 100.
	ExcellentPercent float64 `json:"excellent_percent" yaml:"excellent_percent"`

	// BelowAveragePercent - Below Average days / rated days × 100.
	BelowAveragePercent float64 `json:"below_average_percent" yaml:"below_average_percent"`

	CompletionPercent float64 `json:"completion_percent" yaml:"completion_percent"`
	MemorizedUnits    int     `json:"memorized_units" yaml:"memorized_units"`
	DisplayUnits      float64 `json:"display_units" yaml:"display_units"`

	// ConsistencyScore - weighted blend of attendance, accuracy, completion and quality, 0..100.
	ConsistencyScore float64 `json:"consistency_score" yaml:"consistency_score"`

	// RecentAverageLines - lines per present day over the last TrendWindowDays of the window.
	RecentAverageLines float64 `json:"recent_average_lines" yaml:"recent_average_lines"`
	Trend              Trend   `json:"trend" yaml:"trend"`

	Milestone MilestoneProgress `json:"milestone" yaml:"milestone"`

	Overlaps []int                         `json:"overlaps,omitempty" yaml:"overlaps,omitempty"`
	Warnings []shared.DataIntegrityWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// HasOverlap reports whether the learner's para lists overlap.
func (a Analytics) HasOverlap() bool {
	return len(a.Overlaps) > 0
}

// ComputeAnalytics derives window metrics from the records and the status.
// Records outside the window are ignored. Empty input yields zeros, never NaN.
func ComputeAnalytics(records []DailyRecord, status LearnerStatus, window shared.DateRange) Analytics {
	a := Analytics{
		Window:             window,
		WindowDays:         window.Days(),
		ConditionBreakdown: make(map[Condition]int, len(Conditions)),
	}
	for _, c := range Conditions {
		a.ConditionBreakdown[c] = 0
	}

	recentFrom := window.To.AddDate(0, 0, -(TrendWindowDays - 1))
	recentPresent, recentLines := 0, 0

	for _, r := range records {
		if !window.Contains(r.Date) {
			continue
		}

		switch r.Attendance {
		case AttendanceAbsent:
			a.AbsentDays++
		case AttendanceLate:
			a.LateDays++
		case AttendanceExcused:
			a.ExcusedDays++
		}
		if !r.IsPresent() {
			continue
		}

		a.PresentDays++
		a.TotalNewLines += r.NewLesson.Lines
		a.TotalMistakes += r.TotalMistakes
		if r.TotalMistakes > HighMistakeDayThreshold {
			a.HighMistakeDays++
		}
		a.ConditionBreakdown[r.Condition]++
		if r.Condition.IsRated() {
			a.RatedDays++
		}

		if !r.Date.Before(recentFrom) {
			recentPresent++
			recentLines += r.NewLesson.Lines
		}
	}

	a.AttendanceRate = ratio(float64(a.PresentDays), float64(a.WindowDays)) * 100
	a.AverageLinesPerDay = ratio(float64(a.TotalNewLines), float64(a.PresentDays))
	a.AverageMistakesPerDay = ratio(float64(a.TotalMistakes), float64(a.PresentDays))
	a.MistakeRate = ratio(float64(a.TotalMistakes), float64(a.TotalNewLines)) * 100
	a.ExcellentPercent = ratio(float64(a.ConditionBreakdown[ConditionExcellent]), float64(a.PresentDays)) * 100
	a.BelowAveragePercent = ratio(float64(a.ConditionBreakdown[ConditionBelowAverage]), float64(a.RatedDays)) * 100

	completion := status.Completion()
	a.CompletionPercent = completion.Percent
	a.MemorizedUnits = completion.MemorizedUnits
	a.DisplayUnits = completion.DisplayUnits
	a.Overlaps = completion.Overlaps
	a.Warnings = completion.Warnings
	a.Milestone = ProgressToMilestone(completion.MemorizedUnits)

	a.ConsistencyScore = ConsistencyScore(a.AttendanceRate, a.MistakeRate, a.CompletionPercent, a.ExcellentPercent)

	a.RecentAverageLines = ratio(float64(recentLines), float64(recentPresent))
	a.Trend = ClassifyTrend(a.RecentAverageLines, a.AverageLinesPerDay)

	return a
}

// ConsistencyScore blends the four percentages:
// 0.3×attendance + 0.3×(100 − min(mistakeRate, 100)) + 0.2×completion + 0.2×excellent.
func ConsistencyScore(attendance, mistakeRate, completion, excellent float64) float64 {
	accuracy := 100 - math.Min(mistakeRate, 100)
	return 0.3*attendance + 0.3*accuracy + 0.2*completion + 0.2*excellent
}

// ClassifyTrend compares the recent pace with the baseline pace.
// A zero baseline is Stable.
func ClassifyTrend(recent, baseline float64) Trend {
	if baseline <= 0 {
		return TrendStable
	}
	r := recent / baseline
	switch {
	case r >= improvingRatio:
		return TrendImproving
	case r <= decliningRatio:
		return TrendDeclining
	default:
		return TrendStable
	}
}
