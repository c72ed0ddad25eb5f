package hifz

import (
	"fmt"
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// ALERTS & RECOMMENDATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Severity - alert severity.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// rank orders severities for sorting, most severe first.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Alert - a single finding with its recommendation.
type Alert struct {
	Code           string   `json:"code" yaml:"code"`
	Severity       Severity `json:"severity" yaml:"severity"`
	Message        string   `json:"message" yaml:"message"`
	Recommendation string   `json:"recommendation" yaml:"recommendation"`
}

// AllClear - success marker produced when no rule fires. It is rendered by
// reports and is not part of the alert list.
type AllClear struct {
	Message string `json:"message" yaml:"message"`
}

// AlertReport - alerts ordered critical → warning → info, or the all-clear marker.
type AlertReport struct {
	Alerts   []Alert   `json:"alerts" yaml:"alerts"`
	AllClear *AllClear `json:"all_clear,omitempty" yaml:"all_clear,omitempty"`
}

// alertRule - evaluates one condition over analytics. Each rule yields at most one alert.
type alertRule func(a Analytics) (Alert, bool)

var alertRules = []alertRule{
	attendanceRule,
	mistakeRateRule,
	noUnitsRule,
	slowPaceRule,
	belowAverageRule,
	overlapRule,
	excellenceRule,
}

// GenerateAlerts runs every rule and orders the results by severity.
// Within a severity the rule order is kept.
func GenerateAlerts(a Analytics) AlertReport {
	alerts := []Alert{}
	for _, rule := range alertRules {
		if alert, ok := rule(a); ok {
			alerts = append(alerts, alert)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.rank() < alerts[j].Severity.rank()
	})

	report := AlertReport{Alerts: alerts}
	if len(alerts) == 0 {
		report.AllClear = &AllClear{Message: "All indicators look good. Keep up the consistent revision."}
	}
	return report
}

func attendanceRule(a Analytics) (Alert, bool) {
	if a.PresentDays == 0 {
		return Alert{}, false
	}
	switch {
	case a.AttendanceRate < 50:
		return Alert{
			Code:           "attendance_critical",
			Severity:       SeverityCritical,
			Message:        fmt.Sprintf("Attendance is very low at %.1f%%", a.AttendanceRate),
			Recommendation: "Contact the parents and agree on a fixed daily attendance plan.",
		}, true
	case a.AttendanceRate < 70:
		return Alert{
			Code:           "attendance_low",
			Severity:       SeverityWarning,
			Message:        fmt.Sprintf("Attendance is below target at %.1f%%", a.AttendanceRate),
			Recommendation: "Follow up on missed days and encourage regular attendance.",
		}, true
	}
	return Alert{}, false
}

func mistakeRateRule(a Analytics) (Alert, bool) {
	switch {
	case a.MistakeRate > 15:
		return Alert{
			Code:           "mistake_rate_critical",
			Severity:       SeverityCritical,
			Message:        fmt.Sprintf("Mistake rate is high at %.1f mistakes per 100 lines", a.MistakeRate),
			Recommendation: "Reduce the new lesson size and spend more time on revision until accuracy improves.",
		}, true
	case a.MistakeRate > 10:
		return Alert{
			Code:           "mistake_rate_elevated",
			Severity:       SeverityWarning,
			Message:        fmt.Sprintf("Mistake rate is elevated at %.1f mistakes per 100 lines", a.MistakeRate),
			Recommendation: "Add an extra listening session before the new lesson.",
		}, true
	}
	return Alert{}, false
}

func noUnitsRule(a Analytics) (Alert, bool) {
	if a.PresentDays < MinPresentDaysForProgressAlerts || a.MemorizedUnits > 0 {
		return Alert{}, false
	}
	return Alert{
		Code:           "no_units_memorized",
		Severity:       SeverityWarning,
		Message:        fmt.Sprintf("No para memorized yet after %d present days", a.PresentDays),
		Recommendation: "Review the daily lesson target with the teacher and check for obstacles.",
	}, true
}

func slowPaceRule(a Analytics) (Alert, bool) {
	if a.PresentDays < MinPresentDaysForProgressAlerts || a.AverageLinesPerDay >= SlowPaceLinesPerDay {
		return Alert{}, false
	}
	return Alert{
		Code:           "slow_pace",
		Severity:       SeverityInfo,
		Message:        fmt.Sprintf("Pace is slow at %.1f lines per day", a.AverageLinesPerDay),
		Recommendation: "Gradually increase the new lesson by a line or two per day.",
	}, true
}

func belowAverageRule(a Analytics) (Alert, bool) {
	if a.RatedDays == 0 || a.BelowAveragePercent <= 30 {
		return Alert{}, false
	}
	return Alert{
		Code:           "frequent_below_average",
		Severity:       SeverityCritical,
		Message:        fmt.Sprintf("%.0f%% of recited days were rated Below Average", a.BelowAveragePercent),
		Recommendation: "Pause new memorization and consolidate recent paras before continuing.",
	}, true
}

func overlapRule(a Analytics) (Alert, bool) {
	if !a.HasOverlap() {
		return Alert{}, false
	}
	return Alert{
		Code:           "para_overlap",
		Severity:       SeverityInfo,
		Message:        fmt.Sprintf("Paras %v are listed as both already memorized and completed", a.Overlaps),
		Recommendation: "Correct the enrollment record so each para is listed once.",
	}, true
}

func excellenceRule(a Analytics) (Alert, bool) {
	if a.PresentDays <= 10 || a.ExcellentPercent >= 30 {
		return Alert{}, false
	}
	return Alert{
		Code:           "few_excellent_days",
		Severity:       SeverityWarning,
		Message:        fmt.Sprintf("Only %.0f%% of present days were Excellent", a.ExcellentPercent),
		Recommendation: "Focus on flawless recitation of the new lesson before moving on.",
	}, true
}
