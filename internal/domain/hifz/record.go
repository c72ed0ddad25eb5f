package hifz

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE & CONDITION
// ══════════════════════════════════════════════════════════════════════════════

// Attendance - attendance state of a learner on one day.
type Attendance string

const (
	AttendancePresent Attendance = "PRESENT"
	AttendanceAbsent  Attendance = "ABSENT"
	AttendanceLate    Attendance = "LATE"
	AttendanceExcused Attendance = "EXCUSED"
)

// IsValid checks the attendance value.
func (a Attendance) IsValid() bool {
	switch a {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// IsPresent reports whether the day counts as an active day.
// LATE is recorded separately and does not count as present.
func (a Attendance) IsPresent() bool {
	return a == AttendancePresent
}

// ParseAttendance parses an attendance value, case-insensitively.
func ParseAttendance(s string) (Attendance, error) {
	a := Attendance(strings.ToUpper(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", shared.ValidationError("ParseAttendance", "attendance", "must be one of PRESENT, ABSENT, LATE, EXCUSED")
	}
	return a, nil
}

// Condition - qualitative rating of a day's recitation.
type Condition string

const (
	ConditionExcellent     Condition = "Excellent"
	ConditionGood          Condition = "Good"
	ConditionMedium        Condition = "Medium"
	ConditionBelowAverage  Condition = "Below Average"
	ConditionNotApplicable Condition = "N/A"
)

// Conditions lists every condition in display order.
var Conditions = []Condition{
	ConditionExcellent,
	ConditionGood,
	ConditionMedium,
	ConditionBelowAverage,
	ConditionNotApplicable,
}

// IsRated reports whether the condition came from an actual recitation.
func (c Condition) IsRated() bool {
	return c != ConditionNotApplicable && c != ""
}

// DeriveCondition rates a day from its mistakes. Rules are evaluated in order
// and the first match wins. Non-present days are always N/A.
func DeriveCondition(attendance Attendance, newMistakes, recentMistakes, olderMistakes int) Condition {
	if !attendance.IsPresent() {
		return ConditionNotApplicable
	}

	switch {
	case newMistakes > BelowAverageNewMistakes ||
		recentMistakes > BelowAverageRecentMistakes ||
		olderMistakes > BelowAverageOlderMistakes:
		return ConditionBelowAverage
	case newMistakes > MediumNewMistakes ||
		recentMistakes > MediumRecentMistakes ||
		olderMistakes > MediumOlderMistakes:
		return ConditionMedium
	case newMistakes+recentMistakes+olderMistakes == 0:
		return ConditionExcellent
	default:
		return ConditionGood
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY RECORD
// ══════════════════════════════════════════════════════════════════════════════

// NewLesson - the new memorization (sabaq) of the day.
type NewLesson struct {
	// Lines - lines newly memorized.
	Lines int

	// Mistakes - mistakes while reciting the new lesson.
	Mistakes int
}

// Review - a revision category. Reviews carry a label and mistakes only;
// they never contribute to lines memorized.
type Review struct {
	// Label - free-form description of the revised portion, e.g. "Para 3, first half".
	Label string

	// Mistakes - mistakes during the revision.
	Mistakes int
}

// DailyRecord - one learner's recitation on one calendar day.
type DailyRecord struct {
	// ID - record identifier.
	ID string

	// LearnerID - owner of the record.
	LearnerID shared.LearnerID

	// Date - calendar day (midnight UTC).
	Date time.Time

	// Attendance - attendance state.
	Attendance Attendance

	// NewLesson - new memorization (sabaq).
	NewLesson NewLesson

	// RecentReview - recent revision (sabqi).
	RecentReview Review

	// OlderReview - older revision (manzil).
	OlderReview Review

	// TotalMistakes - sum of the three mistake counts.
	TotalMistakes int

	// Condition - derived rating.
	Condition Condition

	// CurrentUnit - para being memorized after this record was applied.
	CurrentUnit int

	// CurrentUnitProgress - progress of CurrentUnit after this record was applied.
	CurrentUnitProgress int

	// CompletedUnits - snapshot of completed paras after this record was applied.
	CompletedUnits []int

	// Notes - teacher remarks.
	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPresent reports whether the record counts toward rates and averages.
func (r DailyRecord) IsPresent() bool {
	return r.Attendance.IsPresent()
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD SUBMISSION (ingestion input)
// ══════════════════════════════════════════════════════════════════════════════

// RecordSubmission - raw daily record as submitted by a teacher.
type RecordSubmission struct {
	LearnerID  shared.LearnerID
	Date       time.Time
	Attendance Attendance

	// NewLines - nil means the line count was not provided.
	NewLines    *int
	NewMistakes int

	RecentLabel    string
	RecentMistakes int

	OlderLabel    string
	OlderMistakes int

	// CurrentUnit - 0 keeps the learner's current para.
	CurrentUnit int

	// CurrentUnitProgress - nil keeps the learner's current progress.
	CurrentUnitProgress *int

	Notes string
}

// Validate checks the submission at the ingestion boundary.
func (s RecordSubmission) Validate() error {
	const op = "ValidateRecord"

	if !s.LearnerID.IsValid() {
		return shared.ErrInvalidLearnerID
	}
	if s.Date.IsZero() {
		return shared.ValidationError(op, "date", "is required")
	}
	if !s.Attendance.IsValid() {
		return shared.ValidationError(op, "attendance", "must be one of PRESENT, ABSENT, LATE, EXCUSED")
	}
	if s.Attendance.IsPresent() && s.NewLines == nil {
		return shared.ValidationError(op, "new_lines", "is required when the learner is present")
	}
	if s.NewLines != nil && *s.NewLines < 0 {
		return shared.ValidationError(op, "new_lines", "cannot be negative")
	}
	if s.NewMistakes < 0 || s.RecentMistakes < 0 || s.OlderMistakes < 0 {
		return shared.ValidationError(op, "mistakes", "cannot be negative")
	}
	if s.CurrentUnit != 0 && !IsValidUnit(s.CurrentUnit) {
		return shared.ValidationError(op, "current_unit", "must be between 1 and 30")
	}
	if s.CurrentUnitProgress != nil && (*s.CurrentUnitProgress < 0 || *s.CurrentUnitProgress > 100) {
		return shared.ValidationError(op, "current_unit_progress", "must be between 0 and 100")
	}
	return nil
}

// newRecord builds a normalized record from a validated submission.
// Non-present days have their lines and mistakes forced to zero.
func newRecord(s RecordSubmission, now time.Time) *DailyRecord {
	rec := &DailyRecord{
		ID:         uuid.NewString(),
		LearnerID:  s.LearnerID,
		Date:       shared.DateOf(s.Date),
		Attendance: s.Attendance,
		Notes:      strings.TrimSpace(s.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if s.Attendance.IsPresent() {
		rec.NewLesson = NewLesson{Lines: *s.NewLines, Mistakes: s.NewMistakes}
		rec.RecentReview = Review{Label: strings.TrimSpace(s.RecentLabel), Mistakes: s.RecentMistakes}
		rec.OlderReview = Review{Label: strings.TrimSpace(s.OlderLabel), Mistakes: s.OlderMistakes}
	}

	rec.TotalMistakes = rec.NewLesson.Mistakes + rec.RecentReview.Mistakes + rec.OlderReview.Mistakes
	rec.Condition = DeriveCondition(rec.Attendance, rec.NewLesson.Mistakes, rec.RecentReview.Mistakes, rec.OlderReview.Mistakes)
	return rec
}
