package shared

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// LearnerID Value Object
// ═══════════════════════════════════════════════════════════════════════════

// LearnerID represents a unique learner identifier (UUID format).
type LearnerID string

// IsValid checks if the learner ID is a valid UUID.
func (l LearnerID) IsValid() bool {
	_, err := uuid.Parse(string(l))
	return err == nil
}

// String returns the string representation.
func (l LearnerID) String() string {
	return string(l)
}

// IsEmpty checks if the ID is empty.
func (l LearnerID) IsEmpty() bool {
	return l == ""
}

// NewLearnerID creates a new LearnerID with validation.
func NewLearnerID(id string) (LearnerID, error) {
	lid := LearnerID(strings.ToLower(strings.TrimSpace(id)))
	if !lid.IsValid() {
		return "", ErrInvalidLearnerID
	}
	return lid, nil
}

// GenerateLearnerID returns a fresh random LearnerID.
func GenerateLearnerID() LearnerID {
	return LearnerID(uuid.NewString())
}

// ═══════════════════════════════════════════════════════════════════════════
// DateRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar day. The day is taken in t's own location
// and returned as midnight UTC, so two instants on the same local day compare equal.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, WrapError("shared", "ParseDate", ErrInvalidInput, "date must be YYYY-MM-DD", err)
	}
	return t, nil
}

// DaysBetween returns the number of calendar days from a to b (negative when b
// is before a). Both arguments are truncated to calendar days first, so the
// result is never skewed by the time of day or DST shifts.
func DaysBetween(a, b time.Time) int {
	da, db := DateOf(a), DateOf(b)
	return int(db.Sub(da).Hours() / 24)
}

// DateRange is a closed interval of calendar days: both From and To are included.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange creates a DateRange covering from..to inclusive.
func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: DateOf(from), To: DateOf(to)}
	if !r.IsValid() {
		return DateRange{}, NewDomainError("shared", "NewDateRange", ErrInvalidInput, "'from' must not be after 'to'")
	}
	return r, nil
}

// LastNDays returns the n-day window ending on (and including) end.
func LastNDays(end time.Time, n int) DateRange {
	if n < 1 {
		n = 1
	}
	to := DateOf(end)
	return DateRange{From: to.AddDate(0, 0, -(n - 1)), To: to}
}

// AllTime is a range wide enough to cover any stored history.
func AllTime() DateRange {
	return DateRange{
		From: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

// IsValid checks if the range is non-empty.
func (r DateRange) IsValid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && !DateOf(r.From).After(DateOf(r.To))
}

// Days returns the number of calendar days in the range, both ends included.
func (r DateRange) Days() int {
	if !r.IsValid() {
		return 0
	}
	return DaysBetween(r.From, r.To) + 1
}

// Contains reports whether the calendar day of t lies inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(DateOf(r.From)) && !d.After(DateOf(r.To))
}

// String renders the range as "from..to".
func (r DateRange) String() string {
	return r.From.Format(DateLayout) + ".." + r.To.Format(DateLayout)
}
