// Package timeutil provides timezone utilities for the institution's local time.
// Daily records are keyed by the local calendar day, so "today" must be taken
// in the institution's zone rather than in UTC.
// No external dependencies - uses only standard library.
package timeutil

import (
	"sync"
	"time"
)

// PakistanTZ is Pakistan Standard Time (UTC+5, no DST).
var PakistanTZ = time.FixedZone("Asia/Karachi", 5*60*60)

var (
	mu  sync.RWMutex
	loc = PakistanTZ
)

// SetLocation changes the institution timezone. Intended to be called once at start-up.
func SetLocation(l *time.Location) {
	if l == nil {
		return
	}
	mu.Lock()
	loc = l
	mu.Unlock()
}

// LoadLocation resolves a zone name and installs it. An empty name keeps the default.
func LoadLocation(name string) error {
	if name == "" {
		return nil
	}
	l, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	SetLocation(l)
	return nil
}

// Location returns the institution timezone.
func Location() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return loc
}

// Now returns the current time in the institution timezone.
func Now() time.Time {
	return time.Now().In(Location())
}

// In converts a time to the institution timezone.
func In(t time.Time) time.Time {
	return t.In(Location())
}

// Date creates a time in the institution timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, Location())
}

// StartOfDay returns the start of the day (00:00:00) in the institution timezone.
func StartOfDay(t time.Time) time.Time {
	local := In(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the institution timezone.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// Today returns the start of the current local day.
func Today() time.Time {
	return StartOfDay(Now())
}

// StartOfWeek returns the start of the week (Sunday 00:00:00) in the institution timezone.
func StartOfWeek(t time.Time) time.Time {
	start := StartOfDay(t)
	return start.AddDate(0, 0, -int(start.Weekday()))
}

// NextWeekdayAt returns the first instant strictly after t that falls on the
// given weekday at hour:00 local time.
func NextWeekdayAt(t time.Time, weekday time.Weekday, hour int) time.Time {
	local := In(t)
	days := (int(weekday) - int(local.Weekday()) + 7) % 7
	candidate := time.Date(local.Year(), local.Month(), local.Day()+days, hour, 0, 0, 0, local.Location())
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// IsSameDay checks if two times fall on the same local day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := In(t1), In(t2)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// FormatDate formats as "2006-01-02" in the institution timezone.
func FormatDate(t time.Time) string {
	return In(t).Format("2006-01-02")
}

// ParseDate parses "2006-01-02" as a local calendar day.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, Location())
}
