package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// WeeklySchedule runs a job once a week at Weekday Hour:00 in the
// institution timezone.
type WeeklySchedule struct {
	Weekday time.Weekday
	Hour    int
}

// NewWeeklySchedule creates a WeeklySchedule.
func NewWeeklySchedule(weekday time.Weekday, hour int) (*WeeklySchedule, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, fmt.Errorf("invalid weekday: %d", weekday)
	}
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid hour: %d", hour)
	}
	return &WeeklySchedule{Weekday: weekday, Hour: hour}, nil
}

// Next returns the next scheduled time.
func (s *WeeklySchedule) Next(t time.Time) time.Time {
	return timeutil.NextWeekdayAt(t, s.Weekday, s.Hour)
}

// String returns the string representation of the schedule.
func (s *WeeklySchedule) String() string {
	return fmt.Sprintf("@weekly %s %02d:00", strings.ToLower(s.Weekday.String()[:3]), s.Hour)
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERVAL SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// IntervalSchedule schedules a job to run at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}

// ══════════════════════════════════════════════════════════════════════════════
// CRON SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// CronSchedule is a parsed 5-field cron expression
// (minute hour day-of-month month day-of-week). Examples:
//   - "0 6 * * 0"   - every Sunday at 06:00
//   - "30 21 * * *" - every day at 21:30
type CronSchedule struct {
	raw    string
	fields [5]map[int]bool
}

var cronBounds = [5][2]int{
	{0, 59}, // minute
	{0, 23}, // hour
	{1, 31}, // day of month
	{1, 12}, // month
	{0, 6},  // day of week, 0 = Sunday
}

var cronNames = [5]string{"minute", "hour", "day", "month", "weekday"}

// ParseCron parses a cron expression.
// Each field supports *, n, n-m, */s, n-m/s and comma separated lists of those.
func ParseCron(expr string) (*CronSchedule, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid cron expression %q: expected 5 fields, got %d", expr, len(parts))
	}

	cs := &CronSchedule{raw: expr}
	for i, part := range parts {
		set, err := parseCronField(part, cronBounds[i][0], cronBounds[i][1])
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", cronNames[i], err)
		}
		cs.fields[i] = set
	}
	return cs, nil
}

func parseCronField(field string, min, max int) (map[int]bool, error) {
	set := make(map[int]bool)
	for _, item := range strings.Split(field, ",") {
		step := 1
		if base, s, ok := strings.Cut(item, "/"); ok {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid step %q", s)
			}
			item, step = base, n
		}

		lo, hi := min, max
		switch {
		case item == "*":
		case strings.Contains(item, "-"):
			a, b, _ := strings.Cut(item, "-")
			var err error
			if lo, err = strconv.Atoi(a); err != nil {
				return nil, fmt.Errorf("invalid range start %q", a)
			}
			if hi, err = strconv.Atoi(b); err != nil {
				return nil, fmt.Errorf("invalid range end %q", b)
			}
		default:
			v, err := strconv.Atoi(item)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q", item)
			}
			lo, hi = v, v
			if step > 1 {
				hi = max
			}
		}

		if lo < min || hi > max || lo > hi {
			return nil, fmt.Errorf("value out of range [%d-%d]: %s", min, max, item)
		}
		for v := lo; v <= hi; v += step {
			set[v] = true
		}
	}
	return set, nil
}

// Next returns the first minute after t matching the expression, or the zero
// time if none matches within a year.
func (cs *CronSchedule) Next(t time.Time) time.Time {
	next := timeutil.In(t).Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < 366*24*60; i++ {
		if cs.matches(next) {
			return next
		}
		next = next.Add(time.Minute)
	}
	return time.Time{}
}

func (cs *CronSchedule) matches(t time.Time) bool {
	return cs.fields[0][t.Minute()] &&
		cs.fields[1][t.Hour()] &&
		cs.fields[2][t.Day()] &&
		cs.fields[3][int(t.Month())] &&
		cs.fields[4][int(t.Weekday())]
}

// String returns the original cron expression.
func (cs *CronSchedule) String() string {
	return cs.raw
}

// ParseSchedule parses "@every <duration>", "@weekly <day> <hour>" or a cron
// expression.
func ParseSchedule(spec string) (Schedule, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case strings.HasPrefix(spec, "@every "):
		d, err := time.ParseDuration(strings.TrimSpace(strings.TrimPrefix(spec, "@every ")))
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid interval %q", spec)
		}
		return NewIntervalSchedule(d), nil
	case strings.HasPrefix(spec, "@weekly "):
		fields := strings.Fields(strings.TrimPrefix(spec, "@weekly "))
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid weekly schedule %q", spec)
		}
		day, err := ParseWeekday(fields[0])
		if err != nil {
			return nil, err
		}
		hour, err := strconv.Atoi(strings.TrimSuffix(fields[1], ":00"))
		if err != nil {
			return nil, fmt.Errorf("invalid hour %q", fields[1])
		}
		return NewWeeklySchedule(day, hour)
	default:
		return ParseCron(spec)
	}
}

// ParseWeekday accepts full or three letter English day names.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", name)
}
