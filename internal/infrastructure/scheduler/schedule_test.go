package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/timeutil"
)

func pkt(day, hour, min int) time.Time {
	return time.Date(2024, 5, day, hour, min, 0, 0, timeutil.PakistanTZ)
}

func TestWeeklySchedule_Next(t *testing.T) {
	s, err := NewWeeklySchedule(time.Sunday, 6)
	require.NoError(t, err)

	// Wednesday 15 May -> Sunday 19 May 06:00.
	assert.True(t, s.Next(pkt(15, 10, 0)).Equal(pkt(19, 6, 0)))
	// Exactly on the slot moves to the following week.
	assert.True(t, s.Next(pkt(19, 6, 0)).Equal(pkt(26, 6, 0)))
	assert.Equal(t, "@weekly sun 06:00", s.String())

	_, err = NewWeeklySchedule(time.Sunday, 24)
	assert.Error(t, err)
}

func TestCronSchedule_Next(t *testing.T) {
	tests := []struct {
		expr string
		from time.Time
		want time.Time
	}{
		{"0 6 * * 0", pkt(15, 10, 0), pkt(19, 6, 0)},
		{"*/15 * * * *", pkt(15, 10, 7), pkt(15, 10, 15)},
		{"30 21 * * 1-5", pkt(17, 22, 0), pkt(20, 21, 30)},
		{"0 8,12 * * *", pkt(15, 9, 0), pkt(15, 12, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			cs, err := ParseCron(tt.expr)
			require.NoError(t, err)
			got := cs.Next(tt.from)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			assert.Equal(t, tt.expr, cs.String())
		})
	}
}

func TestParseCron_Invalid(t *testing.T) {
	for _, expr := range []string{"* * *", "61 * * * *", "5-1 * * * *", "*/0 * * * *", "a * * * *", "* * * * 7"} {
		_, err := ParseCron(expr)
		assert.Error(t, err, expr)
	}
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("@every 90m")
	require.NoError(t, err)
	assert.Equal(t, &IntervalSchedule{Interval: 90 * time.Minute}, s)

	s, err = ParseSchedule("@weekly Monday 07:00")
	require.NoError(t, err)
	assert.Equal(t, &WeeklySchedule{Weekday: time.Monday, Hour: 7}, s)

	s, err = ParseSchedule("0 6 * * 0")
	require.NoError(t, err)
	assert.IsType(t, &CronSchedule{}, s)

	for _, bad := range []string{"@every soon", "@weekly funday 6", "@weekly sun", "@weekly sun 25"} {
		_, err := ParseSchedule(bad)
		assert.Error(t, err, bad)
	}
}
