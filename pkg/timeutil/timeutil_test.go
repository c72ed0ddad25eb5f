package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDay_UsesInstitutionZone(t *testing.T) {
	// 21:00 UTC is already the next day in UTC+5.
	utc := time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)

	start := StartOfDay(utc)

	assert.Equal(t, 2, start.Day())
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, "2024-03-02", FormatDate(utc))
}

func TestStartOfWeek_Sunday(t *testing.T) {
	wed := Date(2024, 5, 15)
	assert.Equal(t, Date(2024, 5, 12), StartOfWeek(wed))

	sun := Date(2024, 5, 12)
	assert.Equal(t, sun, StartOfWeek(sun))
}

func TestNextWeekdayAt(t *testing.T) {
	wed := time.Date(2024, 5, 15, 10, 0, 0, 0, PakistanTZ)
	next := NextWeekdayAt(wed, time.Sunday, 6)
	assert.Equal(t, time.Date(2024, 5, 19, 6, 0, 0, 0, PakistanTZ), next)

	sundayEarly := time.Date(2024, 5, 19, 5, 0, 0, 0, PakistanTZ)
	assert.Equal(t, time.Date(2024, 5, 19, 6, 0, 0, 0, PakistanTZ), NextWeekdayAt(sundayEarly, time.Sunday, 6))

	sundayLate := time.Date(2024, 5, 19, 6, 0, 0, 0, PakistanTZ)
	assert.Equal(t, time.Date(2024, 5, 26, 6, 0, 0, 0, PakistanTZ), NextWeekdayAt(sundayLate, time.Sunday, 6))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestIsSameDay(t *testing.T) {
	a := time.Date(2024, 1, 1, 19, 30, 0, 0, time.UTC) // 00:30 on Jan 2 local
	b := time.Date(2024, 1, 2, 10, 0, 0, 0, PakistanTZ)
	assert.True(t, IsSameDay(a, b))
}
