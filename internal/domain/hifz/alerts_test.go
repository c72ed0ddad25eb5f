package hifz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

func alertCodes(r AlertReport) []string {
	codes := make([]string, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		codes = append(codes, a.Code)
	}
	return codes
}

func TestGenerateAlerts_AllClear(t *testing.T) {
	r := GenerateAlerts(Analytics{
		PresentDays:        8,
		AttendanceRate:     90,
		AverageLinesPerDay: 10,
		MistakeRate:        2,
		MemorizedUnits:     3,
		ExcellentPercent:   60,
	})

	assert.Empty(t, r.Alerts)
	require.NotNil(t, r.AllClear)
	assert.NotEmpty(t, r.AllClear.Message)
}

func TestGenerateAlerts_Rules(t *testing.T) {
	base := Analytics{
		PresentDays:        8,
		AttendanceRate:     90,
		AverageLinesPerDay: 10,
		MemorizedUnits:     3,
		ExcellentPercent:   60,
	}

	tests := []struct {
		name     string
		mutate   func(a *Analytics)
		code     string
		severity Severity
	}{
		{"attendance critical", func(a *Analytics) { a.AttendanceRate = 40 }, "attendance_critical", SeverityCritical},
		{"attendance warning", func(a *Analytics) { a.AttendanceRate = 65 }, "attendance_low", SeverityWarning},
		{"attendance boundary 50 is warning", func(a *Analytics) { a.AttendanceRate = 50 }, "attendance_low", SeverityWarning},
		{"mistake rate critical", func(a *Analytics) { a.MistakeRate = 16 }, "mistake_rate_critical", SeverityCritical},
		{"mistake rate warning", func(a *Analytics) { a.MistakeRate = 15 }, "mistake_rate_elevated", SeverityWarning},
		{"no units", func(a *Analytics) { a.MemorizedUnits = 0 }, "no_units_memorized", SeverityWarning},
		{"slow pace", func(a *Analytics) { a.AverageLinesPerDay = 2.5 }, "slow_pace", SeverityInfo},
		{"below average", func(a *Analytics) { a.RatedDays = 8; a.BelowAveragePercent = 40 }, "frequent_below_average", SeverityCritical},
		{"overlap", func(a *Analytics) { a.Overlaps = []int{3} }, "para_overlap", SeverityInfo},
		{"few excellent", func(a *Analytics) { a.PresentDays = 11; a.ExcellentPercent = 20 }, "few_excellent_days", SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := base
			tt.mutate(&a)
			r := GenerateAlerts(a)

			require.Len(t, r.Alerts, 1, "codes: %v", alertCodes(r))
			assert.Equal(t, tt.code, r.Alerts[0].Code)
			assert.Equal(t, tt.severity, r.Alerts[0].Severity)
			assert.NotEmpty(t, r.Alerts[0].Recommendation)
			assert.Nil(t, r.AllClear)
		})
	}
}

func TestGenerateAlerts_HalfCreditIsNotAMemorizedUnit(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, err := NewLearnerStatus(id, nil, 1, testNow)
	require.NoError(t, err)
	status.CurrentUnitProgress = 60

	records := presentRecords(id, testNow.AddDate(0, 0, -5), 6, 10, 0)
	a := ComputeAnalytics(records, *status, shared.LastNDays(testNow, 7))
	require.Equal(t, 0, a.MemorizedUnits)
	require.Equal(t, 0.5, a.DisplayUnits)

	r := GenerateAlerts(a)
	assert.Equal(t, []string{"no_units_memorized"}, alertCodes(r))
	assert.Nil(t, r.AllClear)
}

func TestGenerateAlerts_ProgressRulesNeedFivePresentDays(t *testing.T) {
	r := GenerateAlerts(Analytics{
		PresentDays:        4,
		AttendanceRate:     80,
		AverageLinesPerDay: 1,
	})
	assert.Empty(t, r.Alerts)
}

func TestGenerateAlerts_OrderedBySeverity(t *testing.T) {
	r := GenerateAlerts(Analytics{
		PresentDays:         12,
		AttendanceRate:      40,
		MistakeRate:         12,
		AverageLinesPerDay:  2,
		RatedDays:           12,
		BelowAveragePercent: 50,
		ExcellentPercent:    10,
		Overlaps:            []int{4},
	})

	assert.Equal(t, []string{
		"attendance_critical",
		"frequent_below_average",
		"mistake_rate_elevated",
		"no_units_memorized",
		"few_excellent_days",
		"slow_pace",
		"para_overlap",
	}, alertCodes(r))
}
