package hifz

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

func TestComputeAnalytics_Empty(t *testing.T) {
	status, _ := NewLearnerStatus(shared.GenerateLearnerID(), nil, 1, testNow)
	window := shared.LastNDays(testNow, 30)

	a := ComputeAnalytics(nil, *status, window)

	assert.Equal(t, 30, a.WindowDays)
	assert.Equal(t, 0, a.PresentDays)
	assert.Equal(t, 0.0, a.AttendanceRate)
	assert.Equal(t, 0.0, a.AverageLinesPerDay)
	assert.False(t, math.IsNaN(a.MistakeRate))
	assert.False(t, math.IsNaN(a.ConsistencyScore))
	assert.Equal(t, TrendStable, a.Trend)
}

func TestComputeAnalytics_TenCleanDays(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, nil, 1, testNow)
	window := shared.LastNDays(testNow, 10)
	records := presentRecords(id, window.From, 10, 10, 0)

	a := ComputeAnalytics(records, *status, window)

	assert.Equal(t, 10, a.PresentDays)
	assert.Equal(t, 100.0, a.AttendanceRate)
	assert.Equal(t, 10.0, a.AverageLinesPerDay)
	assert.Equal(t, 0.0, a.MistakeRate)
	assert.Equal(t, 10, a.ConditionBreakdown[ConditionExcellent])
	assert.Equal(t, 100.0, a.ExcellentPercent)
	assert.Equal(t, 0, a.HighMistakeDays)
	assert.Equal(t, TrendStable, a.Trend)
	// 0.3*100 + 0.3*100 + 0.2*0 + 0.2*100
	assert.InDelta(t, 80.0, a.ConsistencyScore, 1e-9)
}

func TestComputeAnalytics_WindowAndCounts(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, nil, 1, testNow)
	window := shared.LastNDays(testNow, 20)

	records := presentRecords(id, window.From, 4, 10, 6) // high-mistake days
	records = append(records, presentRecords(id, window.From.AddDate(0, 0, -5), 3, 50, 0)...)
	records = append(records, *newRecord(RecordSubmission{
		LearnerID:  id,
		Date:       window.From.AddDate(0, 0, 5),
		Attendance: AttendanceLate,
	}, testNow))

	a := ComputeAnalytics(records, *status, window)

	assert.Equal(t, 4, a.PresentDays, "records before the window are ignored")
	assert.Equal(t, 1, a.LateDays)
	assert.InDelta(t, 20.0, a.AttendanceRate, 1e-9)
	assert.Equal(t, 4, a.HighMistakeDays)
	assert.InDelta(t, 60.0, a.MistakeRate, 1e-9)
	assert.Equal(t, 4, a.ConditionBreakdown[ConditionBelowAverage])
	assert.Equal(t, 100.0, a.BelowAveragePercent)
}

func TestComputeAnalytics_Trend(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, nil, 1, testNow)
	window := shared.LastNDays(testNow, 14)

	slowThenFast := append(
		presentRecords(id, window.From, 7, 5, 0),
		presentRecords(id, window.From.AddDate(0, 0, 7), 7, 15, 0)...,
	)
	assert.Equal(t, TrendImproving, ComputeAnalytics(slowThenFast, *status, window).Trend)

	fastThenSlow := append(
		presentRecords(id, window.From, 7, 15, 0),
		presentRecords(id, window.From.AddDate(0, 0, 7), 7, 5, 0)...,
	)
	assert.Equal(t, TrendDeclining, ComputeAnalytics(fastThenSlow, *status, window).Trend)
}

func TestClassifyTrend(t *testing.T) {
	assert.Equal(t, TrendImproving, ClassifyTrend(12, 10))
	assert.Equal(t, TrendDeclining, ClassifyTrend(8, 10))
	assert.Equal(t, TrendStable, ClassifyTrend(11, 10))
	assert.Equal(t, TrendStable, ClassifyTrend(5, 0))
}

func TestConsistencyScore_CapsMistakeRate(t *testing.T) {
	assert.Equal(t, ConsistencyScore(50, 100, 10, 10), ConsistencyScore(50, 250, 10, 10))
}
