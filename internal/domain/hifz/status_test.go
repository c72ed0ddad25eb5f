package hifz

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

var testNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func presentRecords(learner shared.LearnerID, start time.Time, days, lines, mistakes int) []DailyRecord {
	records := make([]DailyRecord, 0, days)
	for i := 0; i < days; i++ {
		records = append(records, *newRecord(RecordSubmission{
			LearnerID:   learner,
			Date:        start.AddDate(0, 0, i),
			Attendance:  AttendancePresent,
			NewLines:    intPtr(lines),
			NewMistakes: mistakes,
		}, testNow))
	}
	return records
}

func units(from, to int) []int {
	var out []int
	for u := from; u <= to; u++ {
		out = append(out, u)
	}
	return out
}

func TestNewLearnerStatus(t *testing.T) {
	id := shared.GenerateLearnerID()

	s, err := NewLearnerStatus(id, []int{2, 1, 2}, 0, testNow)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, s.AlreadyMemorizedUnits)
	assert.Equal(t, 1, s.CurrentUnit)
	assert.Equal(t, 0, s.CurrentUnitProgress)
	assert.Equal(t, 2, s.MemorizedUnits)
	assert.Equal(t, testNow, s.EnrolledAt)
	assert.Equal(t, testNow, s.LastUpdated)

	_, err = NewLearnerStatus(id, []int{31}, 1, testNow)
	assert.True(t, shared.IsValidation(err))

	_, err = NewLearnerStatus(id, nil, 40, testNow)
	assert.True(t, shared.IsValidation(err))

	_, err = NewLearnerStatus("x", nil, 1, testNow)
	assert.True(t, shared.IsValidation(err))
}

func TestRecomputeStatus_TenCleanDays(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, err := NewLearnerStatus(id, nil, 1, testNow)
	require.NoError(t, err)

	records := presentRecords(id, testNow.AddDate(0, 0, -10), 10, 10, 0)
	for _, r := range records {
		assert.Equal(t, ConditionExcellent, r.Condition)
	}

	got := RecomputeStatus(*status, records, testNow)

	assert.Equal(t, 10, got.TotalActiveDays)
	assert.Equal(t, 100, got.TotalLinesMemorized)
	assert.Equal(t, 10.0, got.AverageLinesPerDay)
	assert.Equal(t, 0.0, got.MistakeRatePercent)
	assert.Equal(t, testNow, got.LastUpdated)
	assert.True(t, got.EstimatedDaysToComplete > 0)
	require.NotNil(t, got.EstimatedCompletionDate)
}

func TestRecomputeStatus_IgnoresNonPresentDays(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, nil, 1, testNow)

	records := presentRecords(id, testNow.AddDate(0, 0, -4), 2, 12, 3)
	records = append(records, *newRecord(RecordSubmission{
		LearnerID:  id,
		Date:       testNow.AddDate(0, 0, -1),
		Attendance: AttendanceAbsent,
	}, testNow))

	got := RecomputeStatus(*status, records, testNow)

	assert.Equal(t, 2, got.TotalActiveDays)
	assert.Equal(t, 12.0, got.AverageLinesPerDay)
	assert.Equal(t, 3.0, got.AverageMistakesPerDay)
	assert.Equal(t, 25.0, got.MistakeRatePercent)
}

func TestRecomputeStatus_NoActiveDays(t *testing.T) {
	status, _ := NewLearnerStatus(shared.GenerateLearnerID(), nil, 1, testNow)

	got := RecomputeStatus(*status, nil, testNow)

	assert.Equal(t, 0.0, got.AverageLinesPerDay)
	assert.False(t, math.IsNaN(got.MistakeRatePercent))
	assert.Equal(t, 0, got.EstimatedDaysToComplete)
	assert.Nil(t, got.EstimatedCompletionDate)
}

func TestRecomputeStatus_IsPure(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, []int{1}, 2, testNow)
	records := presentRecords(id, testNow.AddDate(0, 0, -3), 3, 7, 1)

	a := RecomputeStatus(*status, records, testNow)
	b := RecomputeStatus(*status, records, testNow)

	assert.Equal(t, a, b)
	assert.Equal(t, 0, status.TotalActiveDays, "input status must not be modified")
}

func TestRecomputeStatus_ProjectionFromRemainingUnits(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, units(1, 25), 26, testNow)
	records := presentRecords(id, testNow.AddDate(0, 0, -5), 5, 10, 0)

	got := RecomputeStatus(*status, records, testNow)

	assert.Equal(t, 12, got.EstimatedDaysToComplete)
	require.NotNil(t, got.EstimatedCompletionDate)
	assert.Equal(t, shared.DateOf(testNow).AddDate(0, 0, 12), *got.EstimatedCompletionDate)
}

func TestIngest_UnitCompletionAdvances(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, nil, 5, testNow)

	res, err := Ingest(*status, RecordSubmission{
		LearnerID:           id,
		Date:                testNow,
		Attendance:          AttendancePresent,
		NewLines:            intPtr(15),
		CurrentUnit:         5,
		CurrentUnitProgress: intPtr(100),
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, []int{5}, res.Status.CompletedUnits)
	assert.Equal(t, 6, res.Status.CurrentUnit)
	assert.Equal(t, 0, res.Status.CurrentUnitProgress)
	assert.Equal(t, 6, res.Record.CurrentUnit)
	assert.Equal(t, []int{5}, res.Record.CompletedUnits)

	require.Len(t, res.Events, 1)
	ev, ok := res.Events[0].(shared.UnitCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 5, ev.UnitNumber)
	assert.Equal(t, 1, ev.TotalCompleted)
	assert.Equal(t, id.String(), ev.LearnerID)

	// the input status is untouched
	assert.Empty(t, status.CompletedUnits)
	assert.Equal(t, 5, status.CurrentUnit)
}

func TestIngest_MilestoneReached(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, units(1, 9), 10, testNow)

	res, err := Ingest(*status, RecordSubmission{
		LearnerID:           id,
		Date:                testNow,
		Attendance:          AttendancePresent,
		NewLines:            intPtr(20),
		CurrentUnitProgress: intPtr(100),
	}, testNow)
	require.NoError(t, err)

	require.Len(t, res.Events, 2)
	assert.Equal(t, shared.EventUnitCompleted, res.Events[0].EventType())
	milestone, ok := res.Events[1].(shared.MilestoneReachedEvent)
	require.True(t, ok)
	assert.Equal(t, 10, milestone.TotalUnits)
}

func TestIngest_OverlapDoesNotReachMilestone(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, units(1, 10), 10, testNow)
	status.CompletedUnits = []int{}

	res, err := Ingest(*status, RecordSubmission{
		LearnerID:           id,
		Date:                testNow,
		Attendance:          AttendancePresent,
		NewLines:            intPtr(20),
		CurrentUnitProgress: intPtr(100),
	}, testNow)
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	assert.Equal(t, shared.EventUnitCompleted, res.Events[0].EventType())
	assert.True(t, res.Status.Completion().HasOverlap())
}

func TestIngest_SwitchingUnitResetsProgress(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, nil, 3, testNow)
	status.CurrentUnitProgress = 70

	res, err := Ingest(*status, RecordSubmission{
		LearnerID:   id,
		Date:        testNow,
		Attendance:  AttendancePresent,
		NewLines:    intPtr(5),
		CurrentUnit: 4,
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Status.CurrentUnit)
	assert.Equal(t, 0, res.Status.CurrentUnitProgress)
	assert.Empty(t, res.Events)
}

func TestIngest_RejectsInvalid(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, nil, 1, testNow)

	_, err := Ingest(*status, RecordSubmission{
		LearnerID:  id,
		Date:       testNow,
		Attendance: AttendancePresent,
	}, testNow)
	assert.True(t, shared.IsValidation(err))

	_, err = Ingest(*status, RecordSubmission{
		LearnerID:  shared.GenerateLearnerID(),
		Date:       testNow,
		Attendance: AttendanceAbsent,
	}, testNow)
	assert.True(t, shared.IsValidation(err))
}

func TestRevise_KeepsIdentity(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, _ := NewLearnerStatus(id, nil, 1, testNow)
	original := presentRecords(id, testNow, 1, 10, 0)[0]
	created := original.CreatedAt

	later := testNow.Add(2 * time.Hour)
	res, err := Revise(*status, original, RecordSubmission{
		Attendance:  AttendancePresent,
		NewLines:    intPtr(6),
		NewMistakes: 3,
		Date:        later.AddDate(0, 0, 3), // ignored
	}, true, later)
	require.NoError(t, err)

	assert.Equal(t, original.ID, res.Record.ID)
	assert.Equal(t, original.Date, res.Record.Date)
	assert.Equal(t, created, res.Record.CreatedAt)
	assert.Equal(t, later, res.Record.UpdatedAt)
	assert.Equal(t, ConditionBelowAverage, res.Record.Condition)
}

func TestRevise_OlderRecordKeepsPosition(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, err := NewLearnerStatus(id, nil, 5, testNow)
	require.NoError(t, err)

	first, err := Ingest(*status, RecordSubmission{
		LearnerID: id, Date: testNow, Attendance: AttendancePresent,
		NewLines: intPtr(10), CurrentUnitProgress: intPtr(100),
	}, testNow)
	require.NoError(t, err)

	current := first.Status.Clone()
	current.CompletedUnits = []int{5, 6}
	current.CurrentUnit = 7
	current.CurrentUnitProgress = 40

	res, err := Revise(current, *first.Record, RecordSubmission{
		Attendance:  AttendancePresent,
		NewLines:    intPtr(10),
		NewMistakes: 4,
	}, false, testNow.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 7, res.Status.CurrentUnit)
	assert.Equal(t, 40, res.Status.CurrentUnitProgress)
	assert.Equal(t, []int{5, 6}, res.Status.CompletedUnits)
	assert.False(t, res.Transition.Completed)
	assert.Empty(t, res.Events)
	assert.Equal(t, first.Record.CurrentUnit, res.Record.CurrentUnit)
	assert.Equal(t, []int{5}, res.Record.CompletedUnits)
}

func TestRevise_OlderRecordCanAddCompletion(t *testing.T) {
	id := shared.GenerateLearnerID()
	status, err := NewLearnerStatus(id, nil, 3, testNow)
	require.NoError(t, err)
	status.CurrentUnit = 8
	status.CurrentUnitProgress = 20

	existing := presentRecords(id, testNow, 1, 10, 0)[0]
	existing.CurrentUnit = 3
	existing.CurrentUnitProgress = 80

	sub := RecordSubmission{
		Attendance:          AttendancePresent,
		NewLines:            intPtr(10),
		CurrentUnitProgress: intPtr(100),
	}
	res, err := Revise(*status, existing, sub, false, testNow)
	require.NoError(t, err)

	assert.True(t, res.Transition.Completed)
	assert.Equal(t, 3, res.Transition.Unit)
	assert.Equal(t, []int{3}, res.Status.CompletedUnits)
	assert.Equal(t, 8, res.Status.CurrentUnit)
	assert.Equal(t, 20, res.Status.CurrentUnitProgress)
	require.NotEmpty(t, res.Events)
	assert.Equal(t, shared.EventUnitCompleted, res.Events[0].EventType())

	again, err := Revise(res.Status, *res.Record, sub, false, testNow)
	require.NoError(t, err)
	assert.False(t, again.Transition.Completed)
	assert.Equal(t, []int{3}, again.Status.CompletedUnits)
}
