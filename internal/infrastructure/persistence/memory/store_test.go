package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

var now = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func enroll(t *testing.T, s *Store) shared.LearnerID {
	t.Helper()
	id := shared.GenerateLearnerID()
	status, err := hifz.NewLearnerStatus(id, nil, 1, now)
	require.NoError(t, err)

	uow, err := s.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, uow.Statuses().ReplaceStatus(context.Background(), status))
	require.NoError(t, uow.Commit(context.Background()))
	return id
}

func record(id shared.LearnerID, date time.Time) *hifz.DailyRecord {
	return &hifz.DailyRecord{
		ID:         "rec-" + date.Format(shared.DateLayout),
		LearnerID:  id,
		Date:       shared.DateOf(date),
		Attendance: hifz.AttendancePresent,
		NewLesson:  hifz.NewLesson{Lines: 10},
	}
}

func TestStore_CreateRecordRejectsDuplicateDay(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := enroll(t, s)

	require.NoError(t, s.Records().CreateRecord(ctx, record(id, now)))
	err := s.Records().CreateRecord(ctx, record(id, now.Add(3*time.Hour)))
	assert.ErrorIs(t, err, shared.ErrDuplicateRecord)
}

func TestStore_RollbackDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := enroll(t, s)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Records().CreateRecord(ctx, record(id, now)))
	require.NoError(t, uow.Rollback(ctx))

	_, err = s.Records().GetRecord(ctx, id, now)
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)

	// a finished unit of work refuses further use
	assert.Error(t, uow.Records().CreateRecord(ctx, record(id, now)))
	assert.NoError(t, uow.Rollback(ctx))
}

func TestStore_CommitPublishesChanges(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := enroll(t, s)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Records().CreateRecord(ctx, record(id, now)))

	// uncommitted writes are invisible outside the unit of work
	_, err = s.Records().GetRecord(ctx, id, now)
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)

	require.NoError(t, uow.Commit(ctx))
	got, err := s.Records().GetRecord(ctx, id, now)
	require.NoError(t, err)
	assert.Equal(t, 10, got.NewLesson.Lines)
}

func TestStore_GetRecordsFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := enroll(t, s)

	for _, offset := range []int{3, 0, 1, 10} {
		require.NoError(t, s.Records().CreateRecord(ctx, record(id, now.AddDate(0, 0, -offset))))
	}

	got, err := s.Records().GetRecords(ctx, id, shared.LastNDays(now, 4))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Date.Before(got[1].Date))
	assert.True(t, got[1].Date.Before(got[2].Date))
}

func TestStore_UpdateMissingRecord(t *testing.T) {
	s := NewStore()
	id := enroll(t, s)

	err := s.Records().UpdateRecord(context.Background(), record(id, now))
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)
}

func TestStore_StatusLookup(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Statuses().GetStatus(ctx, shared.GenerateLearnerID())
	assert.True(t, shared.IsNotFound(err))

	a, b := enroll(t, s), enroll(t, s)
	ids, err := s.Statuses().ListLearnerIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []shared.LearnerID{a, b}, ids)
}
