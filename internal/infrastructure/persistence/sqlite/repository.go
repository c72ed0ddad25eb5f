package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// Timestamps are stored as RFC 3339 text in UTC; calendar days as YYYY-MM-DD.
const timestampLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timestampLayout) }

func parseTime(s string) (time.Time, error) { return time.Parse(timestampLayout, s) }

func formatDate(t time.Time) string { return shared.DateOf(t).Format(shared.DateLayout) }

func encodeUnits(units []int) (string, error) {
	if units == nil {
		units = []int{}
	}
	b, err := json.Marshal(units)
	return string(b), err
}

func decodeUnits(s string) ([]int, error) {
	units := []int{}
	if s == "" {
		return units, nil
	}
	err := json.Unmarshal([]byte(s), &units)
	return units, err
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type recordRepo struct {
	q querier
}

const recordColumns = `id, learner_id, record_date, attendance,
	new_lines, new_mistakes, recent_label, recent_mistakes, older_label, older_mistakes,
	total_mistakes, condition_rating, current_unit, current_unit_progress, completed_units,
	notes, created_at, updated_at`

func (r *recordRepo) GetRecords(ctx context.Context, learnerID shared.LearnerID, dates shared.DateRange) ([]hifz.DailyRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM hifz_daily_records
		 WHERE learner_id = ? AND record_date BETWEEN ? AND ?
		 ORDER BY record_date`,
		learnerID.String(), formatDate(dates.From), formatDate(dates.To),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []hifz.DailyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *recordRepo) GetRecord(ctx context.Context, learnerID shared.LearnerID, date time.Time) (*hifz.DailyRecord, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM hifz_daily_records WHERE learner_id = ? AND record_date = ?`,
		learnerID.String(), formatDate(date),
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrRecordNotFound
	}
	return rec, err
}

func (r *recordRepo) CreateRecord(ctx context.Context, rec *hifz.DailyRecord) error {
	completed, err := encodeUnits(rec.CompletedUnits)
	if err != nil {
		return fmt.Errorf("failed to encode completed units: %w", err)
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO hifz_daily_records (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.LearnerID.String(),
		formatDate(rec.Date),
		string(rec.Attendance),
		rec.NewLesson.Lines,
		rec.NewLesson.Mistakes,
		rec.RecentReview.Label,
		rec.RecentReview.Mistakes,
		rec.OlderReview.Label,
		rec.OlderReview.Mistakes,
		rec.TotalMistakes,
		string(rec.Condition),
		rec.CurrentUnit,
		rec.CurrentUnitProgress,
		completed,
		rec.Notes,
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

func (r *recordRepo) UpdateRecord(ctx context.Context, rec *hifz.DailyRecord) error {
	completed, err := encodeUnits(rec.CompletedUnits)
	if err != nil {
		return fmt.Errorf("failed to encode completed units: %w", err)
	}

	res, err := r.q.ExecContext(ctx,
		`UPDATE hifz_daily_records SET
			attendance = ?,
			new_lines = ?,
			new_mistakes = ?,
			recent_label = ?,
			recent_mistakes = ?,
			older_label = ?,
			older_mistakes = ?,
			total_mistakes = ?,
			condition_rating = ?,
			current_unit = ?,
			current_unit_progress = ?,
			completed_units = ?,
			notes = ?,
			updated_at = ?
		 WHERE learner_id = ? AND record_date = ?`,
		string(rec.Attendance),
		rec.NewLesson.Lines,
		rec.NewLesson.Mistakes,
		rec.RecentReview.Label,
		rec.RecentReview.Mistakes,
		rec.OlderReview.Label,
		rec.OlderReview.Mistakes,
		rec.TotalMistakes,
		string(rec.Condition),
		rec.CurrentUnit,
		rec.CurrentUnitProgress,
		completed,
		rec.Notes,
		formatTime(rec.UpdatedAt),
		rec.LearnerID.String(),
		formatDate(rec.Date),
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return shared.ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*hifz.DailyRecord, error) {
	var (
		rec                         hifz.DailyRecord
		learnerID, date, attendance string
		condition, completed        string
		createdAt, updatedAt        string
	)
	err := row.Scan(
		&rec.ID,
		&learnerID,
		&date,
		&attendance,
		&rec.NewLesson.Lines,
		&rec.NewLesson.Mistakes,
		&rec.RecentReview.Label,
		&rec.RecentReview.Mistakes,
		&rec.OlderReview.Label,
		&rec.OlderReview.Mistakes,
		&rec.TotalMistakes,
		&condition,
		&rec.CurrentUnit,
		&rec.CurrentUnitProgress,
		&completed,
		&rec.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	rec.LearnerID = shared.LearnerID(learnerID)
	rec.Attendance = hifz.Attendance(attendance)
	rec.Condition = hifz.Condition(condition)
	if rec.Date, err = shared.ParseDate(date); err != nil {
		return nil, err
	}
	if rec.CompletedUnits, err = decodeUnits(completed); err != nil {
		return nil, fmt.Errorf("failed to decode completed units: %w", err)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type statusRepo struct {
	q querier
}

const statusColumns = `learner_id, already_memorized_units, completed_units,
	current_unit, current_unit_progress, total_active_days, total_lines_memorized,
	total_mistakes, average_lines_per_day, average_mistakes_per_day, mistake_rate_percent,
	completion_percent, memorized_units, estimated_days, estimated_completion_date,
	enrolled_at, updated_at`

func (r *statusRepo) GetStatus(ctx context.Context, learnerID shared.LearnerID) (*hifz.LearnerStatus, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+statusColumns+` FROM hifz_learner_status WHERE learner_id = ?`,
		learnerID.String(),
	)

	var (
		s                     hifz.LearnerStatus
		id, already, done     string
		estimated             sql.NullString
		enrolledAt, updatedAt string
	)
	err := row.Scan(
		&id,
		&already,
		&done,
		&s.CurrentUnit,
		&s.CurrentUnitProgress,
		&s.TotalActiveDays,
		&s.TotalLinesMemorized,
		&s.TotalMistakes,
		&s.AverageLinesPerDay,
		&s.AverageMistakesPerDay,
		&s.MistakeRatePercent,
		&s.CompletionPercent,
		&s.MemorizedUnits,
		&s.EstimatedDaysToComplete,
		&estimated,
		&enrolledAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	s.LearnerID = shared.LearnerID(id)
	if s.AlreadyMemorizedUnits, err = decodeUnits(already); err != nil {
		return nil, fmt.Errorf("failed to decode memorized units: %w", err)
	}
	if s.CompletedUnits, err = decodeUnits(done); err != nil {
		return nil, fmt.Errorf("failed to decode completed units: %w", err)
	}
	if estimated.Valid {
		d, err := shared.ParseDate(estimated.String)
		if err != nil {
			return nil, err
		}
		s.EstimatedCompletionDate = &d
	}
	if s.EnrolledAt, err = parseTime(enrolledAt); err != nil {
		return nil, err
	}
	if s.LastUpdated, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *statusRepo) ReplaceStatus(ctx context.Context, s *hifz.LearnerStatus) error {
	already, err := encodeUnits(s.AlreadyMemorizedUnits)
	if err != nil {
		return err
	}
	done, err := encodeUnits(s.CompletedUnits)
	if err != nil {
		return err
	}
	var estimated sql.NullString
	if s.EstimatedCompletionDate != nil {
		estimated = sql.NullString{String: formatDate(*s.EstimatedCompletionDate), Valid: true}
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO hifz_learner_status (`+statusColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(learner_id) DO UPDATE SET
			already_memorized_units = excluded.already_memorized_units,
			completed_units = excluded.completed_units,
			current_unit = excluded.current_unit,
			current_unit_progress = excluded.current_unit_progress,
			total_active_days = excluded.total_active_days,
			total_lines_memorized = excluded.total_lines_memorized,
			total_mistakes = excluded.total_mistakes,
			average_lines_per_day = excluded.average_lines_per_day,
			average_mistakes_per_day = excluded.average_mistakes_per_day,
			mistake_rate_percent = excluded.mistake_rate_percent,
			completion_percent = excluded.completion_percent,
			memorized_units = excluded.memorized_units,
			estimated_days = excluded.estimated_days,
			estimated_completion_date = excluded.estimated_completion_date,
			updated_at = excluded.updated_at`,
		s.LearnerID.String(),
		already,
		done,
		s.CurrentUnit,
		s.CurrentUnitProgress,
		s.TotalActiveDays,
		s.TotalLinesMemorized,
		s.TotalMistakes,
		s.AverageLinesPerDay,
		s.AverageMistakesPerDay,
		s.MistakeRatePercent,
		s.CompletionPercent,
		s.MemorizedUnits,
		s.EstimatedDaysToComplete,
		estimated,
		formatTime(s.EnrolledAt),
		formatTime(s.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("failed to replace status: %w", err)
	}
	return nil
}

func (r *statusRepo) ListLearnerIDs(ctx context.Context) ([]shared.LearnerID, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT learner_id FROM hifz_learner_status ORDER BY learner_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list learners: %w", err)
	}
	defer rows.Close()

	var ids []shared.LearnerID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan learner id: %w", err)
		}
		ids = append(ids, shared.LearnerID(id))
	}
	return ids, rows.Err()
}
