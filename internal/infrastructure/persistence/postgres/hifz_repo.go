package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store implements hifz.Store for PostgreSQL.
type Store struct {
	conn *Connection
}

// NewStore creates a new Store.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// Records returns a repository outside any transaction.
func (s *Store) Records() hifz.RecordRepository {
	return &RecordRepository{q: s.conn}
}

// Statuses returns a repository outside any transaction.
func (s *Store) Statuses() hifz.StatusRepository {
	return &StatusRepository{q: s.conn}
}

// Begin starts a unit of work. Status reads inside it lock the learner row,
// so concurrent ingestions for one learner are serialized.
func (s *Store) Begin(ctx context.Context) (hifz.UnitOfWork, error) {
	tx, err := s.conn.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &unitOfWork{tx: tx}, nil
}

type unitOfWork struct {
	tx pgx.Tx
}

func (u *unitOfWork) Records() hifz.RecordRepository {
	return &RecordRepository{q: u.tx}
}

func (u *unitOfWork) Statuses() hifz.StatusRepository {
	return &StatusRepository{q: u.tx, forUpdate: true}
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return nil
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// RecordRepository implements hifz.RecordRepository for PostgreSQL.
type RecordRepository struct {
	q Querier
}

const recordColumns = `
	id, learner_id, record_date, attendance,
	new_lines, new_mistakes, recent_label, recent_mistakes, older_label, older_mistakes,
	total_mistakes, condition_rating, current_unit, current_unit_progress, completed_units,
	notes, created_at, updated_at`

// GetRecords returns the records of a learner within dates, ordered by day.
func (r *RecordRepository) GetRecords(ctx context.Context, learnerID shared.LearnerID, dates shared.DateRange) ([]hifz.DailyRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM hifz_daily_records
		WHERE learner_id = $1 AND record_date BETWEEN $2 AND $3
		ORDER BY record_date`

	rows, err := r.q.Query(ctx, query, learnerID.String(), shared.DateOf(dates.From), shared.DateOf(dates.To))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []hifz.DailyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GetRecord returns the record of a learner for one calendar day.
func (r *RecordRepository) GetRecord(ctx context.Context, learnerID shared.LearnerID, date time.Time) (*hifz.DailyRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM hifz_daily_records
		WHERE learner_id = $1 AND record_date = $2`

	rec, err := scanRecord(r.q.QueryRow(ctx, query, learnerID.String(), shared.DateOf(date)))
	if IsNoRows(err) {
		return nil, shared.ErrRecordNotFound
	}
	return rec, err
}

// CreateRecord inserts a new record.
func (r *RecordRepository) CreateRecord(ctx context.Context, rec *hifz.DailyRecord) error {
	query := `
		INSERT INTO hifz_daily_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.q.Exec(ctx, query,
		rec.ID,
		rec.LearnerID.String(),
		shared.DateOf(rec.Date),
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
		units(rec.CompletedUnits),
		rec.Notes,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrDuplicateRecord
		}
		if IsForeignKeyViolation(err) {
			return shared.ErrLearnerNotFound
		}
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// UpdateRecord replaces the mutable fields of an existing record.
func (r *RecordRepository) UpdateRecord(ctx context.Context, rec *hifz.DailyRecord) error {
	query := `
		UPDATE hifz_daily_records SET
			attendance = $1,
			new_lines = $2,
			new_mistakes = $3,
			recent_label = $4,
			recent_mistakes = $5,
			older_label = $6,
			older_mistakes = $7,
			total_mistakes = $8,
			condition_rating = $9,
			current_unit = $10,
			current_unit_progress = $11,
			completed_units = $12,
			notes = $13,
			updated_at = $14
		WHERE learner_id = $15 AND record_date = $16
	`

	result, err := r.q.Exec(ctx, query,
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
		units(rec.CompletedUnits),
		rec.Notes,
		rec.UpdatedAt,
		rec.LearnerID.String(),
		shared.DateOf(rec.Date),
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrRecordNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*hifz.DailyRecord, error) {
	var (
		rec                   hifz.DailyRecord
		learnerID             string
		attendance, condition string
	)

	err := row.Scan(
		&rec.ID,
		&learnerID,
		&rec.Date,
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
		&rec.CompletedUnits,
		&rec.Notes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	rec.LearnerID = shared.LearnerID(learnerID)
	rec.Attendance = hifz.Attendance(attendance)
	rec.Condition = hifz.Condition(condition)
	rec.Date = shared.DateOf(rec.Date)
	rec.CompletedUnits = units(rec.CompletedUnits)
	return &rec, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// StatusRepository implements hifz.StatusRepository for PostgreSQL.
type StatusRepository struct {
	q         Querier
	forUpdate bool
}

const statusColumns = `
	learner_id, already_memorized_units, completed_units,
	current_unit, current_unit_progress, total_active_days, total_lines_memorized,
	total_mistakes, average_lines_per_day, average_mistakes_per_day, mistake_rate_percent,
	completion_percent, memorized_units, estimated_days, estimated_completion_date,
	enrolled_at, updated_at`

// GetStatus returns the status of a learner.
func (r *StatusRepository) GetStatus(ctx context.Context, learnerID shared.LearnerID) (*hifz.LearnerStatus, error) {
	query := `SELECT ` + statusColumns + ` FROM hifz_learner_status WHERE learner_id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		s         hifz.LearnerStatus
		id        string
		estimated *time.Time
	)
	err := r.q.QueryRow(ctx, query, learnerID.String()).Scan(
		&id,
		&s.AlreadyMemorizedUnits,
		&s.CompletedUnits,
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
		&s.EnrolledAt,
		&s.LastUpdated,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	s.LearnerID = shared.LearnerID(id)
	s.AlreadyMemorizedUnits = units(s.AlreadyMemorizedUnits)
	s.CompletedUnits = units(s.CompletedUnits)
	if estimated != nil {
		d := shared.DateOf(*estimated)
		s.EstimatedCompletionDate = &d
	}
	return &s, nil
}

// ReplaceStatus upserts the whole status row.
func (r *StatusRepository) ReplaceStatus(ctx context.Context, s *hifz.LearnerStatus) error {
	query := `
		INSERT INTO hifz_learner_status (` + statusColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (learner_id) DO UPDATE SET
			already_memorized_units = EXCLUDED.already_memorized_units,
			completed_units = EXCLUDED.completed_units,
			current_unit = EXCLUDED.current_unit,
			current_unit_progress = EXCLUDED.current_unit_progress,
			total_active_days = EXCLUDED.total_active_days,
			total_lines_memorized = EXCLUDED.total_lines_memorized,
			total_mistakes = EXCLUDED.total_mistakes,
			average_lines_per_day = EXCLUDED.average_lines_per_day,
			average_mistakes_per_day = EXCLUDED.average_mistakes_per_day,
			mistake_rate_percent = EXCLUDED.mistake_rate_percent,
			completion_percent = EXCLUDED.completion_percent,
			memorized_units = EXCLUDED.memorized_units,
			estimated_days = EXCLUDED.estimated_days,
			estimated_completion_date = EXCLUDED.estimated_completion_date,
			updated_at = EXCLUDED.updated_at
	`

	var estimated *time.Time
	if s.EstimatedCompletionDate != nil {
		d := shared.DateOf(*s.EstimatedCompletionDate)
		estimated = &d
	}

	_, err := r.q.Exec(ctx, query,
		s.LearnerID.String(),
		units(s.AlreadyMemorizedUnits),
		units(s.CompletedUnits),
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
		s.EnrolledAt,
		s.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to replace status: %w", err)
	}
	return nil
}

// ListLearnerIDs returns every enrolled learner.
func (r *StatusRepository) ListLearnerIDs(ctx context.Context) ([]shared.LearnerID, error) {
	rows, err := r.q.Query(ctx, `SELECT learner_id FROM hifz_learner_status ORDER BY learner_id`)
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

// units maps NULL arrays to empty slices.
func units(u []int) []int {
	if u == nil {
		return []int{}
	}
	return u
}
