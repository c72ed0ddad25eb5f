package sqlite

import (
	"context"
	"fmt"
)

type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_hifz_tables",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS hifz_learner_status (
				learner_id TEXT PRIMARY KEY,
				already_memorized_units TEXT NOT NULL DEFAULT '[]',
				completed_units TEXT NOT NULL DEFAULT '[]',
				current_unit INTEGER NOT NULL CHECK (current_unit BETWEEN 1 AND 30),
				current_unit_progress INTEGER NOT NULL DEFAULT 0 CHECK (current_unit_progress BETWEEN 0 AND 100),
				total_active_days INTEGER NOT NULL DEFAULT 0,
				total_lines_memorized INTEGER NOT NULL DEFAULT 0,
				total_mistakes INTEGER NOT NULL DEFAULT 0,
				average_lines_per_day REAL NOT NULL DEFAULT 0,
				average_mistakes_per_day REAL NOT NULL DEFAULT 0,
				mistake_rate_percent REAL NOT NULL DEFAULT 0,
				completion_percent REAL NOT NULL DEFAULT 0,
				memorized_units INTEGER NOT NULL DEFAULT 0,
				estimated_days INTEGER NOT NULL DEFAULT 0,
				estimated_completion_date TEXT,
				enrolled_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS hifz_daily_records (
				id TEXT PRIMARY KEY,
				learner_id TEXT NOT NULL REFERENCES hifz_learner_status(learner_id) ON DELETE CASCADE,
				record_date TEXT NOT NULL,
				attendance TEXT NOT NULL CHECK (attendance IN ('PRESENT', 'ABSENT', 'LATE', 'EXCUSED')),
				new_lines INTEGER NOT NULL DEFAULT 0 CHECK (new_lines >= 0),
				new_mistakes INTEGER NOT NULL DEFAULT 0 CHECK (new_mistakes >= 0),
				recent_label TEXT NOT NULL DEFAULT '',
				recent_mistakes INTEGER NOT NULL DEFAULT 0 CHECK (recent_mistakes >= 0),
				older_label TEXT NOT NULL DEFAULT '',
				older_mistakes INTEGER NOT NULL DEFAULT 0 CHECK (older_mistakes >= 0),
				total_mistakes INTEGER NOT NULL DEFAULT 0,
				condition_rating TEXT NOT NULL,
				current_unit INTEGER NOT NULL,
				current_unit_progress INTEGER NOT NULL,
				completed_units TEXT NOT NULL DEFAULT '[]',
				notes TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE (learner_id, record_date)
			);`,
			`CREATE INDEX IF NOT EXISTS idx_hifz_daily_records_learner_date ON hifz_daily_records(learner_id, record_date);`,
		},
	},
}

// Migrate applies pending migrations. Each migration runs in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("sqlite: create migrations table: %w", err)
	}

	for _, m := range migrations {
		var applied int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, m.version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("sqlite: check migration %d: %w", m.version, err)
		}
		if applied > 0 {
			continue
		}

		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("sqlite: migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range m.stmts {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// MigrationState describes one known migration.
type MigrationState struct {
	Version   int
	Name      string
	IsApplied bool
	AppliedAt string
}

// Status reports which migrations have been applied.
func (s *Store) Status(ctx context.Context) ([]MigrationState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: read migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]string)
	for rows.Next() {
		var (
			version int
			at      string
		)
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("sqlite: scan migration: %w", err)
		}
		applied[version] = at
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]MigrationState, 0, len(migrations))
	for _, m := range migrations {
		at, ok := applied[m.version]
		result = append(result, MigrationState{
			Version:   m.version,
			Name:      m.name,
			IsApplied: ok,
			AppliedAt: at,
		})
	}
	return result, nil
}
