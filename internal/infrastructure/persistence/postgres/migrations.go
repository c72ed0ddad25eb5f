package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE LEARNER STATUS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learner status table
-- Version: 001
-- One row per enrolled learner, replaced as a whole after every ingestion.

CREATE TABLE IF NOT EXISTS hifz_learner_status (
    learner_id UUID PRIMARY KEY,
    already_memorized_units INTEGER[] NOT NULL DEFAULT '{}',
    completed_units INTEGER[] NOT NULL DEFAULT '{}',
    current_unit SMALLINT NOT NULL,
    current_unit_progress SMALLINT NOT NULL DEFAULT 0,
    total_active_days INTEGER NOT NULL DEFAULT 0,
    total_lines_memorized INTEGER NOT NULL DEFAULT 0,
    total_mistakes INTEGER NOT NULL DEFAULT 0,
    average_lines_per_day DOUBLE PRECISION NOT NULL DEFAULT 0,
    average_mistakes_per_day DOUBLE PRECISION NOT NULL DEFAULT 0,
    mistake_rate_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
    completion_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
    memorized_units SMALLINT NOT NULL DEFAULT 0,
    estimated_days INTEGER NOT NULL DEFAULT 0,
    estimated_completion_date DATE,
    enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_current_unit CHECK (current_unit BETWEEN 1 AND 30),
    CONSTRAINT valid_unit_progress CHECK (current_unit_progress BETWEEN 0 AND 100),
    CONSTRAINT valid_completion CHECK (completion_percent BETWEEN 0 AND 100)
);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE DAILY RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create daily records table
-- Version: 002
-- At most one record per learner per calendar day.

CREATE TABLE IF NOT EXISTS hifz_daily_records (
    id UUID PRIMARY KEY,
    learner_id UUID NOT NULL REFERENCES hifz_learner_status(learner_id) ON DELETE CASCADE,
    record_date DATE NOT NULL,
    attendance VARCHAR(10) NOT NULL,
    new_lines INTEGER NOT NULL DEFAULT 0,
    new_mistakes INTEGER NOT NULL DEFAULT 0,
    recent_label TEXT NOT NULL DEFAULT '',
    recent_mistakes INTEGER NOT NULL DEFAULT 0,
    older_label TEXT NOT NULL DEFAULT '',
    older_mistakes INTEGER NOT NULL DEFAULT 0,
    total_mistakes INTEGER NOT NULL DEFAULT 0,
    condition_rating VARCHAR(20) NOT NULL,
    current_unit SMALLINT NOT NULL,
    current_unit_progress SMALLINT NOT NULL,
    completed_units INTEGER[] NOT NULL DEFAULT '{}',
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT unique_learner_day UNIQUE (learner_id, record_date),
    CONSTRAINT valid_attendance CHECK (attendance IN ('PRESENT', 'ABSENT', 'LATE', 'EXCUSED')),
    CONSTRAINT valid_condition CHECK (condition_rating IN ('Excellent', 'Good', 'Medium', 'Below Average', 'N/A')),
    CONSTRAINT valid_counts CHECK (
        new_lines >= 0 AND new_mistakes >= 0 AND recent_mistakes >= 0 AND older_mistakes >= 0
    )
);

CREATE INDEX IF NOT EXISTS idx_hifz_daily_records_learner_date ON hifz_daily_records(learner_id, record_date);
CREATE INDEX IF NOT EXISTS idx_hifz_daily_records_date ON hifz_daily_records(record_date);
`
