package hifz

import (
	"context"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Storage contracts. Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

type RecordRepository interface {
	// GetRecords returns the learner's records inside dates, oldest first.
	GetRecords(ctx context.Context, learnerID shared.LearnerID, dates shared.DateRange) ([]DailyRecord, error)

	// GetRecord returns ErrRecordNotFound when the day has no record.
	GetRecord(ctx context.Context, learnerID shared.LearnerID, date time.Time) (*DailyRecord, error)

	// CreateRecord returns ErrDuplicateRecord when the day already has one.
	CreateRecord(ctx context.Context, record *DailyRecord) error

	// UpdateRecord replaces an existing record or returns ErrRecordNotFound.
	UpdateRecord(ctx context.Context, record *DailyRecord) error
}

type StatusRepository interface {
	// GetStatus returns ErrLearnerNotFound for learners never enrolled.
	GetStatus(ctx context.Context, learnerID shared.LearnerID) (*LearnerStatus, error)

	// ReplaceStatus upserts the whole aggregate.
	ReplaceStatus(ctx context.Context, status *LearnerStatus) error

	ListLearnerIDs(ctx context.Context) ([]shared.LearnerID, error)
}

// UnitOfWork changes records and status together or not at all.
type UnitOfWork interface {
	Records() RecordRepository
	Statuses() StatusRepository
	Commit(ctx context.Context) error

	// Rollback after Commit is a no-op.
	Rollback(ctx context.Context) error
}

type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// Store reads outside a transaction and starts units of work.
type Store interface {
	UnitOfWorkFactory
	Records() RecordRepository
	Statuses() StatusRepository
}

// StatusCache is an optional read-through copy of statuses.
type StatusCache interface {
	// Get returns (nil, nil) on a miss.
	Get(ctx context.Context, learnerID shared.LearnerID) (*LearnerStatus, error)
	Set(ctx context.Context, status *LearnerStatus) error
	Invalidate(ctx context.Context, learnerID shared.LearnerID) error
}
