// Package memory implements an in-process hifz.Store. It backs tests and
// ephemeral CLI runs; nothing survives the process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

type dataset struct {
	statuses map[shared.LearnerID]hifz.LearnerStatus
	records  map[shared.LearnerID]map[string]hifz.DailyRecord
}

func newDataset() dataset {
	return dataset{
		statuses: make(map[shared.LearnerID]hifz.LearnerStatus),
		records:  make(map[shared.LearnerID]map[string]hifz.DailyRecord),
	}
}

func (d dataset) clone() dataset {
	out := newDataset()
	for id, s := range d.statuses {
		out.statuses[id] = s.Clone()
	}
	for id, byDate := range d.records {
		m := make(map[string]hifz.DailyRecord, len(byDate))
		for k, r := range byDate {
			m[k] = cloneRecord(r)
		}
		out.records[id] = m
	}
	return out
}

// Store keeps statuses and records in maps. Transactions are serialized and
// work on a snapshot that replaces the live data on Commit.
type Store struct {
	mu   sync.RWMutex
	data dataset

	// txMu serializes units of work.
	txMu sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// Begin starts a unit of work.
func (s *Store) Begin(ctx context.Context) (hifz.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.txMu.Lock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	return &unitOfWork{store: s, data: snapshot}, nil
}

// Records returns a repository reading committed data.
func (s *Store) Records() hifz.RecordRepository {
	return &recordRepo{read: s.read, write: s.write}
}

// Statuses returns a repository over committed data.
func (s *Store) Statuses() hifz.StatusRepository {
	return &statusRepo{read: s.read, write: s.write}
}

func (s *Store) read(fn func(dataset) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func (s *Store) write(fn func(dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

type unitOfWork struct {
	store *Store
	data  dataset
	done  bool
}

func (u *unitOfWork) access(fn func(dataset) error) error {
	if u.done {
		return shared.NewDomainError("memory", "UnitOfWork", shared.ErrInvalidState, "unit of work already finished")
	}
	return fn(u.data)
}

func (u *unitOfWork) Records() hifz.RecordRepository {
	return &recordRepo{read: u.access, write: u.access}
}

func (u *unitOfWork) Statuses() hifz.StatusRepository {
	return &statusRepo{read: u.access, write: u.access}
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return shared.NewDomainError("memory", "Commit", shared.ErrInvalidState, "unit of work already finished")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	u.store.mu.Lock()
	u.store.data = u.data
	u.store.mu.Unlock()

	u.done = true
	u.store.txMu.Unlock()
	return nil
}

func (u *unitOfWork) Rollback(context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	u.store.txMu.Unlock()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORIES
// ══════════════════════════════════════════════════════════════════════════════

type accessor func(fn func(dataset) error) error

type recordRepo struct {
	read  accessor
	write accessor
}

func dateKey(t time.Time) string {
	return shared.DateOf(t).Format(shared.DateLayout)
}

func (r *recordRepo) GetRecords(ctx context.Context, learnerID shared.LearnerID, dates shared.DateRange) ([]hifz.DailyRecord, error) {
	var out []hifz.DailyRecord
	err := r.read(func(d dataset) error {
		for _, rec := range d.records[learnerID] {
			if dates.Contains(rec.Date) {
				out = append(out, cloneRecord(rec))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, err
}

func (r *recordRepo) GetRecord(ctx context.Context, learnerID shared.LearnerID, date time.Time) (*hifz.DailyRecord, error) {
	var out *hifz.DailyRecord
	err := r.read(func(d dataset) error {
		rec, ok := d.records[learnerID][dateKey(date)]
		if !ok {
			return shared.ErrRecordNotFound
		}
		c := cloneRecord(rec)
		out = &c
		return nil
	})
	return out, err
}

func (r *recordRepo) CreateRecord(ctx context.Context, record *hifz.DailyRecord) error {
	return r.write(func(d dataset) error {
		key := dateKey(record.Date)
		byDate, ok := d.records[record.LearnerID]
		if !ok {
			byDate = make(map[string]hifz.DailyRecord)
			d.records[record.LearnerID] = byDate
		}
		if _, exists := byDate[key]; exists {
			return shared.ErrDuplicateRecord
		}
		byDate[key] = cloneRecord(*record)
		return nil
	})
}

func (r *recordRepo) UpdateRecord(ctx context.Context, record *hifz.DailyRecord) error {
	return r.write(func(d dataset) error {
		key := dateKey(record.Date)
		if _, exists := d.records[record.LearnerID][key]; !exists {
			return shared.ErrRecordNotFound
		}
		d.records[record.LearnerID][key] = cloneRecord(*record)
		return nil
	})
}

type statusRepo struct {
	read  accessor
	write accessor
}

func (r *statusRepo) GetStatus(ctx context.Context, learnerID shared.LearnerID) (*hifz.LearnerStatus, error) {
	var out *hifz.LearnerStatus
	err := r.read(func(d dataset) error {
		s, ok := d.statuses[learnerID]
		if !ok {
			return shared.ErrLearnerNotFound
		}
		c := s.Clone()
		out = &c
		return nil
	})
	return out, err
}

func (r *statusRepo) ReplaceStatus(ctx context.Context, status *hifz.LearnerStatus) error {
	return r.write(func(d dataset) error {
		d.statuses[status.LearnerID] = status.Clone()
		return nil
	})
}

func (r *statusRepo) ListLearnerIDs(ctx context.Context) ([]shared.LearnerID, error) {
	var ids []shared.LearnerID
	err := r.read(func(d dataset) error {
		for id := range d.statuses {
			ids = append(ids, id)
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

func cloneRecord(r hifz.DailyRecord) hifz.DailyRecord {
	r.CompletedUnits = append([]int{}, r.CompletedUnits...)
	return r
}
