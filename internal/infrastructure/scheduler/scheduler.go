// Package scheduler runs the worker's periodic jobs, chiefly the weekly
// performance evaluation of every enrolled learner.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrNilSchedule             = errors.New("schedule cannot be nil")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrJobNotFound             = errors.New("job not found")
	ErrJobPanicked             = errors.New("job panicked")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)

// Job is one unit of background work. Run's context ends when the
// scheduler stops.
type Job interface {
	Name() string
	Description() string
	Run(ctx context.Context) error
}

// Schedule yields the first run time strictly after t.
type Schedule interface {
	Next(t time.Time) time.Time
	String() string
}

type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
	Manual      bool // started by RunNow
}

type SchedulerConfig struct {
	Logger *slog.Logger

	// Now defaults to time.Now. The worker passes timeutil.Now so schedules
	// follow the configured time zone.
	Now func() time.Time

	// TickInterval is how often due jobs are looked for. Default 1s.
	TickInterval time.Duration

	// MaxHistorySize bounds GetHistory. Default 100.
	MaxHistorySize int
}

type entry struct {
	job      Job
	schedule Schedule

	nextRun   time.Time
	lastRun   time.Time
	busy      bool
	runs      int64
	failures  int64
	lastState *JobResult
}

// Scheduler starts due jobs on a ticker. A job that is still running when
// its next slot comes is skipped for that slot.
type Scheduler struct {
	log     *slog.Logger
	now     func() time.Time
	tick    time.Duration
	maxHist int

	mu       sync.RWMutex
	entries  map[string]*entry
	history  []JobResult
	onDone   func(JobResult)
	cancel   context.CancelFunc
	started  time.Time
	inFlight sync.WaitGroup

	metrics *SchedulerMetrics
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.MaxHistorySize <= 0 {
		cfg.MaxHistorySize = 100
	}
	return &Scheduler{
		log:     cfg.Logger.With("component", "scheduler"),
		now:     cfg.Now,
		tick:    cfg.TickInterval,
		maxHist: cfg.MaxHistorySize,
		entries: make(map[string]*entry),
		metrics: NewSchedulerMetrics(),
	}
}

// Register adds job under its Name; names are unique.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	switch {
	case job == nil:
		return ErrNilJob
	case schedule == nil:
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	e := &entry{job: job, schedule: schedule, nextRun: schedule.Next(s.now())}
	s.entries[name] = e

	s.log.Info("job registered", "job", name, "schedule", schedule.String(), "next_run", e.nextRun.Format(time.RFC3339))
	return nil
}

// OnJobComplete installs a hook called after every run, scheduled or manual.
func (s *Scheduler) OnJobComplete(fn func(JobResult)) {
	s.mu.Lock()
	s.onDone = fn
	s.mu.Unlock()
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrSchedulerAlreadyRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.started = s.now()
	s.log.Info("scheduler started", "jobs_count", len(s.entries))

	s.inFlight.Add(1)
	go s.loop(ctx)
	return nil
}

// Stop cancels the loop and any running job, then waits for them.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return ErrSchedulerNotRunning
	}

	cancel()
	s.inFlight.Wait()
	s.log.Info("scheduler stopped", "uptime", s.now().Sub(s.started).String())
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.inFlight.Done()
	t := time.NewTicker(s.tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, e := range s.claimDue() {
				s.inFlight.Add(1)
				go func(e *entry) {
					defer s.inFlight.Done()
					s.run(ctx, e, false)
				}(e)
			}
		}
	}
}

// claimDue marks due, idle jobs busy and moves their next run forward.
func (s *Scheduler) claimDue() []*entry {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*entry
	for _, e := range s.entries {
		if e.busy || e.nextRun.IsZero() || now.Before(e.nextRun) {
			continue
		}
		e.busy = true
		e.nextRun = e.schedule.Next(now)
		due = append(due, e)
	}
	return due
}

func (s *Scheduler) run(ctx context.Context, e *entry, manual bool) JobResult {
	name := e.job.Name()
	s.log.Info("job started", "job", name, "manual", manual)

	res := JobResult{JobName: name, StartedAt: s.now(), Manual: manual}
	res.Error = invoke(ctx, e.job)
	res.CompletedAt = s.now()
	res.Duration = res.CompletedAt.Sub(res.StartedAt)
	res.Success = res.Error == nil
	s.metrics.RecordExecution(name, res.Duration, res.Success)

	s.mu.Lock()
	if !manual {
		e.busy = false
	}
	e.lastRun = res.StartedAt
	e.runs++
	if !res.Success {
		e.failures++
	}
	e.lastState = &res
	s.history = append(s.history, res)
	if over := len(s.history) - s.maxHist; over > 0 {
		s.history = s.history[over:]
	}
	hook := s.onDone
	s.mu.Unlock()

	if res.Success {
		s.log.Info("job completed", "job", name, "duration", res.Duration.String())
	} else {
		s.log.Error("job failed", "job", name, "duration", res.Duration.String(), "error", res.Error)
	}
	if hook != nil {
		hook(res)
	}
	return res
}

func invoke(ctx context.Context, job Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, p)
		}
	}()
	return job.Run(ctx)
}

// RunNow runs a job immediately on the caller's goroutine. It does not move
// the job's next scheduled run.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (*JobResult, error) {
	s.mu.RLock()
	e, ok := s.entries[jobName]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	res := s.run(ctx, e, true)
	return &res, res.Error
}

// JobInfo is what the worker's /jobs endpoint lists.
type JobInfo struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schedule    string     `json:"schedule"`
	Running     bool       `json:"running"`
	LastRun     time.Time  `json:"last_run"`
	NextRun     time.Time  `json:"next_run"`
	RunCount    int64      `json:"run_count"`
	FailCount   int64      `json:"fail_count"`
	LastResult  *JobResult `json:"-"`
}

// ListJobs is sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, JobInfo{
			Name:        name,
			Description: e.job.Description(),
			Schedule:    e.schedule.String(),
			Running:     e.busy,
			LastRun:     e.lastRun,
			NextRun:     e.nextRun,
			RunCount:    e.runs,
			FailCount:   e.failures,
			LastResult:  e.lastState,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetHistory returns the last limit results, oldest first. limit <= 0
// returns everything kept.
func (s *Scheduler) GetHistory(limit int) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	return append([]JobResult(nil), s.history[n-limit:]...)
}

func (s *Scheduler) GetMetrics() *SchedulerMetrics {
	return s.metrics
}

type SchedulerMetrics struct {
	mu         sync.Mutex
	executions int64
	failures   int64
	busy       time.Duration
	failedJobs map[string]int64
}

func NewSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{failedJobs: make(map[string]int64)}
}

func (m *SchedulerMetrics) RecordExecution(jobName string, d time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions++
	m.busy += d
	if !success {
		m.failures++
		m.failedJobs[jobName]++
	}
}

type MetricsSnapshot struct {
	TotalExecutions int64            `json:"total_executions"`
	TotalFailures   int64            `json:"total_failures"`
	FailuresByJob   map[string]int64 `json:"failures_by_job,omitempty"`
	SuccessRate     float64          `json:"success_rate"`
	AverageDuration time.Duration    `json:"average_duration"`
}

func (m *SchedulerMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		TotalExecutions: m.executions,
		TotalFailures:   m.failures,
		FailuresByJob:   make(map[string]int64, len(m.failedJobs)),
	}
	for name, n := range m.failedJobs {
		snap.FailuresByJob[name] = n
	}
	if m.executions > 0 {
		snap.AverageDuration = m.busy / time.Duration(m.executions)
		snap.SuccessRate = float64(m.executions-m.failures) / float64(m.executions)
	}
	return snap
}
