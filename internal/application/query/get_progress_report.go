// Package query holds the read side: progress reports and weekly evaluations.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/logger"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS REPORT QUERY
// Builds the report input for one learner: status, completion, window
// analytics, projection and alerts. Read only.
// ══════════════════════════════════════════════════════════════════════════════

const DefaultWindowDays = 30

type GetProgressReportQuery struct {
	LearnerID string

	// WindowDays of 0 means DefaultWindowDays.
	WindowDays int

	// AsOf is the last day of the window; zero means today.
	AsOf time.Time
}

// Validate also fills in defaults.
func (q *GetProgressReportQuery) Validate(defaultWindow int) error {
	if q.LearnerID == "" {
		return shared.ValidationError("GetProgressReport", "learner_id", "is required")
	}
	if q.WindowDays < 0 {
		return shared.ValidationError("GetProgressReport", "window_days", "cannot be negative")
	}
	if q.WindowDays == 0 {
		q.WindowDays = defaultWindow
	}
	if q.AsOf.IsZero() {
		q.AsOf = timeutil.Now()
	}
	return nil
}

type WindowDTO struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Days int    `json:"days" yaml:"days"`
}

type StatusDTO struct {
	LearnerID             string   `json:"learner_id" yaml:"learner_id"`
	AlreadyMemorizedUnits []int    `json:"already_memorized_units" yaml:"already_memorized_units"`
	CompletedUnits        []int    `json:"completed_units" yaml:"completed_units"`
	CurrentUnit           int      `json:"current_unit" yaml:"current_unit"`
	CurrentUnitLabel      string   `json:"current_unit_label" yaml:"current_unit_label"`
	CurrentUnitProgress   int      `json:"current_unit_progress" yaml:"current_unit_progress"`
	TotalActiveDays       int      `json:"total_active_days" yaml:"total_active_days"`
	TotalLinesMemorized   int      `json:"total_lines_memorized" yaml:"total_lines_memorized"`
	TotalMistakes         int      `json:"total_mistakes" yaml:"total_mistakes"`
	AverageLinesPerDay    float64  `json:"average_lines_per_day" yaml:"average_lines_per_day"`
	AverageMistakesPerDay float64  `json:"average_mistakes_per_day" yaml:"average_mistakes_per_day"`
	MistakeRatePercent    float64  `json:"mistake_rate_percent" yaml:"mistake_rate_percent"`
	EnrolledAt            string   `json:"enrolled_at" yaml:"enrolled_at"`
	LastUpdated           string   `json:"last_updated" yaml:"last_updated"`
	Warnings              []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ProgressReport is what the external report renderer consumes.
type ProgressReport struct {
	GeneratedAt time.Time        `json:"generated_at" yaml:"generated_at"`
	Window      WindowDTO        `json:"window" yaml:"window"`
	Status      StatusDTO        `json:"status" yaml:"status"`
	Completion  hifz.Completion  `json:"completion" yaml:"completion"`
	Analytics   hifz.Analytics   `json:"analytics" yaml:"analytics"`
	Projection  hifz.Projection  `json:"projection" yaml:"projection"`
	Alerts      []hifz.Alert     `json:"alerts" yaml:"alerts"`
	AllClear    *hifz.AllClear   `json:"all_clear,omitempty" yaml:"all_clear,omitempty"`
	Recent      []DailyRecordDTO `json:"recent_records" yaml:"recent_records"`
}

type DailyRecordDTO struct {
	Date           string `json:"date" yaml:"date"`
	Attendance     string `json:"attendance" yaml:"attendance"`
	NewLines       int    `json:"new_lines" yaml:"new_lines"`
	NewMistakes    int    `json:"new_mistakes" yaml:"new_mistakes"`
	RecentLabel    string `json:"recent_label,omitempty" yaml:"recent_label,omitempty"`
	RecentMistakes int    `json:"recent_mistakes" yaml:"recent_mistakes"`
	OlderLabel     string `json:"older_label,omitempty" yaml:"older_label,omitempty"`
	OlderMistakes  int    `json:"older_mistakes" yaml:"older_mistakes"`
	TotalMistakes  int    `json:"total_mistakes" yaml:"total_mistakes"`
	Condition      string `json:"condition" yaml:"condition"`
	Unit           int    `json:"unit" yaml:"unit"`
	UnitProgress   int    `json:"unit_progress" yaml:"unit_progress"`
	Notes          string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

const recentRecordsLimit = 7

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

type GetProgressReportHandler struct {
	store         hifz.Store
	cache         hifz.StatusCache
	defaultWindow int
	log           *logger.Logger
}

// NewGetProgressReportHandler accepts a nil cache and a nil logger.
func NewGetProgressReportHandler(store hifz.Store, cache hifz.StatusCache, defaultWindow int, log *logger.Logger) *GetProgressReportHandler {
	if defaultWindow <= 0 {
		defaultWindow = DefaultWindowDays
	}
	if log == nil {
		log = logger.Default()
	}
	return &GetProgressReportHandler{
		store:         store,
		cache:         cache,
		defaultWindow: defaultWindow,
		log:           log.With(logger.Component("get_progress_report")),
	}
}

func (h *GetProgressReportHandler) Handle(ctx context.Context, q GetProgressReportQuery) (*ProgressReport, error) {
	if err := q.Validate(h.defaultWindow); err != nil {
		return nil, fmt.Errorf("get_progress_report: %w", err)
	}

	learnerID, err := shared.NewLearnerID(q.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("get_progress_report: %w", err)
	}

	status, err := loadStatus(ctx, h.store, h.cache, h.log, learnerID)
	if err != nil {
		return nil, fmt.Errorf("get_progress_report: %w", err)
	}

	window := shared.LastNDays(q.AsOf, q.WindowDays)
	records, err := h.store.Records().GetRecords(ctx, learnerID, window)
	if err != nil {
		return nil, fmt.Errorf("get_progress_report: load records: %w", err)
	}

	completion := status.Completion()
	analytics := hifz.ComputeAnalytics(records, *status, window)
	alerts := hifz.GenerateAlerts(analytics)
	projection := hifz.Estimate(completion.RemainingUnits, status.AverageLinesPerDay, q.AsOf)

	report := &ProgressReport{
		GeneratedAt: q.AsOf,
		Window: WindowDTO{
			From: window.From.Format(shared.DateLayout),
			To:   window.To.Format(shared.DateLayout),
			Days: window.Days(),
		},
		Status:     toStatusDTO(status, completion),
		Completion: completion,
		Analytics:  analytics,
		Projection: projection,
		Alerts:     alerts.Alerts,
		AllClear:   alerts.AllClear,
		Recent:     toRecordDTOs(lastN(records, recentRecordsLimit)),
	}
	if report.Alerts == nil {
		report.Alerts = []hifz.Alert{}
	}
	return report, nil
}

// loadStatus tries the cache first. Cache errors only cost a store read.
func loadStatus(ctx context.Context, store hifz.Store, cache hifz.StatusCache, log *logger.Logger, id shared.LearnerID) (*hifz.LearnerStatus, error) {
	if cache != nil {
		cached, err := cache.Get(ctx, id)
		if err != nil {
			log.Warn("status cache read failed", logger.LearnerID(id.String()), logger.Err(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	status, err := store.Statuses().GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.Set(ctx, status); err != nil {
			log.Warn("status cache fill failed", logger.LearnerID(id.String()), logger.Err(err))
		}
	}
	return status, nil
}

func toStatusDTO(s *hifz.LearnerStatus, c hifz.Completion) StatusDTO {
	dto := StatusDTO{
		LearnerID:             s.LearnerID.String(),
		AlreadyMemorizedUnits: nonNil(s.AlreadyMemorizedUnits),
		CompletedUnits:        nonNil(s.CompletedUnits),
		CurrentUnit:           s.CurrentUnit,
		CurrentUnitLabel:      hifz.UnitLabel(s.CurrentUnit),
		CurrentUnitProgress:   s.CurrentUnitProgress,
		TotalActiveDays:       s.TotalActiveDays,
		TotalLinesMemorized:   s.TotalLinesMemorized,
		TotalMistakes:         s.TotalMistakes,
		AverageLinesPerDay:    s.AverageLinesPerDay,
		AverageMistakesPerDay: s.AverageMistakesPerDay,
		MistakeRatePercent:    s.MistakeRatePercent,
		EnrolledAt:            s.EnrolledAt.Format(time.RFC3339),
		LastUpdated:           s.LastUpdated.Format(time.RFC3339),
	}
	for _, w := range c.Warnings {
		dto.Warnings = append(dto.Warnings, w.String())
	}
	return dto
}

func toRecordDTOs(records []hifz.DailyRecord) []DailyRecordDTO {
	out := make([]DailyRecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, DailyRecordDTO{
			Date:           r.Date.Format(shared.DateLayout),
			Attendance:     string(r.Attendance),
			NewLines:       r.NewLesson.Lines,
			NewMistakes:    r.NewLesson.Mistakes,
			RecentLabel:    r.RecentReview.Label,
			RecentMistakes: r.RecentReview.Mistakes,
			OlderLabel:     r.OlderReview.Label,
			OlderMistakes:  r.OlderReview.Mistakes,
			TotalMistakes:  r.TotalMistakes,
			Condition:      string(r.Condition),
			Unit:           r.CurrentUnit,
			UnitProgress:   r.CurrentUnitProgress,
			Notes:          r.Notes,
		})
	}
	return out
}

func lastN(records []hifz.DailyRecord, n int) []hifz.DailyRecord {
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

func nonNil(units []int) []int {
	if units == nil {
		return []int{}
	}
	return units
}
