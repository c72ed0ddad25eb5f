package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/query"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// writeReport encodes the report in the requested format.
func writeReport(w io.Writer, report *query.ProgressReport, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "", "text":
		renderReport(w, report)
		return nil
	default:
		return fmt.Errorf("unknown format %q: use text, json or yaml", format)
	}
}

func renderIngestion(w io.Writer, rec *hifz.DailyRecord, status *hifz.LearnerStatus, tr hifz.Transition, c hifz.Completion) {
	fmt.Fprintf(w, "%s  %s  %s\n", rec.Date.Format(shared.DateLayout), rec.Attendance, rec.Condition)
	if rec.IsPresent() {
		fmt.Fprintf(w, "  new lines %d, mistakes %d (total %d)\n",
			rec.NewLesson.Lines, rec.NewLesson.Mistakes, rec.TotalMistakes)
	}
	if tr.Completed {
		fmt.Fprintf(w, "  completed %s, %s para overall\n", hifz.UnitLabel(tr.Unit), humanize.Ordinal(tr.TotalCompleted))
	}
	fmt.Fprintf(w, "  now on %s at %d%%, %.1f%% of the Quran\n",
		hifz.UnitLabel(status.CurrentUnit), status.CurrentUnitProgress, c.Percent)
}

func renderStatus(w io.Writer, r *query.ProgressReport) {
	s := r.Status
	fmt.Fprintf(w, "Learner     %s\n", s.LearnerID)
	fmt.Fprintf(w, "Enrolled    %s\n", humanTime(s.EnrolledAt, r.GeneratedAt))
	fmt.Fprintf(w, "Current     %s at %d%%\n", s.CurrentUnitLabel, s.CurrentUnitProgress)
	fmt.Fprintf(w, "Memorized   %.1f paras (%.1f%%), %s lines\n",
		r.Completion.DisplayUnits, r.Completion.Percent, humanize.Comma(int64(r.Completion.MemorizedLines)))
	fmt.Fprintf(w, "Remaining   %d paras, %s lines\n",
		r.Completion.RemainingUnits, humanize.Comma(int64(r.Completion.RemainingLines)))
	fmt.Fprintf(w, "Active days %s, %.1f lines/day, %.1f mistakes/day\n",
		humanize.Comma(int64(s.TotalActiveDays)), s.AverageLinesPerDay, s.AverageMistakesPerDay)
	fmt.Fprintf(w, "Updated     %s\n", humanTime(s.LastUpdated, r.GeneratedAt))
	for _, warn := range s.Warnings {
		fmt.Fprintf(w, "! %s\n", warn)
	}
}

func renderReport(w io.Writer, r *query.ProgressReport) {
	renderStatus(w, r)

	a := r.Analytics
	fmt.Fprintf(w, "\nLast %d days (%s to %s)\n", r.Window.Days, r.Window.From, r.Window.To)
	fmt.Fprintf(w, "  attendance  %.1f%% (%d present, %d absent, %d late, %d excused)\n",
		a.AttendanceRate, a.PresentDays, a.AbsentDays, a.LateDays, a.ExcusedDays)
	fmt.Fprintf(w, "  new lines   %s, %.1f per day, trend %s\n",
		humanize.Comma(int64(a.TotalNewLines)), a.AverageLinesPerDay, a.Trend)
	fmt.Fprintf(w, "  mistakes    %d, %.1f per 100 lines\n", a.TotalMistakes, a.MistakeRate)
	fmt.Fprintf(w, "  consistency %.0f/100\n", a.ConsistencyScore)

	var breakdown []string
	for _, c := range hifz.Conditions {
		if n := a.ConditionBreakdown[c]; n > 0 {
			breakdown = append(breakdown, fmt.Sprintf("%s %d", c, n))
		}
	}
	if len(breakdown) > 0 {
		fmt.Fprintf(w, "  conditions  %s\n", strings.Join(breakdown, ", "))
	}

	fmt.Fprintln(w)
	if r.Projection.Available && r.Projection.EstimatedDate != nil {
		fmt.Fprintf(w, "Projected completion %s (%s)\n",
			r.Projection.EstimatedDate.Format(shared.DateLayout), r.Projection.Description)
	} else {
		fmt.Fprintf(w, "Projected completion: %s\n", orDefault(r.Projection.Description, "not available"))
	}

	fmt.Fprintln(w)
	if r.AllClear != nil {
		fmt.Fprintf(w, "OK  %s\n", r.AllClear.Message)
	}
	for _, alert := range r.Alerts {
		fmt.Fprintf(w, "%-8s %s\n         %s\n", strings.ToUpper(string(alert.Severity)), alert.Message, alert.Recommendation)
	}

	if len(r.Recent) > 0 {
		fmt.Fprintln(w, "\nRecent days")
		for _, d := range r.Recent {
			fmt.Fprintf(w, "  %s  %-8s %-13s lines %-3d mistakes %d\n",
				d.Date, d.Attendance, d.Condition, d.NewLines, d.TotalMistakes)
		}
	}
}

// humanTime renders an RFC3339 timestamp relative to now, e.g. "3 days ago".
func humanTime(value string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%s (%s)", t.Format(shared.DateLayout), humanize.RelTime(t, now, "ago", "from now"))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
