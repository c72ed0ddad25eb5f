package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/command"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/query"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/scheduler/jobs"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/timeutil"
)

// --- migrate ---

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and print their state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Build already migrated; this reports the result.
			migrations, err := c.container.Migrations(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range migrations {
				state := "pending"
				if m.Applied {
					state = "applied " + m.AppliedAt
				}
				fmt.Fprintf(c.out, "%03d  %-32s %s\n", m.Version, m.Name, state)
			}
			return nil
		},
	}
}

// --- enroll ---

func newEnrollCmd(c *cli) *cobra.Command {
	var (
		id        string
		memorized string
		start     int
	)

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Enroll a learner",
		Long: `Enroll a learner and create the initial status.

Examples:
  hifz enroll
  hifz enroll --memorized 1,2,30 --start 3
  hifz enroll --id 6f1c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := parseUnits(memorized)
			if err != nil {
				return err
			}

			res, err := c.handlers.Enroll.Handle(cmd.Context(), command.EnrollLearnerCommand{
				LearnerID:        id,
				AlreadyMemorized: units,
				StartingUnit:     start,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "Enrolled %s on %s\n", res.LearnerID, hifz.UnitLabel(res.Status.CurrentUnit))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "learner UUID (generated when empty)")
	cmd.Flags().StringVar(&memorized, "memorized", "", "comma-separated paras memorized before enrollment")
	cmd.Flags().IntVar(&start, "start", 0, "para to start on (default 1)")
	return cmd
}

// --- record / update-record ---

// entryFlags binds the daily entry fields to command flags.
type entryFlags struct {
	date           string
	attendance     string
	lines          int
	mistakes       int
	recentLabel    string
	recentMistakes int
	olderLabel     string
	olderMistakes  int
	unit           int
	progress       int
	notes          string
}

func (f *entryFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.date, "date", "", "record date YYYY-MM-DD (default: today)")
	fs.StringVar(&f.attendance, "attendance", "present", "PRESENT, ABSENT, LATE or EXCUSED")
	fs.IntVar(&f.lines, "lines", 0, "new lines memorized")
	fs.IntVar(&f.mistakes, "mistakes", 0, "mistakes in the new lesson")
	fs.StringVar(&f.recentLabel, "recent", "", "recent revision label (sabqi)")
	fs.IntVar(&f.recentMistakes, "recent-mistakes", 0, "mistakes in recent revision")
	fs.StringVar(&f.olderLabel, "older", "", "older revision label (manzil)")
	fs.IntVar(&f.olderMistakes, "older-mistakes", 0, "mistakes in older revision")
	fs.IntVar(&f.unit, "unit", 0, "para being memorized (default: current)")
	fs.IntVar(&f.progress, "progress", 0, "progress of the current para, 0-100")
	fs.StringVar(&f.notes, "notes", "", "free text notes")
}

// entry converts flags to a DailyEntry. Pointer fields are set only when the
// flag was given, so omitted values keep their "not provided" meaning.
func (f *entryFlags) entry(fs *pflag.FlagSet) command.DailyEntry {
	e := command.DailyEntry{
		Attendance:     f.attendance,
		NewMistakes:    f.mistakes,
		RecentLabel:    f.recentLabel,
		RecentMistakes: f.recentMistakes,
		OlderLabel:     f.olderLabel,
		OlderMistakes:  f.olderMistakes,
		CurrentUnit:    f.unit,
		Notes:          f.notes,
	}
	if fs.Changed("lines") {
		lines := f.lines
		e.NewLines = &lines
	}
	if fs.Changed("progress") {
		progress := f.progress
		e.CurrentUnitProgress = &progress
	}
	return e
}

func (f *entryFlags) parseDate() (time.Time, error) {
	return parseDate(f.date)
}

func newRecordCmd(c *cli) *cobra.Command {
	flags := &entryFlags{}

	cmd := &cobra.Command{
		Use:   "record <learner-id>",
		Short: "Record one day of recitation",
		Long: `Record one day of recitation.

Examples:
  hifz record 6f1c... --lines 12 --mistakes 1 --recent "Para 4" --older "Para 1"
  hifz record 6f1c... --attendance absent --date 2024-05-06
  hifz record 6f1c... --lines 15 --progress 100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := flags.parseDate()
			if err != nil {
				return err
			}

			res, err := c.handlers.Record.Handle(cmd.Context(), command.RecordDailyProgressCommand{
				LearnerID:  args[0],
				Date:       date,
				DailyEntry: flags.entry(cmd.Flags()),
			})
			if err != nil {
				return err
			}

			renderIngestion(c.out, res.Record, res.Status, res.Transition, res.Completion)
			return nil
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

func newUpdateRecordCmd(c *cli) *cobra.Command {
	flags := &entryFlags{}

	cmd := &cobra.Command{
		Use:   "update-record <learner-id>",
		Short: "Correct a stored day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.date == "" {
				return fmt.Errorf("--date is required")
			}
			date, err := flags.parseDate()
			if err != nil {
				return err
			}

			res, err := c.handlers.UpdateRecord.Handle(cmd.Context(), command.UpdateDailyRecordCommand{
				LearnerID:  args[0],
				Date:       date,
				DailyEntry: flags.entry(cmd.Flags()),
			})
			if err != nil {
				return err
			}

			renderIngestion(c.out, res.Record, res.Status, res.Transition, res.Completion)
			return nil
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// --- status / report ---

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status <learner-id>",
		Short: "Show the learner status and completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.handlers.Report.Handle(cmd.Context(), query.GetProgressReportQuery{LearnerID: args[0]})
			if err != nil {
				return err
			}
			renderStatus(c.out, report)
			return nil
		},
	}
}

func newReportCmd(c *cli) *cobra.Command {
	var (
		window int
		asOf   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "report <learner-id>",
		Short: "Print the progress report",
		Long: `Print the progress report: status, completion, window analytics,
projected completion date and alerts.

Examples:
  hifz report 6f1c...
  hifz report 6f1c... --window 7 --format json
  hifz report 6f1c... --as-of 2024-05-31 --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseDate(asOf)
			if err != nil {
				return err
			}

			report, err := c.handlers.Report.Handle(cmd.Context(), query.GetProgressReportQuery{
				LearnerID:  args[0],
				WindowDays: window,
				AsOf:       at,
			})
			if err != nil {
				return err
			}
			return writeReport(c.out, report, format)
		},
	}

	cmd.Flags().IntVar(&window, "window", 0, "analytics window in days (default from config)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "last day of the window YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text, json or yaml")
	return cmd
}

// --- weekly ---

func newWeeklyCmd(c *cli) *cobra.Command {
	var (
		asOf string
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "weekly [learner-id]",
		Short: "Evaluate the last completed week",
		Long: `Evaluate the last completed week (Sunday to Saturday).

With --all every enrolled learner is evaluated and a poor performance
event is published for each flagged learner, as the worker does weekly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseDate(asOf)
			if err != nil {
				return err
			}
			if at.IsZero() {
				at = timeutil.Now()
			}

			if all {
				return c.runWeeklyJob(cmd.Context(), at)
			}
			if len(args) == 0 {
				return fmt.Errorf("learner id is required without --all")
			}

			eval, err := c.handlers.Weekly.Handle(cmd.Context(), query.GetWeeklyPerformanceQuery{
				LearnerID: args[0],
				AsOf:      at,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, eval.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate the week before this date YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&all, "all", false, "evaluate every enrolled learner and publish events")
	return cmd
}

func (c *cli) runWeeklyJob(ctx context.Context, at time.Time) error {
	job := jobs.NewWeeklyPerformanceJob(
		c.container.Store.Statuses(),
		c.handlers.Weekly,
		c.container.EventBus,
		c.container.Logger,
		jobs.WeeklyPerformanceConfig{
			Concurrency: c.cfg.Scheduler.MaxConcurrentLearners,
			Timeout:     c.cfg.Scheduler.JobTimeout,
		},
	).WithClock(func() time.Time { return at })

	if err := job.Run(ctx); err != nil {
		return err
	}
	if stats := job.LastStats(); stats != nil {
		fmt.Fprintf(c.out, "week %s..%s: %d evaluated, %d flagged, %d failed\n",
			stats.Week.From.Format(shared.DateLayout), stats.Week.To.Format(shared.DateLayout),
			stats.Evaluated, len(stats.Flagged), stats.Failed)
		for _, id := range stats.Flagged {
			fmt.Fprintf(c.out, "  flagged %s\n", id)
		}
	}
	return nil
}

// --- helpers ---

// parseUnits parses "1, 2,30" into para numbers. Range checks are left to
// the command validation.
func parseUnits(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	units := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid para %q", p)
		}
		units = append(units, n)
	}
	return units, nil
}

// parseDate parses YYYY-MM-DD in the institution timezone. Empty means zero.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := timeutil.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}
