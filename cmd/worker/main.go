// Command worker runs the tracker's background side: the weekly performance
// evaluation, progress notifications and the ops HTTP endpoints.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/config"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/app"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/scheduler"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/interface/http"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/timeutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	timeutil.SetLocation(cfg.App.Location)

	log := app.SetupLogger(cfg.Observability, os.Stdout)
	log.Info("starting Hifz Tracker Worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
		"driver", cfg.Database.Driver,
	)

	container, err := app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize infrastructure: %w", err)
	}
	defer func() {
		log.Info("closing infrastructure...")
		container.Close()
	}()

	if err := container.RegisterNotifications(nil); err != nil {
		return fmt.Errorf("failed to register notifications: %w", err)
	}

	handlers := container.Handlers(app.CommandLogger(log))

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger: log,
		Now:    timeutil.Now,
	})

	if cfg.Scheduler.Enabled && cfg.Features.IsEnabled(config.FeatureWeeklyEvaluation) {
		schedule, err := weeklySchedule(cfg.Scheduler)
		if err != nil {
			return fmt.Errorf("invalid weekly schedule: %w", err)
		}

		job := jobs.NewWeeklyPerformanceJob(
			container.Store.Statuses(),
			handlers.Weekly,
			container.EventBus,
			log,
			jobs.WeeklyPerformanceConfig{
				Concurrency: cfg.Scheduler.MaxConcurrentLearners,
				Timeout:     cfg.Scheduler.JobTimeout,
			},
		).WithClock(timeutil.Now)

		if err := sched.Register(job, schedule); err != nil {
			return fmt.Errorf("failed to register job: %w", err)
		}
	} else {
		log.Info("weekly evaluation disabled")
	}

	sched.OnJobComplete(func(result scheduler.JobResult) {
		if result.Error != nil {
			log.Error("job failed", "job", result.JobName, "error", result.Error)
		}
	})

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		log.Info("stopping scheduler...")
		_ = sched.Stop()
	}()

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		Health: container.HealthChecker(),
		Jobs:   sched,
		Logger: log,
	})
	serverErr := server.StartAsync()

	log.Info("Hifz Tracker Worker is running",
		"http", serverCfg.Address(),
		"jobs", len(sched.ListJobs()),
	)

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

func weeklySchedule(cfg config.SchedulerConfig) (scheduler.Schedule, error) {
	if cfg.WeeklySchedule != "" {
		return scheduler.ParseSchedule(cfg.WeeklySchedule)
	}
	return scheduler.NewWeeklySchedule(cfg.WeeklyEvaluationDay, cfg.WeeklyEvaluationHour)
}
