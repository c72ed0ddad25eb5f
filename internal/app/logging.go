package app

import (
	"io"
	"log/slog"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/config"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/interface/http/handlers"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/logger"
)

// SetupLogger builds the process logger from the observability settings
// and installs it as the slog default.
func SetupLogger(cfg config.ObservabilityConfig, out io.Writer) *slog.Logger {
	format := logger.FormatJSON
	if cfg.LogFormat == "text" {
		format = logger.FormatText
	}

	log := slog.New(logger.NewHandler(logger.Options{
		Output: out,
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: format,
	}))
	slog.SetDefault(log)
	return log
}

// CommandLogger gives the application handlers the process handler.
func CommandLogger(base *slog.Logger) *logger.Logger {
	return logger.FromSlog(base)
}

// HealthChecker registers the database as a critical check and Redis, when
// connected, as an optional one.
func (c *Container) HealthChecker() *handlers.CompositeHealthChecker {
	checker := handlers.NewCompositeHealthChecker(c.Config.App.Version)
	checker.AddCheck("database", handlers.PingCheck(c.Store))
	if c.Redis != nil {
		checker.AddOptionalCheck("redis", handlers.PingCheck(c.Redis))
	}
	return checker
}
