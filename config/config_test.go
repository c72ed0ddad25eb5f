package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HIFZ_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "hifz-tracker", cfg.App.Name)
	assert.Equal(t, "Asia/Karachi", cfg.App.Timezone)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "hifz.db", cfg.Database.SQLitePath)
	assert.True(t, cfg.Redis.Disabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, time.Sunday, cfg.Scheduler.WeeklyEvaluationDay)
	assert.Equal(t, 6, cfg.Scheduler.WeeklyEvaluationHour)
	assert.Equal(t, 30, cfg.Analytics.WindowDays)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
	assert.True(t, cfg.Features.IsEnabled(FeatureWeeklyEvaluation))
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("HIFZ_CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "postgres://hifz@localhost/hifz")
	t.Setenv("ANALYTICS_WINDOW_DAYS", "14")
	t.Setenv("SCHEDULER_WEEKLY_DAY", "fri")
	t.Setenv("SCHEDULER_WEEKLY_HOUR", "18")
	t.Setenv("SCHEDULER_WEEKLY_SCHEDULE", "@every 24h")
	t.Setenv("FEATURE_CACHE_STATUS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 14, cfg.Analytics.WindowDays)
	assert.Equal(t, time.Friday, cfg.Scheduler.WeeklyEvaluationDay)
	assert.Equal(t, 18, cfg.Scheduler.WeeklyEvaluationHour)
	assert.Equal(t, "@every 24h", cfg.Scheduler.WeeklySchedule)
	assert.False(t, cfg.Features.IsEnabled(FeatureStatusCache))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hifz.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
timezone = "UTC"

[database]
sqlite_path = "/var/lib/hifz/hifz.db"

[redis]
host = "cache"
disabled = false

[scheduler]
weekly_day = "monday"
weekly_hour = 0

[analytics]
window_days = 7

[features]
"events.remote" = false
`), 0o600))
	t.Setenv("HIFZ_CONFIG_FILE", path)
	t.Setenv("ANALYTICS_WINDOW_DAYS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.UTC, cfg.App.Location)
	assert.Equal(t, "/var/lib/hifz/hifz.db", cfg.Database.SQLitePath)
	assert.False(t, cfg.Redis.Disabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, time.Monday, cfg.Scheduler.WeeklyEvaluationDay)
	assert.Equal(t, 0, cfg.Scheduler.WeeklyEvaluationHour)
	assert.Equal(t, 7, cfg.Analytics.WindowDays)
	assert.False(t, cfg.Features.IsEnabled(FeatureRemoteEvents))
	assert.True(t, cfg.Features.IsEnabled(FeatureStatusCache))
}

func TestLoadFile_Errors(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, cfg)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[database]\ndriver = \"sqlite\"\nsurprise = 1\n"), 0o600))
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, "unknown config keys")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad driver", map[string]string{"DATABASE_DRIVER": "mysql"}, "DATABASE_DRIVER"},
		{"postgres without url", map[string]string{"DATABASE_DRIVER": "postgres"}, "DATABASE_URL"},
		{"production on sqlite", map[string]string{"APP_ENV": "production"}, "production requires"},
		{"bad hour", map[string]string{"SCHEDULER_WEEKLY_HOUR": "24"}, "SCHEDULER_WEEKLY_HOUR"},
		{"bad window", map[string]string{"ANALYTICS_WINDOW_DAYS": "-1"}, "ANALYTICS_WINDOW_DAYS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HIFZ_CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_InvalidWeekdayAndTimezone(t *testing.T) {
	t.Setenv("HIFZ_CONFIG_FILE", "")
	t.Setenv("SCHEDULER_WEEKLY_DAY", "someday")
	_, err := Load()
	assert.ErrorContains(t, err, "invalid weekday")

	t.Setenv("SCHEDULER_WEEKLY_DAY", "")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown timezone")
}

func TestFeatureFlags(t *testing.T) {
	ff := LoadFeatureFlags(map[string]bool{"cache.status": false, "unknown.flag": true})

	assert.False(t, ff.IsEnabled(FeatureStatusCache))
	assert.False(t, ff.IsEnabled("unknown.flag"))

	require.NoError(t, ff.SetEnabled(FeatureStatusCache, true))
	assert.True(t, ff.IsEnabled(FeatureStatusCache))
	assert.ErrorIs(t, ff.SetEnabled("unknown.flag", true), ErrFeatureNotFound)

	all := ff.GetAllFeatures()
	require.Len(t, all, 4)
	assert.Equal(t, FeatureStatusCache, all[0].Name)
	assert.Equal(t, "FEATURE_JOBS_WEEKLY_EVALUATION", envKey(FeatureWeeklyEvaluation))
}
