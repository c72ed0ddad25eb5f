package app

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/config"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/command"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/eventhandler"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/logger"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []eventhandler.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg eventhandler.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadWithFile(config.FileConfig{})
	require.NoError(t, err)
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.SQLitePath = sqlite.MemoryPath
	cfg.Redis.Disabled = true
	return cfg
}

func buildContainer(t *testing.T) *Container {
	t.Helper()
	var out bytes.Buffer
	c, err := Build(context.Background(), testConfig(t), SetupLogger(config.ObservabilityConfig{}, &out))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestBuild_SQLiteWithoutRedis(t *testing.T) {
	c := buildContainer(t)

	assert.Nil(t, c.Redis)
	assert.Nil(t, c.StatusCache)
	assert.Nil(t, c.Postgres)
	require.NotNil(t, c.EventBus)

	status := c.HealthChecker().Check(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)

	migrations, err := c.Migrations(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	for _, m := range migrations {
		assert.True(t, m.Applied, m.Name)
	}
}

func TestHandlers_EnrollAndRecordNotifies(t *testing.T) {
	c := buildContainer(t)
	notifier := &recordingNotifier{}
	require.NoError(t, c.RegisterNotifications(notifier))

	h := c.Handlers(logger.Discard())
	ctx := context.Background()

	enrolled, err := h.Enroll.Handle(ctx, command.EnrollLearnerCommand{StartingUnit: 1})
	require.NoError(t, err)

	lines := 20
	progress := 100
	_, err = h.Record.Handle(ctx, command.RecordDailyProgressCommand{
		LearnerID: enrolled.LearnerID.String(),
		DailyEntry: command.DailyEntry{
			Attendance:          "present",
			NewLines:            &lines,
			CurrentUnitProgress: &progress,
		},
	})
	require.NoError(t, err)

	// Completing para 1 emits a unit completion event handled asynchronously.
	assert.Eventually(t, func() bool { return notifier.count() > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRegisterNotifications_Disabled(t *testing.T) {
	c := buildContainer(t)
	require.NoError(t, c.Config.Features.SetEnabled(config.FeatureNotifications, false))

	notifier := &recordingNotifier{}
	require.NoError(t, c.RegisterNotifications(notifier))
	assert.Zero(t, notifier.count())
}

func TestSetupLogger_SharedWithCommands(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := SetupLogger(config.ObservabilityConfig{LogLevel: "warning", LogFormat: "text"}, &buf)

	log.Info("infra info")
	CommandLogger(log).Warn("command warn", logger.LearnerID("l-1"))

	out := buf.String()
	assert.NotContains(t, out, "infra info")
	assert.Contains(t, out, "command warn")
	assert.Contains(t, out, "learner_id=l-1")
	assert.Same(t, log, slog.Default())
}
