package app

import (
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/config"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/command"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/eventhandler"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/application/query"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/logger"
)

// Handlers groups the application use cases.
type Handlers struct {
	Enroll       *command.EnrollLearnerHandler
	Record       *command.RecordDailyProgressHandler
	UpdateRecord *command.UpdateDailyRecordHandler
	Report       *query.GetProgressReportHandler
	Weekly       *query.GetWeeklyPerformanceHandler
}

// Handlers builds the command and query handlers on top of the container.
func (c *Container) Handlers(log *logger.Logger) *Handlers {
	deps := command.HandlerDeps{
		Store:          c.Store,
		Cache:          c.StatusCache,
		EventPublisher: c.EventBus,
		Logger:         log,
	}
	return &Handlers{
		Enroll:       command.NewEnrollLearnerHandler(deps),
		Record:       command.NewRecordDailyProgressHandler(deps),
		UpdateRecord: command.NewUpdateDailyRecordHandler(deps),
		Report:       query.NewGetProgressReportHandler(c.Store, c.StatusCache, c.Config.Analytics.WindowDays, log),
		Weekly:       query.NewGetWeeklyPerformanceHandler(c.Store),
	}
}

// RegisterNotifications subscribes the progress notifier to the event bus
// when notifications are enabled.
func (c *Container) RegisterNotifications(notifier eventhandler.Notifier) error {
	if !c.Config.Features.IsEnabled(config.FeatureNotifications) {
		return nil
	}
	if notifier == nil {
		notifier = eventhandler.NewLogNotifier(logger.FromSlog(c.Logger))
	}
	return eventhandler.NewOnProgressEventHandler(notifier, logger.FromSlog(c.Logger)).Register(c.EventBus)
}
