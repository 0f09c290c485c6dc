package cli

import (
	"context"
	"errors"
	"log/slog"

	"gastos/internal/amqp"
	"gastos/internal/backend"
	"gastos/internal/config"
	"gastos/internal/services"
)

// app holds the adapters and services shared by every command.
type app struct {
	cfg       *config.Config
	backend   *backend.Backend
	broker    *amqp.Client
	config    *services.ConfigService
	sync      *services.SyncService
	variables *services.VariableExpenseService
}

// openApp opens the backend and builds the services. withBroker connects
// to AMQP when a URL is configured; a failed connection is logged and the
// app runs without a broker.
func openApp(ctx context.Context, cfg *config.Config, withBroker bool) (*app, error) {
	b, err := backend.NewFactory(slog.Default()).Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, backend: b}
	var publisher services.Publisher
	if withBroker && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.WarnContext(ctx, "Failed to connect to AMQP, continuing without broker", "error", err)
		} else {
			a.broker = client
			publisher = client
		}
	}

	a.config = services.NewConfigService(b.Config, services.WithHistory(b.History))
	a.sync = services.NewSyncService(a.config, b.Remote, b.History, services.SyncOptions{
		FolderName: cfg.DriveFolderName,
		FileName:   cfg.DriveFileName,
		Timeout:    cfg.SyncTimeout,
	})
	a.variables = services.NewVariableExpenseService(b.Variables, publisher, a.sync)
	return a, nil
}

// processor retries pending variable expenses and runs the monthly sheet
// schedule.
func (a *app) processor() *services.Processor {
	return services.NewProcessor(
		a.variables,
		services.NewMonthlyScheduler(a.config, a.sync, a.backend.History),
		services.ProcessorConfig{
			PendingInterval:  a.cfg.PendingInterval,
			ScheduleInterval: a.cfg.ScheduleCheckInterval,
		},
	)
}

// publisher returns the broker as a Publisher, or nil without one.
func (a *app) publisher() services.Publisher {
	if a.broker == nil {
		return nil
	}
	return a.broker
}

func (a *app) Close() error {
	var errs []error
	if a.broker != nil {
		errs = append(errs, a.broker.Close())
	}
	errs = append(errs, a.backend.Close())
	return errors.Join(errs...)
}
