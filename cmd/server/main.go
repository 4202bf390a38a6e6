package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildgrid-io/buildgrid/modules"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/services"
	"github.com/buildgrid-io/buildgrid/pkg/application"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
	"github.com/buildgrid-io/buildgrid/pkg/configuration"
	"github.com/buildgrid-io/buildgrid/pkg/eventbus"
	"github.com/buildgrid-io/buildgrid/pkg/metrics"
	"github.com/buildgrid-io/buildgrid/pkg/middleware"
	"github.com/buildgrid-io/buildgrid/pkg/server"
)

func main() {
	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	for _, module := range modules.Load() {
		if err := module.Register(app); err != nil {
			logger.Fatalf("failed to register module %s: %v", module.Name(), err)
		}
	}
	if err := app.Migrations().Apply(ctx); err != nil {
		logger.Fatalf("failed to apply migrations: %v", err)
	}

	app.RegisterMiddleware(
		middleware.ProvidePool(pool),
		middleware.ProvideLogger(logger),
		middleware.ProvideIdentity(),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	go pruneSessions(composables.WithPool(ctx, pool), app, conf.Import.SessionRetention)

	if err := server.NewHTTPServer(app, logger).Start(conf.SocketAddress); err != nil {
		logger.Fatalf("http server stopped: %v", err)
	}
}

// pruneSessions trims the import-session audit table once an hour.
func pruneSessions(ctx context.Context, app application.Application, retention time.Duration) {
	wizard := app.Service(services.WizardService{}).(*services.WizardService)
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		deleted, err := wizard.PruneExpired(ctx, retention)
		if err != nil {
			app.Logger().WithError(err).Warn("pruning import sessions failed")
			continue
		}
		if deleted > 0 {
			app.Logger().Infof("pruned %d expired import sessions", deleted)
		}
	}
}
