// Package app wires the full pipeline: Postgres, JetStream, the watermill
// router with its ingestion workers, the producer API, and the metrics
// endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	appeventbus "github.com/Lakeshore-Soccer-Club/matchsync/app/eventbus"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/taskstore"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/producer"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/attr"
	"github.com/Lakeshore-Soccer-Club/matchsync/config"
	"github.com/Lakeshore-Soccer-Club/matchsync/db/bundb"
)

// App holds the running services.
type App struct {
	Config          *config.Config
	WatermillRouter *message.Router
	IngestionModule *ingestion.Module
	ProducerModule  *producer.Module
	Tasks           taskstore.Store

	logger        *slog.Logger
	db            *bundb.DBService
	bus           *appeventbus.Bus
	registry      *prometheus.Registry
	tracer        trace.Tracer
	httpServer    *http.Server
	metricsServer *http.Server
}

// Initialize builds every component and registers the message handlers. The
// router does not consume until Run is called.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	app.Config = cfg
	app.logger = logger
	app.tracer = otel.Tracer("matchsync")

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to initialize database service: %w", err)
	}
	app.db = db

	bus, err := appeventbus.New(ctx, cfg.NATS.URL, cfg.Ingestion, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event bus: %w", err)
	}
	app.bus = bus

	if err := bus.EnsureStream(ctx, appeventbus.StreamName, appeventbus.Subjects()...); err != nil {
		return fmt.Errorf("failed to provision stream: %w", err)
	}

	tasks, err := taskstore.New(ctx, bus.JetStream(), cfg.Ingestion.TaskTTL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize task store: %w", err)
	}
	app.Tasks = tasks

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}
	app.WatermillRouter = router

	ingestionModule, err := ingestion.NewModule(ctx, cfg, db.IngestionDB, tasks, bus, router, logger, app.tracer, app.registry)
	if err != nil {
		return fmt.Errorf("failed to initialize ingestion module: %w", err)
	}
	app.IngestionModule = ingestionModule

	app.ProducerModule = producer.NewModule(cfg, bus, tasks, logger)

	app.httpServer = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           app.ProducerModule.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Observability.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
		app.metricsServer = &http.Server{
			Addr:              cfg.Observability.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return nil
}

// Run starts the router and the HTTP servers and blocks until the context is
// canceled or a server fails.
func (app *App) Run(ctx context.Context) error {
	// Every component runs on this derived context so that one component
	// failing tears down the rest instead of leaving the process half-alive.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)

	go func() {
		if err := app.WatermillRouter.Run(runCtx); err != nil {
			errCh <- fmt.Errorf("watermill router stopped: %w", err)
		}
	}()

	select {
	case <-app.WatermillRouter.Running():
	case <-runCtx.Done():
		return runCtx.Err()
	}
	app.logger.Info("message router running",
		attr.Int("workers", app.Config.Ingestion.WorkerCount),
	)

	go func() {
		app.logger.Info("api server listening", attr.String("addr", app.Config.HTTP.Addr))
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server stopped: %w", err)
		}
	}()

	if app.metricsServer != nil {
		go func() {
			app.logger.Info("metrics server listening", attr.String("addr", app.metricsServer.Addr))
			if err := app.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server stopped: %w", err)
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go app.IngestionModule.Run(runCtx, &wg)
	go app.ProducerModule.Run(runCtx, &wg)

	var runErr error
	select {
	case <-runCtx.Done():
	case runErr = <-errCh:
		app.logger.Error("component failed", attr.Error(runErr))
		cancel()
	}

	wg.Wait()
	return runErr
}

// Close shuts everything down in reverse dependency order.
func (app *App) Close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if app.httpServer != nil {
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("error shutting down api server", attr.Error(err))
		}
	}
	if app.metricsServer != nil {
		if err := app.metricsServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("error shutting down metrics server", attr.Error(err))
		}
	}

	if app.IngestionModule != nil {
		if err := app.IngestionModule.Close(); err != nil {
			app.logger.Error("error closing ingestion module", attr.Error(err))
		}
	}
	if app.ProducerModule != nil {
		if err := app.ProducerModule.Close(); err != nil {
			app.logger.Error("error closing producer module", attr.Error(err))
		}
	}

	if app.WatermillRouter != nil {
		if err := app.WatermillRouter.Close(); err != nil {
			app.logger.Error("error closing router", attr.Error(err))
		}
	}

	if app.bus != nil {
		if err := app.bus.Close(); err != nil {
			app.logger.Error("error closing event bus", attr.Error(err))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", attr.Error(err))
		}
	}
}
