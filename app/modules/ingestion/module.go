// Package ingestion wires the consumer side of the match pipeline: the
// resolver, the upsert engine, the task store, and the watermill router that
// feeds them.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	ingestionservice "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/application"
	ingestiondb "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories"
	ingestionrouter "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/router"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/taskstore"
	ingestionmetrics "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/metrics"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared"
	"github.com/Lakeshore-Soccer-Club/matchsync/config"
)

// Module represents the ingestion module.
type Module struct {
	Service    ingestionservice.Service
	Tasks      taskstore.Store
	Router     *ingestionrouter.IngestionRouter
	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// NewModule assembles the ingestion pipeline and registers its handlers on
// the given router.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	repo ingestiondb.Repository,
	tasks taskstore.Store,
	bus shared.EventBus,
	router *message.Router,
	logger *slog.Logger,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) (*Module, error) {
	var metrics ingestionmetrics.IngestionMetrics = ingestionmetrics.NoOpMetrics{}
	if registry != nil {
		metrics = ingestionmetrics.NewPrometheusMetrics(registry)
	}

	teamPolicy := ingestionservice.FailClosedTeamPolicy()
	if cfg.Ingestion.AutoCreateTeams {
		logger.Warn("team auto-provisioning enabled; unknown team names will create rows")
		teamPolicy = ingestionservice.AutoCreateTeamPolicy(repo)
	}

	resolver := ingestionservice.NewResolver(repo, teamPolicy)
	service := ingestionservice.NewMatchIngestionService(repo, tasks, resolver, logger, metrics, tracer)

	ingRouter := ingestionrouter.NewIngestionRouter(logger, router, bus, cfg, tracer, registry)
	if err := ingRouter.Configure(ctx, service, metrics); err != nil {
		return nil, fmt.Errorf("failed to configure ingestion router: %w", err)
	}

	return &Module{
		Service: service,
		Tasks:   tasks,
		Router:  ingRouter,
		logger:  logger,
	}, nil
}

// Run keeps the module alive until the context is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.Info("ingestion module stopped")
}

// Close stops the module.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
