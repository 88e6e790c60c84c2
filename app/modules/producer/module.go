// Package producer wires the submission side of the match pipeline: the
// adapter that validates and publishes observations, and the HTTP API in
// front of it.
package producer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/taskstore"
	produceradapter "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/producer/adapter"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/producer/httpapi"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared"
	"github.com/Lakeshore-Soccer-Club/matchsync/config"
)

// Module represents the producer module.
type Module struct {
	Adapter    *produceradapter.Adapter
	API        *httpapi.Server
	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// NewModule assembles the producer adapter and its HTTP server.
func NewModule(
	cfg *config.Config,
	bus shared.EventBus,
	tasks taskstore.Store,
	logger *slog.Logger,
) *Module {
	adapter := produceradapter.NewAdapter(bus, tasks, logger, cfg.HTTP.SubmitRateLimit, cfg.HTTP.SubmitRateBurst)
	api := httpapi.NewServer(adapter, tasks, logger)

	return &Module{
		Adapter: adapter,
		API:     api,
		logger:  logger,
	}
}

// Routes returns the HTTP routes served by this module.
func (m *Module) Routes() chi.Router {
	return m.API.Routes()
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
	m.logger.Info("producer module stopped")
}

// Close stops the module.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
