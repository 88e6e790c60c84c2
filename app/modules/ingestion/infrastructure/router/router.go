// Package ingestionrouter configures the watermill router that drives the
// ingestion worker pool. Concurrency comes from the subscriber's worker
// count; the router adds middleware, registers handlers, and publishes
// handler output.
package ingestionrouter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	appeventbus "github.com/Lakeshore-Soccer-Club/matchsync/app/eventbus"
	ingestionservice "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/application"
	ingestionhandlers "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/handlers"
	ingestionmetrics "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/metrics"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/attr"
	"github.com/Lakeshore-Soccer-Club/matchsync/config"
)

// IngestionRouter owns handler registration for the ingestion module.
type IngestionRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     shared.EventBus
	publisher      shared.EventBus
	config         *config.Config
	tracer         trace.Tracer
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewIngestionRouter builds the router wrapper. A nil registry disables
// watermill's prometheus middleware (tests).
func NewIngestionRouter(
	logger *slog.Logger,
	router *message.Router,
	bus shared.EventBus,
	cfg *config.Config,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) *IngestionRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(registry, "matchsync", "router")
		metricsBuilder = &builder
	}
	return &IngestionRouter{
		logger:         logger,
		Router:         router,
		subscriber:     bus,
		publisher:      bus,
		config:         cfg,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure adds middleware and registers the submission handler.
//
// Retry/backoff is deliberately absent: an unacked message is redelivered by
// JetStream after the ack wait, and that is the pipeline's only retry
// mechanism.
func (r *IngestionRouter) Configure(
	routerCtx context.Context,
	service ingestionservice.Service,
	ingMetrics ingestionmetrics.IngestionMetrics,
) error {
	if r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Timeout(r.config.Ingestion.MessageTimeout),
	)

	handlers := ingestionhandlers.NewIngestionHandlers(service, r.logger, r.tracer, ingMetrics)
	return r.RegisterHandlers(routerCtx, handlers)
}

// RegisterHandlers binds topics to handlers. Handler output is published
// inside the handler so that a publish failure also nacks the inbound
// message.
func (r *IngestionRouter) RegisterHandlers(ctx context.Context, handlers ingestionhandlers.Handlers) error {
	eventsToHandlers := map[string]message.HandlerFunc{
		appeventbus.MatchSubmittedTopic: handlers.HandleMatchSubmitted,
	}

	for topic, handlerFunc := range eventsToHandlers {
		handlerName := fmt.Sprintf("ingestion.%s", topic)
		r.Router.AddNoPublisherHandler(
			handlerName,
			topic,
			r.subscriber,
			func(msg *message.Message) error {
				messages, err := handlerFunc(msg)
				if err != nil {
					return err
				}
				for _, m := range messages {
					r.logger.InfoContext(ctx, "publishing message",
						attr.String("topic", appeventbus.MatchIngestedTopic),
						attr.String("handler", handlerName),
						attr.CorrelationIDFromMsg(m),
					)
					if err := r.publisher.Publish(appeventbus.MatchIngestedTopic, m); err != nil {
						return fmt.Errorf("failed to publish to %s: %w", appeventbus.MatchIngestedTopic, err)
					}
				}
				return nil
			},
		)
	}
	return nil
}

func (r *IngestionRouter) Close() error {
	return r.Router.Close()
}
