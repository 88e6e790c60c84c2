// Package ingestionhandlers adapts watermill messages to the ingestion
// service. Returning an error from a handler nacks the message, which hands
// the retry decision to the broker's redelivery policy.
package ingestionhandlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	ingestionservice "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/application"
	ingestionmetrics "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/metrics"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/attr"
)

// TaskIDMetadataKey is the message metadata key carrying the task id issued
// at publish time.
const TaskIDMetadataKey = "task_id"

// IngestionHandlers handles match submission events.
type IngestionHandlers struct {
	service ingestionservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics ingestionmetrics.IngestionMetrics
}

var _ Handlers = (*IngestionHandlers)(nil)

// NewIngestionHandlers creates the handler set.
func NewIngestionHandlers(
	service ingestionservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics ingestionmetrics.IngestionMetrics,
) *IngestionHandlers {
	return &IngestionHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
		metrics: metrics,
	}
}

// wrap handles the tracing, logging, and metrics common to all handlers.
func (h *IngestionHandlers) wrap(
	handlerName string,
	handlerFunc func(ctx context.Context, msg *message.Message) ([]*message.Message, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx, span := h.tracer.Start(msg.Context(), handlerName)
		defer span.End()

		h.metrics.RecordHandlerAttempt(ctx, handlerName)

		startTime := time.Now()
		defer func() {
			h.metrics.RecordHandlerDuration(ctx, handlerName, time.Since(startTime))
		}()

		h.logger.InfoContext(ctx, handlerName+" triggered",
			attr.CorrelationIDFromMsg(msg),
			attr.String("message_id", msg.UUID),
		)

		result, err := handlerFunc(ctx, msg)
		if err != nil {
			h.logger.ErrorContext(ctx, "error in "+handlerName,
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			h.metrics.RecordHandlerFailure(ctx, handlerName)
			span.RecordError(err)
			return nil, err
		}

		h.metrics.RecordHandlerSuccess(ctx, handlerName)
		return result, nil
	}
}
