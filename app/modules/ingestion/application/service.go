package ingestionservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ingestiondb "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/taskstore"
	ingestionmetrics "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/metrics"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/attr"
)

// MatchIngestionService implements Service.
type MatchIngestionService struct {
	repo     ingestiondb.Repository
	tasks    taskstore.Store
	resolver *Resolver
	logger   *slog.Logger
	metrics  ingestionmetrics.IngestionMetrics
	tracer   trace.Tracer
}

var _ Service = (*MatchIngestionService)(nil)

// NewMatchIngestionService wires the ingestion service.
func NewMatchIngestionService(
	repo ingestiondb.Repository,
	tasks taskstore.Store,
	resolver *Resolver,
	logger *slog.Logger,
	metrics ingestionmetrics.IngestionMetrics,
	tracer trace.Tracer,
) *MatchIngestionService {
	return &MatchIngestionService{
		repo:     repo,
		tasks:    tasks,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc func(ctx context.Context) (IngestionResult, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery. Panics become errors so a poisoned message cannot take a worker
// down with it.
func (s *MatchIngestionService) withTelemetry(
	ctx context.Context,
	operationName string,
	taskID string,
	op operationFunc,
) (result IngestionResult, err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("task_id", taskID),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "panic recovered in service operation",
				attr.TaskID(taskID),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName)
			span.RecordError(err)
			result = IngestionResult{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "operation failed",
			attr.String("operation", operationName),
			attr.TaskID(taskID),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "operation returned business failure",
			attr.String("operation", operationName),
			attr.TaskID(taskID),
			attr.String("code", result.Failure.Code),
		)
	}

	if result.IsSuccess() {
		s.metrics.RecordOperationSuccess(ctx, operationName)
	}

	return result, nil
}
