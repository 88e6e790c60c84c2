// Package ingestionmetrics defines the metrics surface of the ingestion
// module with a Prometheus-backed implementation and a no-op for tests.
package ingestionmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IngestionMetrics records pipeline activity.
type IngestionMetrics interface {
	RecordHandlerAttempt(ctx context.Context, handlerName string)
	RecordHandlerSuccess(ctx context.Context, handlerName string)
	RecordHandlerFailure(ctx context.Context, handlerName string)
	RecordHandlerDuration(ctx context.Context, handlerName string, duration time.Duration)

	RecordOperationAttempt(ctx context.Context, operation string)
	RecordOperationSuccess(ctx context.Context, operation string)
	RecordOperationFailure(ctx context.Context, operation string)
	RecordOperationDuration(ctx context.Context, operation string, duration time.Duration)

	RecordIngestAction(ctx context.Context, action string)
	RecordResolutionFailure(ctx context.Context, code string)
}

// PrometheusMetrics implements IngestionMetrics on a prometheus registry.
type PrometheusMetrics struct {
	handlerAttempts    *prometheus.CounterVec
	handlerSuccesses   *prometheus.CounterVec
	handlerFailures    *prometheus.CounterVec
	handlerDuration    *prometheus.HistogramVec
	opAttempts         *prometheus.CounterVec
	opSuccesses        *prometheus.CounterVec
	opFailures         *prometheus.CounterVec
	opDuration         *prometheus.HistogramVec
	ingestActions      *prometheus.CounterVec
	resolutionFailures *prometheus.CounterVec
}

var _ IngestionMetrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the ingestion collectors on the given
// registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		handlerAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsync", Subsystem: "ingestion",
			Name: "handler_attempts_total", Help: "Handler invocations.",
		}, []string{"handler"}),
		handlerSuccesses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsync", Subsystem: "ingestion",
			Name: "handler_successes_total", Help: "Handler completions without error.",
		}, []string{"handler"}),
		handlerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsync", Subsystem: "ingestion",
			Name: "handler_failures_total", Help: "Handler errors (message nacked).",
		}, []string{"handler"}),
		handlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matchsync", Subsystem: "ingestion",
			Name: "handler_duration_seconds", Help: "Handler processing time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler"}),
		opAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsync", Subsystem: "ingestion",
			Name: "operation_attempts_total", Help: "Service operation attempts.",
		}, []string{"operation"}),
		opSuccesses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsync", Subsystem: "ingestion",
			Name: "operation_successes_total", Help: "Service operation successes.",
		}, []string{"operation"}),
		opFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsync", Subsystem: "ingestion",
			Name: "operation_failures_total", Help: "Service operation failures.",
		}, []string{"operation"}),
		opDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matchsync", Subsystem: "ingestion",
			Name: "operation_duration_seconds", Help: "Service operation time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		ingestActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsync", Subsystem: "ingestion",
			Name: "ingest_actions_total", Help: "Applied match actions by type.",
		}, []string{"action"}),
		resolutionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchsync", Subsystem: "ingestion",
			Name: "resolution_failures_total", Help: "Entity resolution failures by code.",
		}, []string{"code"}),
	}
}

func (m *PrometheusMetrics) RecordHandlerAttempt(_ context.Context, handlerName string) {
	m.handlerAttempts.WithLabelValues(handlerName).Inc()
}

func (m *PrometheusMetrics) RecordHandlerSuccess(_ context.Context, handlerName string) {
	m.handlerSuccesses.WithLabelValues(handlerName).Inc()
}

func (m *PrometheusMetrics) RecordHandlerFailure(_ context.Context, handlerName string) {
	m.handlerFailures.WithLabelValues(handlerName).Inc()
}

func (m *PrometheusMetrics) RecordHandlerDuration(_ context.Context, handlerName string, duration time.Duration) {
	m.handlerDuration.WithLabelValues(handlerName).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation string) {
	m.opAttempts.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation string) {
	m.opSuccesses.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation string) {
	m.opFailures.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation string, duration time.Duration) {
	m.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordIngestAction(_ context.Context, action string) {
	m.ingestActions.WithLabelValues(action).Inc()
}

func (m *PrometheusMetrics) RecordResolutionFailure(_ context.Context, code string) {
	m.resolutionFailures.WithLabelValues(code).Inc()
}

// NoOpMetrics discards everything. Used in tests.
type NoOpMetrics struct{}

var _ IngestionMetrics = (*NoOpMetrics)(nil)

func (NoOpMetrics) RecordHandlerAttempt(context.Context, string)                   {}
func (NoOpMetrics) RecordHandlerSuccess(context.Context, string)                   {}
func (NoOpMetrics) RecordHandlerFailure(context.Context, string)                   {}
func (NoOpMetrics) RecordHandlerDuration(context.Context, string, time.Duration)   {}
func (NoOpMetrics) RecordOperationAttempt(context.Context, string)                 {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string)                 {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string)                 {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOpMetrics) RecordIngestAction(context.Context, string)                     {}
func (NoOpMetrics) RecordResolutionFailure(context.Context, string)                {}
