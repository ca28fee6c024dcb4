// Package observability wires worker metrics to a Prometheus exporter.
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the worker's instruments:
//   - Latency: job execution duration
//   - Traffic: jobs, queue polls, checkins
//   - Errors: unresolved jobs, checkin failures, event delivery failures
//   - Saturation: dispatcher drops (listener back-pressure)
type Metrics struct {
	meter metric.Meter

	JobDuration    metric.Float64Histogram
	JobsCompleted  metric.Int64Counter
	JobsUnresolved metric.Int64Counter

	QueuePolls      metric.Int64Counter
	CheckinsTotal   metric.Int64Counter
	CheckinFailures metric.Int64Counter

	EventDuration   metric.Float64Histogram
	EventsDelivered metric.Int64Counter
	EventsFailed    metric.Int64Counter
	EventsDropped   metric.Int64Counter
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
// The returned handler serves the scrape endpoint.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("topchef_worker")
	m := &Metrics{meter: meter}

	m.JobDuration, err = meter.Float64Histogram(
		"job_duration_seconds",
		metric.WithDescription("Job execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsCompleted, err = meter.Int64Counter(
		"jobs_completed_total",
		metric.WithDescription("Jobs processed through to COMPLETED"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsUnresolved, err = meter.Int64Counter(
		"jobs_unresolved_total",
		metric.WithDescription("Jobs abandoned mid-lifecycle after a processing error"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.QueuePolls, err = meter.Int64Counter(
		"queue_polls_total",
		metric.WithDescription("Queue probes, labelled by whether the queue was empty"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.CheckinsTotal, err = meter.Int64Counter(
		"checkins_total",
		metric.WithDescription("Checkin PATCH requests sent"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.CheckinFailures, err = meter.Int64Counter(
		"checkin_failures_total",
		metric.WithDescription("Checkin PATCH requests that failed"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.EventDuration, err = meter.Float64Histogram(
		"event_delivery_duration_seconds",
		metric.WithDescription("Lifecycle event delivery latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.EventsDelivered, err = meter.Int64Counter(
		"events_delivered_total",
		metric.WithDescription("Lifecycle events delivered to listeners"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.EventsFailed, err = meter.Int64Counter(
		"events_failed_total",
		metric.WithDescription("Lifecycle events that failed delivery after retries"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.EventsDropped, err = meter.Int64Counter(
		"events_dropped_total",
		metric.WithDescription("Lifecycle events dropped before delivery"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordJobCompleted records one completed job and its duration.
func (m *Metrics) RecordJobCompleted(ctx context.Context, serviceID string, durationSeconds float64) {
	attrs := metric.WithAttributes(attribute.String("service_id", serviceID))
	m.JobsCompleted.Add(ctx, 1, attrs)
	m.JobDuration.Record(ctx, durationSeconds, attrs)
}

// RecordJobUnresolved records a job abandoned after a processing error.
func (m *Metrics) RecordJobUnresolved(ctx context.Context, serviceID string) {
	m.JobsUnresolved.Add(ctx, 1, metric.WithAttributes(attribute.String("service_id", serviceID)))
}

// RecordQueuePoll records one queue probe.
func (m *Metrics) RecordQueuePoll(ctx context.Context, empty bool) {
	m.QueuePolls.Add(ctx, 1, metric.WithAttributes(attribute.Bool("empty", empty)))
}

// RecordCheckin records one checkin attempt.
func (m *Metrics) RecordCheckin(ctx context.Context, ok bool) {
	m.CheckinsTotal.Add(ctx, 1)
	if !ok {
		m.CheckinFailures.Add(ctx, 1)
	}
}

// RecordEventDelivered implements dispatcher.MetricsRecorder.
func (m *Metrics) RecordEventDelivered(ctx context.Context, durationSeconds float64) {
	m.EventsDelivered.Add(ctx, 1)
	m.EventDuration.Record(ctx, durationSeconds)
}

// RecordEventFailed implements dispatcher.MetricsRecorder.
func (m *Metrics) RecordEventFailed(ctx context.Context) {
	m.EventsFailed.Add(ctx, 1)
}

// RecordEventDropped implements dispatcher.MetricsRecorder.
func (m *Metrics) RecordEventDropped(ctx context.Context) {
	m.EventsDropped.Add(ctx, 1)
}
