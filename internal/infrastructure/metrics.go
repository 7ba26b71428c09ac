package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics instruments pipeline runs.
type PipelineMetrics struct {
	RowsIn        metric.Int64Counter
	RowsDropped   metric.Int64Counter
	RowsOut       metric.Int64Counter
	StageDuration metric.Float64Histogram
	Runs          metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments from meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	rowsIn, err := meter.Int64Counter(
		"pipeline_rows_in_total",
		metric.WithDescription("Raw rows read by the pipeline"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"pipeline_rows_dropped_total",
		metric.WithDescription("Raw rows dropped during normalization, by reason"),
	)
	if err != nil {
		return nil, err
	}

	rowsOut, err := meter.Int64Counter(
		"pipeline_rows_out_total",
		metric.WithDescription("Canonical rows produced by the pipeline"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"pipeline_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Pipeline runs, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RowsIn:        rowsIn,
		RowsDropped:   rowsDropped,
		RowsOut:       rowsOut,
		StageDuration: stageDuration,
		Runs:          runs,
	}, nil
}

// RecordStage records the duration of one stage.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordDropped adds n dropped rows for reason. Zero counts are skipped.
func (m *PipelineMetrics) RecordDropped(ctx context.Context, reason string, n int) {
	if n <= 0 {
		return
	}
	m.RowsDropped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
}

// HTTPMetrics instruments the HTTP surface.
type HTTPMetrics struct {
	Requests metric.Int64Counter
	Duration metric.Float64Histogram
}

// NewHTTPMetrics creates the HTTP instruments from meter.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requests, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{Requests: requests, Duration: duration}, nil
}

// Record counts one request against its route pattern.
func (m *HTTPMetrics) Record(ctx context.Context, method, route string, status int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.Requests.Add(ctx, 1, attrs)
	m.Duration.Record(ctx, d.Seconds(), attrs)
}
