package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"vahanpulse/internal/config"
	"vahanpulse/internal/shared/testutil"
)

func TestInitializeOTel_Prometheus(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.Default().Telemetry
	cfg.EnableTracing = false

	providers, err := InitializeOTel(cfg, "test", logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RowsIn.Add(context.Background(), 5)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), "pipeline_rows_in_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestInitializeOTel_Disabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.TelemetryConfig{ServiceName: "vahanpulse"}

	providers, err := InitializeOTel(cfg, "test", logger)
	require.NoError(t, err)

	assert.Nil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.MeterProvider)

	_, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()

	_, err = NewPipelineMetrics(providers.Meter)
	assert.NoError(t, err)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.TelemetryConfig{EnableMetrics: true, MetricExporter: "statsd"}

	_, err := InitializeOTel(cfg, "test", logger)
	assert.Error(t, err)
}

func TestPipelineMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewPipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordDropped(ctx, "invalid_date", 3)
	metrics.RecordDropped(ctx, "irrelevant", 0)
	metrics.RecordStage(ctx, "normalize", 20*time.Millisecond, nil)
	metrics.RecordStage(ctx, "fetch", time.Second, errors.New("boom"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	dropped, ok := byName["pipeline_rows_dropped_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, dropped.DataPoints, 1)
	assert.Equal(t, int64(3), dropped.DataPoints[0].Value)

	durations, ok := byName["pipeline_stage_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, durations.DataPoints, 2)
}
