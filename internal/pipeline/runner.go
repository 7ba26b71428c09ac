package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"vahanpulse/internal/dataprocessing"
	"vahanpulse/internal/infrastructure"
	"vahanpulse/internal/sources"
	"vahanpulse/pkg/contracts/domain"
)

// Fetcher yields the raw table of a run.
type Fetcher interface {
	Load(ctx context.Context) (*sources.LoadResult, error)
}

// Persister writes the canonical table.
type Persister interface {
	Save(ctx context.Context, path string, records []domain.Registration) error
}

// EventSink receives stage events. Publish must not block.
type EventSink interface {
	Publish(event domain.PipelineEvent)
}

// RunResult describes a finished run.
type RunResult struct {
	RunID      string                `json:"run_id"`
	Source     string                `json:"source"`
	FellBack   bool                  `json:"fell_back"`
	Records    []domain.Registration `json:"-"`
	Report     dataprocessing.Report `json:"report"`
	OutputPath string                `json:"output_path,omitempty"`
	StartedAt  time.Time             `json:"started_at"`
	Duration   time.Duration         `json:"duration"`
}

// Runner executes pipeline runs. A Runner is safe for concurrent use when
// its collaborators are.
type Runner struct {
	fetcher    Fetcher
	normalizer *dataprocessing.Normalizer
	persister  Persister
	outputPath string
	sink       EventSink
	tracer     trace.Tracer
	metrics    *infrastructure.PipelineMetrics
	logger     *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithPersister saves every run's output to path.
func WithPersister(p Persister, path string) Option {
	return func(r *Runner) {
		r.persister = p
		r.outputPath = path
	}
}

// WithEventSink sets the stage event receiver.
func WithEventSink(sink EventSink) Option {
	return func(r *Runner) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// WithTracer sets the tracer stage spans are started on.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithMetrics sets the pipeline instruments.
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner. Without WithPersister the persist stage is skipped.
func NewRunner(fetcher Fetcher, normalizer *dataprocessing.Normalizer, opts ...Option) *Runner {
	if normalizer == nil {
		normalizer = dataprocessing.NewNormalizer()
	}
	r := &Runner{
		fetcher:    fetcher,
		normalizer: normalizer,
		sink:       NopSink{},
		tracer:     noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "pipeline"))
	return r
}

// Run executes one pipeline run.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	result := &RunResult{
		RunID:     infrastructure.GenerateTraceID(),
		StartedAt: time.Now(),
	}
	logger := r.logger.With(slog.String("run_id", result.RunID))

	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("pipeline.run_id", result.RunID)),
	)
	defer span.End()

	logger.InfoContext(ctx, "pipeline run started")

	err := r.run(ctx, result)
	result.Duration = time.Since(result.StartedAt)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", result.Duration))
	} else {
		logger.InfoContext(ctx, "pipeline run completed",
			slog.String("source", result.Source),
			slog.Bool("fell_back", result.FellBack),
			slog.Int("records", len(result.Records)),
			slog.Duration("duration", result.Duration))
	}
	if r.metrics != nil {
		r.metrics.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) run(ctx context.Context, result *RunResult) error {
	var raw dataprocessing.RawTable
	err := r.stage(ctx, result.RunID, domain.StageFetch, func(ctx context.Context) (int, map[string]any, error) {
		loaded, err := r.fetcher.Load(ctx)
		if err != nil {
			return 0, nil, err
		}
		raw = loaded.Table
		result.Source = loaded.Source
		result.FellBack = loaded.FellBack

		details := map[string]any{"source": loaded.Source, "fell_back": loaded.FellBack}
		if loaded.Cause != nil {
			details["cause"] = loaded.Cause.Error()
		}
		return raw.Len(), details, nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, result.RunID, domain.StageNormalize, func(ctx context.Context) (int, map[string]any, error) {
		normalized, err := r.normalizer.Normalize(raw)
		if err != nil {
			return 0, nil, err
		}
		result.Records = normalized.Records
		result.Report = normalized.Report
		r.recordRows(ctx, normalized.Report)

		return len(normalized.Records), map[string]any{
			"rows_in": normalized.Report.RowsIn,
			"dropped": normalized.Report.Dropped(),
		}, nil
	})
	if err != nil {
		return err
	}

	if r.persister == nil || r.outputPath == "" {
		return nil
	}
	return r.stage(ctx, result.RunID, domain.StagePersist, func(ctx context.Context) (int, map[string]any, error) {
		if err := r.persister.Save(ctx, r.outputPath, result.Records); err != nil {
			return 0, nil, err
		}
		result.OutputPath = r.outputPath
		return len(result.Records), map[string]any{"path": r.outputPath}, nil
	})
}

type stageFunc func(ctx context.Context) (rows int, details map[string]any, err error)

func (r *Runner) stage(ctx context.Context, runID string, stage domain.PipelineStage, fn stageFunc) error {
	ctx, span := r.tracer.Start(ctx, "pipeline.stage."+string(stage),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.String("pipeline.stage", string(stage)),
		),
	)
	defer span.End()

	r.publish(runID, stage, domain.StatusStarted, "", 0, nil)

	start := time.Now()
	rows, details, err := fn(ctx)
	elapsed := time.Since(start)

	if r.metrics != nil {
		r.metrics.RecordStage(ctx, string(stage), elapsed, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.publish(runID, stage, domain.StatusFailed, err.Error(), 0, details)
		return fmt.Errorf("%s stage: %w", stage, err)
	}

	span.SetAttributes(attribute.Int("pipeline.rows", rows))
	r.publish(runID, stage, domain.StatusCompleted, "", rows, details)
	r.logger.DebugContext(ctx, "stage completed",
		slog.String("stage", string(stage)),
		slog.Int("rows", rows),
		slog.Duration("duration", elapsed))
	return nil
}

func (r *Runner) recordRows(ctx context.Context, report dataprocessing.Report) {
	if r.metrics == nil {
		return
	}
	r.metrics.RowsIn.Add(ctx, int64(report.RowsIn))
	for reason, n := range report.Dropped() {
		r.metrics.RecordDropped(ctx, reason, n)
	}
	r.metrics.RowsOut.Add(ctx, int64(report.RowsOut))
}

func (r *Runner) publish(runID string, stage domain.PipelineStage, status domain.StageStatus, msg string, rows int, details map[string]any) {
	r.sink.Publish(domain.PipelineEvent{
		RunID:     runID,
		Stage:     stage,
		Status:    status,
		Message:   msg,
		Rows:      rows,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

// NopSink discards events.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(domain.PipelineEvent) {}
