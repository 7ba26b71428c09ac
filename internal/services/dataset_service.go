package services

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"vahanpulse/internal/analytics"
	"vahanpulse/internal/config"
	"vahanpulse/internal/dataprocessing"
	apierrors "vahanpulse/internal/errors"
	"vahanpulse/internal/pipeline"
	"vahanpulse/pkg/contracts/domain"
)

// PipelineRunner produces a fresh canonical dataset.
type PipelineRunner interface {
	Run(ctx context.Context) (*pipeline.RunResult, error)
}

// DatasetStore reads a persisted canonical table.
type DatasetStore interface {
	Load(ctx context.Context, path string) ([]domain.Registration, error)
}

// Dataset is an immutable snapshot of the canonical table.
type Dataset struct {
	Records  []domain.Registration
	LoadedAt time.Time
	// Origin is "file" for a cleaned file or the pipeline source name.
	Origin   string
	FellBack bool
	RunID    string
	Report   *dataprocessing.Report
}

// DatasetStatus summarizes the cached dataset for health checks.
type DatasetStatus struct {
	Loaded    bool       `json:"loaded"`
	Records   int        `json:"records"`
	Origin    string     `json:"origin,omitempty"`
	FellBack  bool       `json:"fell_back"`
	LoadedAt  *time.Time `json:"loaded_at,omitempty"`
	Reloading bool       `json:"reloading"`
}

// DatasetService memoizes the dataset and answers dashboard queries.
type DatasetService struct {
	runner      PipelineRunner
	store       DatasetStore
	cleanedPath string
	logger      *slog.Logger

	mu        sync.RWMutex
	current   *Dataset
	loads     singleflight.Group
	reloading atomic.Bool
}

// DatasetOption configures a DatasetService.
type DatasetOption func(*DatasetService)

// WithCleanedFile makes the first load read path through store when the file exists.
func WithCleanedFile(store DatasetStore, path string) DatasetOption {
	return func(s *DatasetService) {
		s.store = store
		s.cleanedPath = path
	}
}

// WithDatasetLogger sets the logger.
func WithDatasetLogger(logger *slog.Logger) DatasetOption {
	return func(s *DatasetService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDatasetService creates the service. runner may be nil when the
// dataset only comes from the cleaned file.
func NewDatasetService(runner PipelineRunner, opts ...DatasetOption) *DatasetService {
	s := &DatasetService{
		runner: runner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "dataset_service"))
	return s
}

const loadKey = "dataset"

// Dataset returns a copy of the cached dataset, loading it on first use.
func (s *DatasetService) Dataset(ctx context.Context) (*Dataset, error) {
	ds, err := s.cached(ctx)
	if err != nil {
		return nil, err
	}
	return ds.clone(), nil
}

// cached returns the shared snapshot. Callers must not modify it.
func (s *DatasetService) cached(ctx context.Context) (*Dataset, error) {
	if ds := s.snapshot(); ds != nil {
		return ds, nil
	}

	ch := s.loads.DoChan(loadKey, func() (interface{}, error) {
		if ds := s.snapshot(); ds != nil {
			return ds, nil
		}
		return s.load(context.WithoutCancel(ctx), false)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	}
}

// Reload reruns the pipeline and replaces the cached dataset. It returns
// ErrReloadInProgress while another reload runs.
func (s *DatasetService) Reload(ctx context.Context) (*Dataset, error) {
	if !s.reloading.CompareAndSwap(false, true) {
		return nil, ErrReloadInProgress
	}
	defer s.reloading.Store(false)

	ds, err := s.load(context.WithoutCancel(ctx), true)
	if err != nil {
		return nil, err
	}
	return ds.clone(), nil
}

// Status reports the cached dataset without loading it.
func (s *DatasetService) Status() DatasetStatus {
	status := DatasetStatus{Reloading: s.reloading.Load()}
	if ds := s.snapshot(); ds != nil {
		loadedAt := ds.LoadedAt
		status.Loaded = true
		status.Records = len(ds.Records)
		status.Origin = ds.Origin
		status.FellBack = ds.FellBack
		status.LoadedAt = &loadedAt
	}
	return status
}

func (d *Dataset) clone() *Dataset {
	out := *d
	out.Records = slices.Clone(d.Records)
	if d.Report != nil {
		report := *d.Report
		out.Report = &report
	}
	return &out
}

func (s *DatasetService) snapshot() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *DatasetService) load(ctx context.Context, forcePipeline bool) (*Dataset, error) {
	start := time.Now()

	var (
		ds  *Dataset
		err error
	)
	if !forcePipeline && s.store != nil && s.cleanedPath != "" && config.FileExists(s.cleanedPath) {
		ds, err = s.loadFile(ctx)
		if err != nil && s.runner != nil {
			s.logger.WarnContext(ctx, "cleaned file unreadable, running pipeline",
				slog.String("path", s.cleanedPath),
				slog.String("error", err.Error()))
			ds, err = s.runPipeline(ctx)
		}
	} else {
		ds, err = s.runPipeline(ctx)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "dataset load failed", slog.String("error", err.Error()))
		return nil, apierrors.NewUnavailableError("dataset unavailable", err)
	}

	s.mu.Lock()
	s.current = ds
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("origin", ds.Origin),
		slog.Bool("fell_back", ds.FellBack),
		slog.Int("records", len(ds.Records)),
		slog.Duration("duration", time.Since(start)))
	return ds, nil
}

func (s *DatasetService) loadFile(ctx context.Context) (*Dataset, error) {
	records, err := s.store.Load(ctx, s.cleanedPath)
	if err != nil {
		return nil, err
	}
	return &Dataset{Records: records, LoadedAt: time.Now(), Origin: "file"}, nil
}

func (s *DatasetService) runPipeline(ctx context.Context) (*Dataset, error) {
	if s.runner == nil {
		return nil, ErrNoRunner
	}
	res, err := s.runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	report := res.Report
	return &Dataset{
		Records:  res.Records,
		LoadedAt: time.Now(),
		Origin:   res.Source,
		FellBack: res.FellBack,
		RunID:    res.RunID,
		Report:   &report,
	}, nil
}

// filtered returns the matching records. The result may share the cached
// slice, so it is read-only.
func (s *DatasetService) filtered(ctx context.Context, f analytics.Filter) ([]domain.Registration, error) {
	ds, err := s.cached(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(ds.Records), nil
}

// Records returns a copy of the filtered canonical records in table order.
func (s *DatasetService) Records(ctx context.Context, f analytics.Filter) ([]domain.Registration, error) {
	records, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	return slices.Clone(records), nil
}

// Summary returns the headline metrics of the filtered dataset.
func (s *DatasetService) Summary(ctx context.Context, f analytics.Filter) (domain.SummaryMetrics, error) {
	records, err := s.filtered(ctx, f)
	if err != nil {
		return domain.SummaryMetrics{}, err
	}
	return analytics.Summarize(records), nil
}

// Yearly returns yearly aggregates of the filtered dataset.
func (s *DatasetService) Yearly(ctx context.Context, f analytics.Filter, keys ...analytics.GroupKey) ([]domain.PeriodAggregate, error) {
	records, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.AggregateByYear(records, keys...)
}

// Quarterly returns quarterly aggregates of the filtered dataset.
func (s *DatasetService) Quarterly(ctx context.Context, f analytics.Filter, keys ...analytics.GroupKey) ([]domain.PeriodAggregate, error) {
	records, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.AggregateByQuarter(records, keys...)
}

// TopManufacturers ranks manufacturers of the filtered dataset.
func (s *DatasetService) TopManufacturers(ctx context.Context, f analytics.Filter, n int) ([]domain.ManufacturerTotal, error) {
	window := f.Window
	f.Window = nil
	records, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.TopManufacturers(records, n, window), nil
}

// Trend returns registrations per date of the filtered dataset.
func (s *DatasetService) Trend(ctx context.Context, f analytics.Filter) ([]domain.TrendPoint, error) {
	records, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.Trend(records), nil
}

// Options lists the filter values of the whole dataset.
func (s *DatasetService) Options(ctx context.Context) (domain.FilterOptions, error) {
	ds, err := s.cached(ctx)
	if err != nil {
		return domain.FilterOptions{}, err
	}
	return analytics.Options(ds.Records), nil
}

// CategoryShare returns category shares of the filtered dataset.
func (s *DatasetService) CategoryShare(ctx context.Context, f analytics.Filter) ([]domain.CategoryShare, error) {
	records, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryShare(records), nil
}
