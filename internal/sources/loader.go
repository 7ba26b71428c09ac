package sources

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"vahanpulse/internal/config"
	"vahanpulse/internal/dataprocessing"
	apierrors "vahanpulse/internal/errors"
	"vahanpulse/internal/exporter"
)

// LoadResult is a fetched raw table and where it came from.
type LoadResult struct {
	Table    dataprocessing.RawTable
	Source   string
	FellBack bool
	// Cause is the primary source error when FellBack is set.
	Cause error
}

// Loader fetches from the primary source, falling back to the sample.
type Loader struct {
	primary  Source
	fallback *SampleSource
	rawPath  string
	csv      *exporter.CSVWriter
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFallback enables falling back to the generated sample.
func WithFallback(opts SampleOptions) LoaderOption {
	return func(l *Loader) {
		l.fallback = &SampleSource{Options: opts}
	}
}

// WithRawPath saves every fetched table as CSV at path.
func WithRawPath(path string) LoaderOption {
	return func(l *Loader) {
		l.rawPath = path
	}
}

// NewLoader creates a loader for primary.
func NewLoader(primary Source, logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		primary: primary,
		logger:  logger.With(slog.String("component", "loader")),
	}
	l.csv = exporter.NewCSVWriter(l.logger)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewLoaderFromConfig builds the source the configuration selects.
func NewLoaderFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Loader, error) {
	src, err := NewSource(ctx, cfg.Source, logger)
	if err != nil {
		return nil, err
	}

	var opts []LoaderOption
	if cfg.Source.FallbackToSample && cfg.Source.Kind != config.SourceSample {
		opts = append(opts, WithFallback(SampleOptionsFrom(cfg.Source)))
	}
	if cfg.Paths.SaveRaw {
		opts = append(opts, WithRawPath(cfg.Paths.RawPath))
	}
	return NewLoader(src, logger, opts...), nil
}

// NewSource builds the configured source.
func NewSource(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (Source, error) {
	switch cfg.Kind {
	case config.SourceURL, "":
		return URLSource{
			Fetcher: NewHTTPFetcher(WithTimeout(cfg.Timeout), WithHTTPLogger(logger)),
			URL:     cfg.URL,
		}, nil
	case config.SourceSheets:
		return NewSheetsSource(ctx, SheetsOptions{
			SpreadsheetID:   cfg.SpreadsheetID,
			Range:           cfg.SheetRange,
			APIKey:          cfg.APIKey,
			CredentialsFile: cfg.CredentialsFile,
		}, logger)
	case config.SourceFile:
		return FileSource{Path: cfg.FilePath, Sheet: cfg.Sheet}, nil
	case config.SourceSample:
		return SampleSource{Options: SampleOptionsFrom(cfg)}, nil
	default:
		return nil, apierrors.NewConfigError(fmt.Sprintf("unknown source kind %q", cfg.Kind), nil)
	}
}

// SampleOptionsFrom reads the sample settings of cfg.
func SampleOptionsFrom(cfg config.SourceConfig) SampleOptions {
	return SampleOptions{Months: cfg.SampleMonths, Seed: cfg.SampleSeed}
}

// Load fetches the raw table.
func (l *Loader) Load(ctx context.Context) (*LoadResult, error) {
	start := time.Now()
	table, err := l.primary.Fetch(ctx)
	if err == nil {
		l.logger.InfoContext(ctx, "raw table fetched",
			slog.String("source", l.primary.Name()),
			slog.Int("rows", table.Len()),
			slog.Duration("duration", time.Since(start)))
		if err := l.saveRaw(ctx, l.primary, table); err != nil {
			return nil, err
		}
		return &LoadResult{Table: table, Source: l.primary.Name()}, nil
	}

	if l.fallback == nil || ctx.Err() != nil {
		return nil, fmt.Errorf("fetch from %s: %w", l.primary.Name(), err)
	}

	l.logger.WarnContext(ctx, "primary source failed, falling back to sample dataset",
		slog.String("source", l.primary.Name()),
		slog.String("error", err.Error()))

	table, fbErr := l.fallback.Fetch(ctx)
	if fbErr != nil {
		return nil, fmt.Errorf("fetch sample: %w", fbErr)
	}
	if err := l.saveRaw(ctx, l.fallback, table); err != nil {
		return nil, err
	}
	return &LoadResult{Table: table, Source: l.fallback.Name(), FellBack: true, Cause: err}, nil
}

func (l *Loader) saveRaw(ctx context.Context, src Source, table dataprocessing.RawTable) error {
	if l.rawPath == "" {
		return nil
	}
	if fs, ok := src.(FileSource); ok && samePath(fs.Path, l.rawPath) {
		return nil
	}

	if err := l.csv.WriteCSV(l.rawPath, exporter.WriteOptions{
		Headers:   table.Columns,
		Records:   table.Rows(),
		BOMPrefix: true,
	}); err != nil {
		return apierrors.NewStorageError("failed to save raw table", err).WithContext("path", l.rawPath)
	}
	l.logger.InfoContext(ctx, "raw table saved", slog.String("path", l.rawPath))
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
