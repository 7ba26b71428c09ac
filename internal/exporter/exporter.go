package exporter

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"vahanpulse/internal/dataprocessing"
	apierrors "vahanpulse/internal/errors"
	"vahanpulse/pkg/contracts/domain"
)

// Exporter saves and loads canonical tables by file extension.
type Exporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// New returns an Exporter.
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &Exporter{csv: NewCSVWriter(logger), logger: logger}
}

// Save writes records to path in the format its extension names.
func (e *Exporter) Save(ctx context.Context, path string, records []domain.Registration) error {
	format, err := FormatOf(path)
	if err != nil {
		return apierrors.NewAppValidationError("cannot save "+path, err)
	}

	switch format {
	case FormatCSV:
		err = e.csv.WriteRegistrations(path, records)
	case FormatXLSX:
		err = WriteXLSX(path, records)
	case FormatSQLite:
		err = saveSQLite(ctx, path, records)
	}
	if err != nil {
		return apierrors.NewStorageError("failed to save dataset", err).
			WithContext("path", path).
			WithContext("format", string(format))
	}

	e.logger.InfoContext(ctx, "dataset saved",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("records", len(records)))
	return nil
}

// Load reads a persisted canonical table. CSV and XLSX files go through the
// reader and normalizer, so any file the normalizer accepts loads.
func (e *Exporter) Load(ctx context.Context, path string) ([]domain.Registration, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, apierrors.NewAppValidationError("cannot load "+path, err)
	}
	// opening a missing SQLite path would create an empty database
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, apierrors.NewNotFoundError(path)
	}

	if format == FormatSQLite {
		store, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, apierrors.NewStorageError("failed to open dataset", err).WithContext("path", path)
		}
		defer store.Close()

		records, err := store.Registrations(ctx)
		if err != nil {
			return nil, apierrors.NewStorageError("failed to read dataset", err).WithContext("path", path)
		}
		return records, nil
	}

	raw, err := dataprocessing.ReadFile(path, "")
	if err != nil {
		return nil, err
	}
	result, err := dataprocessing.NewNormalizer(dataprocessing.WithLogger(e.logger)).Normalize(raw)
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

func saveSQLite(ctx context.Context, path string, records []domain.Registration) error {
	store, err := OpenSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Replace(ctx, records)
}
