package sources

import (
	"context"

	"vahanpulse/internal/dataprocessing"
)

// Source fetches a raw table.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (dataprocessing.RawTable, error)
}

// FileSource reads a local CSV or XLSX file.
type FileSource struct {
	Path  string
	Sheet string
}

// Name implements Source.
func (s FileSource) Name() string { return "file" }

// Fetch implements Source.
func (s FileSource) Fetch(ctx context.Context) (dataprocessing.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return dataprocessing.RawTable{}, err
	}
	return dataprocessing.ReadFile(s.Path, s.Sheet)
}

// SampleSource generates the synthetic dataset.
type SampleSource struct {
	Options SampleOptions
}

// Name implements Source.
func (s SampleSource) Name() string { return "sample" }

// Fetch implements Source.
func (s SampleSource) Fetch(ctx context.Context) (dataprocessing.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return dataprocessing.RawTable{}, err
	}
	return GenerateSample(s.Options), nil
}
