package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vahanpulse/internal/analytics"
	"vahanpulse/internal/app"
	"vahanpulse/internal/config"
	"vahanpulse/internal/dataprocessing"
	apierrors "vahanpulse/internal/errors"
	"vahanpulse/internal/exporter"
	"vahanpulse/internal/sources"
	"vahanpulse/pkg/contracts/domain"
)

func newFetchCmd(root *rootOptions) *cobra.Command {
	var url, out string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the raw registration table",
		Long: `Fetch the raw table from the configured source and save it as CSV.

Examples:
  vahan fetch
  vahan fetch --url https://example.org/export.csv --out data/raw/custom.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if url != "" {
				cfg.Source.Kind = config.SourceURL
				cfg.Source.URL = url
			}
			if out == "" {
				out = cfg.Paths.RawPath
			}
			logger := cliLogger(cfg, cmd.ErrOrStderr())

			src, err := sources.NewSource(cmd.Context(), cfg.Source, logger)
			if err != nil {
				return err
			}
			var opts []sources.LoaderOption
			if cfg.Source.FallbackToSample && cfg.Source.Kind != config.SourceSample {
				opts = append(opts, sources.WithFallback(sources.SampleOptionsFrom(cfg.Source)))
			}
			opts = append(opts, sources.WithRawPath(out))

			res, err := sources.NewLoader(src, logger, opts...).Load(cmd.Context())
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			p.heading("Fetched raw table")
			p.field("Source", res.Source)
			if res.FellBack {
				p.warn("Primary source failed, sample dataset used: " + res.Cause.Error())
			}
			p.field("Rows", fmt.Sprint(res.Table.Len()))
			p.field("Columns", fmt.Sprint(len(res.Table.Columns)))
			p.field("Saved", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "CSV export URL (overrides the configured source)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output CSV path (default: paths.raw_path)")
	return cmd
}

func newSampleCmd(root *rootOptions) *cobra.Command {
	var (
		months int
		seed   int64
		out    string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate the deterministic sample dataset",
		Long: `Generate the synthetic monthly registration table used when the primary
source is unreachable, and save it as CSV. The same seed always yields the
same table.

Examples:
  vahan sample
  vahan sample --months 24 --seed 7 --out sample.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.Paths.RawPath
			}
			logger := cliLogger(cfg, cmd.ErrOrStderr())

			table := sources.GenerateSample(sources.SampleOptions{Months: months, Seed: seed})
			if err := exporter.NewCSVWriter(logger).WriteCSV(out, exporter.WriteOptions{
				Headers:   table.Columns,
				Records:   table.Rows(),
				BOMPrefix: true,
			}); err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			p.heading("Generated sample dataset")
			p.field("Rows", fmt.Sprint(table.Len()))
			p.field("Saved", out)
			return nil
		},
	}

	defaults := config.Default().Source
	cmd.Flags().IntVar(&months, "months", defaults.SampleMonths, "Number of months to generate")
	cmd.Flags().Int64Var(&seed, "seed", defaults.SampleSeed, "Random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output CSV path (default: paths.raw_path)")
	return cmd
}

func newCleanCmd(root *rootOptions) *cobra.Command {
	var in, out, sheet string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Normalize a raw table into the canonical schema",
		Long: `Read a raw CSV or XLSX table, infer its columns, coerce and aggregate
the rows and write the canonical table. The output format follows the
extension of --out (.csv, .xlsx, .db).

Examples:
  vahan clean
  vahan clean --in raw.xlsx --sheet Registrations --out cleaned.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if in == "" {
				in = cfg.Paths.RawPath
			}
			if out == "" {
				out = cfg.Paths.CleanedPath
			}
			logger := cliLogger(cfg, cmd.ErrOrStderr())

			raw, err := dataprocessing.ReadFile(in, sheet)
			if err != nil {
				return fmt.Errorf("read %s: %w", in, err)
			}

			normalizer := dataprocessing.NewNormalizer(
				dataprocessing.WithRules(cfg.Schema.Rules),
				dataprocessing.WithCollisionPolicy(cfg.CollisionPolicy()),
				dataprocessing.WithLogger(logger),
			)
			result, err := normalizer.Normalize(raw)
			if err != nil {
				return err
			}

			if err := exporter.New(logger).Save(cmd.Context(), out, result.Records); err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			p.heading("Normalized " + in)
			p.report(result.Report)
			p.field("Saved", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Raw CSV or XLSX path (default: paths.raw_path)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Cleaned output path (default: paths.cleaned_path)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name for XLSX input (default: first sheet)")
	return cmd
}

func newRunCmd(root *rootOptions) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, normalize and persist in one pass",
		Long: `Run the full pipeline: fetch from the configured source (falling back to
the sample dataset when enabled), normalize, and write the cleaned table.

Examples:
  vahan run
  vahan run --url https://example.org/export.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if url != "" {
				cfg.Source.Kind = config.SourceURL
				cfg.Source.URL = url
			}
			if err := cfg.Paths.EnsureDirectories(); err != nil {
				return err
			}
			logger := cliLogger(cfg, cmd.ErrOrStderr())

			runner, _, err := app.NewPipeline(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			res, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			p.heading("Pipeline run " + res.RunID)
			p.field("Source", res.Source)
			if res.FellBack {
				p.warn("Primary source failed, sample dataset used")
			}
			p.report(res.Report)
			p.field("Saved", res.OutputPath)
			p.field("Duration", res.Duration.Round(time.Millisecond).String())
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "CSV export URL (overrides the configured source)")
	return cmd
}

// loadCleaned reads the canonical table at in, defaulting to the cleaned path.
func loadCleaned(cmd *cobra.Command, root *rootOptions, in string) ([]domain.Registration, error) {
	cfg, err := root.load()
	if err != nil {
		return nil, err
	}
	if in == "" {
		in = cfg.Paths.CleanedPath
	}
	records, err := exporter.New(cliLogger(cfg, cmd.ErrOrStderr())).Load(cmd.Context(), in)
	if apierrors.IsType(err, apierrors.ErrTypeNotFound) {
		return nil, fmt.Errorf("%s not found; run `vahan run` or `vahan clean` first", in)
	}
	return records, err
}

func newSummaryCmd(root *rootOptions) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show headline growth metrics",
		Long: `Print total registrations, the latest year-over-year and
quarter-over-quarter growth and the category mix of a cleaned table.

Examples:
  vahan summary
  vahan summary --in data/processed/vehicle_data_cleaned.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadCleaned(cmd, root, in)
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			p.summary(analytics.Summarize(records))
			p.categoryShares(analytics.CategoryShare(records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Cleaned table path (default: paths.cleaned_path)")
	return cmd
}

func newTopCmd(root *rootOptions) *cobra.Command {
	var (
		in         string
		n          int
		start, end string
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank manufacturers by registrations",
		Long: `Rank manufacturers by total registrations, optionally inside an inclusive
date window. Equal totals are ordered by name.

Examples:
  vahan top
  vahan top -n 5 --start 2023-01-01 --end 2023-12-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := parseWindow(start, end)
			if err != nil {
				return err
			}
			records, err := loadCleaned(cmd, root, in)
			if err != nil {
				return err
			}

			newPrinter(cmd.OutOrStdout()).ranking(analytics.TopManufacturers(records, n, window))
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Cleaned table path (default: paths.cleaned_path)")
	cmd.Flags().IntVarP(&n, "n", "n", 10, "Number of manufacturers")
	cmd.Flags().StringVar(&start, "start", "", "Window start, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Window end, YYYY-MM-DD")
	return cmd
}

// parseWindow builds the ranking window. Both bounds empty means all time;
// a zero bound is open.
func parseWindow(start, end string) (*domain.Window, error) {
	if start == "" && end == "" {
		return nil, nil
	}

	window := &domain.Window{}
	if start != "" {
		t, err := time.Parse(domain.DateLayout, start)
		if err != nil {
			return nil, fmt.Errorf("invalid --start %q: want YYYY-MM-DD", start)
		}
		window.Start = t
	}
	if end != "" {
		t, err := time.Parse(domain.DateLayout, end)
		if err != nil {
			return nil, fmt.Errorf("invalid --end %q: want YYYY-MM-DD", end)
		}
		window.End = t
	}
	if !window.End.IsZero() && window.End.Before(window.Start) {
		return nil, fmt.Errorf("--end %s is before --start %s", end, start)
	}
	return window, nil
}
