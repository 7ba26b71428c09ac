// Package services implements the business logic layer behind the HTTP
// handlers.
//
// # DatasetService
//
// DatasetService owns the canonical dataset for the lifetime of the process.
// The first caller loads it, from the cleaned file when one exists and by
// running the pipeline otherwise. Concurrent first callers share that one
// load. Reload reruns the pipeline and swaps the dataset in atomically;
// readers never observe a partially built dataset.
//
// Query methods apply an analytics.Filter to the current dataset and hand
// the result to the analytics package:
//
//	svc := services.NewDatasetService(runner, services.WithCleanedFile(store, cfg.Paths.CleanedPath))
//	summary, err := svc.Summary(ctx, analytics.Filter{Categories: []string{"TWO_WHEELER"}})
//
// # HealthService
//
// HealthService reports liveness, readiness and version information.
// Readiness requires the dataset to be loaded.
package services
