// Package shared holds helpers used across the vahanpulse packages that do not
// belong to a single layer.
//
// The testutil subpackage provides a capturing slog handler and canonical
// registration fixtures:
//
//	logger, logs := testutil.NewTestLogger(t)
//	records := testutil.SampleRegistrations(t)
//
// testutil may only depend on pkg/contracts so that any internal package can
// use it from in-package tests without import cycles.
package shared
