// Package sources fetches raw registration tables.
//
// A Source yields one RawTable per Fetch. URLSource downloads a CSV export
// over HTTP, SheetsSource reads a range through the Google Sheets API v4,
// FileSource reads a local CSV or XLSX file and SampleSource generates a
// deterministic synthetic dataset.
//
// Loader wraps the configured source. When it fails and fallback is
// enabled, Loader logs the failure and returns the generated sample instead.
package sources
