// Package analytics computes dashboard metrics over canonical registration
// records.
//
// Every function is pure: inputs are never modified and the same records
// always yield the same output. Degenerate inputs (no records, a single
// period, a zero baseline) resolve to zero values rather than errors.
//
// # Metrics
//
//	summary := analytics.Summarize(records)
//	yearly, err := analytics.AggregateByYear(records, analytics.GroupByCategory)
//	top := analytics.TopManufacturers(records, 10, &domain.Window{Start: start})
//
// Year-over-year compares the two most recent years present; quarter-over-quarter
// does the same over (year, quarter) pairs. Missing periods are not filled in.
package analytics
