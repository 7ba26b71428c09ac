// Package dataprocessing turns heterogeneous registration tables into the
// canonical registration schema.
//
// # Architecture
//
// The package has two halves:
//
// 1. Readers: ReadFile, ReadCSV and ReadXLSX decode files into a RawTable
// 2. Normalizer: infers columns, coerces values, filters and aggregates rows
//
// # Usage
//
//	raw, err := dataprocessing.ReadFile("data/raw/vehicle_data_raw.csv", "")
//	if err != nil {
//	    return err
//	}
//
//	n := dataprocessing.NewNormalizer(
//	    dataprocessing.WithRules(cfg.Schema.Rules),
//	    dataprocessing.WithCollisionPolicy(cfg.CollisionPolicy()),
//	    dataprocessing.WithLogger(logger),
//	)
//	result, err := n.Normalize(raw)
//
// # Column Inference
//
// Column names are trimmed and lower-cased, then matched against the rules in
// order; the first matching rule wins. A column already named after a
// canonical field maps to it directly, which keeps normalization idempotent.
// When several columns map to one field the collision policy picks the winner
// (keep_first, keep_last) or fails (error). Collisions are always reported.
//
// # Data Quality
//
// Unparseable dates drop the row. Non-numeric counts become 0 and negative
// counts are clamped to 0. Rows with a zero count, unknown manufacturer and
// unknown category are dropped. Every such event is counted in Report; none
// of them is an error.
package dataprocessing
