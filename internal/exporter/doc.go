// Package exporter persists canonical registration tables.
//
// The format is chosen by file extension:
//
//	.csv            UTF-8 BOM, header row, canonical column order
//	.xlsx           sheet "registrations", header row, typed cells
//	.db, .sqlite    table "registrations" indexed on date
//
// CSVWriter is the low-level CSV writer with streaming support. Exporter
// dispatches Save and Load by extension; loading a CSV or XLSX file runs it
// back through the normalizer, which leaves canonical input unchanged.
//
// Example usage:
//
//	exp := exporter.New(logger)
//	if err := exp.Save(ctx, "data/processed/vehicle_data_cleaned.xlsx", records); err != nil {
//	    return err
//	}
//	records, err := exp.Load(ctx, "data/processed/vehicle_data_cleaned.xlsx")
package exporter
