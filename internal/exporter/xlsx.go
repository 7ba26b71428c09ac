package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"vahanpulse/pkg/contracts/domain"
)

// RegistrationsSheet is the worksheet name of exported workbooks.
const RegistrationsSheet = "registrations"

// WriteXLSX writes records to a single-sheet workbook. Year and registrations
// are numeric cells; the date is a YYYY-MM-DD text cell.
func WriteXLSX(path string, records []domain.Registration) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RegistrationsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(RegistrationsSheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	header := make([]any, len(domain.CanonicalColumns))
	for i, c := range domain.CanonicalColumns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Date.Format(domain.DateLayout),
			r.Year,
			r.Quarter,
			string(r.VehicleCategory),
			r.Manufacturer,
			r.Registrations,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
